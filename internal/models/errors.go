package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput 表示音频与文本均未提供（或全为空白），当前尝试立即失败，
// 不会发起任何下游调用。
var ErrInvalidInput = errors.New("音声ファイルまたはテキストを入力してください")

// ErrNoClientSelected 表示未选择客户。该前置校验在调用抽取之前完成，
// 避免浪费 AI 调用。
var ErrNoClientSelected = errors.New("顧客が選択されていません")

// ExtractionError 表示抽取宿主调用失败（媒体注册或生成任一步骤）。
// 管道不自动重试，是否重试由调用方决定。
type ExtractionError struct {
	Stage string // "upload" 或 "generate"。
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("AI処理エラー (%s): %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// MalformedResponseError 表示模型输出无法恢复为结构化数据。
// Raw 携带原始文本，供操作员诊断提示词漂移。
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("JSON解析エラー: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// LookupError 表示客户检索调用失败。在服务层降级为空结果加诊断信息，
// 不会使整体流程失败。
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("顧客検索エラー: %v", e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// HTTPError 表示记录存储返回了非 2xx 状态。Body 携带响应体原文。
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("kintone APIエラー: status %d: %s", e.StatusCode, e.Body)
}

// NetworkError 表示请求未得到任何响应（连接失败、超时等）。
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("通信エラー: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
