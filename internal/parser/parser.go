package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"SalesReport/internal/models"
)

// Recover 从模型的原始输出中恢复出一个结构化记录。
//
// 尽管系统指令要求模型只输出一个 ```json 围栏块，实际输出仍可能带有
// 前言、结尾说明或裸 JSON。恢复顺序：
//  1. 存在 ```json 围栏块 → 取第一个块的内容；
//  2. 否则存在任意 ``` 围栏块 → 取第一个块的内容；
//  3. 否则取整段去除首尾空白后的文本。
// 任何解析失败（语法错误、围栏缺失闭合标记）都返回携带原始文本的
// MalformedResponseError，绝不静默回退为默认值。
func Recover(raw string) (models.ExtractedRecord, error) {
	content, err := extractFenced(raw)
	if err != nil {
		return nil, &models.MalformedResponseError{Raw: raw, Err: err}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &models.MalformedResponseError{Raw: raw, Err: err}
	}

	record := make(models.ExtractedRecord, len(parsed))
	for key, value := range parsed {
		switch v := value.(type) {
		case string:
			record[key] = v
		case nil:
			record[key] = ""
		case float64, bool:
			// 模型偶尔会把日期以外的标量输出为数字/布尔，按字符串收下。
			record[key] = fmt.Sprint(v)
		default:
			// 嵌套对象/数组不属于任何部署字段，丢弃。
		}
	}
	return record, nil
}

// extractFenced 按恢复顺序取出待解析的内容。
func extractFenced(raw string) (string, error) {
	if strings.Contains(raw, "```json") {
		return fencedContent(raw, "```json")
	}
	if strings.Contains(raw, "```") {
		return fencedContent(raw, "```")
	}
	return strings.TrimSpace(raw), nil
}

// fencedContent 返回第一个以 marker 开始的围栏块内容。
// 闭合标记缺失视为解析失败。
func fencedContent(raw, marker string) (string, error) {
	_, rest, _ := strings.Cut(raw, marker)
	body, _, found := strings.Cut(rest, "```")
	if !found {
		return "", errors.New("コードブロックの閉じマーカーが見つかりません")
	}
	return strings.TrimSpace(body), nil
}
