package config

import "fmt"

// 抽取 Schema 名称。两套部署字段集合共用同一条代码路径，
// 仅通过启动时选定的 ExtractionSchema 值区分。
const (
	SchemaStandard = "standard" // 最小 4 字段 Schema
	SchemaDetailed = "detailed" // 叙述型 4 字段 Schema
)

// ExtractionSchema 描述一套部署字段集合：字段列表、系统指令（提示词契约）
// 以及到 kintone 字段代码的映射。
type ExtractionSchema struct {
	Name              string            // Schema 名称
	Fields            []string          // 模型需要产出的字段键（有序）
	NarrativeField    string            // 叙述主字段（面谈相手前缀的拼接目标）
	SystemInstruction string            // 固定系统指令，不可配置
	FieldCodes        map[string]string // 字段键 → kintone 字段代码
}

// 操作员保留键。这些键由表单侧提供并在调和阶段覆盖写入，AI 永远不被要求产出。
const (
	KeyClientID             = "client_id"
	KeyActivityCategory     = "activity_category"
	KeyNextActivityCategory = "next_activity_category"
	KeyStaff                = "staff"
	KeyActionDate           = "action_date"
	KeyNextActionDate       = "next_action_date"
)

// OperatorFieldCodes 是操作员保留键到 kintone 字段代码的固定映射，
// 两套 Schema 共用。担当者（KeyStaff）不在此表：用户选择字段需要包装为
// 单元素的 {code} 列表，由提交层单独处理。
var OperatorFieldCodes = map[string]string{
	KeyClientID:             "顧客ID",
	KeyActivityCategory:     "活動区分",
	KeyNextActivityCategory: "次回活動区分",
	KeyActionDate:           "活動日",
	KeyNextActionDate:       "次回活動日",
}

// StaffFieldCode 是担当者用户选择字段的代码。
const StaffFieldCode = "担当者"

// AttachmentFieldCode 是附件字段的代码。
const AttachmentFieldCode = "添付ファイル"

const standardInstruction = `あなたは営業報告データを抽出するAIアシスタントです。
入力された情報から以下のフィールドを抽出し、厳密なJSON形式で出力してください。

## 抽出フィールド:
- date: 活動日（YYYY-MM-DD形式）。明示されていない場合は今日の日付を使用。
- customer_name: 顧客名・会社名
- activity_detail: 活動内容の要約（簡潔に）
- next_action: 次に取るべきアクション

## 出力形式:
必ず以下のJSON形式のみを出力してください。説明や前置きは不要です。
` + "```json" + `
{
    "date": "YYYY-MM-DD",
    "customer_name": "顧客名",
    "activity_detail": "活動内容の要約",
    "next_action": "次のアクション"
}
` + "```" + `

情報が不明な場合は空文字列 "" を使用してください。`

const detailedInstruction = `あなたは営業報告データを抽出するAIアシスタントです。
入力された情報から以下のフィールドを抽出し、厳密なJSON形式で出力してください。

## 抽出フィールド:
- meeting_summary: 商談内容のサマリー
- current_issues: 顧客が抱えている現状の課題
- competitor_info: 競合他社に関する情報
- next_proposal: 次回提案の内容

## 出力形式:
必ず以下のJSON形式のみを出力してください。説明や前置きは不要です。
` + "```json" + `
{
    "meeting_summary": "商談サマリー",
    "current_issues": "現状課題",
    "competitor_info": "競合情報",
    "next_proposal": "次回提案"
}
` + "```" + `

情報が不明な場合は空文字列 "" を使用してください。`

var schemas = map[string]ExtractionSchema{
	SchemaStandard: {
		Name:              SchemaStandard,
		Fields:            []string{"date", "customer_name", "activity_detail", "next_action"},
		NarrativeField:    "activity_detail",
		SystemInstruction: standardInstruction,
		FieldCodes: map[string]string{
			"date":            "日付",
			"customer_name":   "顧客名",
			"activity_detail": "活動内容",
			"next_action":     "次回アクション",
		},
	},
	SchemaDetailed: {
		Name:              SchemaDetailed,
		Fields:            []string{"meeting_summary", "current_issues", "competitor_info", "next_proposal"},
		NarrativeField:    "meeting_summary",
		SystemInstruction: detailedInstruction,
		FieldCodes: map[string]string{
			"meeting_summary": "商談サマリー",
			"current_issues":  "現状課題",
			"competitor_info": "競合情報",
			"next_proposal":   "次回提案",
		},
	},
}

// SchemaByName 返回指定名称的抽取 Schema。
func SchemaByName(name string) (ExtractionSchema, error) {
	s, ok := schemas[name]
	if !ok {
		return ExtractionSchema{}, fmt.Errorf("unsupported extraction schema: %s", name)
	}
	return s, nil
}

// HasField 判断键是否属于该 Schema 的字段集合。
func (s ExtractionSchema) HasField(key string) bool {
	for _, f := range s.Fields {
		if f == key {
			return true
		}
	}
	return false
}
