package kintone

import (
	"SalesReport/internal/config"
	"SalesReport/internal/models"
	"SalesReport/internal/sanitize"
)

// fieldValue 包装单个字段值，对应 kintone 记录载荷的 {"value": ...} 形式。
type fieldValue struct {
	Value any `json:"value"`
}

// userEntry 是用户选择字段的单个条目。
type userEntry struct {
	Code string `json:"code"`
}

// BuildRecordPayload 把调和后的记录映射为目标 Schema 的字段代码载荷。
//
// 自由文本字段在此做出站消毒（控制字符剥离）；枚举、日期与身份代码
// 已受约束，不经过消毒。担当者代码包装为单元素的用户引用列表，未解析时
// 置空列表——绝不伪造身份。输入记录不被修改，失败重试可以原样复用。
func BuildRecordPayload(rec models.SubmissionRecord, schema config.ExtractionSchema, staffCode string) map[string]any {
	payload := make(map[string]any, len(schema.Fields)+len(config.OperatorFieldCodes)+2)

	for _, key := range schema.Fields {
		payload[schema.FieldCodes[key]] = fieldValue{Value: sanitize.Clean(rec.Fields[key])}
	}
	for key, code := range config.OperatorFieldCodes {
		payload[code] = fieldValue{Value: rec.Fields[key]}
	}

	users := []userEntry{}
	if staffCode != "" {
		users = append(users, userEntry{Code: staffCode})
	}
	payload[config.StaffFieldCode] = fieldValue{Value: users}

	if len(rec.Attachments) > 0 {
		files := make([]models.AttachmentReference, len(rec.Attachments))
		copy(files, rec.Attachments)
		payload[config.AttachmentFieldCode] = fieldValue{Value: files}
	}
	return payload
}
