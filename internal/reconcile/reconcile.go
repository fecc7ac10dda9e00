package reconcile

import (
	"strings"
	"time"

	"SalesReport/internal/config"
	"SalesReport/internal/models"
)

// dateLayout 是操作员日期字段的出站格式。
const dateLayout = "2006-01-02"

// Reconcile 把 AI 抽取结果与操作员元数据合并为一条待提交记录。
//
// 规则（按序）:
//  1. 面谈相手前缀拼接到叙述主字段之前（只前置，绝不替换）；
//  2. 操作员提供的键覆盖写入——这些字段 AI 从未被要求产出，
//     因此同名的 AI 输出一律被覆盖；
//  3. 不属于 Schema 的 AI 输出键在此静默丢弃，缺失的键补为空串，
//     除空串外不伪造任何默认值。
//
// 客户引用必须已选择；该前置校验在调用抽取之前就应完成，这里再兜底一次。
func Reconcile(extracted models.ExtractedRecord, client models.ClientReference, meta models.OperatorMetadata, schema config.ExtractionSchema) (models.SubmissionRecord, error) {
	if client.IsZero() {
		return models.SubmissionRecord{}, models.ErrNoClientSelected
	}

	fields := make(map[string]string, len(schema.Fields)+6)
	for _, key := range schema.Fields {
		fields[key] = extracted[key]
	}

	if prefix := ContactPrefix(meta.Contacts); prefix != "" {
		fields[schema.NarrativeField] = prefix + "\n" + fields[schema.NarrativeField]
	}

	fields[config.KeyClientID] = client.ID
	fields[config.KeyActivityCategory] = meta.ActivityCategory
	fields[config.KeyNextActivityCategory] = meta.NextActivityCategory
	fields[config.KeyStaff] = meta.Staff
	fields[config.KeyActionDate] = formatDate(meta.ActionDate)
	fields[config.KeyNextActionDate] = formatDate(meta.NextActionDate)

	return models.SubmissionRecord{
		Fields: fields,
		Client: client,
		Staff:  meta.Staff,
	}, nil
}

// ContactPrefix 生成面谈相手前缀行。
// 部署・名前俱全 → "<部署>の<名前>様"；仅名前 → "<名前>様"；两者皆空的条目忽略。
// 多条之间以 "、" 连接。无有效条目时返回空串。
func ContactPrefix(contacts []models.ContactPerson) string {
	parts := make([]string, 0, len(contacts))
	for _, c := range contacts {
		dept := strings.TrimSpace(c.Department)
		name := strings.TrimSpace(c.Name)
		switch {
		case dept != "" && name != "":
			parts = append(parts, dept+"の"+name+"様")
		case name != "":
			parts = append(parts, name+"様")
		case dept != "":
			parts = append(parts, dept)
		}
	}
	return strings.Join(parts, "、")
}

// formatDate 把日历日期格式化为 YYYY-MM-DD，未设置的日期输出空串。
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
