package models

import "time"

// RequestKind 标识抽取请求的输入组合模式。
type RequestKind string

const (
	RequestAudioOnly    RequestKind = "audio_only"     // 仅音频输入。
	RequestTextOnly     RequestKind = "text_only"      // 仅文本输入。
	RequestAudioAndText RequestKind = "audio_and_text" // 音频 + 文本输入（文本优先）。
)

// FileBlob 表示操作员上传的原始文件（音频或 .txt 备忘）。
type FileBlob struct {
	Name string // 原始文件名（含扩展名）。
	Data []byte // 文件内容。
}

// ExtractionRequest 是规范化后的抽取请求。三种模式中，音频与文本至少存在其一，
// 由 NewExtractionRequest 构造时保证。
type ExtractionRequest struct {
	Kind      RequestKind // 输入组合模式。
	AudioPath string      // 本地保存后的音频文件路径（音频模式下非空）。
	MIMEType  string      // 音频的 MIME 类型（通过内容嗅探得到）。
	Text      string      // 文本输入（文本模式下非空）。
}

// NewExtractionRequest 根据音频路径和文本构造一个抽取请求。
// 两者都为空时返回 ErrInvalidInput——这是调用方错误，不会发起任何下游调用。
func NewExtractionRequest(audioPath, mimeType, text string) (ExtractionRequest, error) {
	hasAudio := audioPath != ""
	hasText := text != ""
	switch {
	case hasAudio && hasText:
		return ExtractionRequest{Kind: RequestAudioAndText, AudioPath: audioPath, MIMEType: mimeType, Text: text}, nil
	case hasAudio:
		return ExtractionRequest{Kind: RequestAudioOnly, AudioPath: audioPath, MIMEType: mimeType}, nil
	case hasText:
		return ExtractionRequest{Kind: RequestTextOnly, Text: text}, nil
	default:
		return ExtractionRequest{}, ErrInvalidInput
	}
}

// ExtractedRecord 是模型输出恢复出来的字段映射。键集合由部署的抽取
// Schema 决定，值一律为字符串（可能为空串）。
type ExtractedRecord map[string]string

// Clone 返回记录的浅拷贝，避免调用方共享底层 map。
func (r ExtractedRecord) Clone() ExtractedRecord {
	out := make(ExtractedRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ClientReference 是通过客户主数据检索得到的客户引用。
// ID 是业务上的顾客编号，与记录存储内部的行 ID（RecordID）不同。
type ClientReference struct {
	ID       string `json:"id"`        // 业务顾客编号。行上缺失该字段时回退为 RecordID。
	RecordID string `json:"record_id"` // 记录存储内部的行 ID。
	Name     string `json:"name"`      // 会社名。
}

// IsZero 判断客户引用是否未选择。
func (c ClientReference) IsZero() bool {
	return c.ID == "" && c.RecordID == ""
}

// ContactPerson 是一条面谈相手（部署・名前）。两者都为空的条目不产生前缀行。
type ContactPerson struct {
	Department string `json:"department"` // 部署名（可空）。
	Name       string `json:"name"`       // 名前（可空）。
}

// OperatorMetadata 是操作员在表单上补充的元数据，全部来自固定选项或日历控件，
// AI 不负责产出这些字段。
type OperatorMetadata struct {
	ActivityCategory     string          `json:"activity_category"`      // 活動区分。
	NextActivityCategory string          `json:"next_activity_category"` // 次回活動区分。
	Staff                string          `json:"staff"`                  // 担当者表示名（经静态对照表解析为用户代码）。
	ActionDate           time.Time       `json:"action_date"`            // 活動日。
	NextActionDate       time.Time       `json:"next_action_date"`       // 次回活動日。
	Contacts             []ContactPerson `json:"contacts"`               // 面谈相手列表（有序）。
}

// AttachmentReference 是记录存储返回的上传句柄，在记录载荷中以 fileKey 引用。
type AttachmentReference struct {
	FileKey string `json:"fileKey"`
}

// SubmissionRecord 是一次提交的完整单元：AI 抽取结果与操作员元数据调和后的
// 字段映射、客户引用以及附件句柄。提交成功后立即废弃；失败时原样保留以便重试。
type SubmissionRecord struct {
	Fields      map[string]string     `json:"fields"`      // Schema 字段 + 操作员保留键。
	Client      ClientReference       `json:"client"`      // 选中的客户。
	Staff       string                `json:"staff"`       // 担当者表示名（提交时解析为用户代码）。
	Attachments []AttachmentReference `json:"attachments"` // 已上传附件的句柄。
}

// ReportDraft 是一个报告周期内由调用层持有的聚合：抽取结果与待提交记录
// 在此停留，进程退出即丢失（不做持久化）。
type ReportDraft struct {
	ID        string           `json:"id"`         // 草稿 ID。
	Request   ExtractionRequest `json:"-"`          // 规范化后的抽取请求。
	SavedPath string           `json:"saved_path"` // 本地保存的音频/文本副本路径（无上传文件时为空）。
	Raw       string           `json:"-"`          // 模型原始输出，供诊断。
	Extracted ExtractedRecord  `json:"extracted"`  // 恢复出的结构化字段。
	Record    *SubmissionRecord `json:"record,omitempty"` // 调和后的待提交记录（提交失败时保留）。
	CreatedAt time.Time        `json:"created_at"`
}
