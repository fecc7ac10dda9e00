package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"SalesReport/internal/config"
	"SalesReport/internal/kintone"
	"SalesReport/internal/llm"
	"SalesReport/internal/models"
	"SalesReport/internal/normalizer"
	"SalesReport/internal/parser"
	"SalesReport/internal/reconcile"
	"SalesReport/pkg/logger"
)

// RecordStore 抽象了记录存储侧的三个操作，便于在测试中替换为假实现。
// *kintone.Client 是生产实现。
type RecordStore interface {
	AddRecord(ctx context.Context, record map[string]any) (string, error)
	UploadFile(ctx context.Context, path string) (string, error)
	SearchClients(ctx context.Context, keyword string) ([]models.ClientReference, error)
}

// ReportService 实现了报告管道的核心编排：
// 规范化 → 抽取 → 恢复 →（与客户引用、操作员元数据）调和 → 消毒 → 提交。
// 数据严格向前流动，除最终的成功/失败信号外不回流。
type ReportService struct {
	cfg        *config.AppConfig
	schema     config.ExtractionSchema
	extractor  llm.Extractor
	store      RecordStore
	normalizer *normalizer.Normalizer

	// 草稿在抽取与提交之间由调用层持有，进程退出即丢失。
	// 互斥锁只保护 map 本身；单个草稿是单所有者的，不存在并发修改。
	mu     sync.Mutex
	drafts map[string]*models.ReportDraft
}

// NewReportService 创建报告服务。
func NewReportService(cfg *config.AppConfig, schema config.ExtractionSchema, extractor llm.Extractor, store RecordStore, norm *normalizer.Normalizer) *ReportService {
	return &ReportService{
		cfg:        cfg,
		schema:     schema,
		extractor:  extractor,
		store:      store,
		normalizer: norm,
		drafts:     make(map[string]*models.ReportDraft),
	}
}

// Schema 返回启动时选定的抽取 Schema。
func (s *ReportService) Schema() config.ExtractionSchema {
	return s.schema
}

// SearchClients 按关键字检索客户主数据。检索失败降级为空结果加诊断信息，
// 绝不使整体流程失败。
func (s *ReportService) SearchClients(ctx context.Context, keyword string) ([]models.ClientReference, string) {
	clients, err := s.store.SearchClients(ctx, keyword)
	if err != nil {
		logger.New("report_service", "").Warn(fmt.Sprintf("顧客検索に失敗しました: %v", err))
		return []models.ClientReference{}, err.Error()
	}
	if clients == nil {
		clients = []models.ClientReference{}
	}
	return clients, ""
}

// Extract 执行管道的前半段：规范化输入、调用抽取宿主、恢复结构化字段，
// 并把结果存为一份新草稿。任一阶段失败都返回分类后的错误，不产生草稿。
func (s *ReportService) Extract(ctx context.Context, blob *models.FileBlob, memo string) (*models.ReportDraft, error) {
	draftID := uuid.NewString()
	log := logger.New("report_service", draftID)

	req, savedPath, err := s.normalizer.Normalize(ctx, blob, memo)
	if err != nil {
		return nil, err
	}
	log.WithPayload(map[string]interface{}{"kind": string(req.Kind)}).Info("入力を正規化しました")

	raw, err := s.extractor.Extract(ctx, req)
	if err != nil {
		log.Error(fmt.Sprintf("AI処理に失敗しました: %v", err))
		return nil, err
	}

	extracted, err := parser.Recover(raw)
	if err != nil {
		log.Error(fmt.Sprintf("モデル出力の解析に失敗しました: %v", err))
		return nil, err
	}
	log.Info("データ抽出が完了しました")

	draft := &models.ReportDraft{
		ID:        draftID,
		Request:   req,
		SavedPath: savedPath,
		Raw:       raw,
		Extracted: extracted,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.drafts[draftID] = draft
	s.mu.Unlock()
	return draft, nil
}

// Draft 返回指定 ID 的草稿。
func (s *ReportService) Draft(id string) (*models.ReportDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	return draft, ok
}

// Submit 执行管道的后半段：调和、附件上传、记录提交。
//
// 成功时草稿被立即清除并返回存储侧分配的记录 ID。失败时草稿与调和后的
// 记录原样保留，操作员可以在不重跑抽取的情况下重试。附件上传成功而记录
// 提交失败会留下孤儿 blob（已接受的风险）。不做自动重试。
func (s *ReportService) Submit(ctx context.Context, draftID string, client models.ClientReference, meta models.OperatorMetadata) (string, error) {
	s.mu.Lock()
	draft, ok := s.drafts[draftID]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("下書きが見つかりません: %s", draftID)
	}
	log := logger.New("report_service", draftID)

	record, err := reconcile.Reconcile(draft.Extracted, client, meta, s.schema)
	if err != nil {
		return "", err
	}

	// 上一次尝试已经取得的附件句柄直接复用，避免重试时重复上传。
	if draft.Record != nil && len(draft.Record.Attachments) > 0 {
		record.Attachments = draft.Record.Attachments
	} else if draft.SavedPath != "" {
		fileKey, err := s.store.UploadFile(ctx, draft.SavedPath)
		if err != nil {
			log.Error(fmt.Sprintf("添付ファイルのアップロードに失敗しました: %v", err))
			draft.Record = &record
			return "", err
		}
		record.Attachments = []models.AttachmentReference{{FileKey: fileKey}}
	}

	staffCode, resolved := s.cfg.StaffCode(meta.Staff)
	if !resolved && meta.Staff != "" {
		log.Warn(fmt.Sprintf("担当者コードが解決できませんでした: %s", meta.Staff))
	}

	payload := kintone.BuildRecordPayload(record, s.schema, staffCode)
	recordID, err := s.store.AddRecord(ctx, payload)
	if err != nil {
		log.Error(fmt.Sprintf("レコード登録に失敗しました: %v", err))
		draft.Record = &record
		return "", err
	}

	log.WithPayload(map[string]interface{}{"record_id": recordID}).Info("Kintoneにレコードを登録しました")
	s.mu.Lock()
	delete(s.drafts, draftID)
	s.mu.Unlock()
	return recordID, nil
}
