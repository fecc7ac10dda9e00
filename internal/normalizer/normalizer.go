package normalizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"SalesReport/internal/models"
	"SalesReport/pkg/logger"
)

// textSectionMarker 分隔 .txt 文件内容与单独输入的备忘文本。
const textSectionMarker = "\n\n---\n\n"

// audioExtensions 是音频路径可接受的扩展名集合（与表单上传限制一致）。
var audioExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
}

// Archiver 将本地保存的副本归档到对象存储。归档失败不阻断管道。
type Archiver interface {
	Archive(ctx context.Context, localPath string) error
}

// Normalizer 把上传文件与备忘文本规范化为一个抽取请求，并把音频/文本
// 副本落到本地保存目录。
type Normalizer struct {
	saveDir  string
	archiver Archiver // 可为 nil（未启用归档）
	log      *logger.Logger
	now      func() time.Time
}

// New 创建一个 Normalizer。archiver 传 nil 时不做对象存储归档。
func New(saveDir string, archiver Archiver) *Normalizer {
	return &Normalizer{
		saveDir:  saveDir,
		archiver: archiver,
		log:      logger.New("normalizer", ""),
		now:      time.Now,
	}
}

// Normalize 根据上传文件与备忘文本产出恰好一个抽取请求变体。
//
// 规则:
//   - 两者均缺失/空白 → ErrInvalidInput，不发生任何副作用；
//   - .txt 文件不走音频路径：内容解码后与备忘文本用分节标记合并，归入纯文本变体；
//   - 已识别的音频扩展名 → 音频变体；备忘文本同时存在时为音频+文本变体；
//   - 音频/文本副本的本地写入在此完成，写入失败视为本次尝试的致命错误，不重试。
//
// 返回值中的 savedPath 为本地副本路径（无上传文件时为空串）。
func (n *Normalizer) Normalize(ctx context.Context, blob *models.FileBlob, memo string) (models.ExtractionRequest, string, error) {
	memo = strings.TrimSpace(memo)

	if blob == nil {
		req, err := models.NewExtractionRequest("", "", memo)
		return req, "", err
	}

	ext := strings.ToLower(filepath.Ext(blob.Name))
	switch {
	case ext == ".txt":
		text := strings.TrimSpace(string(blob.Data))
		merged := text
		if text != "" && memo != "" {
			merged = text + textSectionMarker + memo
		} else if memo != "" {
			merged = memo
		}
		if merged == "" {
			return models.ExtractionRequest{}, "", models.ErrInvalidInput
		}
		savedPath, err := n.save(blob)
		if err != nil {
			return models.ExtractionRequest{}, "", err
		}
		n.archive(ctx, savedPath)
		req, err := models.NewExtractionRequest("", "", merged)
		return req, savedPath, err

	case audioExtensions[ext]:
		savedPath, err := n.save(blob)
		if err != nil {
			return models.ExtractionRequest{}, "", err
		}
		n.archive(ctx, savedPath)
		mime := mimetype.Detect(blob.Data).String()
		req, err := models.NewExtractionRequest(savedPath, mime, memo)
		return req, savedPath, err

	default:
		return models.ExtractionRequest{}, "", fmt.Errorf("%w: 未対応のファイル形式です (%s)", models.ErrInvalidInput, ext)
	}
}

// save 把上传文件写入保存目录，文件名带时间戳以避免冲突：
// <YYYYMMDD_HHMMSS>_<原始名><原始扩展名>。目录在首次写入时才创建。
func (n *Normalizer) save(blob *models.FileBlob) (string, error) {
	if err := os.MkdirAll(n.saveDir, 0o755); err != nil {
		return "", fmt.Errorf("保存ディレクトリの作成に失敗しました: %w", err)
	}

	timestamp := n.now().Format("20060102_150405")
	ext := filepath.Ext(blob.Name)
	stem := strings.TrimSuffix(filepath.Base(blob.Name), ext)
	filename := fmt.Sprintf("%s_%s%s", timestamp, stem, ext)

	path := filepath.Join(n.saveDir, filename)
	if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
		return "", fmt.Errorf("ファイルの保存に失敗しました: %w", err)
	}
	return path, nil
}

// archive 尽力归档本地副本，失败只记日志。
func (n *Normalizer) archive(ctx context.Context, path string) {
	if n.archiver == nil {
		return
	}
	if err := n.archiver.Archive(ctx, path); err != nil {
		n.log.Warn(fmt.Sprintf("アーカイブに失敗しました: %v", err))
	}
}
