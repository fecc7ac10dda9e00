package llm

import (
	"context"
	"fmt"

	"SalesReport/internal/config"
	"SalesReport/internal/models"
)

// Extractor 定义了抽取宿主客户端必须实现的通用接口。
// 输入是规范化后的抽取请求，输出是模型的原始文本（后续由 parser 恢复为结构化数据）。
type Extractor interface {
	Extract(ctx context.Context, req models.ExtractionRequest) (string, error)
}

// NewExtractor 是一个工厂函数，根据配置创建并返回一个实现了 Extractor 接口的客户端。
// 系统指令由选定的抽取 Schema 固定绑定，不可在运行期更换。
func NewExtractor(ctx context.Context, cfg config.GeminiConfig, schema config.ExtractionSchema) (Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}
	return NewGemini(ctx, cfg.Model, cfg.APIKey, schema.SystemInstruction)
}
