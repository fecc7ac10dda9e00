package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"SalesReport/internal/models"
)

// 各变体的生成提示词。音频+文本模式下明确指示文本备忘优先。
const (
	audioPrompt      = "この音声ファイルの内容を聞き取り、営業報告データを抽出してください。"
	textPromptFormat = "以下のテキストから営業報告データを抽出してください:\n\n%s"

	audioAndTextPromptFormat = `音声ファイルの内容を分析し、営業報告データを抽出してください。
ただし、以下のテキストメモに記載された事実を優先してください:

【テキストメモ（優先）】
%s

音声とテキストの両方から情報を統合して、最も正確な営業報告データを作成してください。`
)

// Gemini 是一个实现了 Extractor 接口的结构体，用于与 Gemini API 交互。
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini 创建一个新的 Gemini 抽取客户端，并把固定系统指令绑定到生成模型上。
func NewGemini(ctx context.Context, model, apiKey, systemInstruction string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("GenAI クライアントの作成に失敗しました: %w", err)
	}

	generativeModel := client.GenerativeModel(model)
	generativeModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	return &Gemini{client: client, model: generativeModel}, nil
}

// Extract 执行一次抽取调用并返回模型的原始文本输出。
//
// 含音频的请求走两步握手：先把音频上传到抽取宿主换取媒体句柄，
// 再针对句柄 + 指令文本发起生成。任一步失败都包装为 ExtractionError，
// 管道不自动重试。
func (g *Gemini) Extract(ctx context.Context, req models.ExtractionRequest) (string, error) {
	var parts []genai.Part

	switch req.Kind {
	case models.RequestTextOnly:
		parts = []genai.Part{genai.Text(fmt.Sprintf(textPromptFormat, req.Text))}

	case models.RequestAudioOnly, models.RequestAudioAndText:
		opts := &genai.UploadFileOptions{MIMEType: req.MIMEType}
		file, err := g.client.UploadFileFromPath(ctx, req.AudioPath, opts)
		if err != nil {
			return "", &models.ExtractionError{Stage: "upload", Err: err}
		}
		prompt := audioPrompt
		if req.Kind == models.RequestAudioAndText {
			prompt = fmt.Sprintf(audioAndTextPromptFormat, req.Text)
		}
		parts = []genai.Part{
			genai.FileData{MIMEType: file.MIMEType, URI: file.URI},
			genai.Text(prompt),
		}

	default:
		return "", models.ErrInvalidInput
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", &models.ExtractionError{Stage: "generate", Err: err}
	}
	return responseText(resp), nil
}

// Close 关闭底层的 GenAI 客户端连接。
func (g *Gemini) Close() error {
	return g.client.Close()
}

// responseText 拼接响应首个候选中的全部文本部分。
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
