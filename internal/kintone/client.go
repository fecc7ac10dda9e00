package kintone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"SalesReport/internal/config"
	"SalesReport/internal/models"
)

const defaultTimeout = 60 * time.Second

// Client 是 kintone REST API 的客户端，覆盖本系统用到的三个端点：
// 记录登录、文件上传、客户主数据检索。认证使用静态 API 令牌头。
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	reportAppID string
	clientAppID string
}

// NewClient 根据配置创建一个 kintone 客户端。
func NewClient(cfg config.KintoneConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     fmt.Sprintf("https://%s.cybozu.com", cfg.Subdomain),
		token:       cfg.APIToken,
		reportAppID: cfg.ReportAppID,
		clientAppID: cfg.ClientAppID,
	}
}

// addRecordRequest 对应 POST /k/v1/record.json 的请求体。
type addRecordRequest struct {
	App    string         `json:"app"`
	Record map[string]any `json:"record"`
}

type addRecordResponse struct {
	ID string `json:"id"`
}

// AddRecord 把一条记录载荷提交到报告应用，成功时返回存储侧分配的记录 ID。
//
// 单次尽力提交：非 2xx 归类为 HTTPError（携带响应体），未得到响应归类为
// NetworkError。不自动重试——重复调用会产生重复行，重试必须由操作员显式触发。
func (c *Client) AddRecord(ctx context.Context, record map[string]any) (string, error) {
	payload := addRecordRequest{App: c.reportAppID, Record: record}

	// 多字节文本按 UTF-8 原样序列化，不做 HTML 转义。
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("レコードのシリアライズに失敗しました: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, "/k/v1/record.json", "application/json", &body)
	if err != nil {
		return "", err
	}

	var result addRecordResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
	}
	return result.ID, nil
}

type uploadFileResponse struct {
	FileKey string `json:"fileKey"`
}

// UploadFile 把本地文件以 multipart 形式上传到记录存储，返回附件句柄
// （fileKey）。句柄随后在记录载荷的附件字段中被引用。
// 上传成功而记录提交失败时会留下孤儿 blob，这是已接受的风险，不做补偿。
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("アップロード対象ファイルの読み込みに失敗しました: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(path)))
	header.Set("Content-Type", mimetype.Detect(data).String())
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("マルチパートの作成に失敗しました: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("マルチパートの書き込みに失敗しました: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("マルチパートの終端に失敗しました: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, "/k/v1/file.json", writer.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}

	var result uploadFileResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
	}
	return result.FileKey, nil
}

// do 发送一次请求并按规约分类错误：传输失败 → NetworkError，
// 非 2xx → HTTPError（携带响应体原文）。成功时返回响应体。
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Cybozu-API-Token", c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.NetworkError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &models.HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
