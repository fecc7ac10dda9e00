package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"SalesReport/internal/models"
	"SalesReport/internal/report_service/service"
)

// dateLayout 是表单日期字段的线格式。
const dateLayout = "2006-01-02"

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service *service.ReportService
	options OptionsResponse
}

// OptionsResponse 返回表单侧需要的固定选项列表。
type OptionsResponse struct {
	Schema             string   `json:"schema"`
	ActivityCategories []string `json:"activity_categories"`
	Staff              []string `json:"staff"`
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.ReportService, options OptionsResponse) *Handler {
	return &Handler{service: s, options: options}
}

// GetOptions 返回活動区分与担当者的固定选项列表。
func (h *Handler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.options)
}

// SearchClients 按关键字检索客户主数据。检索失败降级为空结果加诊断信息。
func (h *Handler) SearchClients(c *gin.Context) {
	clients, diagnostic := h.service.SearchClients(c.Request.Context(), c.Query("keyword"))
	resp := gin.H{"clients": clients}
	if diagnostic != "" {
		resp["diagnostic"] = diagnostic
	}
	c.JSON(http.StatusOK, resp)
}

// ExtractReport 接收 multipart 表单（file: 音频または.txt、memo: 自由文本），
// 执行规范化→抽取→恢复，返回新草稿。
func (h *Handler) ExtractReport(c *gin.Context) {
	var blob *models.FileBlob
	if fileHeader, err := c.FormFile("file"); err == nil {
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		blob = &models.FileBlob{Name: fileHeader.Filename, Data: data}
	}

	draft, err := h.service.Extract(c.Request.Context(), blob, c.PostForm("memo"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// GetReport 返回指定 ID 的草稿（提交前的确认画面用）。
func (h *Handler) GetReport(c *gin.Context) {
	draft, ok := h.service.Draft(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下書きが見つかりません"})
		return
	}
	c.JSON(http.StatusOK, draft)
}

// SubmitRequest 定义了提交请求的 JSON 结构。
type SubmitRequest struct {
	Client               models.ClientReference `json:"client" binding:"required"`
	ActivityCategory     string                 `json:"activity_category"`
	NextActivityCategory string                 `json:"next_activity_category"`
	Staff                string                 `json:"staff"`
	ActionDate           string                 `json:"action_date"`
	NextActionDate       string                 `json:"next_action_date"`
	Contacts             []models.ContactPerson `json:"contacts"`
}

// SubmitReport 把草稿与操作员元数据调和后提交到记录存储。
// 提交由操作员显式触发；失败时草稿保留，可重试。
func (h *Handler) SubmitReport(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta := models.OperatorMetadata{
		ActivityCategory:     req.ActivityCategory,
		NextActivityCategory: req.NextActivityCategory,
		Staff:                req.Staff,
		Contacts:             req.Contacts,
	}
	var err error
	if meta.ActionDate, err = parseDate(req.ActionDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "活動日の形式が正しくありません (YYYY-MM-DD)"})
		return
	}
	if meta.NextActionDate, err = parseDate(req.NextActionDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "次回活動日の形式が正しくありません (YYYY-MM-DD)"})
		return
	}

	recordID, err := h.service.Submit(c.Request.Context(), c.Param("id"), req.Client, meta)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Kintoneにレコードを登録しました", "record_id": recordID})
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

// writeError 把管道错误分类映射为 HTTP 状态，并确保每个失败路径都带有
// 与成功可区分的信号。
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrNoClientSelected):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		var malformed *models.MalformedResponseError
		if errors.As(err, &malformed) {
			// 原始文本随错误一并返回，供操作员诊断提示词漂移。
			c.JSON(http.StatusBadGateway, gin.H{"error": malformed.Error(), "raw": malformed.Raw})
			return
		}
		var httpErr *models.HTTPError
		if errors.As(err, &httpErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": httpErr.Error(), "body": httpErr.Body})
			return
		}
		var extractionErr *models.ExtractionError
		if errors.As(err, &extractionErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": extractionErr.Error()})
			return
		}
		var netErr *models.NetworkError
		if errors.As(err, &netErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": netErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
