package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"SalesReport/internal/config"
	"SalesReport/internal/models"
	"SalesReport/internal/normalizer"
	"SalesReport/internal/report_service/service"
)

type stubExtractor struct{ raw string }

func (s *stubExtractor) Extract(ctx context.Context, req models.ExtractionRequest) (string, error) {
	return s.raw, nil
}

type stubStore struct {
	clients []models.ClientReference
}

func (s *stubStore) AddRecord(ctx context.Context, record map[string]any) (string, error) {
	return "55", nil
}

func (s *stubStore) UploadFile(ctx context.Context, path string) (string, error) {
	return "key-1", nil
}

func (s *stubStore) SearchClients(ctx context.Context, keyword string) ([]models.ClientReference, error) {
	return s.clients, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{
		Schema: config.SchemaStandard,
		Staff:  []config.StaffMember{{Name: "山田太郎", Code: "yamada"}},
	}
	schema, err := config.SchemaByName(cfg.Schema)
	if err != nil {
		t.Fatalf("SchemaByName: %v", err)
	}
	extractor := &stubExtractor{raw: "```json\n{\"date\": \"2025-06-02\", \"customer_name\": \"ABC株式会社\", \"activity_detail\": \"商談\", \"next_action\": \"デモ\"}\n```"}
	store := &stubStore{clients: []models.ClientReference{{ID: "C-1", RecordID: "1", Name: "ABC株式会社"}}}
	svc := service.NewReportService(cfg, schema, extractor, store, normalizer.New(t.TempDir(), nil))
	handler := NewHandler(svc, OptionsResponse{
		Schema:             schema.Name,
		ActivityCategories: []string{"訪問"},
		Staff:              []string{"山田太郎"},
	})
	return SetupRouter(handler)
}

func TestSearchClientsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients?keyword=ABC", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Clients []models.ClientReference `json:"clients"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Clients) != 1 || resp.Clients[0].ID != "C-1" {
		t.Errorf("clients = %v", resp.Clients)
	}
}

func extractDraft(t *testing.T, router *gin.Engine) string {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("memo", "ABC社の田中様と商談、来週デモ"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	writer.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/extract", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("extract status = %d, body = %s", w.Code, w.Body.String())
	}
	var draft struct {
		ID        string            `json:"id"`
		Extracted map[string]string `json:"extracted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &draft); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if draft.ID == "" {
		t.Fatal("draft id missing")
	}
	if !strings.Contains(draft.Extracted["customer_name"], "ABC") {
		t.Errorf("customer_name = %q", draft.Extracted["customer_name"])
	}
	return draft.ID
}

func TestExtractAndSubmitFlow(t *testing.T) {
	router := newTestRouter(t)
	draftID := extractDraft(t, router)

	payload := `{
		"client": {"id": "C-1", "record_id": "1", "name": "ABC株式会社"},
		"activity_category": "訪問",
		"next_activity_category": "Web会議",
		"staff": "山田太郎",
		"action_date": "2025-06-02",
		"next_action_date": "2025-06-09",
		"contacts": [{"department": "総務課", "name": "有田"}]
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/"+draftID+"/submit", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"record_id":"55"`) {
		t.Errorf("body = %s", w.Body.String())
	}

	// 提交成功后草稿已清除。
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+draftID, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("draft after submit: status = %d, want 404", w.Code)
	}
}

func TestSubmitInvalidDate(t *testing.T) {
	router := newTestRouter(t)
	draftID := extractDraft(t, router)

	payload := `{"client": {"id": "C-1", "record_id": "1"}, "action_date": "02/06/2025"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/"+draftID+"/submit", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExtractWithoutInput(t *testing.T) {
	router := newTestRouter(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/extract", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
