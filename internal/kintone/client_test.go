package kintone

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"SalesReport/internal/config"
	"SalesReport/internal/models"
)

func testClientFor(url string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		baseURL:     url,
		token:       "test-token",
		reportAppID: "12",
		clientAppID: "34",
	}
}

func TestAddRecord_Success(t *testing.T) {
	var gotToken, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Cybozu-API-Token")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"id":"101"}`))
	}))
	defer srv.Close()

	c := testClientFor(srv.URL)
	id, err := c.AddRecord(context.Background(), map[string]any{
		"顧客名": fieldValue{Value: "ABC株式会社"},
	})
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if id != "101" {
		t.Errorf("id = %q, want %q", id, "101")
	}
	if gotToken != "test-token" {
		t.Errorf("token header = %q", gotToken)
	}
	if gotPath != "/k/v1/record.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["app"] != "12" {
		t.Errorf("app = %v, want %q", gotBody["app"], "12")
	}
	record, _ := gotBody["record"].(map[string]any)
	name, _ := record["顧客名"].(map[string]any)
	if name["value"] != "ABC株式会社" {
		t.Errorf("顧客名 = %v, want multi-byte text preserved", name["value"])
	}
}

func TestAddRecord_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"CB_VA01","message":"入力内容が正しくありません。"}`))
	}))
	defer srv.Close()

	c := testClientFor(srv.URL)
	_, err := c.AddRecord(context.Background(), map[string]any{})
	var httpErr *models.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %T (%v), want HTTPError", err, err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
	if httpErr.Body == "" {
		t.Error("Body should carry the response body")
	}
}

func TestAddRecord_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // 立即关闭，使请求得不到任何响应。

	c := testClientFor(srv.URL)
	_, err := c.AddRecord(context.Background(), map[string]any{})
	var netErr *models.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %T (%v), want NetworkError", err, err)
	}
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/k/v1/file.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename == "" {
			t.Error("filename missing")
		}
		w.Write([]byte(`{"fileKey":"abc-123"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "20250601_120000_report.mp3")
	if err := os.WriteFile(path, []byte("audio bytes"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	c := testClientFor(srv.URL)
	key, err := c.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if key != "abc-123" {
		t.Errorf("fileKey = %q", key)
	}
}

func TestSearchClients_BlankKeywordNoCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := testClientFor(srv.URL)
	for _, keyword := range []string{"", "   ", "\t\n"} {
		clients, err := c.SearchClients(context.Background(), keyword)
		if err != nil {
			t.Fatalf("SearchClients(%q): %v", keyword, err)
		}
		if len(clients) != 0 {
			t.Errorf("SearchClients(%q) = %v, want empty", keyword, clients)
		}
	}
	if called {
		t.Error("blank keyword must not hit the network")
	}
}

func TestSearchClients_MapsRecords(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"records":[
			{"$id":{"value":"7"},"顧客ID":{"value":"C-0001"},"会社名":{"value":"ABC株式会社"}},
			{"$id":{"value":"8"},"顧客ID":{"value":""},"会社名":{"value":"ABCホールディングス"}}
		]}`))
	}))
	defer srv.Close()

	c := testClientFor(srv.URL)
	clients, err := c.SearchClients(context.Background(), "ABC")
	if err != nil {
		t.Fatalf("SearchClients: %v", err)
	}
	if gotQuery != `会社名 like "ABC" limit 20` {
		t.Errorf("query = %q", gotQuery)
	}
	if len(clients) != 2 {
		t.Fatalf("len = %d, want 2", len(clients))
	}
	if clients[0].ID != "C-0001" || clients[0].RecordID != "7" || clients[0].Name != "ABC株式会社" {
		t.Errorf("clients[0] = %+v", clients[0])
	}
	// 业务顾客编号缺失时回退为内部行 ID。
	if clients[1].ID != "8" {
		t.Errorf("clients[1].ID = %q, want fallback to record id", clients[1].ID)
	}
}

func TestSearchClients_FailureIsLookupError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"error"}`))
	}))
	defer srv.Close()

	c := testClientFor(srv.URL)
	_, err := c.SearchClients(context.Background(), "ABC")
	var lookupErr *models.LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("err = %T (%v), want LookupError", err, err)
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery(`A"B\C`); got != `A\"B\\C` {
		t.Errorf("escapeQuery = %q", got)
	}
}

func TestBuildRecordPayload(t *testing.T) {
	schema, err := config.SchemaByName(config.SchemaStandard)
	if err != nil {
		t.Fatalf("SchemaByName: %v", err)
	}
	rec := models.SubmissionRecord{
		Fields: map[string]string{
			"date":                         "2025-06-02",
			"customer_name":                "ABC株式会社",
			"activity_detail":              " 総務課の有田様\n見積依頼\x00 ",
			"next_action":                  "デモ実施",
			config.KeyClientID:             "C-0001",
			config.KeyActivityCategory:     "訪問",
			config.KeyNextActivityCategory: "Web会議",
			config.KeyStaff:                "山田太郎",
			config.KeyActionDate:           "2025-06-02",
			config.KeyNextActionDate:       "2025-06-09",
		},
		Client:      models.ClientReference{ID: "C-0001", RecordID: "7", Name: "ABC株式会社"},
		Staff:       "山田太郎",
		Attachments: []models.AttachmentReference{{FileKey: "abc-123"}},
	}
	original := rec.Fields["activity_detail"]

	payload := BuildRecordPayload(rec, schema, "yamada")

	// 自由文本字段已消毒。
	if got := payload["活動内容"].(fieldValue).Value; got != "総務課の有田様\n見積依頼" {
		t.Errorf("活動内容 = %q", got)
	}
	// 入力记录自身保持不变。
	if rec.Fields["activity_detail"] != original {
		t.Error("BuildRecordPayload must not mutate the submission record")
	}
	if got := payload["顧客ID"].(fieldValue).Value; got != "C-0001" {
		t.Errorf("顧客ID = %v", got)
	}
	users := payload["担当者"].(fieldValue).Value.([]userEntry)
	if len(users) != 1 || users[0].Code != "yamada" {
		t.Errorf("担当者 = %v", users)
	}
	files := payload["添付ファイル"].(fieldValue).Value.([]models.AttachmentReference)
	if len(files) != 1 || files[0].FileKey != "abc-123" {
		t.Errorf("添付ファイル = %v", files)
	}
}

func TestBuildRecordPayload_UnresolvedStaffEmptyList(t *testing.T) {
	schema, err := config.SchemaByName(config.SchemaStandard)
	if err != nil {
		t.Fatalf("SchemaByName: %v", err)
	}
	rec := models.SubmissionRecord{Fields: map[string]string{}}

	payload := BuildRecordPayload(rec, schema, "")
	users := payload["担当者"].(fieldValue).Value.([]userEntry)
	if len(users) != 0 {
		t.Errorf("担当者 = %v, want empty list (never a fabricated identity)", users)
	}
	if _, ok := payload["添付ファイル"]; ok {
		t.Error("attachment field should be absent without attachments")
	}
}
