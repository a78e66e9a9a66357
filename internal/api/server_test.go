package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/revyard/quizgest/internal/config"
	"github.com/revyard/quizgest/internal/extract"
	"github.com/revyard/quizgest/internal/pipeline"
	"github.com/revyard/quizgest/internal/quizbank"
)

const apiQuizHTML = `<html><head><title>Module Quiz</title></head><body>
<p><strong>1. Refer to the exhibit. What does a router forward?</strong></p>
<div class="wp-caption aligncenter"><img src="https://example.com/e.png?a=1&amp;b=2"/></div>
<ul>
<li>frames</li>
<li class="correct_answer">packets</li>
<li>bits</li>
</ul>
<p><strong>2. What does a switch forward?</strong></p>
<ul>
<li class="correct_answer">frames</li>
<li>packets</li>
<li>bits</li>
</ul>
</body></html>`

const testAPIKey = "test-key"

func testServer(t *testing.T, withBank, startWorkers bool) (*Server, *quizbank.Store) {
	t.Helper()

	cfg := config.Config{
		APIKey:         testAPIKey,
		WorkerCount:    1,
		MaxQueueSize:   8,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}

	var bank *quizbank.Store
	if withBank {
		var err error
		bank, err = quizbank.Open(filepath.Join(t.TempDir(), "bank.db"))
		if err != nil {
			t.Fatalf("open bank: %v", err)
		}
		t.Cleanup(func() { bank.Close() })
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, bank, log)
	if startWorkers {
		orch.Start(context.Background())
		t.Cleanup(orch.Stop)
	}

	return NewServer(orch, log, cfg), bank
}

func multipartUpload(t *testing.T, field, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range extra {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func TestHealthNoAuth(t *testing.T) {
	s, _ := testServer(t, false, false)

	rr := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("unexpected health body: %s", rr.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	s, _ := testServer(t, false, false)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer wrong", http.StatusUnauthorized},
		{"correct", "Bearer " + testAPIKey, http.StatusNotFound}, // bank disabled
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/quizzes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := doRequest(s, req)
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestExtractSync(t *testing.T) {
	s, _ := testServer(t, false, false)

	body, contentType := multipartUpload(t, "file", "quiz.html", []byte(apiQuizHTML), nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/extract", body))
	req.Header.Set("Content-Type", contentType)

	rr := doRequest(s, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Filename string           `json:"filename"`
		Title    string           `json:"title"`
		Records  []extract.Record `json:"records"`
		Report   extract.Report   `json:"report"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Filename != "quiz.html" {
		t.Errorf("expected filename quiz.html, got %q", resp.Filename)
	}
	if resp.Title != "Module Quiz" {
		t.Errorf("expected title from document, got %q", resp.Title)
	}
	if len(resp.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(resp.Records))
	}
	if resp.Records[0].Image != "https://example.com/e.png?a=1&b=2" {
		t.Errorf("unexpected image: %q", resp.Records[0].Image)
	}
	if resp.Report.ErrorCount != 0 {
		t.Errorf("expected clean report, got %d errors", resp.Report.ErrorCount)
	}

	// URLs stay unescaped in the wire format.
	if !strings.Contains(rr.Body.String(), "e.png?a=1&b=2") {
		t.Error("expected raw ampersand in response body")
	}
	if strings.Contains(rr.Body.String(), `\u0026`) {
		t.Error("expected no escaped ampersands in response body")
	}

	// The run shows up in the stats window.
	statsReq := authed(httptest.NewRequest(http.MethodGet, "/api/stats/extract", nil))
	statsRR := doRequest(s, statsReq)
	if statsRR.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", statsRR.Code)
	}
	var statsResp struct {
		Stats extract.StatsSnapshot `json:"stats"`
	}
	if err := json.Unmarshal(statsRR.Body.Bytes(), &statsResp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if statsResp.Stats.Count != 1 {
		t.Errorf("expected 1 recorded run, got %d", statsResp.Stats.Count)
	}
	if statsResp.Stats.Records != 2 {
		t.Errorf("expected 2 records in stats, got %d", statsResp.Stats.Records)
	}
}

func TestExtractRejectsUnsupportedType(t *testing.T) {
	s, _ := testServer(t, false, false)

	body, contentType := multipartUpload(t, "file", "quiz.xlsx", []byte("nope"), nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/extract", body))
	req.Header.Set("Content-Type", contentType)

	rr := doRequest(s, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestExtractRejectsOversizedUpload(t *testing.T) {
	s, _ := testServer(t, false, false)

	big := bytes.Repeat([]byte("x"), (1<<20)+1)
	body, contentType := multipartUpload(t, "file", "quiz.html", big, nil)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/extract", body))
	req.Header.Set("Content-Type", contentType)

	rr := doRequest(s, req)
	if rr.Code != http.StatusRequestEntityTooLarge && rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 413 or 400, got %d", rr.Code)
	}
}

func TestIngestAndStatus(t *testing.T) {
	s, bank := testServer(t, true, true)

	body, contentType := multipartUpload(t, "file", "quiz.html", []byte(apiQuizHTML), map[string]string{
		"doc_id": "ccna-1",
	})
	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest", body))
	req.Header.Set("Content-Type", contentType)

	rr := doRequest(s, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}

	var accepted struct {
		JobID   string `json:"job_id"`
		DocID   string `json:"doc_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode accept response: %v", err)
	}
	if accepted.DocID != "ccna-1" {
		t.Errorf("expected doc_id ccna-1, got %q", accepted.DocID)
	}
	if accepted.JobID == "" || !strings.Contains(accepted.PollURL, accepted.JobID) {
		t.Errorf("expected poll url with job id, got %q", accepted.PollURL)
	}

	deadline := time.After(5 * time.Second)
	for {
		statusReq := authed(httptest.NewRequest(http.MethodGet, accepted.PollURL, nil))
		statusRR := doRequest(s, statusReq)
		if statusRR.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", statusRR.Code)
		}
		var status struct {
			Status   string            `json:"status"`
			Progress pipeline.Progress `json:"progress"`
		}
		if err := json.Unmarshal(statusRR.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if status.Status == string(pipeline.StatusCompleted) {
			if status.Progress.RecordsStored != 2 {
				t.Errorf("expected 2 stored, got %d", status.Progress.RecordsStored)
			}
			break
		}
		if status.Status == string(pipeline.StatusFailed) {
			t.Fatalf("job failed: %v", status.Progress.Errors)
		}
		select {
		case <-deadline:
			t.Fatalf("job did not complete, last status %q", status.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	entry, err := bank.Get(context.Background(), "ccna-1")
	if err != nil {
		t.Fatalf("expected quiz in bank: %v", err)
	}
	if len(entry.Records) != 2 {
		t.Errorf("expected 2 records in bank, got %d", len(entry.Records))
	}
}

func TestIngestStatusMissingJob(t *testing.T) {
	s, _ := testServer(t, false, false)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/ingest/unknown/status", nil))
	rr := doRequest(s, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestBatchIngest(t *testing.T) {
	s, _ := testServer(t, false, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"one.html", "two.xlsx"} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(apiQuizHTML))
	}
	mw.Close()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest/batch", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := doRequest(s, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode batch response: %v", err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("expected 2 job results, got %d", len(resp.Jobs))
	}
	if _, ok := resp.Jobs[0]["job_id"]; !ok {
		t.Errorf("expected job_id for supported file, got %v", resp.Jobs[0])
	}
	if _, ok := resp.Jobs[1]["error"]; !ok {
		t.Errorf("expected error for unsupported file, got %v", resp.Jobs[1])
	}
}

func TestQuizBankEndpoints(t *testing.T) {
	s, bank := testServer(t, true, false)

	entry := quizbank.Entry{
		DocID:       "doc-1",
		Title:       "Stored Quiz",
		Source:      "quiz.html",
		ContentHash: "abc",
		Records: []extract.Record{
			{Question: "1. Stored question?", Choices: []string{"a", "b"}, Answer: extract.Answer{Values: []string{"a"}}},
		},
	}
	if err := bank.Save(context.Background(), entry); err != nil {
		t.Fatalf("seed bank: %v", err)
	}

	listRR := doRequest(s, authed(httptest.NewRequest(http.MethodGet, "/api/quizzes", nil)))
	if listRR.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", listRR.Code)
	}
	var listResp struct {
		Quizzes []quizbank.Summary `json:"quizzes"`
	}
	if err := json.Unmarshal(listRR.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Quizzes) != 1 || listResp.Quizzes[0].DocID != "doc-1" {
		t.Fatalf("unexpected listing: %+v", listResp.Quizzes)
	}

	getRR := doRequest(s, authed(httptest.NewRequest(http.MethodGet, "/api/quizzes/doc-1", nil)))
	if getRR.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getRR.Code)
	}
	var got quizbank.Entry
	if err := json.Unmarshal(getRR.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if got.Title != "Stored Quiz" || len(got.Records) != 1 {
		t.Errorf("unexpected entry: title %q, %d records", got.Title, len(got.Records))
	}

	delRR := doRequest(s, authed(httptest.NewRequest(http.MethodDelete, "/api/quizzes/doc-1", nil)))
	if delRR.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", delRR.Code)
	}

	missRR := doRequest(s, authed(httptest.NewRequest(http.MethodGet, "/api/quizzes/doc-1", nil)))
	if missRR.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", missRR.Code)
	}

	delAgainRR := doRequest(s, authed(httptest.NewRequest(http.MethodDelete, "/api/quizzes/doc-1", nil)))
	if delAgainRR.Code != http.StatusNotFound {
		t.Fatalf("double delete: expected 404, got %d", delAgainRR.Code)
	}
}

func TestQuizEndpointsWithBankDisabled(t *testing.T) {
	s, _ := testServer(t, false, false)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/quizzes"},
		{http.MethodGet, "/api/quizzes/doc-1"},
		{http.MethodDelete, "/api/quizzes/doc-1"},
	} {
		rr := doRequest(s, authed(httptest.NewRequest(tc.method, tc.path, nil)))
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tc.method, tc.path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "quiz bank disabled") {
			t.Errorf("%s %s: expected disabled message, got %s", tc.method, tc.path, rr.Body.String())
		}
	}
}
