package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chefsight/internal/core"
	"chefsight/internal/receipts"
	"chefsight/internal/services"
)

type fakeDashboards struct {
	view    services.Dashboard
	records []core.ExpenseRecord
	err     error
	gotRng  core.TimeRange
}

func (f *fakeDashboards) Dashboard(_ context.Context, rng core.TimeRange, _ time.Time) (services.Dashboard, error) {
	f.gotRng = rng
	return f.view, f.err
}

func (f *fakeDashboards) Records(_ context.Context, rng core.TimeRange, _ time.Time) ([]core.ExpenseRecord, error) {
	f.gotRng = rng
	return f.records, f.err
}

type fakeRefresher struct {
	result *services.RefreshResult
	err    error
	calls  int
}

func (f *fakeRefresher) Refresh(context.Context) (*services.RefreshResult, error) {
	f.calls++
	return f.result, f.err
}

type fakePipeline struct {
	processResult *receipts.ProcessResult
	failures      []receipts.FailedReceipt
	err           error
	gotRequest    receipts.ProcessRequest
	gotKey        string
}

func (f *fakePipeline) Process(_ context.Context, req receipts.ProcessRequest) (*receipts.ProcessResult, error) {
	f.gotRequest = req
	return f.processResult, f.err
}

func (f *fakePipeline) Failures(context.Context) ([]receipts.FailedReceipt, error) {
	return f.failures, f.err
}

func (f *fakePipeline) SetAPIKey(_ context.Context, key string) error {
	f.gotKey = key
	return f.err
}

func newTestServer(d *fakeDashboards, r *fakeRefresher, p ReceiptPipeline) *Server {
	return NewServer(":0", d, r, p, nil)
}

func TestDashboardDefaultsToLast30Days(t *testing.T) {
	dashboards := &fakeDashboards{view: services.Dashboard{Range: core.Last30Days, Transactions: 3}}
	srv := newTestServer(dashboards, &fakeRefresher{}, nil)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if dashboards.gotRng != core.Last30Days {
		t.Errorf("range = %q, want default 30_days", dashboards.gotRng)
	}

	var view services.Dashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Transactions != 3 {
		t.Errorf("transactions = %d", view.Transactions)
	}
}

func TestDashboardRejectsUnknownRange(t *testing.T) {
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, nil)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?range=fortnight", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDashboardPassesRequestedRange(t *testing.T) {
	dashboards := &fakeDashboards{}
	srv := newTestServer(dashboards, &fakeRefresher{}, nil)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?range=ytd", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if dashboards.gotRng != core.YearToDate {
		t.Errorf("range = %q, want ytd", dashboards.gotRng)
	}
}

func TestDashboardErrorYields500(t *testing.T) {
	srv := newTestServer(&fakeDashboards{err: errors.New("boom")}, &fakeRefresher{}, nil)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRecordsEndpoint(t *testing.T) {
	dashboards := &fakeDashboards{records: []core.ExpenseRecord{{ID: "txn-0", Item: "Flour"}}}
	srv := newTestServer(dashboards, &fakeRefresher{}, nil)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/records?range=all_time", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload struct {
		Range   string               `json:"range"`
		Count   int                  `json:"count"`
		Records []core.ExpenseRecord `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Range != "all_time" || payload.Count != 1 || len(payload.Records) != 1 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	refresher := &fakeRefresher{result: &services.RefreshResult{SnapshotID: "snap-1", RecordCount: 30, Source: "live"}}
	srv := newTestServer(&fakeDashboards{}, refresher, nil)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if refresher.calls != 1 {
		t.Errorf("refresh calls = %d", refresher.calls)
	}

	var result services.RefreshResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.SnapshotID != "snap-1" || result.RecordCount != 30 {
		t.Errorf("result = %+v", result)
	}
}

func TestRefreshRequiresPost(t *testing.T) {
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, nil)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestProcessReceiptsForwardsRequest(t *testing.T) {
	pipeline := &fakePipeline{processResult: &receipts.ProcessResult{Processed: 2, WrittenRows: 6}}
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, pipeline)
	defer srv.Shutdown(context.Background())

	body := bytes.NewBufferString(`{"retry_failed":true,"files":["a.jpg"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !pipeline.gotRequest.RetryFailed || len(pipeline.gotRequest.Files) != 1 {
		t.Errorf("forwarded request = %+v", pipeline.gotRequest)
	}
}

func TestProcessReceiptsWithoutPipeline(t *testing.T) {
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, nil)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestProcessReceiptsMirrorsPipelineError(t *testing.T) {
	pipeline := &fakePipeline{err: &receipts.APIError{Status: http.StatusBadRequest, Message: "OPENAI_API_KEY not set"}}
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, pipeline)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want mirrored 400", rec.Code)
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error != "OPENAI_API_KEY not set" {
		t.Errorf("error = %q", payload.Error)
	}
}

func TestFailuresEndpointEmptyList(t *testing.T) {
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, &fakePipeline{})
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/failures", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload struct {
		Failures []receipts.FailedReceipt `json:"failures"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Failures == nil {
		t.Error("failures should be an empty list, not null")
	}
}

func TestSetAPIKey(t *testing.T) {
	pipeline := &fakePipeline{}
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, pipeline)
	defer srv.Shutdown(context.Background())

	body := bytes.NewBufferString(`{"api_key":"sk-test"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/config/openai-key", body)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if pipeline.gotKey != "sk-test" {
		t.Errorf("key = %q", pipeline.gotKey)
	}
}

func TestSetAPIKeyRejectsEmpty(t *testing.T) {
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, &fakePipeline{})
	defer srv.Shutdown(context.Background())

	body := bytes.NewBufferString(`{"api_key":"  "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/config/openai-key", body)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&fakeDashboards{}, &fakeRefresher{}, nil)
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}
