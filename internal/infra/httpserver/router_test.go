package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/chainsleuth/casefile-api/internal/application"
	appcases "github.com/chainsleuth/casefile-api/internal/application/cases"
	domain "github.com/chainsleuth/casefile-api/internal/domain/cases"
	memorydb "github.com/chainsleuth/casefile-api/internal/infra/db/memory"
	"github.com/chainsleuth/casefile-api/internal/middleware"
)

const (
	adminAccount = "chainsleuth.near"
	adminKey     = "test-api-key"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	auditRepo := memorydb.NewAuditRepository()
	svc, err := appcases.NewService(
		memorydb.NewStore(),
		memorydb.NewRegistry(),
		auditRepo,
		nil,
		application.SystemClock{},
		adminAccount,
		"",
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	auth := middleware.APIKeyAuth(map[string]string{adminAccount: adminKey})
	srv := httptest.NewServer(auth(NewRouter(svc, nil, auditRepo)))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+adminKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func openCase(t *testing.T, srv *httptest.Server, subject string) domain.RecordID {
	t.Helper()
	resp, data := do(t, srv, http.MethodPost, "/v1/cases", map[string]string{
		"target_account": subject,
		"deposit":        appcases.DefaultMintPrice,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open case: status %d body %s", resp.StatusCode, data)
	}
	var out struct {
		RecordID string `json:"record_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	return domain.RecordID(out.RecordID)
}

func casePath(id domain.RecordID, suffix string) string {
	return "/v1/cases/" + url.PathEscape(string(id)) + suffix
}

func TestOpenCaseEndpoint(t *testing.T) {
	srv := newTestServer(t)

	id := openCase(t, srv, "alice.near")
	if id != "Case File #1: alice.near" {
		t.Errorf("record id = %q", id)
	}

	// Duplicate open comes back 200 with the existing record.
	resp, data := do(t, srv, http.MethodPost, "/v1/cases", map[string]string{
		"target_account": "alice.near",
		"deposit":        appcases.DefaultMintPrice,
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("duplicate open: status %d body %s", resp.StatusCode, data)
	}
}

func TestOpenCaseInsufficientPayment(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/v1/cases", map[string]string{
		"target_account": "alice.near",
		"deposit":        "1",
	})
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", resp.StatusCode)
	}
}

func TestOpenCaseInvalidAccount(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/v1/cases", map[string]string{
		"target_account": "Not A Valid Account!",
		"deposit":        appcases.DefaultMintPrice,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReadsNeedNoCredentials(t *testing.T) {
	srv := newTestServer(t)
	id := openCase(t, srv, "alice.near")

	paths := []string{
		"/v1/mint-price",
		"/v1/contract-metadata",
		"/v1/cases",
		casePath(id, ""),
		casePath(id, "/status"),
		"/v1/accounts/alice.near/case",
		"/v1/owners/" + adminAccount + "/records",
	}
	for _, path := range paths {
		resp, err := srv.Client().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestMutatingCallsRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	id := openCase(t, srv, "alice.near")

	calls := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/cases"},
		{http.MethodPost, casePath(id, "/webhook")},
		{http.MethodPost, casePath(id, "/retry")},
		{http.MethodPost, "/v1/admin/migrate"},
		{http.MethodPut, "/v1/admin/mint-price"},
	}
	for _, call := range calls {
		req, err := http.NewRequest(call.method, srv.URL+call.path, bytes.NewReader([]byte("{}")))
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", call.method, call.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", call.method, call.path, resp.StatusCode)
		}
	}
}

func TestBadAPIKeyRejected(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/cases", bytes.NewReader([]byte("{}")))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", "Bearer wrong-key")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestMalformedRecordIDRejected(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, srv, http.MethodGet, "/v1/cases/not-a-record-id/status", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := openCase(t, srv, "alice.near")

	resp, data := do(t, srv, http.MethodGet, casePath(id, "/status"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint: %d body %s", resp.StatusCode, data)
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["status"] != "Pending" {
		t.Errorf("status = %q, want Pending", out["status"])
	}

	resp, _ = do(t, srv, http.MethodGet, casePath("Case File #99: ghost.near", "/status"), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown case status = %d, want 404", resp.StatusCode)
	}
}

func TestWebhookEndpointDrivesStatus(t *testing.T) {
	srv := newTestServer(t)
	id := openCase(t, srv, "alice.near")

	resp, data := do(t, srv, http.MethodPost, casePath(id, "/webhook"), map[string]any{
		"type":    "Progress",
		"payload": map[string]any{"result": map[string]any{"transactionCount": 5}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("webhook: status %d body %s", resp.StatusCode, data)
	}
	var c domain.Case
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("decode case: %v", err)
	}
	if c.Status != domain.StatusProcessing {
		t.Errorf("status = %q, want Processing", c.Status)
	}
	if c.Analysis.TransactionCount != 5 {
		t.Errorf("transaction count = %d, want 5", c.Analysis.TransactionCount)
	}
}

func TestWebhookEndpointRejectsLog(t *testing.T) {
	srv := newTestServer(t)
	id := openCase(t, srv, "alice.near")

	resp, _ := do(t, srv, http.MethodPost, casePath(id, "/webhook"), map[string]any{
		"type": "Log",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Log webhook status = %d, want 422", resp.StatusCode)
	}
}

func TestWebhookEndpointUnknownTag(t *testing.T) {
	srv := newTestServer(t)
	id := openCase(t, srv, "alice.near")

	resp, _ := do(t, srv, http.MethodPost, casePath(id, "/webhook"), map[string]any{
		"type": "Telemetry",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unknown tag status = %d, want 422", resp.StatusCode)
	}
}

func TestMigrateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, srv, http.MethodPost, "/v1/admin/migrate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("migrate: status %d body %s", resp.StatusCode, data)
	}
	var out map[string]uint32
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["from_version"] != 1 || out["to_version"] != 2 {
		t.Errorf("migrated %d -> %d", out["from_version"], out["to_version"])
	}

	// Repeat migration conflicts.
	resp, _ = do(t, srv, http.MethodPost, "/v1/admin/migrate", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second migrate status = %d, want 409", resp.StatusCode)
	}
}

func TestMintPriceEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, srv, http.MethodGet, "/v1/mint-price", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get mint price: %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["mint_price"] != appcases.DefaultMintPrice {
		t.Errorf("mint price = %q", out["mint_price"])
	}

	resp, data = do(t, srv, http.MethodPut, "/v1/admin/mint-price", map[string]string{"mint_price": "42"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set mint price: %d body %s", resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["mint_price"] != "42" {
		t.Errorf("mint price = %q, want 42", out["mint_price"])
	}
}

func TestListCasesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		openCase(t, srv, fmt.Sprintf("user%d.near", i))
	}

	resp, data := do(t, srv, http.MethodGet, "/v1/cases?page=1&page_size=2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var page domain.PaginatedResult
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Data) != 2 || page.Total != 3 || page.TotalPages != 2 {
		t.Errorf("page = {len=%d total=%d pages=%d}", len(page.Data), page.Total, page.TotalPages)
	}
}

func TestCaseBySubjectEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := openCase(t, srv, "alice.near")

	resp, data := do(t, srv, http.MethodGet, "/v1/accounts/alice.near/case", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("case by subject: %d body %s", resp.StatusCode, data)
	}
	var out struct {
		Case *domain.Case `json:"case"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Case == nil || out.Case.RecordID != id {
		t.Errorf("resolved case = %+v, want %q", out.Case, id)
	}
}

func TestRecordsByOwnerEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := openCase(t, srv, "alice.near")

	resp, data := do(t, srv, http.MethodGet, "/v1/owners/alice.near/records", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("records by owner: %d", resp.StatusCode)
	}
	var records []*domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].ID != id {
		t.Errorf("records = %+v", records)
	}
}

func TestContractMetadataEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, srv, http.MethodGet, "/v1/contract-metadata", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("contract metadata: %d", resp.StatusCode)
	}
	var meta domain.ContractMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if meta.Spec != "case-file-1.0.0" || meta.Symbol != "CASE" {
		t.Errorf("metadata = %+v", meta)
	}
}
