package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PadmDeveloper/RedmineBrowser/internal/automation"
	"github.com/PadmDeveloper/RedmineBrowser/internal/runner"
	"github.com/gorilla/mux"
)

const testSecret = "test-boundary-secret"

type stubSubmitter struct {
	fn func(ctx context.Context, req *automation.Request) (*automation.Result, error)

	lastReq *automation.Request
}

func (s *stubSubmitter) Submit(ctx context.Context, req *automation.Request) (*automation.Result, error) {
	s.lastReq = req
	if s.fn == nil {
		return &automation.Result{Success: true, Message: "ok", ProcessedCount: req.NotesCount}, nil
	}
	return s.fn(ctx, req)
}

func newTestRouter(sub *stubSubmitter) *mux.Router {
	r := mux.NewRouter()
	NewHandler(sub, testSecret).RegisterRoutes(r)
	return r
}

func postAddNote(t *testing.T, router *mux.Router, body []byte, authorize bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/add_note", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorize {
		token, err := automation.NewToken(testSecret)
		if err != nil {
			t.Fatalf("Failed to mint token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(&automation.Request{
		IssueID:    "4521",
		NotesCount: 3,
		NoteText:   "1] done\n2] pending\n3] blocked",
	})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	return body
}

func TestAddNoteSuccess(t *testing.T) {
	sub := &stubSubmitter{}
	router := newTestRouter(sub)

	rec := postAddNote(t, router, validBody(t), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp addNoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success=true")
	}
	if resp.ProcessedCount != 3 {
		t.Errorf("ProcessedCount = %d, want 3", resp.ProcessedCount)
	}
	if sub.lastReq == nil || sub.lastReq.IssueID != "4521" {
		t.Errorf("Submitter received %+v, want issue 4521", sub.lastReq)
	}
}

func TestAddNoteMissingAuth(t *testing.T) {
	sub := &stubSubmitter{}
	router := newTestRouter(sub)

	rec := postAddNote(t, router, validBody(t), false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", rec.Code)
	}
	if sub.lastReq != nil {
		t.Error("Submitter should not be called on unauthorized request")
	}
}

func TestAddNoteBadToken(t *testing.T) {
	sub := &stubSubmitter{}
	router := newTestRouter(sub)

	req := httptest.NewRequest(http.MethodPost, "/add_note", bytes.NewReader(validBody(t)))
	token, err := automation.NewToken("wrong-secret")
	if err != nil {
		t.Fatalf("Failed to mint token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", rec.Code)
	}
}

func TestAddNoteMissingParameters(t *testing.T) {
	tests := []struct {
		name string
		req  automation.Request
	}{
		{"missing issue id", automation.Request{NotesCount: 1, NoteText: "x"}},
		{"missing count", automation.Request{IssueID: "1", NoteText: "x"}},
		{"missing text", automation.Request{IssueID: "1", NotesCount: 1}},
		{"non-numeric issue id", automation.Request{IssueID: "abc", NotesCount: 1, NoteText: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &stubSubmitter{}
			router := newTestRouter(sub)

			body, _ := json.Marshal(tt.req)
			rec := postAddNote(t, router, body, true)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", rec.Code)
			}
			if sub.lastReq != nil {
				t.Error("Submitter should not be called on invalid request")
			}
		})
	}
}

func TestAddNoteSemanticFailure(t *testing.T) {
	sub := &stubSubmitter{
		fn: func(ctx context.Context, req *automation.Request) (*automation.Result, error) {
			return &automation.Result{Success: false, Message: "login_form_not_found: timeout", ProcessedCount: 0}, nil
		},
	}
	router := newTestRouter(sub)

	rec := postAddNote(t, router, validBody(t), true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500", rec.Code)
	}

	var resp addNoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("Expected success=false")
	}
	if resp.Error == "" {
		t.Error("Expected error message in response")
	}
}

func TestAddNoteQueueFull(t *testing.T) {
	sub := &stubSubmitter{
		fn: func(ctx context.Context, req *automation.Request) (*automation.Result, error) {
			return nil, runner.ErrQueueFull
		},
	}
	router := newTestRouter(sub)

	rec := postAddNote(t, router, validBody(t), true)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rec.Code)
	}
}

func TestRootHealthProbe(t *testing.T) {
	router := newTestRouter(&stubSubmitter{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "Server is active" {
		t.Errorf("status = %q, want 'Server is active'", resp["status"])
	}
}
