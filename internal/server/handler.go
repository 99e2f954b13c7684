package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/PadmDeveloper/RedmineBrowser/internal/automation"
	"github.com/PadmDeveloper/RedmineBrowser/internal/runner"
	"github.com/gorilla/mux"
)

// RunSubmitter admits one automation request and waits for its result.
type RunSubmitter interface {
	Submit(ctx context.Context, req *automation.Request) (*automation.Result, error)
}

// Handler serves the automation request boundary.
type Handler struct {
	submitter RunSubmitter
	secret    string
}

// NewHandler creates a boundary handler. The secret gates /add_note; callers
// must present a bearer token signed with it.
func NewHandler(submitter RunSubmitter, secret string) *Handler {
	return &Handler{
		submitter: submitter,
		secret:    secret,
	}
}

// RegisterRoutes registers the boundary endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/add_note", h.HandleAddNote).Methods("POST")
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")
	r.HandleFunc("/", h.HandleRoot).Methods("GET")
}

type addNoteResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	ProcessedCount int    `json:"processed_count"`
}

// HandleAddNote runs one automation request synchronously and reports its
// outcome. Semantic failures come back as 500 with success=false; admission
// rejections as 503 so callers can tell "busy" apart from "the run failed".
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		log.Printf("Rejected boundary call: %v", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req automation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error parsing request: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := req.Validate(); err != nil {
		log.Printf("Invalid request: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	log.Printf("Received automation request: issue=%s, notes_count=%d", req.IssueID, req.NotesCount)

	result, err := h.submitter.Submit(r.Context(), &req)
	if err != nil {
		log.Printf("Failed to run automation: %v", err)
		switch {
		case errors.Is(err, runner.ErrQueueFull):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Automation is busy, try again later"})
		case errors.Is(err, runner.ErrQueueClosed):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Automation unavailable"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to run automation"})
		}
		return
	}

	if !result.Success {
		writeJSON(w, http.StatusInternalServerError, addNoteResponse{
			Success:        false,
			Error:          result.Message,
			ProcessedCount: result.ProcessedCount,
		})
		return
	}

	writeJSON(w, http.StatusOK, addNoteResponse{
		Success:        true,
		Message:        result.Message,
		ProcessedCount: result.ProcessedCount,
	})
}

// HandleRoot is the liveness probe the bot greets with.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "Server is active",
		"message": "Automation server is running",
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) authorize(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if header == "" {
		return errors.New("missing Authorization header")
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return errors.New("invalid Authorization header, expected 'Bearer <token>'")
	}
	return automation.VerifyToken(h.secret, token)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
