package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/PadmDeveloper/RedmineBrowser/internal/runstore"
	"github.com/gorilla/mux"
)

//go:embed templates/*
var templatesFS embed.FS

// Handler serves the run history UI
type Handler struct {
	store     *runstore.Store
	templates *template.Template
}

// NewHandler creates a new web handler
func NewHandler(store *runstore.Store) (*Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:     store,
		templates: tmpl,
	}, nil
}

// RegisterRoutes registers run UI routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/runs", h.handleRunList).Methods("GET")
	r.HandleFunc("/runs/{id}", h.handleRunDetail).Methods("GET")
}

// handleRunList renders the run list page
func (h *Handler) handleRunList(w http.ResponseWriter, r *http.Request) {
	runs := h.store.List()

	data := struct {
		Runs []*runstore.Run
	}{
		Runs: runs,
	}

	if err := h.templates.ExecuteTemplate(w, "run_list.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleRunDetail renders the run detail page
func (h *Handler) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	run, ok := h.store.Get(runID)
	if !ok {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	data := struct {
		Run *runstore.Run
	}{
		Run: run,
	}

	if err := h.templates.ExecuteTemplate(w, "run_detail.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
