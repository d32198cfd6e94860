// Package web serves the decision UI: a small form-driven surface through
// which an operator records status/reply decisions into the document.
package web

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/reviewsync/reviewsync/internal/document"
)

//go:embed templates/*
var templatesFS embed.FS

// Handler handles decision UI requests. The document is reloaded per
// request and written back atomically; the mutex serializes writers.
type Handler struct {
	docPath   string
	templates *template.Template

	mu sync.Mutex
}

// NewHandler creates a decision UI handler over the document at docPath.
func NewHandler(docPath string) (*Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		docPath:   docPath,
		templates: tmpl,
	}, nil
}

// RegisterRoutes registers decision UI routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleList).Methods("GET")
	r.HandleFunc("/comment/{id}", h.handleDetail).Methods("GET")
	r.HandleFunc("/comment/{id}/decision", h.handleDecision).Methods("POST")
}

type listPage struct {
	Metadata document.Metadata
	Pending  []*document.Comment
	Decided  []*document.Comment
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	doc, err := document.Load(h.docPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := listPage{Metadata: doc.Metadata}
	for _, c := range doc.Canonical() {
		if c.Status == document.StatusPending {
			page.Pending = append(page.Pending, c)
		} else {
			page.Decided = append(page.Decided, c)
		}
	}

	if err := h.templates.ExecuteTemplate(w, "comment_list.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	doc, err := document.Load(h.docPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	c := doc.Find(mux.Vars(r)["id"])
	if c == nil {
		http.Error(w, "Comment not found", http.StatusNotFound)
		return
	}

	data := struct {
		Comment  *document.Comment
		Metadata document.Metadata
	}{Comment: c, Metadata: doc.Metadata}

	if err := h.templates.ExecuteTemplate(w, "comment_detail.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleDecision records a decision on one comment. Records already posted
// are immutable; only defined statuses are accepted.
func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status := document.Status(r.PostForm.Get("status"))
	if !document.ValidStatus(status) || status == document.StatusPending {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := document.Load(h.docPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id := mux.Vars(r)["id"]
	c := doc.Find(id)
	if c == nil {
		http.Error(w, "Comment not found", http.StatusNotFound)
		return
	}
	if c.Posted() {
		http.Error(w, "comment already posted", http.StatusConflict)
		return
	}

	c.Status = status
	c.Reply = r.PostForm.Get("reply")
	c.SkipReason = r.PostForm.Get("skip_reason")

	if err := document.Save(doc, h.docPath); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("[Web] Decision recorded for %s: %s", id, status)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
