package handler

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"

	"coding_documenty/internal/api/middleware"
	"coding_documenty/internal/api/view"
	"coding_documenty/internal/app/service"
	"coding_documenty/internal/common"

	"github.com/go-chi/chi/v5"
)

type PublicHandler struct {
	pages
	questionService *service.QuestionService
}

func NewPublicHandler(questionService *service.QuestionService, views *view.Renderer, sm *middleware.SessionManager) *PublicHandler {
	return &PublicHandler{pages: pages{views: views, sm: sm}, questionService: questionService}
}

func (h *PublicHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/question/{id}", h.showQuestion)
	r.Get("/question/{id}/download", h.downloadQuestion)
	r.Get("/search", h.search)
}

func (h *PublicHandler) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index", view.Page{Welcome: true})
}

func (h *PublicHandler) showQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Printf("ERROR: Error fetching question: %v", err)
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "index", view.Page{Title: q.Title, Question: q})
}

func (h *PublicHandler) downloadQuestion(w http.ResponseWriter, r *http.Request) {
	d, err := h.questionService.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Printf("ERROR: Error preparing download: %v", err)
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(d.Body)
}

// search jumps to the first matching question, or home when nothing matches.
func (h *PublicHandler) search(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Printf("ERROR: Search failed: %v", err)
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/question/"+q.ID, http.StatusFound)
}
