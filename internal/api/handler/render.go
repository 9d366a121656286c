package handler

import (
	"errors"
	"log"
	"net/http"

	"coding_documenty/internal/api/middleware"
	"coding_documenty/internal/api/view"
	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"
)

// pages is embedded by every HTML handler.
type pages struct {
	views *view.Renderer
	sm    *middleware.SessionManager
}

// render fills the request wide parts of data and writes the page.
func (p pages) render(w http.ResponseWriter, r *http.Request, status int, page string, data view.Page) {
	ctx := r.Context()
	if sess := middleware.SessionFromContext(ctx); sess != nil {
		data.IsAdmin = sess.IsAdmin
		for kind, messages := range p.sm.Sessions().PopFlashes(ctx, sess) {
			if data.Flashes == nil {
				data.Flashes = map[string][]string{}
			}
			data.Flashes[kind] = append(messages, data.Flashes[kind]...)
		}
	}
	data.Sidebar = middleware.SidebarFromContext(ctx)
	p.views.Render(w, status, page, data)
}

// fail logs err when it is not an expected workflow outcome and redirects with
// the matching user message.
func (p pages) fail(w http.ResponseWriter, r *http.Request, err error, target string) {
	kind := model.FlashError
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrForbidden),
		errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrTokenInvalid):
	case errors.Is(err, common.ErrNotFound):
		kind = model.FlashInfo
	default:
		log.Printf("ERROR: %s %s: %v", r.Method, r.URL.Path, err)
	}
	p.sm.Redirect(w, r, kind, common.FlashMessage(err), target)
}

func (p pages) success(w http.ResponseWriter, r *http.Request, message, target string) {
	p.sm.Redirect(w, r, model.FlashSuccess, message, target)
}

func errorFlash(err error) map[string][]string {
	return map[string][]string{model.FlashError: {common.FlashMessage(err)}}
}

func formValues(r *http.Request, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = r.PostFormValue(k)
	}
	return out
}
