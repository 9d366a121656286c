package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"coding_documenty/internal/api/middleware"
	"coding_documenty/internal/api/view"
	"coding_documenty/internal/app/service"
	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const maxImportBytes = 8 << 20

var questionFields = []string{"chapter", "title", "code", "output", "difficulty", "language", "explanation", "tags", "fileName"}

type AdminHandler struct {
	pages
	questionService *service.QuestionService
	authService     *service.AuthService
}

func NewAdminHandler(questionService *service.QuestionService, authService *service.AuthService, views *view.Renderer, sm *middleware.SessionManager) *AdminHandler {
	return &AdminHandler{pages: pages{views: views, sm: sm}, questionService: questionService, authService: authService}
}

// RegisterRoutes expects to be mounted behind SessionManager.AdminOnly.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/add", h.addPage)
	r.Post("/add", h.add)
	r.Get("/edit/{id}", h.editPage)
	r.Put("/edit/{id}", h.edit)
	r.Delete("/delete/{id}", h.delete)
	r.Post("/delete-selected", h.deleteSelected)
	r.Get("/delete-all", h.deleteAllPage)
	r.Post("/delete-all", h.deleteAll)
	r.Get("/create-admin", h.createAdminPage)
	r.Post("/create-admin", h.createAdmin)
	r.Get("/import", h.importPage)
	r.Post("/import", h.importQuestions)
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "admin/dashboard", view.Page{Title: "Admin Dashboard", Questions: questions})
}

func (h *AdminHandler) addPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "admin/form", view.Page{
		Title:  "Add New Question",
		Action: "/admin/add",
		Form:   map[string]string{"difficulty": string(model.DifficultyMedium), "language": string(model.LanguageCpp)},
	})
}

func (h *AdminHandler) add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/add")
		return
	}
	_, err := h.questionService.Add(r.Context(), service.QuestionInput{
		Chapter:     r.PostFormValue("chapter"),
		Title:       r.PostFormValue("title"),
		Code:        r.PostFormValue("code"),
		Output:      r.PostFormValue("output"),
		Difficulty:  r.PostFormValue("difficulty"),
		Language:    r.PostFormValue("language"),
		Explanation: r.PostFormValue("explanation"),
		Tags:        service.ParseTags(r.PostFormValue("tags")),
		FileName:    r.PostFormValue("fileName"),
	})
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			h.render(w, r, http.StatusUnprocessableEntity, "admin/form", view.Page{
				Title:   "Add New Question",
				Action:  "/admin/add",
				Form:    formValues(r, questionFields...),
				Flashes: errorFlash(err),
			})
			return
		}
		h.fail(w, r, err, "/admin/add")
		return
	}
	h.success(w, r, "Question added successfully", "/admin/dashboard")
}

func questionForm(q *model.Question) map[string]string {
	return map[string]string{
		"chapter":     q.Chapter,
		"title":       q.Title,
		"code":        q.Code,
		"output":      q.Output,
		"difficulty":  string(q.Difficulty),
		"language":    string(q.Language),
		"explanation": q.Explanation,
		"tags":        strings.Join(q.Tags, ", "),
		"fileName":    q.FileName,
	}
}

func (h *AdminHandler) editPage(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "/admin/dashboard")
		return
	}
	h.render(w, r, http.StatusOK, "admin/form", view.Page{
		Title:  "Edit Question",
		Action: "/admin/edit/" + q.ID + "?_method=PUT",
		Form:   questionForm(q),
	})
}

// patchFromForm only sets fields that were submitted, so a partial form leaves
// the rest untouched.
func patchFromForm(r *http.Request) service.QuestionPatch {
	field := func(name string) *string {
		if _, ok := r.PostForm[name]; !ok {
			return nil
		}
		v := r.PostForm.Get(name)
		return &v
	}
	patch := service.QuestionPatch{
		Chapter:     field("chapter"),
		Title:       field("title"),
		Code:        field("code"),
		Output:      field("output"),
		Difficulty:  field("difficulty"),
		Language:    field("language"),
		Explanation: field("explanation"),
		FileName:    field("fileName"),
	}
	if raw := field("tags"); raw != nil {
		tags := service.ParseTags(*raw)
		patch.Tags = &tags
	}
	return patch
}

func (h *AdminHandler) edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/edit/"+id)
		return
	}
	if _, err := h.questionService.Edit(r.Context(), id, patchFromForm(r)); err != nil {
		target := "/admin/edit/" + id
		if errors.Is(err, common.ErrNotFound) {
			target = "/admin/dashboard"
		}
		h.fail(w, r, err, target)
		return
	}
	h.success(w, r, "Question updated successfully", "/admin/dashboard")
}

func (h *AdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.questionService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "/admin/dashboard")
		return
	}
	h.success(w, r, "Question deleted successfully", "/admin/dashboard")
}

func (h *AdminHandler) deleteSelected(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/dashboard")
		return
	}
	n, err := h.questionService.DeleteSelected(r.Context(), r.PostForm["ids"])
	if err != nil {
		h.fail(w, r, err, "/admin/dashboard")
		return
	}
	h.success(w, r, fmt.Sprintf("%d question(s) deleted", n), "/admin/dashboard")
}

func (h *AdminHandler) deleteAllPage(w http.ResponseWriter, r *http.Request) {
	n, err := h.questionService.CountAll(r.Context())
	if err != nil {
		h.fail(w, r, err, "/admin/dashboard")
		return
	}
	h.render(w, r, http.StatusOK, "admin/delete_all", view.Page{
		Title:       "Delete All Questions",
		Count:       n,
		ConfirmWord: service.DeleteAllConfirmation,
	})
}

func (h *AdminHandler) deleteAll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/delete-all")
		return
	}
	n, err := h.questionService.DeleteAll(r.Context(), r.PostFormValue("confirm"))
	if err != nil {
		h.fail(w, r, err, "/admin/delete-all")
		return
	}
	h.success(w, r, fmt.Sprintf("All questions deleted (%d)", n), "/admin/dashboard")
}

func (h *AdminHandler) createAdminPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "admin/create_admin", view.Page{Title: "Create New Admin"})
}

func (h *AdminHandler) createAdmin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/create-admin")
		return
	}
	sess := middleware.SessionFromContext(r.Context())
	_, err := h.authService.CreateAdmin(r.Context(), sess, service.CreateAdminRequest{
		FullName: r.PostFormValue("fullName"),
		Email:    r.PostFormValue("email"),
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrValidation) {
			h.render(w, r, http.StatusUnprocessableEntity, "admin/create_admin", view.Page{
				Title:   "Create New Admin",
				Form:    formValues(r, "fullName", "email", "username"),
				Flashes: errorFlash(err),
			})
			return
		}
		h.fail(w, r, err, "/admin/create-admin")
		return
	}
	h.success(w, r, "New admin added successfully!", "/admin/dashboard")
}

func (h *AdminHandler) importPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "admin/import", view.Page{Title: "Import Questions"})
}

// importPayload reads the JSON either from an uploaded file or a pasted field.
func importPayload(w http.ResponseWriter, r *http.Request) (service.ImportPayload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	var raw []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, common.Userf(common.ErrValidation, "The upload could not be read.")
		}
		if file, _, err := r.FormFile("file"); err == nil {
			defer file.Close()
			if raw, err = io.ReadAll(file); err != nil {
				return nil, common.Userf(common.ErrValidation, "The upload could not be read.")
			}
		}
	}
	if len(raw) == 0 {
		raw = []byte(r.FormValue("payload"))
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, common.Userf(common.ErrValidation, "Choose a JSON file or paste the JSON to import.")
	}

	var payload service.ImportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, common.Userf(common.ErrValidation, "Invalid JSON: %v", err)
	}
	return payload, nil
}

func (h *AdminHandler) importQuestions(w http.ResponseWriter, r *http.Request) {
	payload, err := importPayload(w, r)
	if err != nil {
		h.fail(w, r, err, "/admin/import")
		return
	}
	result, err := h.questionService.Import(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err, "/admin/import")
		return
	}
	h.render(w, r, http.StatusOK, "admin/import", view.Page{
		Title:   "Import Questions",
		Import:  &result,
		Flashes: map[string][]string{model.FlashSuccess: {fmt.Sprintf("Import finished: %d created, %d skipped.", result.Created, result.Skipped)}},
	})
}
