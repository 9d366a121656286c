package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"

	"coding_documenty/internal/app/service"
	"coding_documenty/internal/domain/model"
)

//go:embed templates
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page is everything a template may read. Handlers fill the page specific
// part, the renderer fills the request wide part.
type Page struct {
	Title     string
	Flashes   map[string][]string
	IsAdmin   bool
	Sidebar   []service.ChapterGroup
	Welcome   bool
	Query     string
	Question  *model.Question
	Questions []model.Question
	Action    string
	Form      map[string]string
	Token     string
	Count     int64
	Import    *service.ImportResult

	Difficulties []model.QuestionDifficulty
	Languages    []model.QuestionLanguage
	ConfirmWord  string
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"isSelected": func(a, b any) bool {
		return fmt.Sprint(a) == fmt.Sprint(b)
	},
}

// New parses every page under templates/ together with the shared layout.
func New() (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}}
	err := fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || p == layoutFile || path.Ext(p) != ".html" {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".html")
		t, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templateFS, layoutFile, p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render executes page into a buffer first so a template error never leaves a
// half written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Page) {
	t, ok := r.pages[page]
	if !ok {
		log.Printf("ERROR: unknown template %q", page)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if data.Difficulties == nil {
		data.Difficulties = model.Difficulties
	}
	if data.Languages == nil {
		data.Languages = model.Languages
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("ERROR: rendering %s: %v", page, err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (r *Renderer) Has(page string) bool {
	_, ok := r.pages[page]
	return ok
}
