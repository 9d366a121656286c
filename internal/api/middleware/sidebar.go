package middleware

import (
	"context"
	"log"
	"net/http"

	"coding_documenty/internal/app/service"
	"coding_documenty/internal/domain/model"
)

type ChapterLister interface {
	ListByChapter(ctx context.Context) ([]model.Question, error)
}

// Sidebar reads the chapter tree for every page. A store failure leaves the
// sidebar empty and the request continues.
func Sidebar(lister ChapterLister) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			groups := []service.ChapterGroup{}
			if questions, err := lister.ListByChapter(r.Context()); err != nil {
				log.Printf("WARN: sidebar unavailable: %v", err)
			} else {
				groups = service.GroupByChapter(questions)
			}
			ctx := context.WithValue(r.Context(), SidebarCtxKey, groups)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SidebarFromContext(ctx context.Context) []service.ChapterGroup {
	groups, _ := ctx.Value(SidebarCtxKey).([]service.ChapterGroup)
	return groups
}
