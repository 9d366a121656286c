package service

import (
	"coding_documenty/internal/domain/model"

	"github.com/gosimple/slug"
)

type ChapterGroup struct {
	Name      string
	Slug      string
	Questions []model.Question
}

// GroupByChapter groups questions by chapter keeping the input order, both
// for chapters and for questions inside a chapter.
func GroupByChapter(questions []model.Question) []ChapterGroup {
	groups := []ChapterGroup{}
	index := map[string]int{}
	for _, q := range questions {
		i, ok := index[q.Chapter]
		if !ok {
			i = len(groups)
			index[q.Chapter] = i
			groups = append(groups, ChapterGroup{Name: q.Chapter, Slug: slug.Make(q.Chapter)})
		}
		groups[i].Questions = append(groups[i].Questions, q)
	}
	return groups
}
