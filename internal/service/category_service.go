package service

import (
	"context"
	"strings"

	"calendario-local/internal/model"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	events *EventService
}

func NewCategoryService(events *EventService) *CategoryService {
	return &CategoryService{events: events}
}

// List returns the fixed categories followed by any other category found on
// stored events, in first-seen order. Categories are not validated on write,
// so the form must be able to show whatever is already stored.
func (s *CategoryService) List(ctx context.Context) []string {
	out := model.Categories()
	seen := make(map[string]struct{}, len(out))
	for _, c := range out {
		seen[c] = struct{}{}
	}
	for _, e := range s.events.GetAll(ctx) {
		name := strings.TrimSpace(e.Category)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
