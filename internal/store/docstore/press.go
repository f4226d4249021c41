package docstore

import (
	"context"
	"slices"

	"tabletrack/internal/production"
	"tabletrack/models"
)

func (s *Store) CreatePressRun(ctx context.Context, run *models.PressRun) error {
	return s.update(ctx, func(doc *models.Document) error {
		run.ID = nextID(doc.PressRuns, func(r models.PressRun) uint { return r.ID })
		doc.PressRuns = append(doc.PressRuns, *run)
		return nil
	})
}

func (s *Store) ListPressRuns(_ context.Context, batchID uint) ([]models.PressRun, error) {
	var out []models.PressRun
	s.view(func(doc *models.Document) {
		for _, run := range doc.PressRuns {
			if batchID == 0 || run.BatchID == batchID {
				out = append(out, run)
			}
		}
	})
	slices.SortStableFunc(out, func(a, b models.PressRun) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareDesc(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) CompletePressRun(ctx context.Context, id uint, completion production.PressCompletion) error {
	return s.update(ctx, func(doc *models.Document) error {
		for i := range doc.PressRuns {
			if doc.PressRuns[i].ID == id {
				completion.Apply(&doc.PressRuns[i])
				return nil
			}
		}
		return production.ErrNotFound
	})
}
