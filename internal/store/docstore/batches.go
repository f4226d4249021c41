package docstore

import (
	"context"
	"slices"
	"time"

	"tabletrack/internal/production"
	"tabletrack/models"
)

func (s *Store) CreateBatch(ctx context.Context, batch *models.Batch, items []models.BatchItem) error {
	return s.update(ctx, func(doc *models.Document) error {
		batch.ID = nextID(doc.Batches, func(r models.Batch) uint { return r.ID })
		doc.Batches = append(doc.Batches, *batch)
		next := nextID(doc.BatchItems, func(r models.BatchItem) uint { return r.ID })
		for i := range items {
			items[i].ID = next
			items[i].BatchID = batch.ID
			next++
			doc.BatchItems = append(doc.BatchItems, items[i])
		}
		return nil
	})
}

func (s *Store) ListBatches(_ context.Context, status string) ([]models.Batch, error) {
	var out []models.Batch
	s.view(func(doc *models.Document) {
		for _, batch := range doc.Batches {
			if status == "" || batch.Status == status {
				out = append(out, batch)
			}
		}
	})
	slices.SortStableFunc(out, func(a, b models.Batch) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareDesc(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetBatch(_ context.Context, id uint) (*models.Batch, error) {
	var found *models.Batch
	s.view(func(doc *models.Document) {
		if i := batchIndex(doc, id); i >= 0 {
			batch := doc.Batches[i]
			found = &batch
		}
	})
	if found == nil {
		return nil, production.ErrNotFound
	}
	return found, nil
}

func (s *Store) BatchItems(_ context.Context, batchID uint) ([]models.BatchItem, error) {
	var out []models.BatchItem
	s.view(func(doc *models.Document) {
		for _, item := range doc.BatchItems {
			if item.BatchID == batchID {
				out = append(out, item)
			}
		}
	})
	return out, nil
}

func (s *Store) UpdateBatch(ctx context.Context, id uint, changes production.BatchChanges) error {
	return s.update(ctx, func(doc *models.Document) error {
		i := batchIndex(doc, id)
		if i < 0 {
			return production.ErrNotFound
		}
		changes.Apply(&doc.Batches[i])
		return nil
	})
}

func (s *Store) UpdateBatchItems(ctx context.Context, batchID uint, updates []production.BatchItemUpdate, at time.Time) (int, error) {
	matched := 0
	err := s.update(ctx, func(doc *models.Document) error {
		b := batchIndex(doc, batchID)
		if b < 0 {
			return production.ErrNotFound
		}
		for _, update := range updates {
			for i := range doc.BatchItems {
				item := &doc.BatchItems[i]
				if item.ID != update.ID || item.BatchID != batchID {
					continue
				}
				update.Apply(item)
				matched++
				break
			}
		}
		if matched > 0 {
			doc.Batches[b].UpdatedAt = at
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return matched, nil
}

func batchIndex(doc *models.Document, id uint) int {
	for i := range doc.Batches {
		if doc.Batches[i].ID == id {
			return i
		}
	}
	return -1
}
