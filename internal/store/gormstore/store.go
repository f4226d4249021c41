// Package gormstore implements the production storage gateway on a relational
// database through gorm.
package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"tabletrack/internal/production"
	"tabletrack/models"
)

var _ production.Store = (*Store)(nil)

// Store is a production.Store backed by gorm.
type Store struct {
	db *gorm.DB
}

// New wraps an already migrated database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return production.ErrNotFound
	}
	return err
}

func (s *Store) CreateSku(ctx context.Context, sku *models.Sku, recipe *models.Recipe, items []models.RecipeItem) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sku).Error; err != nil {
			return err
		}
		if recipe == nil {
			return nil
		}
		recipe.SkuID = sku.ID
		return createRecipe(tx, recipe, items)
	})
}

func (s *Store) ListSkus(ctx context.Context) ([]models.Sku, error) {
	var skus []models.Sku
	if err := s.conn(ctx).Order("id desc").Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

func (s *Store) GetSku(ctx context.Context, id uint) (*models.Sku, error) {
	var sku models.Sku
	if err := s.conn(ctx).First(&sku, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &sku, nil
}

func (s *Store) CreateRecipe(ctx context.Context, recipe *models.Recipe, items []models.RecipeItem) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return createRecipe(tx, recipe, items)
	})
}

func createRecipe(tx *gorm.DB, recipe *models.Recipe, items []models.RecipeItem) error {
	if err := tx.Create(recipe).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].RecipeID = recipe.ID
	}
	return tx.Create(&items).Error
}

func (s *Store) CurrentRecipe(ctx context.Context, skuID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.conn(ctx).Where("sku_id = ?", skuID).Order("id desc").Limit(1).Take(&recipe).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &recipe, nil
}

func (s *Store) RecipeItems(ctx context.Context, recipeID uint) ([]models.RecipeItem, error) {
	var items []models.RecipeItem
	if err := s.conn(ctx).Where("recipe_id = ?", recipeID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateBatch inserts the batch and its items in one transaction, so a failed item
// insert never leaves an empty batch behind.
func (s *Store) CreateBatch(ctx context.Context, batch *models.Batch, items []models.BatchItem) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].BatchID = batch.ID
		}
		return tx.Create(&items).Error
	})
}

func (s *Store) ListBatches(ctx context.Context, status string) ([]models.Batch, error) {
	query := s.conn(ctx).Order("created_at desc, id desc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var batches []models.Batch
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (s *Store) GetBatch(ctx context.Context, id uint) (*models.Batch, error) {
	var batch models.Batch
	if err := s.conn(ctx).First(&batch, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &batch, nil
}

func (s *Store) BatchItems(ctx context.Context, batchID uint) ([]models.BatchItem, error) {
	var items []models.BatchItem
	if err := s.conn(ctx).Where("batch_id = ?", batchID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateBatch(ctx context.Context, id uint, changes production.BatchChanges) error {
	updates := map[string]any{
		"status":     changes.Status,
		"updated_at": changes.UpdatedAt,
	}
	setField(updates, "picked_by", changes.PickedBy)
	setField(updates, "mixed_by", changes.MixedBy)
	setField(updates, "press_operator", changes.PressOperator)

	result := s.conn(ctx).Model(&models.Batch{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return production.ErrNotFound
	}
	return nil
}

// UpdateBatchItems applies every update inside one transaction. Updates whose
// (id, batch_id) pair matches nothing are skipped and not counted.
func (s *Store) UpdateBatchItems(ctx context.Context, batchID uint, updates []production.BatchItemUpdate, at time.Time) (int, error) {
	matched := 0
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var batch models.Batch
		if err := tx.Select("id").First(&batch, batchID).Error; err != nil {
			return notFound(err)
		}

		for _, update := range updates {
			scope := tx.Model(&models.BatchItem{}).Where("id = ? AND batch_id = ?", update.ID, batchID)
			if update.Empty() {
				var count int64
				if err := scope.Count(&count).Error; err != nil {
					return err
				}
				matched += int(count)
				continue
			}

			fields := map[string]any{}
			setField(fields, "picked_weight", update.PickedWeight)
			setField(fields, "lot", update.Lot)
			result := scope.Updates(fields)
			if result.Error != nil {
				return result.Error
			}
			matched += int(result.RowsAffected)
		}

		if matched == 0 {
			return nil
		}
		return tx.Model(&models.Batch{}).Where("id = ?", batchID).Update("updated_at", at).Error
	})
	if err != nil {
		return 0, err
	}
	return matched, nil
}

func (s *Store) CreatePressRun(ctx context.Context, run *models.PressRun) error {
	return s.conn(ctx).Create(run).Error
}

func (s *Store) ListPressRuns(ctx context.Context, batchID uint) ([]models.PressRun, error) {
	query := s.conn(ctx).Order("created_at desc, id desc")
	if batchID != 0 {
		query = query.Where("batch_id = ?", batchID)
	}
	var runs []models.PressRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) CompletePressRun(ctx context.Context, id uint, completion production.PressCompletion) error {
	updates := map[string]any{
		"updated_at": completion.CompletedAt,
	}
	setField(updates, "final_weight", completion.FinalWeight)
	setField(updates, "loss_weight", completion.LossWeight)

	result := s.conn(ctx).Model(&models.PressRun{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return production.ErrNotFound
	}
	return nil
}

// setField adds column to updates only when the field was provided; a provided
// null is written as NULL.
func setField[T any](updates map[string]any, column string, field production.Field[T]) {
	if !field.Set {
		return
	}
	if field.Value == nil {
		updates[column] = nil
		return
	}
	updates[column] = *field.Value
}

// Import inserts every row of doc with its original id in one transaction. On
// postgres the id sequences are moved past the imported ids.
func (s *Store) Import(ctx context.Context, doc models.Document) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createAll(tx, doc.Skus); err != nil {
			return err
		}
		if err := createAll(tx, doc.Recipes); err != nil {
			return err
		}
		if err := createAll(tx, doc.RecipeItems); err != nil {
			return err
		}
		if err := createAll(tx, doc.Batches); err != nil {
			return err
		}
		if err := createAll(tx, doc.BatchItems); err != nil {
			return err
		}
		if err := createAll(tx, doc.PressRuns); err != nil {
			return err
		}
		if tx.Dialector.Name() != "postgres" {
			return nil
		}
		for _, table := range []string{"skus", "recipes", "recipe_items", "batches", "batch_items", "press_runs"} {
			stmt := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM " + table
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(&rows, 200).Error
}
