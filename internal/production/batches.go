package production

import (
	"context"
	"errors"
	"strings"

	applog "tabletrack/internal/log"
	"tabletrack/internal/metrics"
	"tabletrack/models"
)

// Well-known batch statuses. Status is a free-form label: any non-empty value is
// accepted and any transition between values is allowed.
const (
	StatusPending   = "pending"
	StatusPicking   = "picking"
	StatusMixing    = "mixing"
	StatusPressing  = "pressing"
	StatusCompleted = "completed"
)

// Advisory warnings returned by CreateBatch when no items could be materialized.
const (
	WarningNoRecipe    = "Batch created without recipe items"
	WarningEmptyRecipe = "Batch created; recipe has no items"
)

// BatchCreation is the result of CreateBatch.
type BatchCreation struct {
	ID      uint   `json:"id"`
	Warning string `json:"warning,omitempty"`
	Items   int    `json:"-"`
}

// BatchDetail pairs the as-picked batch items with the Sku's current recipe.
// Recipe is resolved at read time and may differ from the snapshot in Items.
type BatchDetail struct {
	Batch  models.Batch       `json:"batch"`
	Items  []models.BatchItem `json:"items"`
	Recipe *RecipeDetail      `json:"recipe"`
}

// StatusUpdate sets a batch status and optionally its attribution fields.
type StatusUpdate struct {
	Status        string        `json:"status"`
	PickedBy      Field[string] `json:"picked_by"`
	MixedBy       Field[string] `json:"mixed_by"`
	PressOperator Field[string] `json:"press_operator"`
}

// CreateBatch creates a pending batch for skuID and copies the Sku's current recipe
// items into it. A missing or empty recipe still creates the batch, with a warning.
func (s *Service) CreateBatch(ctx context.Context, skuID uint, plannedWeight float64) (BatchCreation, error) {
	if skuID == 0 || !(plannedWeight > 0) {
		return BatchCreation{}, track("create_batch", invalid("sku_id", "sku_id and planned_weight are required"))
	}
	if _, err := s.store.GetSku(ctx, skuID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return BatchCreation{}, track("create_batch", invalid("sku_id", "sku %d does not exist", skuID))
		}
		return BatchCreation{}, track("create_batch", &StorageError{Op: "get sku", Err: err})
	}

	result := BatchCreation{}
	outcome := "snapshot"

	var items []models.BatchItem
	recipe, err := s.store.CurrentRecipe(ctx, skuID)
	switch {
	case errors.Is(err, ErrNotFound):
		result.Warning = WarningNoRecipe
		outcome = "no_recipe"
	case err != nil:
		return BatchCreation{}, track("create_batch", &StorageError{Op: "find current recipe", Err: err})
	default:
		recipeItems, err := s.store.RecipeItems(ctx, recipe.ID)
		if err != nil {
			return BatchCreation{}, track("create_batch", &StorageError{Op: "list recipe items", Err: err})
		}
		if len(recipeItems) == 0 {
			result.Warning = WarningEmptyRecipe
			outcome = "empty_recipe"
		}
		items = materialize(recipeItems)
	}

	now := s.now()
	batch := models.Batch{
		SkuID:         skuID,
		PlannedWeight: plannedWeight,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateBatch(ctx, &batch, items); err != nil {
		return BatchCreation{}, track("create_batch", &StorageError{Op: "create batch", Err: err})
	}

	result.ID = batch.ID
	result.Items = len(items)
	if result.Warning != "" {
		applog.Info(ctx, "batch created without items", "batchID", batch.ID, "skuID", skuID, "warning", result.Warning)
	}
	metrics.BatchesCreated.WithLabelValues(outcome).Inc()
	return result, track("create_batch", nil)
}

// materialize copies recipe lines into unpicked batch items. The copy is a snapshot:
// later recipe changes never reach existing batches.
func materialize(recipeItems []models.RecipeItem) []models.BatchItem {
	items := make([]models.BatchItem, 0, len(recipeItems))
	for _, line := range recipeItems {
		items = append(items, models.BatchItem{
			Material:     line.Material,
			TargetWeight: line.TargetWeight,
			Unit:         normalizedUnit(line.Unit),
		})
	}
	return items
}

// ListBatches returns batches newest first, optionally filtered by exact status.
func (s *Service) ListBatches(ctx context.Context, status string) ([]models.Batch, error) {
	batches, err := s.store.ListBatches(ctx, status)
	if err != nil {
		return nil, &StorageError{Op: "list batches", Err: err}
	}
	if batches == nil {
		batches = []models.Batch{}
	}
	return batches, nil
}

// BatchDetail returns a batch, its items, and the Sku's current recipe.
func (s *Service) BatchDetail(ctx context.Context, id uint) (BatchDetail, error) {
	batch, err := s.store.GetBatch(ctx, id)
	if err != nil {
		return BatchDetail{}, storageFailure("get batch", "batch", id, err)
	}
	items, err := s.store.BatchItems(ctx, id)
	if err != nil {
		return BatchDetail{}, &StorageError{Op: "list batch items", Err: err}
	}
	if items == nil {
		items = []models.BatchItem{}
	}
	recipe, err := s.CurrentRecipe(ctx, batch.SkuID)
	if err != nil {
		return BatchDetail{}, err
	}
	return BatchDetail{Batch: *batch, Items: items, Recipe: recipe}, nil
}

// UpdateStatus replaces the status label of a batch. It returns the number of
// updated batches, which is always 1 on success.
func (s *Service) UpdateStatus(ctx context.Context, id uint, update StatusUpdate) (int, error) {
	status := strings.TrimSpace(update.Status)
	if status == "" {
		return 0, track("update_status", invalid("status", "status is required"))
	}
	changes := BatchChanges{
		Status:        status,
		PickedBy:      update.PickedBy,
		MixedBy:       update.MixedBy,
		PressOperator: update.PressOperator,
		UpdatedAt:     s.now(),
	}
	if err := s.store.UpdateBatch(ctx, id, changes); err != nil {
		return 0, track("update_status", storageFailure("update batch", "batch", id, err))
	}
	return 1, track("update_status", nil)
}
