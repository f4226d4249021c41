package production

import (
	"context"
	"time"

	"tabletrack/models"
)

// Store is the storage gateway behind the production service. It is the only
// component with durable side effects. Implementations assign ids, which increase
// monotonically per collection and are never reused.
//
// Get*/Update*/Complete* methods return ErrNotFound when the addressed record does
// not exist. Multi-row writes must be applied atomically.
type Store interface {
	// CreateSku persists sku and, when recipe is non-nil, the recipe and its items.
	// Ids are written back into the arguments.
	CreateSku(ctx context.Context, sku *models.Sku, recipe *models.Recipe, items []models.RecipeItem) error
	// ListSkus returns skus newest first (descending id).
	ListSkus(ctx context.Context) ([]models.Sku, error)
	GetSku(ctx context.Context, id uint) (*models.Sku, error)

	CreateRecipe(ctx context.Context, recipe *models.Recipe, items []models.RecipeItem) error
	// CurrentRecipe returns the recipe with the highest id for skuID, or ErrNotFound.
	CurrentRecipe(ctx context.Context, skuID uint) (*models.Recipe, error)
	// RecipeItems returns the items of a recipe in insertion order.
	RecipeItems(ctx context.Context, recipeID uint) ([]models.RecipeItem, error)

	CreateBatch(ctx context.Context, batch *models.Batch, items []models.BatchItem) error
	// ListBatches returns batches newest first, filtered by exact status when status is non-empty.
	ListBatches(ctx context.Context, status string) ([]models.Batch, error)
	GetBatch(ctx context.Context, id uint) (*models.Batch, error)
	// BatchItems returns the items of a batch in insertion order.
	BatchItems(ctx context.Context, batchID uint) ([]models.BatchItem, error)
	UpdateBatch(ctx context.Context, id uint, changes BatchChanges) error
	// UpdateBatchItems applies updates to items matching (id, batchID) and returns the
	// number of matched items. Ids belonging to another batch are skipped.
	UpdateBatchItems(ctx context.Context, batchID uint, updates []BatchItemUpdate, at time.Time) (int, error)

	CreatePressRun(ctx context.Context, run *models.PressRun) error
	// ListPressRuns returns press runs newest first, limited to batchID when non-zero.
	ListPressRuns(ctx context.Context, batchID uint) ([]models.PressRun, error)
	CompletePressRun(ctx context.Context, id uint, completion PressCompletion) error
}

// BatchChanges is a status update with optional attribution changes.
type BatchChanges struct {
	Status        string
	PickedBy      Field[string]
	MixedBy       Field[string]
	PressOperator Field[string]
	UpdatedAt     time.Time
}

// Apply mutates batch in place.
func (c BatchChanges) Apply(batch *models.Batch) {
	batch.Status = c.Status
	c.PickedBy.Apply(&batch.PickedBy)
	c.MixedBy.Apply(&batch.MixedBy)
	c.PressOperator.Apply(&batch.PressOperator)
	batch.UpdatedAt = c.UpdatedAt
}

// BatchItemUpdate records picking against one batch item.
type BatchItemUpdate struct {
	ID           uint           `json:"id"`
	PickedWeight Field[float64] `json:"picked_weight"`
	Lot          Field[string]  `json:"lot"`
}

// Empty reports whether the update carries no field.
func (u BatchItemUpdate) Empty() bool {
	return !u.PickedWeight.Set && !u.Lot.Set
}

// Apply mutates item in place.
func (u BatchItemUpdate) Apply(item *models.BatchItem) {
	u.PickedWeight.Apply(&item.PickedWeight)
	u.Lot.Apply(&item.Lot)
}

// PressCompletion records the outcome of a press run.
type PressCompletion struct {
	FinalWeight Field[float64]
	LossWeight  Field[float64]
	CompletedAt time.Time
}

// Apply mutates run in place.
func (c PressCompletion) Apply(run *models.PressRun) {
	c.FinalWeight.Apply(&run.FinalWeight)
	c.LossWeight.Apply(&run.LossWeight)
	run.UpdatedAt = c.CompletedAt
}
