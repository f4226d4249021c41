package production

import (
	"context"
	"errors"
	"strings"

	"tabletrack/models"
)

// SkuInput describes a new Sku, optionally with its first recipe.
type SkuInput struct {
	Name               string       `json:"name"`
	Flavor             *string      `json:"flavor"`
	StrengthMg         *float64     `json:"strength_mg"`
	TargetTabletWeight *float64     `json:"target_tablet_weight"`
	Recipe             *RecipeInput `json:"recipe"`
}

// RecipeInput describes a recipe and its ordered material lines.
type RecipeInput struct {
	Instructions string            `json:"instructions"`
	Items        []RecipeItemInput `json:"items"`
}

// RecipeItemInput is one material line of a RecipeInput.
type RecipeItemInput struct {
	Material     string  `json:"material"`
	TargetWeight float64 `json:"target_weight"`
	Unit         string  `json:"unit"`
}

// RecipeDetail is a recipe together with its items.
type RecipeDetail struct {
	models.Recipe
	Items []models.RecipeItem `json:"items"`
}

// SkuDetail is a Sku together with its current recipe, if any.
type SkuDetail struct {
	Sku    models.Sku    `json:"sku"`
	Recipe *RecipeDetail `json:"recipe"`
}

// CreateSku validates and persists a new Sku and returns its id.
func (s *Service) CreateSku(ctx context.Context, in SkuInput) (uint, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, track("create_sku", invalid("name", "name is required"))
	}

	var (
		recipe *models.Recipe
		items  []models.RecipeItem
	)
	if in.Recipe != nil {
		var err error
		recipe, items, err = buildRecipe(*in.Recipe)
		if err != nil {
			return 0, track("create_sku", err)
		}
	}

	sku := models.Sku{
		Name:               name,
		Flavor:             nonEmpty(in.Flavor),
		StrengthMg:         positive(in.StrengthMg),
		TargetTabletWeight: positive(in.TargetTabletWeight),
		CreatedAt:          s.now(),
	}
	if err := s.store.CreateSku(ctx, &sku, recipe, items); err != nil {
		return 0, track("create_sku", &StorageError{Op: "create sku", Err: err})
	}
	return sku.ID, track("create_sku", nil)
}

// ListSkus returns every Sku, most recently created first.
func (s *Service) ListSkus(ctx context.Context) ([]models.Sku, error) {
	skus, err := s.store.ListSkus(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list skus", Err: err}
	}
	if skus == nil {
		skus = []models.Sku{}
	}
	return skus, nil
}

// GetSku returns a Sku with its current recipe.
func (s *Service) GetSku(ctx context.Context, id uint) (SkuDetail, error) {
	sku, err := s.store.GetSku(ctx, id)
	if err != nil {
		return SkuDetail{}, storageFailure("get sku", "sku", id, err)
	}
	recipe, err := s.CurrentRecipe(ctx, sku.ID)
	if err != nil {
		return SkuDetail{}, err
	}
	return SkuDetail{Sku: *sku, Recipe: recipe}, nil
}

// CreateRecipe adds a recipe to an existing Sku. Being the newest, it becomes the
// Sku's current recipe. Batches created earlier keep their own item snapshot.
func (s *Service) CreateRecipe(ctx context.Context, skuID uint, in RecipeInput) (uint, error) {
	recipe, items, err := buildRecipe(in)
	if err != nil {
		return 0, track("create_recipe", err)
	}
	if _, err := s.store.GetSku(ctx, skuID); err != nil {
		return 0, track("create_recipe", storageFailure("get sku", "sku", skuID, err))
	}
	recipe.SkuID = skuID
	if err := s.store.CreateRecipe(ctx, recipe, items); err != nil {
		return 0, track("create_recipe", &StorageError{Op: "create recipe", Err: err})
	}
	return recipe.ID, track("create_recipe", nil)
}

// CurrentRecipe resolves the live recipe for skuID: the one with the highest id.
// It returns nil without error when the Sku has no recipe.
func (s *Service) CurrentRecipe(ctx context.Context, skuID uint) (*RecipeDetail, error) {
	recipe, err := s.store.CurrentRecipe(ctx, skuID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "find current recipe", Err: err}
	}
	items, err := s.RecipeItems(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	return &RecipeDetail{Recipe: *recipe, Items: items}, nil
}

// RecipeItems returns the items of a recipe in insertion order.
func (s *Service) RecipeItems(ctx context.Context, recipeID uint) ([]models.RecipeItem, error) {
	items, err := s.store.RecipeItems(ctx, recipeID)
	if err != nil {
		return nil, &StorageError{Op: "list recipe items", Err: err}
	}
	if items == nil {
		items = []models.RecipeItem{}
	}
	return items, nil
}

func buildRecipe(in RecipeInput) (*models.Recipe, []models.RecipeItem, error) {
	items := make([]models.RecipeItem, 0, len(in.Items))
	for _, line := range in.Items {
		material := strings.TrimSpace(line.Material)
		if material == "" {
			return nil, nil, invalid("recipe.items.material", "recipe item material is required")
		}
		if line.TargetWeight <= 0 {
			return nil, nil, invalid("recipe.items.target_weight", "recipe item %q needs a positive target_weight", material)
		}
		items = append(items, models.RecipeItem{
			Material:     material,
			TargetWeight: line.TargetWeight,
			Unit:         normalizedUnit(line.Unit),
		})
	}
	return &models.Recipe{Instructions: strings.TrimSpace(in.Instructions)}, items, nil
}

func normalizedUnit(unit string) string {
	trimmed := strings.TrimSpace(unit)
	if trimmed == "" {
		return models.DefaultUnit
	}
	return trimmed
}

func nonEmpty(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func positive(value *float64) *float64 {
	if value == nil || *value <= 0 {
		return nil
	}
	v := *value
	return &v
}
