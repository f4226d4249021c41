package docstore

import (
	"context"
	"slices"

	"tabletrack/internal/production"
	"tabletrack/models"
)

func (s *Store) CreateSku(ctx context.Context, sku *models.Sku, recipe *models.Recipe, items []models.RecipeItem) error {
	return s.update(ctx, func(doc *models.Document) error {
		sku.ID = nextID(doc.Skus, func(r models.Sku) uint { return r.ID })
		doc.Skus = append(doc.Skus, *sku)
		if recipe == nil {
			return nil
		}
		recipe.SkuID = sku.ID
		insertRecipe(doc, recipe, items)
		return nil
	})
}

func (s *Store) ListSkus(_ context.Context) ([]models.Sku, error) {
	var out []models.Sku
	s.view(func(doc *models.Document) {
		out = slices.Clone(doc.Skus)
	})
	slices.SortStableFunc(out, func(a, b models.Sku) int {
		return compareDesc(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetSku(_ context.Context, id uint) (*models.Sku, error) {
	var found *models.Sku
	s.view(func(doc *models.Document) {
		for _, sku := range doc.Skus {
			if sku.ID == id {
				sku := sku
				found = &sku
				return
			}
		}
	})
	if found == nil {
		return nil, production.ErrNotFound
	}
	return found, nil
}

func (s *Store) CreateRecipe(ctx context.Context, recipe *models.Recipe, items []models.RecipeItem) error {
	return s.update(ctx, func(doc *models.Document) error {
		insertRecipe(doc, recipe, items)
		return nil
	})
}

func insertRecipe(doc *models.Document, recipe *models.Recipe, items []models.RecipeItem) {
	recipe.ID = nextID(doc.Recipes, func(r models.Recipe) uint { return r.ID })
	doc.Recipes = append(doc.Recipes, *recipe)
	next := nextID(doc.RecipeItems, func(r models.RecipeItem) uint { return r.ID })
	for i := range items {
		items[i].ID = next
		items[i].RecipeID = recipe.ID
		next++
		doc.RecipeItems = append(doc.RecipeItems, items[i])
	}
}

func (s *Store) CurrentRecipe(_ context.Context, skuID uint) (*models.Recipe, error) {
	var current *models.Recipe
	s.view(func(doc *models.Document) {
		for _, recipe := range doc.Recipes {
			if recipe.SkuID != skuID {
				continue
			}
			if current == nil || recipe.ID > current.ID {
				recipe := recipe
				current = &recipe
			}
		}
	})
	if current == nil {
		return nil, production.ErrNotFound
	}
	return current, nil
}

func (s *Store) RecipeItems(_ context.Context, recipeID uint) ([]models.RecipeItem, error) {
	var out []models.RecipeItem
	s.view(func(doc *models.Document) {
		for _, item := range doc.RecipeItems {
			if item.RecipeID == recipeID {
				out = append(out, item)
			}
		}
	})
	return out, nil
}

func compareDesc(a, b uint) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
