package models

// Recipe is a formula for a Sku. The recipe with the highest id for a Sku is its current recipe.
type Recipe struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SkuID        uint   `gorm:"not null;index" json:"sku_id"`
	Instructions string `gorm:"type:text" json:"instructions"`
}

// RecipeItem is one material line of a Recipe.
type RecipeItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	RecipeID     uint    `gorm:"not null;index" json:"recipe_id"`
	Material     string  `gorm:"not null" json:"material"`
	TargetWeight float64 `gorm:"not null" json:"target_weight"`
	Unit         string  `gorm:"not null;default:kg" json:"unit"`
}

// DefaultUnit is applied to recipe and batch items created without a unit.
const DefaultUnit = "kg"
