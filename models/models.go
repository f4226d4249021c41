package models

// All lists every persisted entity in dependency order, for migrations.
func All() []any {
	return []any{
		&Sku{},
		&Recipe{},
		&RecipeItem{},
		&Batch{},
		&BatchItem{},
		&PressRun{},
	}
}
