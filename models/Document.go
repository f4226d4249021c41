package models

// Document is the flat JSON layout of the whole production state: one array per
// entity, keyed the same way as the relational tables.
type Document struct {
	Skus        []Sku        `json:"skus"`
	Recipes     []Recipe     `json:"recipes"`
	RecipeItems []RecipeItem `json:"recipe_items"`
	Batches     []Batch      `json:"batches"`
	BatchItems  []BatchItem  `json:"batch_items"`
	PressRuns   []PressRun   `json:"press_runs"`
}

// Normalize replaces nil collections with empty ones so the document always
// serializes six arrays.
func (d *Document) Normalize() {
	if d.Skus == nil {
		d.Skus = []Sku{}
	}
	if d.Recipes == nil {
		d.Recipes = []Recipe{}
	}
	if d.RecipeItems == nil {
		d.RecipeItems = []RecipeItem{}
	}
	if d.Batches == nil {
		d.Batches = []Batch{}
	}
	if d.BatchItems == nil {
		d.BatchItems = []BatchItem{}
	}
	if d.PressRuns == nil {
		d.PressRuns = []PressRun{}
	}
}

// Clone returns a copy that shares no slices with d. Pointer fields are shared;
// callers replace them rather than writing through them.
func (d Document) Clone() Document {
	return Document{
		Skus:        append([]Sku(nil), d.Skus...),
		Recipes:     append([]Recipe(nil), d.Recipes...),
		RecipeItems: append([]RecipeItem(nil), d.RecipeItems...),
		Batches:     append([]Batch(nil), d.Batches...),
		BatchItems:  append([]BatchItem(nil), d.BatchItems...),
		PressRuns:   append([]PressRun(nil), d.PressRuns...),
	}
}
