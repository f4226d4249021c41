// Package storetest holds the behavioural suite every production.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"tabletrack/internal/production"
	"tabletrack/models"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) production.Store

var base = time.Date(2024, time.March, 4, 8, 30, 0, 0, time.UTC)

// Run exercises newStore against the storage contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, store production.Store)
	}{
		{"SkusAndRecipes", testSkusAndRecipes},
		{"CurrentRecipe", testCurrentRecipe},
		{"BatchesOrdering", testBatchesOrdering},
		{"UpdateBatch", testUpdateBatch},
		{"UpdateBatchItems", testUpdateBatchItems},
		{"PressRuns", testPressRuns},
		{"RepeatedReads", testRepeatedReads},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

func mustCreateSku(t *testing.T, store production.Store, name string, items ...models.RecipeItem) models.Sku {
	t.Helper()
	sku := models.Sku{Name: name, CreatedAt: base}
	var recipe *models.Recipe
	if items != nil {
		recipe = &models.Recipe{Instructions: "mix"}
	}
	if err := store.CreateSku(context.Background(), &sku, recipe, items); err != nil {
		t.Fatalf("create sku %q: %v", name, err)
	}
	if sku.ID == 0 {
		t.Fatalf("expected sku id to be assigned")
	}
	return sku
}

func mustCreateBatch(t *testing.T, store production.Store, skuID uint, createdAt time.Time, items ...models.BatchItem) models.Batch {
	t.Helper()
	batch := models.Batch{SkuID: skuID, PlannedWeight: 100, Status: "pending", CreatedAt: createdAt, UpdatedAt: createdAt}
	if err := store.CreateBatch(context.Background(), &batch, items); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return batch
}

func testSkusAndRecipes(t *testing.T, store production.Store) {
	ctx := context.Background()
	first := mustCreateSku(t, store, "Alpha")
	items := []models.RecipeItem{
		{Material: "Active Powder", TargetWeight: 10, Unit: "kg"},
		{Material: "Binder", TargetWeight: 2, Unit: "g"},
	}
	second := mustCreateSku(t, store, "Beta", items...)
	if second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}

	skus, err := store.ListSkus(ctx)
	if err != nil {
		t.Fatalf("list skus: %v", err)
	}
	if len(skus) != 2 || skus[0].ID != second.ID || skus[1].ID != first.ID {
		t.Fatalf("expected skus newest first, got %+v", skus)
	}

	got, err := store.GetSku(ctx, second.ID)
	if err != nil {
		t.Fatalf("get sku: %v", err)
	}
	if got.Name != "Beta" {
		t.Fatalf("expected Beta, got %q", got.Name)
	}
	if _, err := store.GetSku(ctx, second.ID+100); !errors.Is(err, production.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing sku, got %v", err)
	}

	recipe, err := store.CurrentRecipe(ctx, second.ID)
	if err != nil {
		t.Fatalf("current recipe: %v", err)
	}
	if recipe.SkuID != second.ID {
		t.Fatalf("expected recipe to belong to sku %d, got %d", second.ID, recipe.SkuID)
	}
	stored, err := store.RecipeItems(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("recipe items: %v", err)
	}
	if len(stored) != 2 || stored[0].Material != "Active Powder" || stored[1].Unit != "g" {
		t.Fatalf("unexpected recipe items %+v", stored)
	}
	for _, item := range stored {
		if item.ID == 0 || item.RecipeID != recipe.ID {
			t.Fatalf("recipe item not linked: %+v", item)
		}
	}
}

func testCurrentRecipe(t *testing.T, store production.Store) {
	ctx := context.Background()
	sku := mustCreateSku(t, store, "Gamma")
	if _, err := store.CurrentRecipe(ctx, sku.ID); !errors.Is(err, production.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without recipes, got %v", err)
	}

	older := models.Recipe{SkuID: sku.ID, Instructions: "v1"}
	if err := store.CreateRecipe(ctx, &older, []models.RecipeItem{{Material: "A", TargetWeight: 1, Unit: "kg"}}); err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	newer := models.Recipe{SkuID: sku.ID, Instructions: "v2"}
	if err := store.CreateRecipe(ctx, &newer, nil); err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	current, err := store.CurrentRecipe(ctx, sku.ID)
	if err != nil {
		t.Fatalf("current recipe: %v", err)
	}
	if current.ID != newer.ID || current.Instructions != "v2" {
		t.Fatalf("expected newest recipe %d, got %+v", newer.ID, current)
	}
	items, err := store.RecipeItems(ctx, current.ID)
	if err != nil {
		t.Fatalf("recipe items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty recipe, got %+v", items)
	}
}

func testBatchesOrdering(t *testing.T, store production.Store) {
	ctx := context.Background()
	sku := mustCreateSku(t, store, "Delta")
	early := mustCreateBatch(t, store, sku.ID, base)
	late := mustCreateBatch(t, store, sku.ID, base.Add(time.Hour), models.BatchItem{Material: "A", TargetWeight: 5, Unit: "kg"})
	tie := mustCreateBatch(t, store, sku.ID, base)

	batches, err := store.ListBatches(ctx, "")
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	want := []uint{late.ID, tie.ID, early.ID}
	if len(batches) != len(want) {
		t.Fatalf("expected %d batches, got %d", len(want), len(batches))
	}
	for i, id := range want {
		if batches[i].ID != id {
			t.Fatalf("position %d: expected batch %d, got %d", i, id, batches[i].ID)
		}
	}

	items, err := store.BatchItems(ctx, late.ID)
	if err != nil {
		t.Fatalf("batch items: %v", err)
	}
	if len(items) != 1 || items[0].BatchID != late.ID || items[0].PickedWeight != nil {
		t.Fatalf("unexpected batch items %+v", items)
	}

	if err := store.UpdateBatch(ctx, early.ID, production.BatchChanges{Status: "mixing", UpdatedAt: base}); err != nil {
		t.Fatalf("update batch: %v", err)
	}
	mixing, err := store.ListBatches(ctx, "mixing")
	if err != nil {
		t.Fatalf("list batches by status: %v", err)
	}
	if len(mixing) != 1 || mixing[0].ID != early.ID {
		t.Fatalf("expected only batch %d in mixing, got %+v", early.ID, mixing)
	}
	none, err := store.ListBatches(ctx, "archived")
	if err != nil {
		t.Fatalf("list batches by unknown status: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no archived batches, got %d", len(none))
	}

	if _, err := store.GetBatch(ctx, tie.ID+100); !errors.Is(err, production.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing batch, got %v", err)
	}
}

func testUpdateBatch(t *testing.T, store production.Store) {
	ctx := context.Background()
	sku := mustCreateSku(t, store, "Epsilon")
	batch := mustCreateBatch(t, store, sku.ID, base)

	later := base.Add(10 * time.Minute)
	err := store.UpdateBatch(ctx, batch.ID, production.BatchChanges{
		Status:    "picking",
		PickedBy:  production.Set("Ann"),
		MixedBy:   production.Set("Bob"),
		UpdatedAt: later,
	})
	if err != nil {
		t.Fatalf("update batch: %v", err)
	}

	err = store.UpdateBatch(ctx, batch.ID, production.BatchChanges{
		Status:    "mixing",
		MixedBy:   production.Null[string](),
		UpdatedAt: later.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("update batch: %v", err)
	}

	got, err := store.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.Status != "mixing" {
		t.Fatalf("expected status mixing, got %q", got.Status)
	}
	if got.PickedBy == nil || *got.PickedBy != "Ann" {
		t.Fatalf("expected picked_by to be preserved, got %v", got.PickedBy)
	}
	if got.MixedBy != nil {
		t.Fatalf("expected mixed_by to be cleared, got %q", *got.MixedBy)
	}
	if !got.UpdatedAt.Equal(later.Add(time.Minute)) {
		t.Fatalf("expected updated_at %v, got %v", later.Add(time.Minute), got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("expected created_at to stay %v, got %v", base, got.CreatedAt)
	}

	err = store.UpdateBatch(ctx, batch.ID+100, production.BatchChanges{Status: "mixing", UpdatedAt: later})
	if !errors.Is(err, production.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing batch, got %v", err)
	}
}

func testUpdateBatchItems(t *testing.T, store production.Store) {
	ctx := context.Background()
	sku := mustCreateSku(t, store, "Zeta")
	batch := mustCreateBatch(t, store, sku.ID, base,
		models.BatchItem{Material: "A", TargetWeight: 10, Unit: "kg"},
		models.BatchItem{Material: "B", TargetWeight: 2, Unit: "kg"},
	)
	other := mustCreateBatch(t, store, sku.ID, base, models.BatchItem{Material: "C", TargetWeight: 1, Unit: "kg"})

	items, err := store.BatchItems(ctx, batch.ID)
	if err != nil {
		t.Fatalf("batch items: %v", err)
	}
	foreign, err := store.BatchItems(ctx, other.ID)
	if err != nil {
		t.Fatalf("batch items: %v", err)
	}

	at := base.Add(time.Hour)
	count, err := store.UpdateBatchItems(ctx, batch.ID, []production.BatchItemUpdate{
		{ID: items[0].ID, PickedWeight: production.Set(9.8), Lot: production.Set("L-1")},
		{ID: items[1].ID},
		{ID: foreign[0].ID, PickedWeight: production.Set(1.0)},
		{ID: 9999, Lot: production.Set("nope")},
	}, at)
	if err != nil {
		t.Fatalf("update batch items: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 matched items, got %d", count)
	}

	updated, err := store.BatchItems(ctx, batch.ID)
	if err != nil {
		t.Fatalf("batch items: %v", err)
	}
	if updated[0].PickedWeight == nil || *updated[0].PickedWeight != 9.8 || updated[0].Lot == nil || *updated[0].Lot != "L-1" {
		t.Fatalf("expected first item picked, got %+v", updated[0])
	}
	if updated[1].PickedWeight != nil || updated[1].Lot != nil {
		t.Fatalf("expected second item untouched, got %+v", updated[1])
	}
	untouched, err := store.BatchItems(ctx, other.ID)
	if err != nil {
		t.Fatalf("batch items: %v", err)
	}
	if untouched[0].PickedWeight != nil {
		t.Fatalf("expected foreign item untouched, got %v", *untouched[0].PickedWeight)
	}

	got, err := store.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Fatalf("expected updated_at %v after picking, got %v", at, got.UpdatedAt)
	}

	count, err = store.UpdateBatchItems(ctx, batch.ID, []production.BatchItemUpdate{
		{ID: items[0].ID, Lot: production.Null[string]()},
	}, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("update batch items: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 matched item, got %d", count)
	}
	cleared, err := store.BatchItems(ctx, batch.ID)
	if err != nil {
		t.Fatalf("batch items: %v", err)
	}
	if cleared[0].Lot != nil {
		t.Fatalf("expected lot cleared, got %q", *cleared[0].Lot)
	}
	if cleared[0].PickedWeight == nil || *cleared[0].PickedWeight != 9.8 {
		t.Fatalf("expected picked weight preserved, got %v", cleared[0].PickedWeight)
	}

	count, err = store.UpdateBatchItems(ctx, batch.ID, []production.BatchItemUpdate{{ID: foreign[0].ID, Lot: production.Set("x")}}, at.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("update batch items: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no matches, got %d", count)
	}
	got, err = store.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if !got.UpdatedAt.Equal(at.Add(time.Hour)) {
		t.Fatalf("expected updated_at unchanged without matches, got %v", got.UpdatedAt)
	}

	if _, err := store.UpdateBatchItems(ctx, other.ID+100, nil, at); !errors.Is(err, production.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing batch, got %v", err)
	}
}

func testPressRuns(t *testing.T, store production.Store) {
	ctx := context.Background()
	sku := mustCreateSku(t, store, "Eta")
	first := mustCreateBatch(t, store, sku.ID, base)
	second := mustCreateBatch(t, store, sku.ID, base)

	runA := models.PressRun{BatchID: first.ID, ReceivedWeight: ptr(50.0), TabletWeight: ptr(0.8), ExpectedTabletCount: ptr(int64(62)), CreatedAt: base, UpdatedAt: base}
	runB := models.PressRun{BatchID: second.ID, CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute)}
	for _, run := range []*models.PressRun{&runA, &runB} {
		if err := store.CreatePressRun(ctx, run); err != nil {
			t.Fatalf("create press run: %v", err)
		}
	}

	all, err := store.ListPressRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list press runs: %v", err)
	}
	if len(all) != 2 || all[0].ID != runB.ID || all[1].ID != runA.ID {
		t.Fatalf("expected press runs newest first, got %+v", all)
	}
	filtered, err := store.ListPressRuns(ctx, first.ID)
	if err != nil {
		t.Fatalf("list press runs by batch: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != runA.ID {
		t.Fatalf("expected only run %d, got %+v", runA.ID, filtered)
	}
	if filtered[0].ExpectedTabletCount == nil || *filtered[0].ExpectedTabletCount != 62 {
		t.Fatalf("expected tablet count 62, got %v", filtered[0].ExpectedTabletCount)
	}

	done := base.Add(2 * time.Hour)
	err = store.CompletePressRun(ctx, runA.ID, production.PressCompletion{
		FinalWeight: production.Set(48.5),
		CompletedAt: done,
	})
	if err != nil {
		t.Fatalf("complete press run: %v", err)
	}
	completed, err := store.ListPressRuns(ctx, first.ID)
	if err != nil {
		t.Fatalf("list press runs: %v", err)
	}
	run := completed[0]
	if run.FinalWeight == nil || *run.FinalWeight != 48.5 {
		t.Fatalf("expected final weight 48.5, got %v", run.FinalWeight)
	}
	if run.LossWeight != nil {
		t.Fatalf("expected loss weight to stay empty, got %v", *run.LossWeight)
	}
	if !run.UpdatedAt.Equal(done) {
		t.Fatalf("expected updated_at %v, got %v", done, run.UpdatedAt)
	}

	err = store.CompletePressRun(ctx, runB.ID+100, production.PressCompletion{CompletedAt: done})
	if !errors.Is(err, production.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing press run, got %v", err)
	}
}

type readSet struct {
	skus    []models.Sku
	batches []models.Batch
	batch   *models.Batch
	items   []models.BatchItem
	runs    []models.PressRun
}

func readAll(t *testing.T, store production.Store, batchID uint) readSet {
	t.Helper()
	ctx := context.Background()
	var (
		out readSet
		err error
	)
	if out.skus, err = store.ListSkus(ctx); err != nil {
		t.Fatalf("list skus: %v", err)
	}
	if out.batches, err = store.ListBatches(ctx, ""); err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if out.batch, err = store.GetBatch(ctx, batchID); err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if out.items, err = store.BatchItems(ctx, batchID); err != nil {
		t.Fatalf("batch items: %v", err)
	}
	if out.runs, err = store.ListPressRuns(ctx, 0); err != nil {
		t.Fatalf("list press runs: %v", err)
	}
	return out
}

func testRepeatedReads(t *testing.T, store production.Store) {
	ctx := context.Background()
	sku := mustCreateSku(t, store, "Theta", models.RecipeItem{Material: "Active Powder", TargetWeight: 10, Unit: "kg"})
	batch := mustCreateBatch(t, store, sku.ID, base,
		models.BatchItem{Material: "Active Powder", TargetWeight: 10, Unit: "kg"},
		models.BatchItem{Material: "Binder", TargetWeight: 2, Unit: "kg"},
	)
	run := models.PressRun{BatchID: batch.ID, ReceivedWeight: ptr(12.4), TabletWeight: ptr(0.8), ExpectedTabletCount: ptr(int64(15)), CreatedAt: base, UpdatedAt: base}
	if err := store.CreatePressRun(ctx, &run); err != nil {
		t.Fatalf("create press run: %v", err)
	}

	first := readAll(t, store, batch.ID)
	second := readAll(t, store, batch.ID)
	if len(first.items) != 2 || len(first.runs) != 1 {
		t.Fatalf("expected 2 items and 1 press run, got %d and %d", len(first.items), len(first.runs))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated reads differ:\n%+v\n%+v", first, second)
	}
}
