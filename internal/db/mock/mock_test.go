package mock

import (
	"context"
	"testing"

	"tabletrack/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	var skus []models.Sku
	if err := db.WithContext(ctx).Find(&skus).Error; err != nil {
		t.Fatalf("query skus: %v", err)
	}
	if len(skus) != 2 {
		t.Fatalf("expected 2 seeded skus, got %d", len(skus))
	}

	var batches []models.Batch
	if err := db.WithContext(ctx).Order("id asc").Find(&batches).Error; err != nil {
		t.Fatalf("query batches: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 seeded batches, got %d", len(batches))
	}
	if batches[1].Status != "picking" || batches[1].PickedBy == nil {
		t.Fatalf("expected second batch to be picking with a picker, got %+v", batches[1])
	}

	var picked int64
	if err := db.WithContext(ctx).Model(&models.BatchItem{}).Where("picked_weight IS NOT NULL").Count(&picked).Error; err != nil {
		t.Fatalf("count picked items: %v", err)
	}
	if picked != 3 {
		t.Fatalf("expected 3 picked items, got %d", picked)
	}

	var run models.PressRun
	if err := db.WithContext(ctx).First(&run).Error; err != nil {
		t.Fatalf("query press run: %v", err)
	}
	if run.ExpectedTabletCount == nil || *run.ExpectedTabletCount != 15 {
		t.Fatalf("expected 15 tablets, got %v", run.ExpectedTabletCount)
	}
}

func TestNewIsolatesDatabases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}
	second, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	var count int64
	if err := first.WithContext(ctx).Model(&models.Sku{}).Count(&count).Error; err != nil {
		t.Fatalf("count skus: %v", err)
	}
	var other int64
	if err := second.WithContext(ctx).Model(&models.Sku{}).Count(&other).Error; err != nil {
		t.Fatalf("count skus: %v", err)
	}
	if count != 2 || other != 2 {
		t.Fatalf("expected each mock to hold its own 2 skus, got %d and %d", count, other)
	}
}
