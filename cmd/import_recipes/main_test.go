package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tabletrack/internal/production"
	"tabletrack/internal/store/docstore"
)

const sampleCSV = "\ufeffSKU,Flavor,Strength mg,Target Tablet Weight,Instructions,Material,Target Weight,Unit\n" +
	"Sample Energy Tablet,Berry,250 mg,0.8,Mix faster,Active Powder,11,kg\n" +
	"Sample Energy Tablet,,,,,Binder,\"2,5\",\n" +
	",,,,,,,\n" +
	"Focus Tablet,Mint,100,N/A,\"Blend   for 4   minutes\",Caffeine,1.5,kg\n" +
	"Focus Tablet,,,,,L-Theanine,3,g\n" +
	"Empty Tablet,N/A,,,,,,\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestReadCSVSkipsBlankRows(t *testing.T) {
	records, err := readCSV(writeCSV(t, sampleCSV))
	if err != nil {
		t.Fatalf("readCSV returned error: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	if records[0]["SKU"] != "Sample Energy Tablet" {
		t.Fatalf("expected byte order mark to be stripped from header, got %v", records[0])
	}
}

func TestReadCSVRejectsEmptyFile(t *testing.T) {
	if _, err := readCSV(writeCSV(t, "")); err == nil {
		t.Fatal("expected empty csv to be rejected")
	}
}

func TestImportRecipes(t *testing.T) {
	ctx := context.Background()
	svc := production.NewService(docstore.NewMemory())
	if _, err := svc.SeedCatalog(ctx); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	records, err := readCSV(writeCSV(t, sampleCSV))
	if err != nil {
		t.Fatalf("readCSV returned error: %v", err)
	}
	summary, err := importRecipes(ctx, svc, records)
	if err != nil {
		t.Fatalf("importRecipes returned error: %v", err)
	}
	if summary.recipes != 3 || summary.skus != 2 {
		t.Fatalf("expected 3 recipes and 2 new skus, got %+v", summary)
	}

	skus, err := svc.ListSkus(ctx)
	if err != nil {
		t.Fatalf("list skus: %v", err)
	}
	if len(skus) != 3 {
		t.Fatalf("expected 3 skus, got %d", len(skus))
	}

	energy, err := svc.GetSku(ctx, 1)
	if err != nil {
		t.Fatalf("get sku: %v", err)
	}
	if energy.Recipe == nil || energy.Recipe.Instructions != "Mix faster" || len(energy.Recipe.Items) != 2 {
		t.Fatalf("expected imported recipe to become current, got %+v", energy.Recipe)
	}
	binder := energy.Recipe.Items[1]
	if binder.TargetWeight != 2.5 || binder.Unit != "kg" {
		t.Fatalf("expected binder 2.5 kg, got %+v", binder)
	}

	focus, err := svc.GetSku(ctx, 2)
	if err != nil {
		t.Fatalf("get sku: %v", err)
	}
	if focus.Sku.Name != "Focus Tablet" || focus.Sku.StrengthMg == nil || *focus.Sku.StrengthMg != 100 || focus.Sku.TargetTabletWeight != nil {
		t.Fatalf("unexpected focus sku %+v", focus.Sku)
	}
	if focus.Recipe.Instructions != "Blend for 4 minutes" || focus.Recipe.Items[1].Unit != "g" {
		t.Fatalf("unexpected focus recipe %+v", focus.Recipe)
	}

	empty, err := svc.GetSku(ctx, 3)
	if err != nil {
		t.Fatalf("get sku: %v", err)
	}
	if empty.Sku.Flavor != nil || empty.Recipe == nil || len(empty.Recipe.Items) != 0 {
		t.Fatalf("expected sku with empty recipe, got %+v", empty)
	}
}

func TestGroupRecordsRejectsBadRows(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]string
	}{
		{name: "missing sku", record: map[string]string{"Material": "A", "Target Weight": "1"}},
		{name: "missing weight", record: map[string]string{"SKU": "X", "Material": "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := groupRecords([]map[string]string{tt.record}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseFirstNumber(t *testing.T) {
	tests := map[string]float64{
		"250 mg": 250,
		"0.8":    0.8,
		"2,5":    2.5,
		"N/A":    0,
		"":       0,
		"approx": 0,
	}
	for input, want := range tests {
		if got := parseFirstNumber(input); got != want {
			t.Errorf("parseFirstNumber(%q) = %v, want %v", input, got, want)
		}
	}
}
