package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"tabletrack/internal/config"
	"tabletrack/internal/db"
	"tabletrack/internal/production"
	"tabletrack/internal/store/docstore"
	"tabletrack/internal/store/gormstore"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

// CSV columns. Consecutive rows sharing a SKU value form one recipe.
const (
	columnSku          = "SKU"
	columnFlavor       = "Flavor"
	columnStrength     = "Strength mg"
	columnTabletWeight = "Target Tablet Weight"
	columnInstructions = "Instructions"
	columnMaterial     = "Material"
	columnTargetWeight = "Target Weight"
	columnUnit         = "Unit"
)

func main() {
	csvPath := "recipes.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	summary, err := importRecipes(context.Background(), production.NewService(store), records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d recipes (%d new skus) from %s\n", summary.recipes, summary.skus, filepath.Base(csvPath))
	return nil
}

func openStore(cfg config.DatabaseConfig) (production.Store, error) {
	if cfg.Backend == config.BackendDocument {
		return docstore.Open(cfg.DocumentPath)
	}
	database, err := db.Configure(cfg)
	if err != nil {
		return nil, err
	}
	return gormstore.New(database), nil
}

type importSummary struct {
	recipes int
	skus    int
}

// importRecipes creates one recipe per group of rows. A SKU that already exists
// by name gets the recipe as its new current recipe; otherwise the SKU is created
// with it.
func importRecipes(ctx context.Context, svc *production.Service, records []map[string]string) (importSummary, error) {
	var summary importSummary

	existing, err := svc.ListSkus(ctx)
	if err != nil {
		return summary, fmt.Errorf("list skus: %w", err)
	}
	byName := make(map[string]uint, len(existing))
	for _, sku := range existing {
		key := strings.ToLower(sku.Name)
		if _, seen := byName[key]; !seen {
			byName[key] = sku.ID
		}
	}

	groups, err := groupRecords(records)
	if err != nil {
		return summary, err
	}

	for _, input := range groups {
		if id, ok := byName[strings.ToLower(input.Name)]; ok {
			if _, err := svc.CreateRecipe(ctx, id, *input.Recipe); err != nil {
				return summary, fmt.Errorf("sku %q: %w", input.Name, err)
			}
			summary.recipes++
			continue
		}

		id, err := svc.CreateSku(ctx, input)
		if err != nil {
			return summary, fmt.Errorf("sku %q: %w", input.Name, err)
		}
		byName[strings.ToLower(input.Name)] = id
		summary.skus++
		summary.recipes++
	}

	return summary, nil
}

func groupRecords(records []map[string]string) ([]production.SkuInput, error) {
	var groups []production.SkuInput
	for idx, record := range records {
		name := normalizeText(record[columnSku])
		if name == "" {
			return nil, fmt.Errorf("record %d: missing %s", idx+1, columnSku)
		}

		if len(groups) == 0 || !strings.EqualFold(groups[len(groups)-1].Name, name) {
			groups = append(groups, buildSkuInput(name, record))
		}
		current := &groups[len(groups)-1]

		material := normalizeText(record[columnMaterial])
		if material == "" {
			continue
		}
		weight := parseFirstNumber(record[columnTargetWeight])
		if weight <= 0 {
			return nil, fmt.Errorf("record %d (%s): %s needs a positive %s", idx+1, name, material, columnTargetWeight)
		}
		current.Recipe.Items = append(current.Recipe.Items, production.RecipeItemInput{
			Material:     material,
			TargetWeight: weight,
			Unit:         normalizeValue(record[columnUnit]),
		})
	}
	return groups, nil
}

func buildSkuInput(name string, record map[string]string) production.SkuInput {
	input := production.SkuInput{
		Name:   name,
		Recipe: &production.RecipeInput{Instructions: normalizeText(record[columnInstructions])},
	}
	if flavor := normalizeValue(record[columnFlavor]); flavor != "" {
		input.Flavor = &flavor
	}
	if strength := parseFirstNumber(record[columnStrength]); strength > 0 {
		input.StrengthMg = &strength
	}
	if weight := parseFirstNumber(record[columnTabletWeight]); weight > 0 {
		input.TargetTabletWeight = &weight
	}
	return input
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	for idx := range header {
		header[idx] = strings.TrimSpace(strings.TrimPrefix(header[idx], "\ufeff"))
	}
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func blankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func parseFirstNumber(value string) float64 {
	value = normalizeValue(value)
	if value == "" {
		return 0
	}

	match := numberPattern.FindString(strings.ReplaceAll(value, ",", "."))
	if match == "" {
		return 0
	}

	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return parsed
}
