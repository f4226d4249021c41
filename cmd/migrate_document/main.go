package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"tabletrack/internal/config"
	"tabletrack/internal/db"
	"tabletrack/internal/store/docstore"
	"tabletrack/internal/store/gormstore"
	"tabletrack/models"
)

func main() {
	source := ""
	if len(os.Args) > 1 {
		source = os.Args[1]
	}

	if err := run(context.Background(), source); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, source string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(source) == "" {
		source = cfg.Database.DocumentPath
	}
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("locate document: %w", err)
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	counts, err := migrate(ctx, source, database)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Migrated %d skus, %d recipes, %d batches and %d press runs from %s\n",
		counts.Skus, counts.Recipes, counts.Batches, counts.PressRuns, source)
	return nil
}

type migrationCounts struct {
	Skus      int
	Recipes   int
	Batches   int
	PressRuns int
}

// migrate copies every record of the document at source into database, keeping
// ids. The target must not hold any sku yet.
func migrate(ctx context.Context, source string, database *gorm.DB) (migrationCounts, error) {
	document, err := docstore.Open(source)
	if err != nil {
		return migrationCounts{}, fmt.Errorf("open document: %w", err)
	}
	snapshot := document.Snapshot()

	var existing int64
	if err := database.WithContext(ctx).Model(&models.Sku{}).Count(&existing).Error; err != nil {
		return migrationCounts{}, fmt.Errorf("inspect target: %w", err)
	}
	if existing > 0 {
		return migrationCounts{}, errors.New("target database already holds skus")
	}

	if err := gormstore.New(database).Import(ctx, snapshot); err != nil {
		return migrationCounts{}, fmt.Errorf("import: %w", err)
	}

	return migrationCounts{
		Skus:      len(snapshot.Skus),
		Recipes:   len(snapshot.Recipes),
		Batches:   len(snapshot.Batches),
		PressRuns: len(snapshot.PressRuns),
	}, nil
}
