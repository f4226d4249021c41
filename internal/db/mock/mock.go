package mock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tabletrack/internal/db"
	applog "tabletrack/internal/log"
	"tabletrack/internal/production"
	"tabletrack/internal/store/gormstore"
)

// New returns an in-memory sqlite database seeded with a representative production floor.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:tabletrack-mock-%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(conn); err != nil {
		return nil, err
	}

	if err := seed(ctx, production.NewService(gormstore.New(conn))); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return conn, nil
}

func seed(ctx context.Context, svc *production.Service) error {
	applog.Debug(ctx, "seeding mock database")

	if _, err := svc.SeedCatalog(ctx); err != nil {
		return err
	}
	skus, err := svc.ListSkus(ctx)
	if err != nil {
		return err
	}
	energy := skus[0].ID

	flavor := "Lavender"
	strength := 5.0
	tablet := 0.5
	calm, err := svc.CreateSku(ctx, production.SkuInput{
		Name:               "Night Calm Tablet",
		Flavor:             &flavor,
		StrengthMg:         &strength,
		TargetTabletWeight: &tablet,
		Recipe: &production.RecipeInput{
			Instructions: "1) Sieve melatonin. 2) Blend with filler for 8 minutes. 3) Add lubricant last.",
			Items: []production.RecipeItemInput{
				{Material: "Melatonin", TargetWeight: 0.05, Unit: "kg"},
				{Material: "Microcrystalline Cellulose", TargetWeight: 8, Unit: "kg"},
				{Material: "Magnesium Stearate", TargetWeight: 0.1, Unit: "kg"},
			},
		},
	})
	if err != nil {
		return err
	}

	if _, err := svc.CreateBatch(ctx, energy, 12.5); err != nil {
		return err
	}

	picking, err := svc.CreateBatch(ctx, calm, 8.15)
	if err != nil {
		return err
	}
	picker := "Jordan"
	if _, err := svc.UpdateStatus(ctx, picking.ID, production.StatusUpdate{
		Status:   production.StatusPicking,
		PickedBy: production.Set(picker),
	}); err != nil {
		return err
	}
	detail, err := svc.BatchDetail(ctx, picking.ID)
	if err != nil {
		return err
	}
	updates := make([]production.BatchItemUpdate, 0, len(detail.Items))
	for i, item := range detail.Items {
		updates = append(updates, production.BatchItemUpdate{
			ID:           item.ID,
			PickedWeight: production.Set(item.TargetWeight),
			Lot:          production.Set(fmt.Sprintf("LOT-%03d", i+1)),
		})
	}
	if _, err := svc.UpdateBatchItems(ctx, picking.ID, updates); err != nil {
		return err
	}

	pressing, err := svc.CreateBatch(ctx, energy, 12.5)
	if err != nil {
		return err
	}
	if _, err := svc.UpdateStatus(ctx, pressing.ID, production.StatusUpdate{
		Status:        production.StatusPressing,
		PressOperator: production.Set("Sam"),
	}); err != nil {
		return err
	}
	received := 12.4
	tabletWeight := 0.8
	if _, err := svc.CreatePressRun(ctx, pressing.ID, &received, &tabletWeight); err != nil {
		return err
	}

	return nil
}
