package production

import (
	"context"

	applog "tabletrack/internal/log"
)

// SampleCatalog is the Sku and recipe installed into an empty catalog.
func SampleCatalog() SkuInput {
	flavor := "Berry"
	strength := 250.0
	tabletWeight := 0.8
	return SkuInput{
		Name:               "Sample Energy Tablet",
		Flavor:             &flavor,
		StrengthMg:         &strength,
		TargetTabletWeight: &tabletWeight,
		Recipe: &RecipeInput{
			Instructions: "1) Verify all PPE. 2) Load ingredients per weights. 3) Mix at high speed for 5 minutes.",
			Items: []RecipeItemInput{
				{Material: "Active Powder", TargetWeight: 10, Unit: "kg"},
				{Material: "Binder", TargetWeight: 2, Unit: "kg"},
				{Material: "Flavor", TargetWeight: 0.5, Unit: "kg"},
			},
		},
	}
}

// SeedCatalog installs SampleCatalog when no Sku exists yet. It reports whether it seeded.
func (s *Service) SeedCatalog(ctx context.Context) (bool, error) {
	skus, err := s.store.ListSkus(ctx)
	if err != nil {
		return false, &StorageError{Op: "list skus", Err: err}
	}
	if len(skus) > 0 {
		return false, nil
	}
	id, err := s.CreateSku(ctx, SampleCatalog())
	if err != nil {
		return false, err
	}
	applog.Info(ctx, "seeded sample catalog", "skuID", id)
	return true, nil
}
