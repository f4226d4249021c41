package production

import (
	"context"
	"errors"
	"math"

	"tabletrack/internal/metrics"
	"tabletrack/models"
)

// PressRunCreation is the result of CreatePressRun.
type PressRunCreation struct {
	ID                  uint   `json:"id"`
	ExpectedTabletCount *int64 `json:"expected_tablet_count"`
}

// CompletionInput carries the final and loss weights of a press run.
type CompletionInput struct {
	FinalWeight Field[float64] `json:"final_weight"`
	LossWeight  Field[float64] `json:"loss_weight"`
}

// ExpectedTabletCount is floor(received/tablet) when both weights are positive, nil otherwise.
func ExpectedTabletCount(received, tablet *float64) *int64 {
	if received == nil || tablet == nil || !(*received > 0) || !(*tablet > 0) {
		return nil
	}
	count := math.Floor(*received / *tablet)
	if math.IsInf(count, 0) || math.IsNaN(count) || count > math.MaxInt64 {
		return nil
	}
	n := int64(count)
	return &n
}

// CreatePressRun starts a tableting pass against a batch. The expected tablet count
// is computed once, here.
func (s *Service) CreatePressRun(ctx context.Context, batchID uint, received, tablet *float64) (PressRunCreation, error) {
	if batchID == 0 {
		return PressRunCreation{}, track("create_press_run", invalid("batch_id", "batch_id is required"))
	}
	if negative(received) || negative(tablet) {
		return PressRunCreation{}, track("create_press_run", invalid("received_weight", "weights must not be negative"))
	}
	if _, err := s.store.GetBatch(ctx, batchID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return PressRunCreation{}, track("create_press_run", invalid("batch_id", "batch %d does not exist", batchID))
		}
		return PressRunCreation{}, track("create_press_run", &StorageError{Op: "get batch", Err: err})
	}

	now := s.now()
	run := models.PressRun{
		BatchID:        batchID,
		ReceivedWeight: positive(received),
		TabletWeight:   positive(tablet),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	run.ExpectedTabletCount = ExpectedTabletCount(run.ReceivedWeight, run.TabletWeight)

	if err := s.store.CreatePressRun(ctx, &run); err != nil {
		return PressRunCreation{}, track("create_press_run", &StorageError{Op: "create press run", Err: err})
	}
	if run.ExpectedTabletCount != nil {
		metrics.ExpectedTablets.Add(float64(*run.ExpectedTabletCount))
	}
	return PressRunCreation{ID: run.ID, ExpectedTabletCount: run.ExpectedTabletCount}, track("create_press_run", nil)
}

// ListPressRuns returns press runs newest first, limited to batchID when non-zero.
func (s *Service) ListPressRuns(ctx context.Context, batchID uint) ([]models.PressRun, error) {
	runs, err := s.store.ListPressRuns(ctx, batchID)
	if err != nil {
		return nil, &StorageError{Op: "list press runs", Err: err}
	}
	if runs == nil {
		runs = []models.PressRun{}
	}
	return runs, nil
}

// CompletePressRun records the final and loss weights of a press run. Omitted
// weights keep their stored value. Completing a run again overwrites the values.
func (s *Service) CompletePressRun(ctx context.Context, id uint, in CompletionInput) (int, error) {
	if negative(in.FinalWeight.Value) || negative(in.LossWeight.Value) {
		return 0, track("complete_press_run", invalid("final_weight", "weights must not be negative"))
	}
	completion := PressCompletion{
		FinalWeight: in.FinalWeight,
		LossWeight:  in.LossWeight,
		CompletedAt: s.now(),
	}
	if err := s.store.CompletePressRun(ctx, id, completion); err != nil {
		return 0, track("complete_press_run", storageFailure("complete press run", "press run", id, err))
	}
	return 1, track("complete_press_run", nil)
}

func negative(value *float64) bool {
	return value != nil && *value < 0
}
