// Package production implements the batch production workflow: the recipe catalog,
// batch creation with recipe snapshots, picking, and press-run reconciliation.
package production

import (
	"errors"
	"time"

	"tabletrack/internal/metrics"
)

// Service coordinates the production workflow on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// track records the outcome of operation and returns err unchanged.
func track(operation string, err error) error {
	outcome := metrics.OutcomeOK
	var (
		validation *ValidationError
		notFound   *NotFoundError
	)
	switch {
	case err == nil:
	case errors.As(err, &validation):
		outcome = metrics.OutcomeInvalid
	case errors.As(err, &notFound):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeStoreError
	}
	metrics.RecordOperation(operation, outcome)
	return err
}
