// Package dedupe implements the optional pre-creation duplicate check:
// a report is flagged when another of the same category already exists
// within a configured radius and time window.
//
// The check is advisory and off by default. When disabled, creation never
// consults it.
package dedupe

import (
	"context"
	"time"

	"atiende/internal/platform/config"
	reportstore "atiende/internal/reports/store"
)

// Checker answers whether a prospective report duplicates a recent one.
type Checker interface {
	IsDuplicate(ctx context.Context, tipo string, lat, lng float64) (bool, error)
}

// Observer is implemented by checkers that maintain their own index of
// created reports. Store-backed checkers see new rows without it.
type Observer interface {
	Observe(ctx context.Context, tipo, reportID string, lat, lng float64) error
}

// Disabled is the no-op checker used when the feature is off.
type Disabled struct{}

func (Disabled) IsDuplicate(context.Context, string, float64, float64) (bool, error) {
	return false, nil
}

// StoreChecker consults the report store directly.
type StoreChecker struct {
	store reportstore.Store
	cfg   config.DedupeConfig
}

func NewStoreChecker(store reportstore.Store, cfg config.DedupeConfig) *StoreChecker {
	return &StoreChecker{store: store, cfg: cfg}
}

func (c *StoreChecker) IsDuplicate(ctx context.Context, tipo string, lat, lng float64) (bool, error) {
	since := time.Now().Add(-c.cfg.Window)
	count, err := c.store.CountRecentNear(ctx, tipo, lat, lng, c.cfg.RadiusMeters, since)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
