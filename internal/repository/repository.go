package repository

import (
	"context"
	"time"

	"carrental-backend/internal/domain"
)

// ReservationRepository is the durable reservation store. Implementations
// translate storage-level failures into domain errors: a missing row becomes
// KindNotFound and an overlap-constraint violation becomes KindConflict.
type ReservationRepository interface {
	// Create persists a new reservation and fills in its ID, timestamps and
	// initial version. The store's range-exclusion constraint is the
	// authoritative overlap guard; its violation surfaces as KindConflict.
	Create(ctx context.Context, res *domain.Reservation) error

	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)

	// Update rewrites dates, price snapshot and notes. It is version-checked:
	// a writer holding a stale version gets KindConflict instead of
	// overwriting. Status is never changed through this path.
	Update(ctx context.Context, res *domain.Reservation) error

	// UpdateStatus is the compare-and-swap transition primitive: a single
	// conditional UPDATE that moves id from `from` to `to`, bumping the
	// version. It reports whether the swap took effect.
	UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) (bool, error)

	// ClearExpiry removes the pending-hold deadline after confirmation.
	ClearExpiry(ctx context.Context, id int64) error

	// HasConflict reports whether any non-terminal reservation for carID
	// overlaps [pickup, ret). Best-effort pre-filter only.
	HasConflict(ctx context.Context, carID int64, pickup, ret time.Time) (bool, error)
	HasConflictExcluding(ctx context.Context, carID, excludeID int64, pickup, ret time.Time) (bool, error)

	ListByCustomer(ctx context.Context, email string, page, pageSize int) ([]domain.Reservation, int, error)
	ListByStatus(ctx context.Context, status domain.ReservationStatus, page, pageSize int) ([]domain.Reservation, int, error)
	ListUpcomingByCustomer(ctx context.Context, email string, from time.Time) ([]domain.Reservation, error)

	// ListExpiredPending returns PENDING reservations whose hold deadline
	// passed before now, oldest first.
	ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

// RatePlanRepository resolves rate plans for pricing.
type RatePlanRepository interface {
	// FindApplicable returns the active plan for branch+category whose
	// validity window contains date, preferring the most recently effective
	// plan. It returns (nil, nil) when no plan matches; the pricing engine
	// falls back to system defaults.
	FindApplicable(ctx context.Context, branchCode string, category domain.CarCategory, date time.Time) (*domain.RatePlan, error)
}

// PricingRuleRepository resolves toggleable pricing configuration values.
type PricingRuleRepository interface {
	// FindActiveByCode returns (nil, nil) when the rule is missing or
	// inactive; pricing always has a hardcoded default to fall back to.
	FindActiveByCode(ctx context.Context, ruleCode string) (*domain.PricingRule, error)
}
