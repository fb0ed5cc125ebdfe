package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// validTransitions is the full lifecycle graph. Anything not listed here is
// an illegal transition regardless of how the request arrives.
var validTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusConfirmed, ReservationStatusCancelled},
	ReservationStatusConfirmed: {ReservationStatusActive, ReservationStatusCancelled},
	ReservationStatusActive:    {ReservationStatusCompleted, ReservationStatusCancelled},
}

// CanTransitionTo reports whether the lifecycle graph allows moving from s to target.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is a final state. Terminal reservations are
// kept as markers and never mutated or deleted.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCompleted || s == ReservationStatusCancelled
}

// ParseReservationStatus validates a status string from an API request.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	switch s := ReservationStatus(raw); s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusActive,
		ReservationStatusCompleted, ReservationStatusCancelled:
		return s, nil
	}
	return "", Validationf("unknown reservation status: %q", raw)
}

type Reservation struct {
	ID               int64             `json:"id"`
	ConfirmationCode uuid.UUID         `json:"confirmation_code"`
	CarID            int64             `json:"car_id"`
	CustomerEmail    string            `json:"customer_email"`
	CustomerName     string            `json:"customer_name"`
	CustomerPhone    string            `json:"customer_phone,omitempty"`
	PickupBranchCode string            `json:"pickup_branch_code"`
	ReturnBranchCode string            `json:"return_branch_code"`
	PickupDate       time.Time         `json:"pickup_date"`
	ReturnDate       time.Time         `json:"return_date"`
	Status           ReservationStatus `json:"status"`
	TotalPriceCents  int64             `json:"total_price_cents"`
	DailyRateCents   int64             `json:"daily_rate_cents"`
	Notes            string            `json:"notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	Version          int64             `json:"version"`
}

// RentalDays is the whole-day length of the rental period, return date exclusive.
func (r *Reservation) RentalDays() int64 {
	return int64(r.ReturnDate.Sub(r.PickupDate).Hours() / 24)
}

// IsExpiredAt reports whether the pending hold has lapsed. Only PENDING
// reservations carry an expiry deadline.
func (r *Reservation) IsExpiredAt(now time.Time) bool {
	return r.Status == ReservationStatusPending &&
		r.ExpiresAt != nil &&
		now.After(*r.ExpiresAt)
}

// ValidateDates rejects malformed rental periods before anything is persisted.
func ValidateDates(pickup, ret time.Time) error {
	if !ret.After(pickup) {
		return Validationf("return date must be after pickup date")
	}
	return nil
}

// CanStartOn is the start guard: pickup day reached.
func CanStartOn(pickupDate, today time.Time) bool {
	return !today.Before(pickupDate)
}

// CanCompleteOn is the completion guard: return day reached.
func CanCompleteOn(returnDate, today time.Time) bool {
	return !today.Before(returnDate)
}

// WithinCancellationWindow is the 24-hour cancellation guard for reservations
// that have not started yet. The comparison is on whole dates: a pickup date
// of exactly tomorrow is still cancellable.
func WithinCancellationWindow(pickupDate, today time.Time) bool {
	tomorrow := Date(today).AddDate(0, 0, 1)
	return !Date(pickupDate).Before(tomorrow)
}

// Date truncates t to midnight UTC. All rental dates are whole days.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
