package service

import (
	"context"
	"time"

	"carrental-backend/internal/domain"
)

// CreateReservationInput carries everything needed to open a new booking.
type CreateReservationInput struct {
	CarID            int64
	CustomerEmail    string
	CustomerName     string
	CustomerPhone    string
	PickupBranchCode string
	ReturnBranchCode string
	PickupDate       time.Time
	ReturnDate       time.Time
	Notes            string
}

// UpdateReservationInput carries optional changes to a not-yet-started booking.
// Nil fields are left untouched.
type UpdateReservationInput struct {
	PickupDate *time.Time
	ReturnDate *time.Time
	Notes      *string
}

type ReservationService interface {
	Create(ctx context.Context, in CreateReservationInput) (*domain.Reservation, error)
	Update(ctx context.Context, id int64, in UpdateReservationInput) (*domain.Reservation, error)

	// The five lifecycle transitions. Each is a compare-and-swap against the
	// store; repeats of an already-applied transition succeed idempotently.
	Confirm(ctx context.Context, id int64) (*domain.Reservation, error)
	Start(ctx context.Context, id int64) (*domain.Reservation, error)
	Complete(ctx context.Context, id int64) (*domain.Reservation, error)
	Cancel(ctx context.Context, id int64) (*domain.Reservation, error)

	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	ListByCustomer(ctx context.Context, email string, page, pageSize int) ([]domain.Reservation, int, error)
	ListByStatus(ctx context.Context, status domain.ReservationStatus, page, pageSize int) ([]domain.Reservation, int, error)
	ListUpcoming(ctx context.Context, email string) ([]domain.Reservation, error)

	// QuoteForCar prices a hypothetical rental of the given car, assuming
	// return to the pickup branch.
	QuoteForCar(ctx context.Context, carID int64, pickup, ret time.Time) (*domain.Quote, error)
}

type PricingService interface {
	CalculatePrice(ctx context.Context, category domain.CarCategory,
		pickupBranchCode, returnBranchCode string,
		pickupDate, returnDate time.Time, available bool) (*domain.Quote, error)
}

// InventoryGateway is the external inventory collaborator. All calls are
// synchronous and idempotent; failures surface as KindExternal (or
// KindNotFound for missing cars/branches).
type InventoryGateway interface {
	GetCar(ctx context.Context, id int64) (*domain.Car, error)
	IsValidBranch(ctx context.Context, code string) (bool, error)
	IsAirportBranch(ctx context.Context, code string) (bool, error)
	SetCarAvailability(ctx context.Context, id int64, available bool) error
	RelocateCar(ctx context.Context, id int64, branchCode string) error
}

// EmailService sends customer-facing reservation notifications. Send failures
// are logged by callers and never affect the reservation outcome.
type EmailService interface {
	SendReservationNotification(ctx context.Context, res *domain.Reservation, event string) error
}
