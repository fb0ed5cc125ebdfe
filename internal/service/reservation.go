package service

import (
	"context"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/logger"
	"carrental-backend/internal/repository"

	"github.com/google/uuid"
)

// Notification events sent to customers on lifecycle changes.
const (
	emailEventPending   = "pending"
	emailEventConfirmed = "confirmed"
	emailEventCancelled = "cancelled"
)

type reservationService struct {
	reservationRepo repository.ReservationRepository
	inventory       InventoryGateway
	pricing         PricingService
	email           EmailService
	pendingHoldTTL  time.Duration
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	inventory InventoryGateway,
	pricing PricingService,
	email EmailService,
	pendingHoldTTL time.Duration,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		inventory:       inventory,
		pricing:         pricing,
		email:           email,
		pendingHoldTTL:  pendingHoldTTL,
	}
}

func (s *reservationService) Create(ctx context.Context, in CreateReservationInput) (*domain.Reservation, error) {
	pickup := domain.Date(in.PickupDate)
	ret := domain.Date(in.ReturnDate)
	if err := domain.ValidateDates(pickup, ret); err != nil {
		return nil, err
	}

	car, err := s.inventory.GetCar(ctx, in.CarID)
	if err != nil {
		return nil, err
	}
	if !car.Available {
		return nil, domain.Conflictf("car %d is not available for rent", in.CarID)
	}

	for _, branch := range []string{in.PickupBranchCode, in.ReturnBranchCode} {
		valid, err := s.inventory.IsValidBranch(ctx, branch)
		if err != nil {
			return nil, err
		}
		if !valid {
			return nil, domain.NotFoundf("branch not found: %s", branch)
		}
	}

	if car.BranchCode != in.PickupBranchCode {
		return nil, domain.Validationf("car %d is at branch %s, not at pickup branch %s",
			in.CarID, car.BranchCode, in.PickupBranchCode)
	}

	// Best-effort pre-check; the store's exclusion constraint is authoritative.
	conflict, err := s.reservationRepo.HasConflict(ctx, in.CarID, pickup, ret)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, domain.Conflictf("car %d is already reserved for the selected dates", in.CarID)
	}

	quote, err := s.pricing.CalculatePrice(ctx, car.Category,
		in.PickupBranchCode, in.ReturnBranchCode, pickup, ret, true)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(s.pendingHoldTTL)
	res := &domain.Reservation{
		ConfirmationCode: uuid.New(),
		CarID:            in.CarID,
		CustomerEmail:    in.CustomerEmail,
		CustomerName:     in.CustomerName,
		CustomerPhone:    in.CustomerPhone,
		PickupBranchCode: in.PickupBranchCode,
		ReturnBranchCode: in.ReturnBranchCode,
		PickupDate:       pickup,
		ReturnDate:       ret,
		Status:           domain.ReservationStatusPending,
		TotalPriceCents:  quote.TotalPriceCents,
		DailyRateCents:   quote.DailyRateCents,
		Notes:            in.Notes,
		ExpiresAt:        &expiresAt,
	}

	if err := s.reservationRepo.Create(ctx, res); err != nil {
		return nil, err
	}

	s.notify(ctx, res, emailEventPending)
	return res, nil
}

func (s *reservationService) Update(ctx context.Context, id int64, in UpdateReservationInput) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.Status != domain.ReservationStatusPending && res.Status != domain.ReservationStatusConfirmed {
		return nil, domain.BusinessRulef("cannot update reservation in %s status", res.Status)
	}

	newPickup := res.PickupDate
	newReturn := res.ReturnDate
	if in.PickupDate != nil {
		newPickup = domain.Date(*in.PickupDate)
	}
	if in.ReturnDate != nil {
		newReturn = domain.Date(*in.ReturnDate)
	}

	if !newPickup.Equal(res.PickupDate) || !newReturn.Equal(res.ReturnDate) {
		if err := domain.ValidateDates(newPickup, newReturn); err != nil {
			return nil, err
		}
		conflict, err := s.reservationRepo.HasConflictExcluding(ctx, res.CarID, id, newPickup, newReturn)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, domain.Conflictf("car %d is already reserved for the new dates", res.CarID)
		}

		car, err := s.inventory.GetCar(ctx, res.CarID)
		if err != nil {
			return nil, err
		}
		quote, err := s.pricing.CalculatePrice(ctx, car.Category,
			res.PickupBranchCode, res.ReturnBranchCode, newPickup, newReturn, true)
		if err != nil {
			return nil, err
		}

		res.PickupDate = newPickup
		res.ReturnDate = newReturn
		res.TotalPriceCents = quote.TotalPriceCents
		res.DailyRateCents = quote.DailyRateCents
	}

	if in.Notes != nil {
		res.Notes = *in.Notes
	}

	if err := s.reservationRepo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reservationService) Confirm(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Expiry is a distinct failure from "wrong state": a lapsed hold reports
	// KindExpired even though the row still says PENDING.
	if res.IsExpiredAt(time.Now().UTC()) {
		return nil, domain.Expiredf("reservation %d has expired; please create a new reservation", id)
	}

	swapped, err := s.reservationRepo.UpdateStatus(ctx, id,
		domain.ReservationStatusPending, domain.ReservationStatusConfirmed)
	if err != nil {
		return nil, err
	}
	if !swapped {
		res, err := s.reservationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if res.Status == domain.ReservationStatusConfirmed {
			return res, nil
		}
		return nil, domain.BusinessRulef("only PENDING reservations can be confirmed; current status: %s", res.Status)
	}

	if err := s.reservationRepo.ClearExpiry(ctx, id); err != nil {
		return nil, err
	}
	res, err = s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, res, emailEventConfirmed)
	return res, nil
}

func (s *reservationService) Start(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	today := domain.Date(time.Now().UTC())
	if !domain.CanStartOn(res.PickupDate, today) {
		return nil, domain.BusinessRulef("cannot start reservation before pickup date %s",
			res.PickupDate.Format("2006-01-02"))
	}

	swapped, err := s.reservationRepo.UpdateStatus(ctx, id,
		domain.ReservationStatusConfirmed, domain.ReservationStatusActive)
	if err != nil {
		return nil, err
	}
	if !swapped {
		res, err := s.reservationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if res.Status == domain.ReservationStatusActive {
			// Already started; re-issue the idempotent availability call so a
			// previously failed inventory update gets another chance.
			if err := s.inventory.SetCarAvailability(ctx, res.CarID, false); err != nil {
				return nil, domain.Externalf(err, "reservation %d is active but marking car %d unavailable failed", id, res.CarID)
			}
			return res, nil
		}
		return nil, domain.BusinessRulef("only CONFIRMED reservations can be started; current status: %s", res.Status)
	}

	if err := s.inventory.SetCarAvailability(ctx, res.CarID, false); err != nil {
		logger.Error("Inventory update failed after start transition",
			"reservation_id", id, "car_id", res.CarID, "error", err)
		return nil, domain.Externalf(err, "reservation %d started but marking car %d unavailable failed", id, res.CarID)
	}

	return s.reservationRepo.GetByID(ctx, id)
}

func (s *reservationService) Complete(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.Status != domain.ReservationStatusActive {
		if res.Status == domain.ReservationStatusCompleted {
			return res, nil
		}
		return nil, domain.BusinessRulef("only ACTIVE reservations can be completed; current status: %s", res.Status)
	}

	today := domain.Date(time.Now().UTC())
	if !domain.CanCompleteOn(res.ReturnDate, today) {
		return nil, domain.BusinessRulef("cannot complete reservation before return date %s",
			res.ReturnDate.Format("2006-01-02"))
	}

	swapped, err := s.reservationRepo.UpdateStatus(ctx, id,
		domain.ReservationStatusActive, domain.ReservationStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !swapped {
		res, err := s.reservationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if res.Status == domain.ReservationStatusCompleted {
			return res, nil
		}
		return nil, domain.BusinessRulef("reservation status changed during processing; current status: %s", res.Status)
	}

	if err := s.inventory.SetCarAvailability(ctx, res.CarID, true); err != nil {
		logger.Error("Inventory update failed after complete transition",
			"reservation_id", id, "car_id", res.CarID, "error", err)
		return nil, domain.Externalf(err, "reservation %d completed but restoring car %d availability failed", id, res.CarID)
	}
	if res.PickupBranchCode != res.ReturnBranchCode {
		if err := s.inventory.RelocateCar(ctx, res.CarID, res.ReturnBranchCode); err != nil {
			logger.Error("Car relocation failed after complete transition",
				"reservation_id", id, "car_id", res.CarID, "branch", res.ReturnBranchCode, "error", err)
			return nil, domain.Externalf(err, "reservation %d completed but relocating car %d to %s failed",
				id, res.CarID, res.ReturnBranchCode)
		}
	}

	return s.reservationRepo.GetByID(ctx, id)
}

func (s *reservationService) Cancel(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case domain.ReservationStatusCompleted:
		return nil, domain.BusinessRulef("cannot cancel a completed reservation")
	case domain.ReservationStatusCancelled:
		return res, nil
	}

	today := domain.Date(time.Now().UTC())
	if res.Status != domain.ReservationStatusActive && !domain.WithinCancellationWindow(res.PickupDate, today) {
		return nil, domain.BusinessRulef("cannot cancel within 24 hours of pickup date %s",
			res.PickupDate.Format("2006-01-02"))
	}

	wasActive := res.Status == domain.ReservationStatusActive

	swapped, err := s.reservationRepo.UpdateStatus(ctx, id, res.Status, domain.ReservationStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !swapped {
		res, err := s.reservationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		switch res.Status {
		case domain.ReservationStatusCancelled:
			// Another writer cancelled first; it owns the availability restore.
			return res, nil
		case domain.ReservationStatusCompleted:
			return nil, domain.BusinessRulef("cannot cancel a completed reservation")
		}
		return nil, domain.BusinessRulef("reservation status changed during processing; current status: %s", res.Status)
	}

	if wasActive {
		if err := s.inventory.SetCarAvailability(ctx, res.CarID, true); err != nil {
			logger.Error("Inventory update failed after cancel transition",
				"reservation_id", id, "car_id", res.CarID, "error", err)
			return nil, domain.Externalf(err, "reservation %d cancelled but restoring car %d availability failed", id, res.CarID)
		}
	}

	res, err = s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, res, emailEventCancelled)
	return res, nil
}

func (s *reservationService) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

func (s *reservationService) ListByCustomer(ctx context.Context, email string, page, pageSize int) ([]domain.Reservation, int, error) {
	return s.reservationRepo.ListByCustomer(ctx, email, page, pageSize)
}

func (s *reservationService) ListByStatus(ctx context.Context, status domain.ReservationStatus, page, pageSize int) ([]domain.Reservation, int, error) {
	return s.reservationRepo.ListByStatus(ctx, status, page, pageSize)
}

func (s *reservationService) ListUpcoming(ctx context.Context, email string) ([]domain.Reservation, error) {
	return s.reservationRepo.ListUpcomingByCustomer(ctx, email, domain.Date(time.Now().UTC()))
}

func (s *reservationService) QuoteForCar(ctx context.Context, carID int64, pickup, ret time.Time) (*domain.Quote, error) {
	car, err := s.inventory.GetCar(ctx, carID)
	if err != nil {
		return nil, err
	}

	pickup = domain.Date(pickup)
	ret = domain.Date(ret)
	conflict, err := s.reservationRepo.HasConflict(ctx, carID, pickup, ret)
	if err != nil {
		return nil, err
	}

	// Same-branch return assumed for quotes; the actual reservation may differ.
	return s.pricing.CalculatePrice(ctx, car.Category, car.BranchCode, car.BranchCode, pickup, ret, !conflict)
}

// notify sends a best-effort customer email; failures never affect the
// reservation outcome.
func (s *reservationService) notify(ctx context.Context, res *domain.Reservation, event string) {
	if s.email == nil {
		return
	}
	if err := s.email.SendReservationNotification(ctx, res, event); err != nil {
		logger.Warn("Reservation notification email failed",
			"reservation_id", res.ID, "event", event, "error", err)
	}
}
