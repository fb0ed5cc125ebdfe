package service_test

import (
	"context"
	"testing"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newReservationService(
	repo *MockReservationRepo,
	inv *MockInventoryGateway,
	pricing *MockPricingService,
	email *MockEmailService,
) service.ReservationService {
	return service.NewReservationService(repo, inv, pricing, email, 30*time.Minute)
}

func sampleQuote() *domain.Quote {
	return &domain.Quote{
		RentalDays:      5,
		DailyRateCents:  5000,
		SubtotalCents:   25000,
		TotalTaxCents:   2500,
		TotalPriceCents: 27500,
		Available:       true,
		Currency:        "USD",
	}
}

func sampleReservation(status domain.ReservationStatus) *domain.Reservation {
	today := domain.Date(time.Now().UTC())
	res := &domain.Reservation{
		ID:               42,
		ConfirmationCode: uuid.New(),
		CarID:            7,
		CustomerEmail:    "jo@example.com",
		CustomerName:     "Jo Smith",
		PickupBranchCode: "DTLA",
		ReturnBranchCode: "DTLA",
		PickupDate:       today.AddDate(0, 0, 3),
		ReturnDate:       today.AddDate(0, 0, 8),
		Status:           status,
		TotalPriceCents:  27500,
		DailyRateCents:   5000,
		Version:          1,
	}
	if status == domain.ReservationStatusPending {
		expires := time.Now().UTC().Add(20 * time.Minute)
		res.ExpiresAt = &expires
	}
	return res
}

func TestReservationService_Create(t *testing.T) {
	ctx := context.Background()
	today := domain.Date(time.Now().UTC())
	pickup := today.AddDate(0, 0, 3)
	ret := today.AddDate(0, 0, 8)

	car := &domain.Car{
		ID:         7,
		Category:   domain.CarCategorySedan,
		BranchCode: "DTLA",
		Available:  true,
	}

	input := service.CreateReservationInput{
		CarID:            7,
		CustomerEmail:    "jo@example.com",
		CustomerName:     "Jo Smith",
		PickupBranchCode: "DTLA",
		ReturnBranchCode: "DTLA",
		PickupDate:       pickup,
		ReturnDate:       ret,
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		pricing := new(MockPricingService)
		email := new(MockEmailService)
		svc := newReservationService(repo, inv, pricing, email)

		inv.On("GetCar", ctx, int64(7)).Return(car, nil)
		inv.On("IsValidBranch", ctx, "DTLA").Return(true, nil)
		repo.On("HasConflict", ctx, int64(7), pickup, ret).Return(false, nil)
		pricing.On("CalculatePrice", ctx, domain.CarCategorySedan, "DTLA", "DTLA", pickup, ret, true).
			Return(sampleQuote(), nil)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Reservation")).Return(nil)
		email.On("SendReservationNotification", ctx, mock.AnythingOfType("*domain.Reservation"), "pending").Return(nil)

		res, err := svc.Create(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusPending, res.Status)
		assert.Equal(t, int64(27500), res.TotalPriceCents)
		assert.NotEqual(t, uuid.Nil, res.ConfirmationCode)
		if assert.NotNil(t, res.ExpiresAt) {
			assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), *res.ExpiresAt, time.Minute)
		}
		repo.AssertExpectations(t)
	})

	t.Run("ReturnDateNotAfterPickup", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		bad := input
		bad.ReturnDate = bad.PickupDate
		res, err := svc.Create(ctx, bad)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindValidation))
		inv.AssertNotCalled(t, "GetCar", mock.Anything, mock.Anything)
	})

	t.Run("CarUnavailable", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		parked := *car
		parked.Available = false
		inv.On("GetCar", ctx, int64(7)).Return(&parked, nil)

		res, err := svc.Create(ctx, input)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindConflict))
	})

	t.Run("UnknownBranch", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		inv.On("GetCar", ctx, int64(7)).Return(car, nil)
		inv.On("IsValidBranch", ctx, "DTLA").Return(false, nil)

		res, err := svc.Create(ctx, input)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})

	t.Run("CarAtDifferentBranch", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		elsewhere := *car
		elsewhere.BranchCode = "SFO"
		inv.On("GetCar", ctx, int64(7)).Return(&elsewhere, nil)
		inv.On("IsValidBranch", ctx, "DTLA").Return(true, nil)

		res, err := svc.Create(ctx, input)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})

	t.Run("OverlappingDatesPreCheck", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		inv.On("GetCar", ctx, int64(7)).Return(car, nil)
		inv.On("IsValidBranch", ctx, "DTLA").Return(true, nil)
		repo.On("HasConflict", ctx, int64(7), pickup, ret).Return(true, nil)

		res, err := svc.Create(ctx, input)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindConflict))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestReservationService_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockReservationRepo)
		email := new(MockEmailService)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), email)

		pending := sampleReservation(domain.ReservationStatusPending)
		confirmed := sampleReservation(domain.ReservationStatusConfirmed)
		confirmed.ExpiresAt = nil

		repo.On("GetByID", ctx, int64(42)).Return(pending, nil).Once()
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusPending, domain.ReservationStatusConfirmed).
			Return(true, nil)
		repo.On("ClearExpiry", ctx, int64(42)).Return(nil)
		repo.On("GetByID", ctx, int64(42)).Return(confirmed, nil).Once()
		email.On("SendReservationNotification", ctx, confirmed, "confirmed").Return(nil)

		res, err := svc.Confirm(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusConfirmed, res.Status)
		assert.Nil(t, res.ExpiresAt)
		repo.AssertExpectations(t)
	})

	t.Run("ExpiredHoldIsNotWrongState", func(t *testing.T) {
		repo := new(MockReservationRepo)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), new(MockEmailService))

		lapsed := sampleReservation(domain.ReservationStatusPending)
		past := time.Now().UTC().Add(-time.Minute)
		lapsed.ExpiresAt = &past

		repo.On("GetByID", ctx, int64(42)).Return(lapsed, nil)

		res, err := svc.Confirm(ctx, 42)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindExpired))
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LostRaceButAlreadyConfirmed", func(t *testing.T) {
		repo := new(MockReservationRepo)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), new(MockEmailService))

		pending := sampleReservation(domain.ReservationStatusPending)
		confirmed := sampleReservation(domain.ReservationStatusConfirmed)

		repo.On("GetByID", ctx, int64(42)).Return(pending, nil).Once()
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusPending, domain.ReservationStatusConfirmed).
			Return(false, nil)
		repo.On("GetByID", ctx, int64(42)).Return(confirmed, nil).Once()

		res, err := svc.Confirm(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusConfirmed, res.Status)
		repo.AssertNotCalled(t, "ClearExpiry", mock.Anything, mock.Anything)
	})

	t.Run("WrongState", func(t *testing.T) {
		repo := new(MockReservationRepo)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), new(MockEmailService))

		active := sampleReservation(domain.ReservationStatusActive)
		repo.On("GetByID", ctx, int64(42)).Return(active, nil)
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusPending, domain.ReservationStatusConfirmed).
			Return(false, nil)

		res, err := svc.Confirm(ctx, 42)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindBusinessRule))
	})
}

func TestReservationService_Start(t *testing.T) {
	ctx := context.Background()
	today := domain.Date(time.Now().UTC())

	t.Run("Success", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		confirmed := sampleReservation(domain.ReservationStatusConfirmed)
		confirmed.PickupDate = today
		active := sampleReservation(domain.ReservationStatusActive)

		repo.On("GetByID", ctx, int64(42)).Return(confirmed, nil).Once()
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusConfirmed, domain.ReservationStatusActive).
			Return(true, nil)
		inv.On("SetCarAvailability", ctx, int64(7), false).Return(nil)
		repo.On("GetByID", ctx, int64(42)).Return(active, nil).Once()

		res, err := svc.Start(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusActive, res.Status)
		inv.AssertExpectations(t)
	})

	t.Run("BeforePickupDate", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		confirmed := sampleReservation(domain.ReservationStatusConfirmed)
		repo.On("GetByID", ctx, int64(42)).Return(confirmed, nil)

		res, err := svc.Start(ctx, 42)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindBusinessRule))
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RepeatStartReissuesAvailabilityCall", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		active := sampleReservation(domain.ReservationStatusActive)
		active.PickupDate = today

		repo.On("GetByID", ctx, int64(42)).Return(active, nil)
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusConfirmed, domain.ReservationStatusActive).
			Return(false, nil)
		inv.On("SetCarAvailability", ctx, int64(7), false).Return(nil)

		res, err := svc.Start(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusActive, res.Status)
		inv.AssertNumberOfCalls(t, "SetCarAvailability", 1)
	})
}

func TestReservationService_Complete(t *testing.T) {
	ctx := context.Background()
	today := domain.Date(time.Now().UTC())

	t.Run("SuccessOneWayRelocatesCar", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		active := sampleReservation(domain.ReservationStatusActive)
		active.PickupDate = today.AddDate(0, 0, -5)
		active.ReturnDate = today
		active.ReturnBranchCode = "SFO"
		completed := sampleReservation(domain.ReservationStatusCompleted)

		repo.On("GetByID", ctx, int64(42)).Return(active, nil).Once()
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusActive, domain.ReservationStatusCompleted).
			Return(true, nil)
		inv.On("SetCarAvailability", ctx, int64(7), true).Return(nil)
		inv.On("RelocateCar", ctx, int64(7), "SFO").Return(nil)
		repo.On("GetByID", ctx, int64(42)).Return(completed, nil).Once()

		res, err := svc.Complete(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCompleted, res.Status)
		inv.AssertExpectations(t)
	})

	t.Run("AlreadyCompletedIsIdempotent", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		completed := sampleReservation(domain.ReservationStatusCompleted)
		repo.On("GetByID", ctx, int64(42)).Return(completed, nil)

		res, err := svc.Complete(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCompleted, res.Status)
		inv.AssertNotCalled(t, "SetCarAvailability", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BeforeReturnDate", func(t *testing.T) {
		repo := new(MockReservationRepo)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), new(MockEmailService))

		active := sampleReservation(domain.ReservationStatusActive)
		active.PickupDate = today.AddDate(0, 0, -2)
		active.ReturnDate = today.AddDate(0, 0, 3)
		repo.On("GetByID", ctx, int64(42)).Return(active, nil)

		res, err := svc.Complete(ctx, 42)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindBusinessRule))
	})
}

func TestReservationService_Cancel(t *testing.T) {
	ctx := context.Background()
	today := domain.Date(time.Now().UTC())

	t.Run("ConfirmedWithinWindow", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		email := new(MockEmailService)
		svc := newReservationService(repo, inv, new(MockPricingService), email)

		confirmed := sampleReservation(domain.ReservationStatusConfirmed)
		cancelled := sampleReservation(domain.ReservationStatusCancelled)

		repo.On("GetByID", ctx, int64(42)).Return(confirmed, nil).Once()
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusConfirmed, domain.ReservationStatusCancelled).
			Return(true, nil)
		repo.On("GetByID", ctx, int64(42)).Return(cancelled, nil).Once()
		email.On("SendReservationNotification", ctx, cancelled, "cancelled").Return(nil)

		res, err := svc.Cancel(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCancelled, res.Status)
		inv.AssertNotCalled(t, "SetCarAvailability", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PickupTomorrowIsStillCancellable", func(t *testing.T) {
		repo := new(MockReservationRepo)
		email := new(MockEmailService)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), email)

		confirmed := sampleReservation(domain.ReservationStatusConfirmed)
		confirmed.PickupDate = today.AddDate(0, 0, 1)
		cancelled := sampleReservation(domain.ReservationStatusCancelled)

		repo.On("GetByID", ctx, int64(42)).Return(confirmed, nil).Once()
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusConfirmed, domain.ReservationStatusCancelled).
			Return(true, nil)
		repo.On("GetByID", ctx, int64(42)).Return(cancelled, nil).Once()
		email.On("SendReservationNotification", ctx, cancelled, "cancelled").Return(nil)

		_, err := svc.Cancel(ctx, 42)
		assert.NoError(t, err)
	})

	t.Run("PickupTodayIsTooLate", func(t *testing.T) {
		repo := new(MockReservationRepo)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), new(MockEmailService))

		confirmed := sampleReservation(domain.ReservationStatusConfirmed)
		confirmed.PickupDate = today
		repo.On("GetByID", ctx, int64(42)).Return(confirmed, nil)

		res, err := svc.Cancel(ctx, 42)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindBusinessRule))
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ActiveCancelRestoresAvailability", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		email := new(MockEmailService)
		svc := newReservationService(repo, inv, new(MockPricingService), email)

		active := sampleReservation(domain.ReservationStatusActive)
		cancelled := sampleReservation(domain.ReservationStatusCancelled)

		repo.On("GetByID", ctx, int64(42)).Return(active, nil).Once()
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusActive, domain.ReservationStatusCancelled).
			Return(true, nil)
		inv.On("SetCarAvailability", ctx, int64(7), true).Return(nil)
		repo.On("GetByID", ctx, int64(42)).Return(cancelled, nil).Once()
		email.On("SendReservationNotification", ctx, cancelled, "cancelled").Return(nil)

		_, err := svc.Cancel(ctx, 42)
		assert.NoError(t, err)
		inv.AssertNumberOfCalls(t, "SetCarAvailability", 1)
	})

	t.Run("SecondCancelIsIdempotentWithoutSideEffects", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		cancelled := sampleReservation(domain.ReservationStatusCancelled)
		repo.On("GetByID", ctx, int64(42)).Return(cancelled, nil)

		res, err := svc.Cancel(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCancelled, res.Status)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		inv.AssertNotCalled(t, "SetCarAvailability", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LostRaceToAnotherCanceller", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		svc := newReservationService(repo, inv, new(MockPricingService), new(MockEmailService))

		active := sampleReservation(domain.ReservationStatusActive)
		cancelled := sampleReservation(domain.ReservationStatusCancelled)

		repo.On("GetByID", ctx, int64(42)).Return(active, nil).Once()
		repo.On("UpdateStatus", ctx, int64(42), domain.ReservationStatusActive, domain.ReservationStatusCancelled).
			Return(false, nil)
		repo.On("GetByID", ctx, int64(42)).Return(cancelled, nil).Once()

		res, err := svc.Cancel(ctx, 42)
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCancelled, res.Status)
		// The winning canceller owns the availability restore.
		inv.AssertNotCalled(t, "SetCarAvailability", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CompletedCannotBeCancelled", func(t *testing.T) {
		repo := new(MockReservationRepo)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), new(MockEmailService))

		completed := sampleReservation(domain.ReservationStatusCompleted)
		repo.On("GetByID", ctx, int64(42)).Return(completed, nil)

		res, err := svc.Cancel(ctx, 42)
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindBusinessRule))
	})
}

func TestReservationService_Update(t *testing.T) {
	ctx := context.Background()
	today := domain.Date(time.Now().UTC())

	t.Run("RepricesOnDateChange", func(t *testing.T) {
		repo := new(MockReservationRepo)
		inv := new(MockInventoryGateway)
		pricing := new(MockPricingService)
		svc := newReservationService(repo, inv, pricing, new(MockEmailService))

		pending := sampleReservation(domain.ReservationStatusPending)
		newReturn := today.AddDate(0, 0, 10)

		repo.On("GetByID", ctx, int64(42)).Return(pending, nil)
		repo.On("HasConflictExcluding", ctx, int64(7), int64(42), pending.PickupDate, newReturn).Return(false, nil)
		inv.On("GetCar", ctx, int64(7)).Return(&domain.Car{ID: 7, Category: domain.CarCategorySedan, BranchCode: "DTLA", Available: true}, nil)
		repriced := sampleQuote()
		repriced.TotalPriceCents = 38500
		pricing.On("CalculatePrice", ctx, domain.CarCategorySedan, "DTLA", "DTLA", pending.PickupDate, newReturn, true).
			Return(repriced, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*domain.Reservation")).Return(nil)

		res, err := svc.Update(ctx, 42, service.UpdateReservationInput{ReturnDate: &newReturn})
		assert.NoError(t, err)
		assert.Equal(t, newReturn, res.ReturnDate)
		assert.Equal(t, int64(38500), res.TotalPriceCents)
	})

	t.Run("ActiveReservationRejectsUpdate", func(t *testing.T) {
		repo := new(MockReservationRepo)
		svc := newReservationService(repo, new(MockInventoryGateway), new(MockPricingService), new(MockEmailService))

		active := sampleReservation(domain.ReservationStatusActive)
		repo.On("GetByID", ctx, int64(42)).Return(active, nil)

		res, err := svc.Update(ctx, 42, service.UpdateReservationInput{})
		assert.Nil(t, res)
		assert.True(t, domain.IsKind(err, domain.KindBusinessRule))
	})

	t.Run("NotesOnlyUpdateSkipsRepricing", func(t *testing.T) {
		repo := new(MockReservationRepo)
		pricing := new(MockPricingService)
		svc := newReservationService(repo, new(MockInventoryGateway), pricing, new(MockEmailService))

		confirmed := sampleReservation(domain.ReservationStatusConfirmed)
		repo.On("GetByID", ctx, int64(42)).Return(confirmed, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*domain.Reservation")).Return(nil)

		notes := "late arrival"
		res, err := svc.Update(ctx, 42, service.UpdateReservationInput{Notes: &notes})
		assert.NoError(t, err)
		assert.Equal(t, "late arrival", res.Notes)
		pricing.AssertNotCalled(t, "CalculatePrice",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
