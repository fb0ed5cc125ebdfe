package service_test

import (
	"context"
	"time"

	"carrental-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockReservationRepo) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) Update(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockReservationRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepo) ClearExpiry(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationRepo) HasConflict(ctx context.Context, carID int64, pickup, ret time.Time) (bool, error) {
	args := m.Called(ctx, carID, pickup, ret)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepo) HasConflictExcluding(ctx context.Context, carID, excludeID int64, pickup, ret time.Time) (bool, error) {
	args := m.Called(ctx, carID, excludeID, pickup, ret)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepo) ListByCustomer(ctx context.Context, email string, page, pageSize int) ([]domain.Reservation, int, error) {
	args := m.Called(ctx, email, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Reservation), args.Int(1), args.Error(2)
}

func (m *MockReservationRepo) ListByStatus(ctx context.Context, status domain.ReservationStatus, page, pageSize int) ([]domain.Reservation, int, error) {
	args := m.Called(ctx, status, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Reservation), args.Int(1), args.Error(2)
}

func (m *MockReservationRepo) ListUpcomingByCustomer(ctx context.Context, email string, from time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, email, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

type MockRatePlanRepo struct {
	mock.Mock
}

func (m *MockRatePlanRepo) FindApplicable(ctx context.Context, branchCode string, category domain.CarCategory, date time.Time) (*domain.RatePlan, error) {
	args := m.Called(ctx, branchCode, category, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatePlan), args.Error(1)
}

type MockPricingRuleRepo struct {
	mock.Mock
}

func (m *MockPricingRuleRepo) FindActiveByCode(ctx context.Context, ruleCode string) (*domain.PricingRule, error) {
	args := m.Called(ctx, ruleCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricingRule), args.Error(1)
}

type MockInventoryGateway struct {
	mock.Mock
}

func (m *MockInventoryGateway) GetCar(ctx context.Context, id int64) (*domain.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}

func (m *MockInventoryGateway) IsValidBranch(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryGateway) IsAirportBranch(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryGateway) SetCarAvailability(ctx context.Context, id int64, available bool) error {
	args := m.Called(ctx, id, available)
	return args.Error(0)
}

func (m *MockInventoryGateway) RelocateCar(ctx context.Context, id int64, branchCode string) error {
	args := m.Called(ctx, id, branchCode)
	return args.Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendReservationNotification(ctx context.Context, res *domain.Reservation, event string) error {
	args := m.Called(ctx, res, event)
	return args.Error(0)
}

type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) CalculatePrice(ctx context.Context, category domain.CarCategory,
	pickupBranchCode, returnBranchCode string,
	pickupDate, returnDate time.Time, available bool) (*domain.Quote, error) {
	args := m.Called(ctx, category, pickupBranchCode, returnBranchCode, pickupDate, returnDate, available)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}
