package postgres

import (
	"database/sql"

	"carrental-backend/internal/repository"

	_ "github.com/lib/pq"
)

// Store bundles all Postgres-backed repositories behind one value.
type Store struct {
	db *sql.DB
	repository.ReservationRepository
	repository.RatePlanRepository
	repository.PricingRuleRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		ReservationRepository: NewReservationRepository(db),
		RatePlanRepository:    NewRatePlanRepository(db),
		PricingRuleRepository: NewPricingRuleRepository(db),
	}
}
