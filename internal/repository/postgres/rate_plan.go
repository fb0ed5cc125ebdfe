package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/repository"
)

type ratePlanRepository struct {
	db *sql.DB
}

func NewRatePlanRepository(db *sql.DB) repository.RatePlanRepository {
	return &ratePlanRepository{db: db}
}

func (r *ratePlanRepository) FindApplicable(ctx context.Context, branchCode string, category domain.CarCategory, date time.Time) (*domain.RatePlan, error) {
	query := `SELECT id, branch_code, category, effective_from, effective_to,
	                 daily_rate_cents, weekly_rate_cents, weekend_multiplier_bps, currency, description, active
	          FROM rate_plans
	          WHERE branch_code = $1
	            AND category = $2
	            AND active = true
	            AND $3 >= effective_from
	            AND $3 <= effective_to
	          ORDER BY effective_from DESC
	          LIMIT 1`
	plan := &domain.RatePlan{}
	var multiplier sql.NullInt64
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, branchCode, category, date).Scan(
		&plan.ID, &plan.BranchCode, &plan.Category, &plan.EffectiveFrom, &plan.EffectiveTo,
		&plan.DailyRateCents, &plan.WeeklyRateCents, &multiplier, &plan.Currency, &description, &plan.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	plan.WeekendMultiplierBps = multiplier.Int64
	plan.Description = description.String
	return plan, nil
}
