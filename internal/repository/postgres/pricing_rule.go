package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/repository"
)

type pricingRuleRepository struct {
	db *sql.DB
}

func NewPricingRuleRepository(db *sql.DB) repository.PricingRuleRepository {
	return &pricingRuleRepository{db: db}
}

func (r *pricingRuleRepository) FindActiveByCode(ctx context.Context, ruleCode string) (*domain.PricingRule, error) {
	query := `SELECT id, rule_code, description, rule_type, percent_bps, fixed_amount_cents, min_days, active
	          FROM pricing_rules
	          WHERE rule_code = $1 AND active = true`
	rule := &domain.PricingRule{}
	var percentBps, fixedAmount sql.NullInt64
	var minDays sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, ruleCode).Scan(
		&rule.ID, &rule.RuleCode, &rule.Description, &rule.RuleType,
		&percentBps, &fixedAmount, &minDays, &rule.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rule.PercentBps = percentBps.Int64
	rule.FixedAmountCents = fixedAmount.Int64
	rule.MinDays = int(minDays.Int64)
	return rule, nil
}
