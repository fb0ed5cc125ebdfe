package service

import (
	"context"
	"fmt"
	"time"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/repository"
)

// Pricing rule codes and their hardcoded fallbacks. A missing or inactive
// rule never aborts pricing; the fallback value applies instead.
const (
	ruleCodeOneWayFee       = "ONE_WAY_FEE"
	ruleCodeAirportFee      = "AIRPORT_FEE"
	ruleCodeSalesTax        = "SALES_TAX"
	ruleCodeWeeklyDiscount  = "WEEKLY_DISCOUNT"
	ruleCodeMonthlyDiscount = "MONTHLY_DISCOUNT"

	defaultOneWayFeeCents     = 5000
	defaultAirportFeeCents    = 2500
	defaultSalesTaxBps        = 1000 // 10%
	defaultWeeklyDiscountBps  = 500  // 5%
	defaultMonthlyDiscountBps = 1000 // 10%
	weeklyDiscountMinDays     = 7
	monthlyDiscountMinDays    = 30
	defaultDailyRateCents     = 5000
	defaultWeeklyRateCents    = 28000
	defaultCurrency           = "USD"
)

type pricingService struct {
	ratePlanRepo repository.RatePlanRepository
	ruleRepo     repository.PricingRuleRepository
	inventory    InventoryGateway
}

func NewPricingService(
	ratePlanRepo repository.RatePlanRepository,
	ruleRepo repository.PricingRuleRepository,
	inventory InventoryGateway,
) PricingService {
	return &pricingService{
		ratePlanRepo: ratePlanRepo,
		ruleRepo:     ruleRepo,
		inventory:    inventory,
	}
}

// CalculatePrice runs the deterministic quote pipeline: time charge, fees and
// surcharges, length discount, tax. Every intermediate amount ends up as its
// own line item so the quote is auditable.
func (s *pricingService) CalculatePrice(ctx context.Context, category domain.CarCategory,
	pickupBranchCode, returnBranchCode string,
	pickupDate, returnDate time.Time, available bool) (*domain.Quote, error) {

	totalDays := int64(returnDate.Sub(pickupDate).Hours() / 24)
	if totalDays < 1 {
		return nil, domain.Validationf("rental period must be at least 1 day")
	}

	plan, err := s.ratePlanRepo.FindApplicable(ctx, pickupBranchCode, category, pickupDate)
	if err != nil {
		return nil, fmt.Errorf("rate plan lookup failed: %w", err)
	}
	if plan == nil {
		plan = defaultRatePlan(pickupBranchCode, category)
	}

	timeCharge := calculateTimeCharge(totalDays, plan.DailyRateCents, plan.WeeklyRateCents)

	var additionalCharges []domain.LineItem
	var additionalTotal int64

	airport, err := s.inventory.IsAirportBranch(ctx, pickupBranchCode)
	if err != nil {
		return nil, err
	}
	if airport {
		fee, err := s.fixedAmountRule(ctx, ruleCodeAirportFee, defaultAirportFeeCents)
		if err != nil {
			return nil, err
		}
		additionalCharges = append(additionalCharges, domain.LineItem{
			Description: "Airport facility fee",
			AmountCents: fee,
			Type:        domain.LineItemFee,
		})
		additionalTotal += fee
	}

	if pickupBranchCode != returnBranchCode {
		fee, err := s.fixedAmountRule(ctx, ruleCodeOneWayFee, defaultOneWayFeeCents)
		if err != nil {
			return nil, err
		}
		additionalCharges = append(additionalCharges, domain.LineItem{
			Description: "One-way fee (different return location)",
			AmountCents: fee,
			Type:        domain.LineItemFee,
		})
		additionalTotal += fee
	}

	if surcharge := weekendSurcharge(pickupDate, returnDate, plan.DailyRateCents, plan.WeekendMultiplierBps); surcharge > 0 {
		additionalCharges = append(additionalCharges, domain.LineItem{
			Description: "Weekend surcharge",
			AmountCents: surcharge,
			Type:        domain.LineItemSurcharge,
		})
		additionalTotal += surcharge
	}

	subtotal := timeCharge.AmountCents + additionalTotal

	var discounts []domain.LineItem
	discountLine, err := s.lengthDiscount(ctx, totalDays, subtotal)
	if err != nil {
		return nil, err
	}
	if discountLine != nil {
		discounts = append(discounts, *discountLine)
		subtotal += discountLine.AmountCents
	}

	taxBps, err := s.percentageRule(ctx, ruleCodeSalesTax, defaultSalesTaxBps)
	if err != nil {
		return nil, err
	}
	taxAmount := roundHalfUpBps(subtotal * taxBps)
	taxes := []domain.LineItem{{
		Description: fmt.Sprintf("Sales tax (%s)", formatBpsPercent(taxBps)),
		AmountCents: taxAmount,
		Type:        domain.LineItemTax,
	}}

	return &domain.Quote{
		RentalDays:        totalDays,
		DailyRateCents:    plan.DailyRateCents,
		TimeCharge:        timeCharge,
		AdditionalCharges: additionalCharges,
		Discounts:         discounts,
		SubtotalCents:     subtotal,
		Taxes:             taxes,
		TotalTaxCents:     taxAmount,
		TotalPriceCents:   subtotal + taxAmount,
		Available:         available,
		Currency:          plan.Currency,
	}, nil
}

// calculateTimeCharge splits the rental into full weeks at the weekly rate
// plus remainder days at the daily rate.
func calculateTimeCharge(totalDays, dailyRateCents, weeklyRateCents int64) domain.TimeCharge {
	weeks := totalDays / 7
	remainderDays := totalDays % 7
	return domain.TimeCharge{
		Weeks:           int(weeks),
		Days:            int(remainderDays),
		WeeklyRateCents: weeklyRateCents,
		DailyRateCents:  dailyRateCents,
		AmountCents:     weeks*weeklyRateCents + remainderDays*dailyRateCents,
	}
}

// weekendSurcharge charges the extra fraction of the daily rate for every
// Saturday or Sunday in [pickup, return). A multiplier at or below 1.0x
// means no surcharge.
func weekendSurcharge(pickupDate, returnDate time.Time, dailyRateCents, multiplierBps int64) int64 {
	if multiplierBps <= 10000 {
		return 0
	}
	days := countWeekendDays(pickupDate, returnDate)
	if days == 0 {
		return 0
	}
	return roundHalfUpBps(dailyRateCents * (multiplierBps - 10000) * days)
}

// countWeekendDays counts Saturdays and Sundays in [from, to), to exclusive.
func countWeekendDays(from, to time.Time) int64 {
	var count int64
	for d := domain.Date(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			count++
		}
	}
	return count
}

// lengthDiscount applies at most one discount tier, the longer one winning.
func (s *pricingService) lengthDiscount(ctx context.Context, totalDays, subtotalCents int64) (*domain.LineItem, error) {
	var code, label string
	var defaultBps int64
	switch {
	case totalDays >= monthlyDiscountMinDays:
		code, label, defaultBps = ruleCodeMonthlyDiscount, "Monthly rental discount", defaultMonthlyDiscountBps
	case totalDays >= weeklyDiscountMinDays:
		code, label, defaultBps = ruleCodeWeeklyDiscount, "Weekly rental discount", defaultWeeklyDiscountBps
	default:
		return nil, nil
	}

	pctBps, err := s.percentageRule(ctx, code, defaultBps)
	if err != nil {
		return nil, err
	}
	amount := roundHalfUpBps(subtotalCents * pctBps)
	if amount == 0 {
		return nil, nil
	}
	return &domain.LineItem{
		Description: fmt.Sprintf("%s (%s)", label, formatBpsPercent(pctBps)),
		AmountCents: -amount,
		Type:        domain.LineItemDiscount,
	}, nil
}

func (s *pricingService) fixedAmountRule(ctx context.Context, code string, fallbackCents int64) (int64, error) {
	rule, err := s.ruleRepo.FindActiveByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("pricing rule lookup failed for %s: %w", code, err)
	}
	if rule == nil {
		return fallbackCents, nil
	}
	return rule.FixedAmountCents, nil
}

func (s *pricingService) percentageRule(ctx context.Context, code string, fallbackBps int64) (int64, error) {
	rule, err := s.ruleRepo.FindActiveByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("pricing rule lookup failed for %s: %w", code, err)
	}
	if rule == nil {
		return fallbackBps, nil
	}
	return rule.PercentBps, nil
}

// defaultRatePlan is the system fallback used when no plan covers the pickup
// date; pricing degrades instead of failing.
func defaultRatePlan(branchCode string, category domain.CarCategory) *domain.RatePlan {
	now := time.Now().UTC()
	return &domain.RatePlan{
		BranchCode:      branchCode,
		Category:        category,
		EffectiveFrom:   now.AddDate(-1, 0, 0),
		EffectiveTo:     now.AddDate(1, 0, 0),
		DailyRateCents:  defaultDailyRateCents,
		WeeklyRateCents: defaultWeeklyRateCents,
		Currency:        defaultCurrency,
		Description:     "Default rate plan",
		Active:          true,
	}
}

// roundHalfUpBps reduces a bps-scaled amount (cents x 10000) back to cents,
// rounding half-up. Inputs here are always non-negative.
func roundHalfUpBps(scaled int64) int64 {
	return (scaled + 5000) / 10000
}

func formatBpsPercent(bps int64) string {
	if bps%100 == 0 {
		return fmt.Sprintf("%d%%", bps/100)
	}
	return fmt.Sprintf("%d.%02d%%", bps/100, bps%100)
}
