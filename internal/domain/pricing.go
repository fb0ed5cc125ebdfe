package domain

import "time"

// All monetary amounts are integer cents; percentages and multipliers are
// basis points (10000 = 100% = 1.0x). Rounding to cents is half-up.

type RatePlan struct {
	ID                   int64       `json:"id"`
	BranchCode           string      `json:"branch_code"`
	Category             CarCategory `json:"category"`
	EffectiveFrom        time.Time   `json:"effective_from"`
	EffectiveTo          time.Time   `json:"effective_to"`
	DailyRateCents       int64       `json:"daily_rate_cents"`
	WeeklyRateCents      int64       `json:"weekly_rate_cents"`
	WeekendMultiplierBps int64       `json:"weekend_multiplier_bps,omitempty"` // 0 means no surcharge
	Currency             string      `json:"currency"`
	Description          string      `json:"description,omitempty"`
	Active               bool        `json:"active"`
}

// ValidOn reports whether the plan's validity window contains date.
func (p *RatePlan) ValidOn(date time.Time) bool {
	return p.Active && !date.Before(p.EffectiveFrom) && !date.After(p.EffectiveTo)
}

type PricingRuleType string

const (
	RuleTypeTax              PricingRuleType = "TAX"
	RuleTypeOneWayFee        PricingRuleType = "ONE_WAY_FEE"
	RuleTypeLengthDiscount   PricingRuleType = "LENGTH_DISCOUNT"
	RuleTypeWeekendSurcharge PricingRuleType = "WEEKEND_SURCHARGE"
	RuleTypeAirportFee       PricingRuleType = "AIRPORT_FEE"
)

// PricingRule is a named, independently toggleable configuration value.
// Percentage rules carry PercentBps, fixed-amount rules carry FixedAmountCents.
type PricingRule struct {
	ID               int64           `json:"id"`
	RuleCode         string          `json:"rule_code"`
	Description      string          `json:"description"`
	RuleType         PricingRuleType `json:"rule_type"`
	PercentBps       int64           `json:"percent_bps,omitempty"`
	FixedAmountCents int64           `json:"fixed_amount_cents,omitempty"`
	MinDays          int             `json:"min_days,omitempty"`
	Active           bool            `json:"active"`
}

type LineItemType string

const (
	LineItemFee       LineItemType = "FEE"
	LineItemSurcharge LineItemType = "SURCHARGE"
	LineItemDiscount  LineItemType = "DISCOUNT"
	LineItemTax       LineItemType = "TAX"
)

type LineItem struct {
	Description string       `json:"description"`
	AmountCents int64        `json:"amount_cents"`
	Type        LineItemType `json:"type"`
}

// TimeCharge is the weeks-plus-days decomposition of the base rental charge.
type TimeCharge struct {
	Weeks           int   `json:"weeks"`
	Days            int   `json:"days"`
	WeeklyRateCents int64 `json:"weekly_rate_cents"`
	DailyRateCents  int64 `json:"daily_rate_cents"`
	AmountCents     int64 `json:"amount_cents"`
}

// Quote is the full itemized price breakdown. SubtotalCents is the tax basis:
// time charge plus additional charges, minus any length discount.
type Quote struct {
	RentalDays        int64      `json:"rental_days"`
	DailyRateCents    int64      `json:"daily_rate_cents"`
	TimeCharge        TimeCharge `json:"time_charge"`
	AdditionalCharges []LineItem `json:"additional_charges,omitempty"`
	Discounts         []LineItem `json:"discounts,omitempty"`
	SubtotalCents     int64      `json:"subtotal_cents"`
	Taxes             []LineItem `json:"taxes"`
	TotalTaxCents     int64      `json:"total_tax_cents"`
	TotalPriceCents   int64      `json:"total_price_cents"`
	Available         bool       `json:"available"`
	Currency          string     `json:"currency"`
}
