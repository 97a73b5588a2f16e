// Package domain defines the core records of the investment platform:
// plans, investments, transactions and accrual runs. All money values are
// fixed-point decimals; amounts are rounded half-up to 2 decimal places at
// each posting and nowhere else.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestType selects how a plan's rate is applied each accrual period.
type InterestType string

const (
	// InterestPercentage applies interestRate% of the current principal.
	InterestPercentage InterestType = "PERCENTAGE"
	// InterestFixedAmount applies the rate as a flat currency sum,
	// independent of principal.
	InterestFixedAmount InterestType = "FIXED_AMOUNT"
)

// PlanStatus is the lifecycle state of a plan. Disabled plans reject new
// investments; existing investments keep accruing.
type PlanStatus string

const (
	PlanActive   PlanStatus = "ACTIVE"
	PlanDisabled PlanStatus = "DISABLED"
)

// Plan is an investment plan definition. Written only by administrators,
// read by everything else.
type Plan struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	MinAmount        decimal.Decimal `json:"min_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	InterestType     InterestType    `json:"interest_type"`
	DurationPeriods  int             `json:"duration_periods"` // 0 = perpetual
	CapitalBack      bool            `json:"capital_back"`
	CompoundInterest bool            `json:"compound_interest"`
	Status           PlanStatus      `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// PlanSpec is the admin input for creating a plan.
type PlanSpec struct {
	Name             string          `json:"name"`
	MinAmount        decimal.Decimal `json:"min_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	InterestType     InterestType    `json:"interest_type"`
	DurationPeriods  int             `json:"duration_periods"`
	CapitalBack      bool            `json:"capital_back"`
	CompoundInterest bool            `json:"compound_interest"`
}

// Validate enforces the plan invariants: 0 <= min <= max, rate >= 0,
// duration >= 0, and a recognised interest type.
func (s *PlanSpec) Validate() error {
	if s.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if s.MinAmount.IsNegative() {
		return &ErrValidation{Field: "min_amount", Message: "must not be negative"}
	}
	if s.MaxAmount.LessThan(s.MinAmount) {
		return &ErrValidation{Field: "max_amount", Message: "must be >= min_amount"}
	}
	if s.InterestRate.IsNegative() {
		return &ErrValidation{Field: "interest_rate", Message: "must not be negative"}
	}
	if s.DurationPeriods < 0 {
		return &ErrValidation{Field: "duration_periods", Message: "must not be negative"}
	}
	switch s.InterestType {
	case InterestPercentage, InterestFixedAmount:
	default:
		return &ErrValidation{Field: "interest_type", Message: "must be PERCENTAGE or FIXED_AMOUNT"}
	}
	return nil
}

// InBounds reports whether amount lies inside the plan's inclusive
// [min, max] range.
func (p *Plan) InBounds(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinAmount) && amount.LessThanOrEqual(p.MaxAmount)
}

// InterestFor computes the interest due for one accrual period on the given
// principal, rounded to 2 decimal places (half-up).
func (p *Plan) InterestFor(principal decimal.Decimal) decimal.Decimal {
	if p.InterestType == InterestFixedAmount {
		return p.InterestRate.Round(2)
	}
	return principal.Mul(p.InterestRate).Div(decimal.NewFromInt(100)).Round(2)
}
