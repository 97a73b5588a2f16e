package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of an investment.
// ACTIVE -> MATURED at the final accrual period (fixed-duration plans only),
// MATURED -> CLOSED once the capital-return posting (if any) is done.
type InvestmentStatus string

const (
	InvestmentActive  InvestmentStatus = "ACTIVE"
	InvestmentMatured InvestmentStatus = "MATURED"
	InvestmentClosed  InvestmentStatus = "CLOSED"
)

// Investment records a user's position in a plan. Principal is the original
// amount and never changes; CurrentPrincipal grows when the plan compounds.
type Investment struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	PlanID           string           `json:"plan_id"`
	Principal        decimal.Decimal  `json:"principal"`
	CurrentPrincipal decimal.Decimal  `json:"current_principal"`
	StartTime        time.Time        `json:"start_time"`
	PeriodsElapsed   int              `json:"periods_elapsed"`
	// LastAccruedPeriod is the period key (YYYY-MM-DD, UTC) of the most
	// recent interest posting. The scheduler checks it before posting so a
	// re-run of the same period never accrues twice.
	LastAccruedPeriod string           `json:"last_accrued_period,omitempty"`
	Status            InvestmentStatus `json:"status"`
}
