package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodKeyLayout formats a time into an accrual period key. One period is
// one UTC day.
const PeriodKeyLayout = "2006-01-02"

// PeriodKey returns the accrual period key for t.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(PeriodKeyLayout)
}

// AccrualRun is the bookkeeping record of one scheduler invocation for one
// period. A run that hits its wall-clock budget is saved incomplete and the
// next invocation for the same period picks up the remaining investments.
type AccrualRun struct {
	Period         string          `json:"period"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at,omitempty"`
	Processed      int             `json:"processed"`
	Skipped        int             `json:"skipped"`
	Failed         int             `json:"failed"`
	InterestPosted decimal.Decimal `json:"interest_posted"`
	Complete       bool            `json:"complete"`
}
