package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Error types for consistent error handling across the platform.
// Validation and domain errors are expected outcomes surfaced to the caller
// as structured codes; ErrPersistence is the only one the presentation layer
// retries.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrPlanDisabled indicates the plan rejects new investments.
type ErrPlanDisabled struct {
	PlanID string
}

func (e *ErrPlanDisabled) Error() string {
	return fmt.Sprintf("plan disabled: %s", e.PlanID)
}

// ErrAmountOutOfRange indicates an amount outside the plan's [min, max].
type ErrAmountOutOfRange struct {
	Amount decimal.Decimal
	Min    decimal.Decimal
	Max    decimal.Decimal
}

func (e *ErrAmountOutOfRange) Error() string {
	return fmt.Sprintf("amount %s out of range [%s, %s]", e.Amount, e.Min, e.Max)
}

// ErrInsufficientFunds indicates not enough balance for the operation.
type ErrInsufficientFunds struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient balance: available=%s required=%s", e.Available, e.Required)
}

// ErrInvalidState indicates an illegal lifecycle transition.
type ErrInvalidState struct {
	Resource string
	From     string
	To       string
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Resource, e.From, e.To)
}

// ErrPersistence indicates a storage-layer failure (e.g. commit failure).
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence error in %s: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict indicates a resource already exists (e.g. duplicate email).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrStaleInvestment indicates an accrual write lost a compare-and-swap:
// another run advanced the investment between snapshot and apply. The
// caller re-reads and decides; nothing was written.
type ErrStaleInvestment struct {
	ID string
}

func (e *ErrStaleInvestment) Error() string {
	return fmt.Sprintf("investment %s changed since snapshot", e.ID)
}

// ErrRunLocked indicates an accrual run for the period is already in
// progress.
type ErrRunLocked struct {
	Period string
}

func (e *ErrRunLocked) Error() string {
	return fmt.Sprintf("accrual run already in progress for period %s", e.Period)
}
