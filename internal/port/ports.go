// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations (in-memory store, Postgres store).
package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blackcnote/invest-api/internal/domain"
)

// PlanStore persists investment plan definitions.
type PlanStore interface {
	CreatePlan(ctx context.Context, plan *domain.Plan) error
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
	// ListPlans returns plans in insertion order. When activeOnly is set,
	// disabled plans are filtered out.
	ListPlans(ctx context.Context, activeOnly bool) ([]domain.Plan, error)
	// SetPlanStatus is idempotent; disabling a disabled plan is a no-op.
	SetPlanStatus(ctx context.Context, id string, status domain.PlanStatus) error
}

// InvestmentStore persists investments and the atomic units that touch both
// an investment and the transaction log.
type InvestmentStore interface {
	// OpenInvestment atomically re-checks the user's balance, appends the
	// COMPLETED INVESTMENT debit and creates the investment row. Either
	// both writes are visible or neither. Returns ErrInsufficientFunds when
	// the balance check fails inside the atomic unit.
	OpenInvestment(ctx context.Context, inv *domain.Investment, debit *domain.Transaction) error
	GetInvestment(ctx context.Context, id string) (*domain.Investment, error)
	ListActiveInvestments(ctx context.Context) ([]domain.Investment, error)
	ListInvestmentsByUser(ctx context.Context, userID string) ([]domain.Investment, error)
	// ApplyAccrual atomically persists one accrual step: the interest
	// posting, the updated investment (principal, periodsElapsed,
	// lastAccruedPeriod, status) and the optional capital-return posting.
	// The write is a compare-and-swap against the snapshot the step was
	// computed from: it commits only while the stored investment still has
	// expectedElapsed periods and has not accrued inv.LastAccruedPeriod.
	// Returns ErrStaleInvestment when another run got there first; nothing
	// is written in that case.
	ApplyAccrual(ctx context.Context, inv *domain.Investment, expectedElapsed int, interest *domain.Transaction, capitalReturn *domain.Transaction) error
	// SetInvestmentStatus performs a guarded lifecycle transition and
	// returns ErrInvalidState when the investment is not currently in the
	// from state.
	SetInvestmentStatus(ctx context.Context, id string, from, to domain.InvestmentStatus) error
}

// TransactionStore is the append-only transaction log. Append performs no
// business validation; that is the caller's job.
type TransactionStore interface {
	Append(ctx context.Context, tx *domain.Transaction) error
	// BalanceOf sums COMPLETED amounts for the user. No stale caching: any
	// cache in front of this must be invalidated synchronously on append.
	BalanceOf(ctx context.Context, userID string) (decimal.Decimal, error)
	// History returns transactions newest first.
	History(ctx context.Context, userID string, filter domain.TransactionFilter, page, pageSize int) ([]domain.Transaction, error)
	// Withdraw atomically re-checks the balance and appends the COMPLETED
	// WITHDRAWAL debit, mirroring OpenInvestment's no-overdraft rule.
	Withdraw(ctx context.Context, tx *domain.Transaction) error
}

// AccrualStore persists scheduler bookkeeping: the per-period run lock and
// run records.
type AccrualStore interface {
	// AcquireRunLock takes the run lock for the period. A lock older than
	// ttl is considered abandoned and may be taken over. Returns
	// ErrRunLocked when another run holds it.
	AcquireRunLock(ctx context.Context, period string, ttl time.Duration) error
	ReleaseRunLock(ctx context.Context, period string) error
	SaveRun(ctx context.Context, run *domain.AccrualRun) error
	GetRun(ctx context.Context, period string) (*domain.AccrualRun, error)
}

// UserStore persists platform accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Store aggregates everything the services need. Implemented by the memory
// and Postgres adapters.
type Store interface {
	PlanStore
	InvestmentStore
	TransactionStore
	AccrualStore
	UserStore
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
