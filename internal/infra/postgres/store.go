// Package postgres implements port.Store on PostgreSQL via database/sql.
// Atomic units (investment open, withdrawal, accrual step) run inside SQL
// transactions; per-user and per-investment serialization uses transaction-
// scoped advisory locks so the balance re-check and the debit cannot race.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/infra/resilience"
	"github.com/blackcnote/invest-api/internal/port"
)

// Schema creates all tables. Applied at startup with EnsureSchema; every
// statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS plans (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	min_amount       NUMERIC(15,2) NOT NULL,
	max_amount       NUMERIC(15,2) NOT NULL,
	interest_rate    NUMERIC(15,4) NOT NULL,
	interest_type    TEXT NOT NULL,
	duration_periods INT NOT NULL,
	capital_back     BOOLEAN NOT NULL,
	compound         BOOLEAN NOT NULL,
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	seq              BIGSERIAL
);
CREATE TABLE IF NOT EXISTS investments (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	plan_id             TEXT NOT NULL,
	principal           NUMERIC(15,2) NOT NULL,
	current_principal   NUMERIC(15,2) NOT NULL,
	start_time          TIMESTAMPTZ NOT NULL,
	periods_elapsed     INT NOT NULL,
	last_accrued_period TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL,
	seq                 BIGSERIAL
);
CREATE INDEX IF NOT EXISTS idx_investments_user ON investments (user_id);
CREATE INDEX IF NOT EXISTS idx_investments_status ON investments (status);
CREATE TABLE IF NOT EXISTS transactions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	investment_id TEXT,
	type          TEXT NOT NULL,
	amount        NUMERIC(15,2) NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id, created_at DESC);
CREATE TABLE IF NOT EXISTS accrual_runs (
	period          TEXT PRIMARY KEY,
	started_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ,
	processed       INT NOT NULL,
	skipped         INT NOT NULL,
	failed          INT NOT NULL,
	interest_posted NUMERIC(15,2) NOT NULL,
	complete        BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS accrual_run_locks (
	period      TEXT PRIMARY KEY,
	acquired_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_admin      BOOLEAN NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
`

// Store is the PostgreSQL adapter.
type Store struct {
	db       *sql.DB
	cb       *gobreaker.CircuitBreaker
	bulkhead *resilience.Bulkhead
	cfg      resilience.Config
	logger   *zap.Logger
}

// New creates a Postgres store. Reads are bounded by a bulkhead of
// cfg.MaxConcurrency so an accrual batch cannot exhaust the pool.
func New(db *sql.DB, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Store {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 10
	}
	return &Store{
		db:       db,
		cb:       cb,
		bulkhead: resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:      cfg,
		logger:   logger,
	}
}

// EnsureSchema applies the schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	if err != nil {
		return &domain.ErrPersistence{Op: "ensure schema", Err: err}
	}
	return nil
}

// query runs a read through the bulkhead and circuit breaker with retry.
// Domain errors are expected outcomes, not infrastructure faults: they skip
// the retry loop and count as breaker successes, so routine misses (an
// orphaned investment per accrual step, a 404 per lookup) can never trip
// the breaker and block healthy reads.
func (s *Store) query(ctx context.Context, op string, fn func() error) error {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrPersistence{Op: op, Err: err}
	}
	defer s.bulkhead.Release()

	var domainErr error
	_, err := s.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, s.cfg, func() error {
			err := fn()
			if isDomainErr(err) {
				domainErr = err
				return nil
			}
			return err
		})
	})
	if err != nil {
		return &domain.ErrPersistence{Op: op, Err: err}
	}
	return domainErr
}

// isDomainErr reports whether err is an expected domain outcome rather than
// a storage fault.
func isDomainErr(err error) bool {
	var nf *domain.ErrNotFound
	var stale *domain.ErrStaleInvestment
	return errors.As(err, &nf) || errors.As(err, &stale)
}

// --- PlanStore ---

func (s *Store) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	const q = `
        INSERT INTO plans (id, name, min_amount, max_amount, interest_rate, interest_type,
                           duration_periods, capital_back, compound, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err := s.db.ExecContext(ctx, q,
		plan.ID, plan.Name, plan.MinAmount.String(), plan.MaxAmount.String(),
		plan.InterestRate.String(), string(plan.InterestType), plan.DurationPeriods,
		plan.CapitalBack, plan.CompoundInterest, string(plan.Status), plan.CreatedAt,
	)
	if err != nil {
		s.logger.Error("postgres: create plan failed", zap.String("plan_id", plan.ID), zap.Error(err))
		return &domain.ErrPersistence{Op: "create plan", Err: err}
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	const q = `
        SELECT id, name, min_amount, max_amount, interest_rate, interest_type,
               duration_periods, capital_back, compound, status, created_at
        FROM plans WHERE id = $1
    `
	var plan *domain.Plan
	err := s.query(ctx, "get plan", func() error {
		p, err := scanPlan(s.db.QueryRowContext(ctx, q, id))
		if err == sql.ErrNoRows {
			return &domain.ErrNotFound{Resource: "plan", ID: id}
		}
		if err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Store) ListPlans(ctx context.Context, activeOnly bool) ([]domain.Plan, error) {
	q := `
        SELECT id, name, min_amount, max_amount, interest_rate, interest_type,
               duration_periods, capital_back, compound, status, created_at
        FROM plans
    `
	var args []any
	if activeOnly {
		q += ` WHERE status = $1`
		args = append(args, string(domain.PlanActive))
	}
	q += ` ORDER BY seq ASC`

	var plans []domain.Plan
	err := s.query(ctx, "list plans", func() error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		plans = plans[:0]
		for rows.Next() {
			p, err := scanPlan(rows)
			if err != nil {
				return err
			}
			plans = append(plans, *p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *Store) SetPlanStatus(ctx context.Context, id string, status domain.PlanStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE plans SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return &domain.ErrPersistence{Op: "set plan status", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "plan", ID: id}
	}
	return nil
}

// --- InvestmentStore ---

func (s *Store) OpenInvestment(ctx context.Context, inv *domain.Investment, debit *domain.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.ErrPersistence{Op: "open investment: begin", Err: err}
	}
	defer tx.Rollback()

	// Serialize per user: the balance check and the debit below are one
	// unit. hashtext maps the user ID onto the advisory-lock keyspace.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, debit.UserID); err != nil {
		return &domain.ErrPersistence{Op: "open investment: lock", Err: err}
	}

	balance, err := balanceTx(ctx, tx, debit.UserID)
	if err != nil {
		return &domain.ErrPersistence{Op: "open investment: balance", Err: err}
	}
	required := debit.Amount.Neg()
	if balance.LessThan(required) {
		return &domain.ErrInsufficientFunds{Available: balance, Required: required}
	}

	if err := insertTransactionTx(ctx, tx, debit); err != nil {
		return &domain.ErrPersistence{Op: "open investment: debit", Err: err}
	}

	const q = `
        INSERT INTO investments (id, user_id, plan_id, principal, current_principal,
                                 start_time, periods_elapsed, last_accrued_period, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err = tx.ExecContext(ctx, q,
		inv.ID, inv.UserID, inv.PlanID, inv.Principal.String(), inv.CurrentPrincipal.String(),
		inv.StartTime, inv.PeriodsElapsed, inv.LastAccruedPeriod, string(inv.Status),
	)
	if err != nil {
		return &domain.ErrPersistence{Op: "open investment: insert", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.ErrPersistence{Op: "open investment: commit", Err: err}
	}
	return nil
}

func (s *Store) GetInvestment(ctx context.Context, id string) (*domain.Investment, error) {
	const q = `
        SELECT id, user_id, plan_id, principal, current_principal, start_time,
               periods_elapsed, last_accrued_period, status
        FROM investments WHERE id = $1
    `
	var inv *domain.Investment
	err := s.query(ctx, "get investment", func() error {
		i, err := scanInvestment(s.db.QueryRowContext(ctx, q, id))
		if err == sql.ErrNoRows {
			return &domain.ErrNotFound{Resource: "investment", ID: id}
		}
		if err != nil {
			return err
		}
		inv = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Store) ListActiveInvestments(ctx context.Context) ([]domain.Investment, error) {
	const q = `
        SELECT id, user_id, plan_id, principal, current_principal, start_time,
               periods_elapsed, last_accrued_period, status
        FROM investments WHERE status = $1 ORDER BY seq ASC
    `
	return s.listInvestments(ctx, q, string(domain.InvestmentActive))
}

func (s *Store) ListInvestmentsByUser(ctx context.Context, userID string) ([]domain.Investment, error) {
	const q = `
        SELECT id, user_id, plan_id, principal, current_principal, start_time,
               periods_elapsed, last_accrued_period, status
        FROM investments WHERE user_id = $1 ORDER BY seq ASC
    `
	return s.listInvestments(ctx, q, userID)
}

func (s *Store) listInvestments(ctx context.Context, q string, arg any) ([]domain.Investment, error) {
	var out []domain.Investment
	err := s.query(ctx, "list investments", func() error {
		rows, err := s.db.QueryContext(ctx, q, arg)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			inv, err := scanInvestment(rows)
			if err != nil {
				return err
			}
			out = append(out, *inv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ApplyAccrual(ctx context.Context, inv *domain.Investment, expectedElapsed int, interest *domain.Transaction, capitalReturn *domain.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.ErrPersistence{Op: "apply accrual: begin", Err: err}
	}
	defer tx.Rollback()

	// Serializes writers for this investment; the CAS below still decides,
	// since the lock does not cover the read the step was computed from.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, inv.ID); err != nil {
		return &domain.ErrPersistence{Op: "apply accrual: lock", Err: err}
	}

	// Compare-and-swap against the caller's snapshot. A run for a
	// different period may have advanced this investment since it was
	// listed; a CAS miss rolls the whole step back.
	const q = `
        UPDATE investments
        SET current_principal = $1, periods_elapsed = $2, last_accrued_period = $3, status = $4
        WHERE id = $5 AND periods_elapsed = $6 AND last_accrued_period <> $3
    `
	res, err := tx.ExecContext(ctx, q,
		inv.CurrentPrincipal.String(), inv.PeriodsElapsed, inv.LastAccruedPeriod,
		string(inv.Status), inv.ID, expectedElapsed,
	)
	if err != nil {
		return &domain.ErrPersistence{Op: "apply accrual: update", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM investments WHERE id = $1)`, inv.ID).Scan(&exists); err != nil {
			return &domain.ErrPersistence{Op: "apply accrual: recheck", Err: err}
		}
		if !exists {
			return &domain.ErrNotFound{Resource: "investment", ID: inv.ID}
		}
		return &domain.ErrStaleInvestment{ID: inv.ID}
	}

	if err := insertTransactionTx(ctx, tx, interest); err != nil {
		return &domain.ErrPersistence{Op: "apply accrual: interest", Err: err}
	}
	if capitalReturn != nil {
		if err := insertTransactionTx(ctx, tx, capitalReturn); err != nil {
			return &domain.ErrPersistence{Op: "apply accrual: capital return", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.ErrPersistence{Op: "apply accrual: commit", Err: err}
	}
	return nil
}

func (s *Store) SetInvestmentStatus(ctx context.Context, id string, from, to domain.InvestmentStatus) error {
	const q = `UPDATE investments SET status = $1 WHERE id = $2 AND status = $3`
	res, err := s.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return &domain.ErrPersistence{Op: "set investment status", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Row missing or not in the expected state; fetch to tell which.
		inv, gerr := s.GetInvestment(ctx, id)
		if gerr != nil {
			return gerr
		}
		return &domain.ErrInvalidState{Resource: "investment", From: string(inv.Status), To: string(to)}
	}
	return nil
}

// --- TransactionStore ---

func (s *Store) Append(ctx context.Context, tx *domain.Transaction) error {
	const q = `
        INSERT INTO transactions (id, user_id, investment_id, type, amount, status, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
    `
	_, err := s.db.ExecContext(ctx, q,
		tx.ID, tx.UserID, tx.InvestmentID, string(tx.Type), tx.Amount.String(),
		string(tx.Status), tx.CreatedAt,
	)
	if err != nil {
		s.logger.Error("postgres: append transaction failed",
			zap.String("transaction_id", tx.ID),
			zap.String("user_id", tx.UserID),
			zap.Error(err),
		)
		return &domain.ErrPersistence{Op: "append transaction", Err: err}
	}
	return nil
}

func (s *Store) BalanceOf(ctx context.Context, userID string) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := s.query(ctx, "balance of", func() error {
		var raw string
		row := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND status = $2`,
			userID, string(domain.TxCompleted),
		)
		if err := row.Scan(&raw); err != nil {
			return err
		}
		b, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse balance: %w", err)
		}
		balance = b
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *Store) History(ctx context.Context, userID string, filter domain.TransactionFilter, page, pageSize int) ([]domain.Transaction, error) {
	q := `
        SELECT id, user_id, COALESCE(investment_id, ''), type, amount, status, created_at
        FROM transactions WHERE user_id = $1
    `
	args := []any{userID}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		q += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		q += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		q += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	q += ` ORDER BY created_at DESC`
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		args = append(args, pageSize, (page-1)*pageSize)
		q += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	var out []domain.Transaction
	err := s.query(ctx, "history", func() error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			out = append(out, *t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Withdraw(ctx context.Context, wtx *domain.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.ErrPersistence{Op: "withdraw: begin", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, wtx.UserID); err != nil {
		return &domain.ErrPersistence{Op: "withdraw: lock", Err: err}
	}

	balance, err := balanceTx(ctx, tx, wtx.UserID)
	if err != nil {
		return &domain.ErrPersistence{Op: "withdraw: balance", Err: err}
	}
	required := wtx.Amount.Neg()
	if balance.LessThan(required) {
		return &domain.ErrInsufficientFunds{Available: balance, Required: required}
	}

	if err := insertTransactionTx(ctx, tx, wtx); err != nil {
		return &domain.ErrPersistence{Op: "withdraw: insert", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.ErrPersistence{Op: "withdraw: commit", Err: err}
	}
	return nil
}

// --- AccrualStore ---

func (s *Store) AcquireRunLock(ctx context.Context, period string, ttl time.Duration) error {
	// Insert wins the lock; on conflict only a stale holder is replaced.
	const q = `
        INSERT INTO accrual_run_locks (period, acquired_at) VALUES ($1, NOW())
        ON CONFLICT (period) DO UPDATE SET acquired_at = NOW()
        WHERE accrual_run_locks.acquired_at < NOW() - $2::interval
    `
	res, err := s.db.ExecContext(ctx, q, period, fmt.Sprintf("%f seconds", ttl.Seconds()))
	if err != nil {
		return &domain.ErrPersistence{Op: "acquire run lock", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrRunLocked{Period: period}
	}
	return nil
}

func (s *Store) ReleaseRunLock(ctx context.Context, period string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM accrual_run_locks WHERE period = $1`, period)
	if err != nil {
		return &domain.ErrPersistence{Op: "release run lock", Err: err}
	}
	return nil
}

func (s *Store) SaveRun(ctx context.Context, run *domain.AccrualRun) error {
	const q = `
        INSERT INTO accrual_runs (period, started_at, completed_at, processed, skipped, failed, interest_posted, complete)
        VALUES ($1, $2, NULLIF($3, '0001-01-01T00:00:00Z'::timestamptz), $4, $5, $6, $7, $8)
        ON CONFLICT (period) DO UPDATE SET
            completed_at = EXCLUDED.completed_at,
            processed = EXCLUDED.processed,
            skipped = EXCLUDED.skipped,
            failed = EXCLUDED.failed,
            interest_posted = EXCLUDED.interest_posted,
            complete = EXCLUDED.complete
    `
	_, err := s.db.ExecContext(ctx, q,
		run.Period, run.StartedAt, run.CompletedAt, run.Processed, run.Skipped,
		run.Failed, run.InterestPosted.String(), run.Complete,
	)
	if err != nil {
		return &domain.ErrPersistence{Op: "save run", Err: err}
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, period string) (*domain.AccrualRun, error) {
	const q = `
        SELECT period, started_at, COALESCE(completed_at, '0001-01-01T00:00:00Z'::timestamptz),
               processed, skipped, failed, interest_posted, complete
        FROM accrual_runs WHERE period = $1
    `
	var run *domain.AccrualRun
	err := s.query(ctx, "get run", func() error {
		var r domain.AccrualRun
		var raw string
		row := s.db.QueryRowContext(ctx, q, period)
		if err := row.Scan(&r.Period, &r.StartedAt, &r.CompletedAt, &r.Processed, &r.Skipped, &r.Failed, &raw, &r.Complete); err != nil {
			if err == sql.ErrNoRows {
				return &domain.ErrNotFound{Resource: "accrual run", ID: period}
			}
			return err
		}
		posted, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse interest_posted: %w", err)
		}
		r.InterestPosted = posted
		run = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// --- UserStore ---

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	const q = `
        INSERT INTO users (id, email, name, password_hash, is_admin, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := s.db.ExecContext(ctx, q,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Admin, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "email already registered"}
		}
		return &domain.ErrPersistence{Op: "create user", Err: err}
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT id, email, name, password_hash, is_admin, created_at FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT id, email, name, password_hash, is_admin, created_at FROM users WHERE email = $1`, email)
}

func (s *Store) getUser(ctx context.Context, q, arg string) (*domain.User, error) {
	var user *domain.User
	err := s.query(ctx, "get user", func() error {
		var u domain.User
		row := s.db.QueryRowContext(ctx, q, arg)
		if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Admin, &u.CreatedAt); err != nil {
			if err == sql.ErrNoRows {
				return &domain.ErrNotFound{Resource: "user", ID: arg}
			}
			return err
		}
		user = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

var _ port.Store = (*Store)(nil)
