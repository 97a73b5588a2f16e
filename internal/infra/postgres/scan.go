package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/blackcnote/invest-api/internal/domain"
)

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*domain.Plan, error) {
	var p domain.Plan
	var minRaw, maxRaw, rateRaw, itype, status string
	if err := row.Scan(&p.ID, &p.Name, &minRaw, &maxRaw, &rateRaw, &itype,
		&p.DurationPeriods, &p.CapitalBack, &p.CompoundInterest, &status, &p.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.MinAmount, err = decimal.NewFromString(minRaw); err != nil {
		return nil, fmt.Errorf("parse min_amount: %w", err)
	}
	if p.MaxAmount, err = decimal.NewFromString(maxRaw); err != nil {
		return nil, fmt.Errorf("parse max_amount: %w", err)
	}
	if p.InterestRate, err = decimal.NewFromString(rateRaw); err != nil {
		return nil, fmt.Errorf("parse interest_rate: %w", err)
	}
	p.InterestType = domain.InterestType(itype)
	p.Status = domain.PlanStatus(status)
	return &p, nil
}

func scanInvestment(row scanner) (*domain.Investment, error) {
	var inv domain.Investment
	var principalRaw, currentRaw, status string
	if err := row.Scan(&inv.ID, &inv.UserID, &inv.PlanID, &principalRaw, &currentRaw,
		&inv.StartTime, &inv.PeriodsElapsed, &inv.LastAccruedPeriod, &status); err != nil {
		return nil, err
	}
	var err error
	if inv.Principal, err = decimal.NewFromString(principalRaw); err != nil {
		return nil, fmt.Errorf("parse principal: %w", err)
	}
	if inv.CurrentPrincipal, err = decimal.NewFromString(currentRaw); err != nil {
		return nil, fmt.Errorf("parse current_principal: %w", err)
	}
	inv.Status = domain.InvestmentStatus(status)
	return &inv, nil
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var amountRaw, ttype, status string
	if err := row.Scan(&t.ID, &t.UserID, &t.InvestmentID, &ttype, &amountRaw, &status, &t.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amountRaw); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	t.Type = domain.TransactionType(ttype)
	t.Status = domain.TransactionStatus(status)
	return &t, nil
}

func insertTransactionTx(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	const q = `
        INSERT INTO transactions (id, user_id, investment_id, type, amount, status, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
    `
	_, err := tx.ExecContext(ctx, q,
		t.ID, t.UserID, t.InvestmentID, string(t.Type), t.Amount.String(),
		string(t.Status), t.CreatedAt,
	)
	return err
}

func balanceTx(ctx context.Context, tx *sql.Tx, userID string) (decimal.Decimal, error) {
	var raw string
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND status = $2`,
		userID, string(domain.TxCompleted),
	)
	if err := row.Scan(&raw); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key")
}
