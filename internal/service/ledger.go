package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/infra/observability"
	"github.com/blackcnote/invest-api/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService handles investments, deposits, withdrawals and the
// transaction history. All balance-affecting operations go through the
// store's atomic units; this layer owns the validation ladder.
type LedgerService struct {
	store   port.Store
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLedgerService creates a ledger service.
func NewLedgerService(store port.Store, metrics *observability.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{store: store, metrics: metrics, logger: logger}
}

// OpenInvestment validates and opens an investment. Error order is fixed:
// plan not found, plan disabled, amount out of range, insufficient balance.
// The balance check is re-run inside the store's atomic unit together with
// the debit, so concurrent opens cannot jointly overdraw.
func (s *LedgerService) OpenInvestment(ctx context.Context, userID, planID string, amount decimal.Decimal) (*domain.Investment, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.OpenInvestment")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("plan.id", planID),
	)

	if !amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanActive {
		return nil, &domain.ErrPlanDisabled{PlanID: plan.ID}
	}
	if !plan.InBounds(amount) {
		return nil, &domain.ErrAmountOutOfRange{Amount: amount, Min: plan.MinAmount, Max: plan.MaxAmount}
	}

	now := time.Now().UTC()
	inv := &domain.Investment{
		ID:               uuid.NewString(),
		UserID:           userID,
		PlanID:           plan.ID,
		Principal:        amount,
		CurrentPrincipal: amount,
		StartTime:        now,
		Status:           domain.InvestmentActive,
	}
	debit := &domain.Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		InvestmentID: inv.ID,
		Type:         domain.TxInvestment,
		Amount:       amount.Neg(),
		Status:       domain.TxCompleted,
		CreatedAt:    now,
	}

	if err := s.store.OpenInvestment(ctx, inv, debit); err != nil {
		return nil, err
	}
	s.metrics.IncrInvestmentOpened()

	s.logger.Info("investment opened",
		zap.String("investment_id", inv.ID),
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID),
		zap.String("amount", amount.String()),
	)
	return inv, nil
}

// GetInvestment returns an investment by ID. Ownership checks live in the
// handler layer, which knows the caller.
func (s *LedgerService) GetInvestment(ctx context.Context, id string) (*domain.Investment, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.GetInvestment")
	defer span.End()

	return s.store.GetInvestment(ctx, id)
}

// ListUserInvestments returns all of a user's investments, oldest first.
func (s *LedgerService) ListUserInvestments(ctx context.Context, userID string) ([]domain.Investment, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListUserInvestments")
	defer span.End()

	return s.store.ListInvestmentsByUser(ctx, userID)
}

// MarkMatured transitions ACTIVE -> MATURED. Fails with ErrInvalidState
// unless the investment is ACTIVE and has completed its full duration.
func (s *LedgerService) MarkMatured(ctx context.Context, id string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.MarkMatured")
	defer span.End()

	inv, err := s.store.GetInvestment(ctx, id)
	if err != nil {
		return err
	}
	plan, err := s.store.GetPlan(ctx, inv.PlanID)
	if err != nil {
		return err
	}
	if plan.DurationPeriods == 0 || inv.PeriodsElapsed < plan.DurationPeriods {
		return &domain.ErrInvalidState{Resource: "investment", From: string(inv.Status), To: string(domain.InvestmentMatured)}
	}
	return s.store.SetInvestmentStatus(ctx, id, domain.InvestmentActive, domain.InvestmentMatured)
}

// CloseInvestment transitions MATURED -> CLOSED.
func (s *LedgerService) CloseInvestment(ctx context.Context, id string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CloseInvestment")
	defer span.End()

	return s.store.SetInvestmentStatus(ctx, id, domain.InvestmentMatured, domain.InvestmentClosed)
}

// Deposit credits the user's balance with a COMPLETED DEPOSIT entry.
func (s *LedgerService) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Deposit")
	defer span.End()

	if !amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	tx := &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      domain.TxDeposit,
		Amount:    amount.Round(2),
		Status:    domain.TxCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Append(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("deposit recorded",
		zap.String("user_id", userID),
		zap.String("amount", tx.Amount.String()),
	)
	return tx, nil
}

// Withdraw debits the user's balance. The balance re-check runs inside the
// store's atomic unit; overdraft is impossible.
func (s *LedgerService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Withdraw")
	defer span.End()

	if !amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	tx := &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      domain.TxWithdrawal,
		Amount:    amount.Round(2).Neg(),
		Status:    domain.TxCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Withdraw(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal recorded",
		zap.String("user_id", userID),
		zap.String("amount", amount.String()),
	)
	return tx, nil
}

// Balance returns the user's derived balance.
func (s *LedgerService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Balance")
	defer span.End()

	return s.store.BalanceOf(ctx, userID)
}

// History returns the user's transactions, newest first.
func (s *LedgerService) History(ctx context.Context, userID string, filter domain.TransactionFilter, page, pageSize int) ([]domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.History")
	defer span.End()

	return s.store.History(ctx, userID, filter, page, pageSize)
}
