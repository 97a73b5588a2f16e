package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/infra/cache"
	"github.com/blackcnote/invest-api/internal/infra/memory"
)

func completedTx(userID, amount string, txType domain.TransactionType) *domain.Transaction {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return &domain.Transaction{
		ID:        userID + "-" + amount + "-" + string(txType),
		UserID:    userID,
		Type:      txType,
		Amount:    d,
		Status:    domain.TxCompleted,
		CreatedAt: time.Now().UTC(),
	}
}

func TestBalanceOf_IgnoresNonCompletedRows(t *testing.T) {
	store := memory.New(nil)
	ctx := context.Background()

	if err := store.Append(ctx, completedTx("u1", "100", domain.TxDeposit)); err != nil {
		t.Fatal(err)
	}
	pending := completedTx("u1", "40", domain.TxDeposit)
	pending.ID = "pending"
	pending.Status = domain.TxPending
	if err := store.Append(ctx, pending); err != nil {
		t.Fatal(err)
	}
	failed := completedTx("u1", "-30", domain.TxWithdrawal)
	failed.ID = "failed"
	failed.Status = domain.TxFailed
	if err := store.Append(ctx, failed); err != nil {
		t.Fatal(err)
	}

	balance, err := store.BalanceOf(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 100, got %s", balance)
	}
}

func TestBalanceCache_InvalidatedOnWrite(t *testing.T) {
	balances := cache.New[decimal.Decimal](time.Minute)
	store := memory.New(balances)
	ctx := context.Background()

	if err := store.Append(ctx, completedTx("u1", "100", domain.TxDeposit)); err != nil {
		t.Fatal(err)
	}
	// Warm the cache.
	if _, err := store.BalanceOf(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(ctx, completedTx("u1", "25", domain.TxDeposit)); err != nil {
		t.Fatal(err)
	}

	balance, err := store.BalanceOf(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !balance.Equal(decimal.NewFromInt(125)) {
		t.Errorf("stale cached balance: expected 125, got %s", balance)
	}
}

func TestRunLock_ExcludesAndExpires(t *testing.T) {
	store := memory.New(nil)
	ctx := context.Background()

	if err := store.AcquireRunLock(ctx, "2026-03-01", time.Hour); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	err := store.AcquireRunLock(ctx, "2026-03-01", time.Hour)
	var locked *domain.ErrRunLocked
	if !errors.As(err, &locked) {
		t.Fatalf("expected ErrRunLocked, got %v", err)
	}

	// A zero TTL treats any holder as stale: takeover succeeds.
	if err := store.AcquireRunLock(ctx, "2026-03-01", 0); err != nil {
		t.Fatalf("stale takeover: %v", err)
	}

	if err := store.ReleaseRunLock(ctx, "2026-03-01"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := store.AcquireRunLock(ctx, "2026-03-01", time.Hour); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}

	// Other periods are independent.
	if err := store.AcquireRunLock(ctx, "2026-03-02", time.Hour); err != nil {
		t.Fatalf("other period: %v", err)
	}
}

func TestSetInvestmentStatus_GuardsTransition(t *testing.T) {
	store := memory.New(nil)
	ctx := context.Background()

	inv := &domain.Investment{
		ID:               "inv-1",
		UserID:           "u1",
		PlanID:           "p1",
		Principal:        decimal.NewFromInt(100),
		CurrentPrincipal: decimal.NewFromInt(100),
		Status:           domain.InvestmentActive,
	}
	if err := store.Append(ctx, completedTx("u1", "100", domain.TxDeposit)); err != nil {
		t.Fatal(err)
	}
	debit := completedTx("u1", "-100", domain.TxInvestment)
	if err := store.OpenInvestment(ctx, inv, debit); err != nil {
		t.Fatal(err)
	}

	// Wrong expected state.
	err := store.SetInvestmentStatus(ctx, "inv-1", domain.InvestmentMatured, domain.InvestmentClosed)
	var invalid *domain.ErrInvalidState
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	if err := store.SetInvestmentStatus(ctx, "inv-1", domain.InvestmentActive, domain.InvestmentMatured); err != nil {
		t.Fatalf("valid transition: %v", err)
	}
	got, err := store.GetInvestment(ctx, "inv-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.InvestmentMatured {
		t.Errorf("expected MATURED, got %s", got.Status)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := memory.New(nil)
	ctx := context.Background()

	plan := &domain.Plan{
		ID:        "p1",
		Name:      "Immutable",
		MinAmount: decimal.NewFromInt(10),
		MaxAmount: decimal.NewFromInt(100),
		Status:    domain.PlanActive,
	}
	if err := store.CreatePlan(ctx, plan); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetPlan(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	got.Name = "Mutated"

	again, err := store.GetPlan(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "Immutable" {
		t.Error("store handed out its internal plan pointer")
	}
}

func TestApplyAccrual_RejectsStaleSnapshot(t *testing.T) {
	store := memory.New(nil)
	ctx := context.Background()

	inv := &domain.Investment{
		ID:               "inv-1",
		UserID:           "u1",
		PlanID:           "p1",
		Principal:        decimal.NewFromInt(100),
		CurrentPrincipal: decimal.NewFromInt(100),
		Status:           domain.InvestmentActive,
	}
	if err := store.Append(ctx, completedTx("u1", "100", domain.TxDeposit)); err != nil {
		t.Fatal(err)
	}
	if err := store.OpenInvestment(ctx, inv, completedTx("u1", "-100", domain.TxInvestment)); err != nil {
		t.Fatal(err)
	}

	// Two runs computed their steps from the same elapsed=0 snapshot.
	first := *inv
	first.PeriodsElapsed = 1
	first.LastAccruedPeriod = "2026-03-01"
	second := *inv
	second.PeriodsElapsed = 1
	second.LastAccruedPeriod = "2026-03-02"

	if err := store.ApplyAccrual(ctx, &first, 0, completedTx("u1", "2.50", domain.TxInterest), nil); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	// The second write must lose the compare-and-swap and leave no trace.
	late := completedTx("u1", "2.50", domain.TxInterest)
	late.ID = "late-interest"
	err := store.ApplyAccrual(ctx, &second, 0, late, nil)
	var stale *domain.ErrStaleInvestment
	if !errors.As(err, &stale) {
		t.Fatalf("expected ErrStaleInvestment, got %v", err)
	}

	got, err := store.GetInvestment(ctx, "inv-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PeriodsElapsed != 1 {
		t.Errorf("expected periodsElapsed 1, got %d", got.PeriodsElapsed)
	}
	if got.LastAccruedPeriod != "2026-03-01" {
		t.Errorf("expected lastAccruedPeriod 2026-03-01, got %s", got.LastAccruedPeriod)
	}
	rows, err := store.History(ctx, "u1", domain.TransactionFilter{Type: domain.TxInterest}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 interest row, got %d", len(rows))
	}

	// Re-applying the same period the stored row already carries is also
	// stale, even with a matching elapsed count.
	repeat := first
	err = store.ApplyAccrual(ctx, &repeat, 1, completedTx("u1", "2.56", domain.TxInterest), nil)
	if !errors.As(err, &stale) {
		t.Fatalf("expected ErrStaleInvestment for repeated period, got %v", err)
	}
}
