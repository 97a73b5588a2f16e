package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/infra/memory"
	"github.com/blackcnote/invest-api/internal/infra/observability"
	"github.com/blackcnote/invest-api/internal/service"
)

func newLedgerEnv(t *testing.T) (*service.CatalogService, *service.LedgerService) {
	t.Helper()
	store := memory.New(nil)
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	return service.NewCatalogService(store, nil, metrics, logger),
		service.NewLedgerService(store, metrics, logger)
}

func standardPlan(t *testing.T, catalog *service.CatalogService) *domain.Plan {
	t.Helper()
	return mustCreatePlan(t, catalog, domain.PlanSpec{
		Name:            "Standard",
		MinAmount:       dec("100"),
		MaxAmount:       dec("1000"),
		InterestRate:    dec("2.5"),
		InterestType:    domain.InterestPercentage,
		DurationPeriods: 10,
		CapitalBack:     true,
	})
}

func TestOpenInvestment_AmountBounds(t *testing.T) {
	catalog, ledger := newLedgerEnv(t)
	ctx := context.Background()
	plan := standardPlan(t, catalog)
	mustDeposit(t, ledger, "user-1", "5000")

	cases := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"below min", "99.99", true},
		{"at min", "100", false},
		{"at max", "1000", false},
		{"above max", "1000.01", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.OpenInvestment(ctx, "user-1", plan.ID, dec(tc.amount))
			if tc.wantErr {
				var rangeErr *domain.ErrAmountOutOfRange
				if !errors.As(err, &rangeErr) {
					t.Fatalf("expected ErrAmountOutOfRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestOpenInvestment_DisabledPlanRejected(t *testing.T) {
	catalog, ledger := newLedgerEnv(t)
	ctx := context.Background()
	plan := standardPlan(t, catalog)
	mustDeposit(t, ledger, "user-1", "500")

	if err := catalog.DisablePlan(ctx, plan.ID); err != nil {
		t.Fatalf("disable plan: %v", err)
	}

	_, err := ledger.OpenInvestment(ctx, "user-1", plan.ID, dec("200"))
	var disabled *domain.ErrPlanDisabled
	if !errors.As(err, &disabled) {
		t.Fatalf("expected ErrPlanDisabled, got %v", err)
	}
}

func TestOpenInvestment_UnknownPlan(t *testing.T) {
	_, ledger := newLedgerEnv(t)

	_, err := ledger.OpenInvestment(context.Background(), "user-1", "no-such-plan", dec("200"))
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// A rejected open must leave nothing behind: no investment row, no debit,
// balance untouched.
func TestOpenInvestment_InsufficientBalanceLeavesNoTrace(t *testing.T) {
	catalog, ledger := newLedgerEnv(t)
	ctx := context.Background()
	plan := standardPlan(t, catalog)
	mustDeposit(t, ledger, "user-1", "50")

	_, err := ledger.OpenInvestment(ctx, "user-1", plan.ID, dec("100"))
	var insufficient *domain.ErrInsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !insufficient.Available.Equal(dec("50")) {
		t.Errorf("expected available 50, got %s", insufficient.Available)
	}

	invs, err := ledger.ListUserInvestments(ctx, "user-1")
	if err != nil {
		t.Fatalf("list investments: %v", err)
	}
	if len(invs) != 0 {
		t.Errorf("expected no investments, got %d", len(invs))
	}

	txs, err := ledger.History(ctx, "user-1", domain.TransactionFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 1 || txs[0].Type != domain.TxDeposit {
		t.Errorf("expected only the deposit in history, got %d rows", len(txs))
	}

	balance, err := ledger.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec("50")) {
		t.Errorf("expected balance 50, got %s", balance)
	}
}

// Two concurrent opens against a balance that covers only one of them:
// exactly one succeeds.
func TestOpenInvestment_ConcurrentOpensCannotOverdraw(t *testing.T) {
	catalog, ledger := newLedgerEnv(t)
	ctx := context.Background()
	plan := standardPlan(t, catalog)
	mustDeposit(t, ledger, "user-1", "150")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = ledger.OpenInvestment(ctx, "user-1", plan.ID, dec("100"))
		}(i)
	}
	wg.Wait()

	var succeeded, overdrawn int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			var insufficient *domain.ErrInsufficientFunds
			if !errors.As(err, &insufficient) {
				t.Fatalf("unexpected error: %v", err)
			}
			overdrawn++
		}
	}
	if succeeded != 1 || overdrawn != 1 {
		t.Fatalf("expected exactly one success and one rejection, got %d/%d", succeeded, overdrawn)
	}

	balance, err := ledger.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec("50")) {
		t.Errorf("expected balance 50 after one open, got %s", balance)
	}
}

func TestWithdraw_OverdraftRejected(t *testing.T) {
	_, ledger := newLedgerEnv(t)
	ctx := context.Background()
	mustDeposit(t, ledger, "user-1", "30")

	_, err := ledger.Withdraw(ctx, "user-1", dec("30.01"))
	var insufficient *domain.ErrInsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if _, err := ledger.Withdraw(ctx, "user-1", dec("30")); err != nil {
		t.Fatalf("full withdrawal should succeed: %v", err)
	}
	balance, err := ledger.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("expected zero balance, got %s", balance)
	}
}

func TestDepositAndWithdraw_RejectNonPositive(t *testing.T) {
	_, ledger := newLedgerEnv(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "-5"} {
		if _, err := ledger.Deposit(ctx, "user-1", dec(amount)); err == nil {
			t.Errorf("deposit of %s should fail", amount)
		}
		if _, err := ledger.Withdraw(ctx, "user-1", dec(amount)); err == nil {
			t.Errorf("withdrawal of %s should fail", amount)
		}
	}
}

// The balance is derived state: it must always equal the sum of COMPLETED
// rows in the history.
func TestBalance_MatchesTransactionSum(t *testing.T) {
	catalog, ledger := newLedgerEnv(t)
	ctx := context.Background()
	plan := standardPlan(t, catalog)

	mustDeposit(t, ledger, "user-1", "400")
	mustDeposit(t, ledger, "user-1", "100.55")
	mustOpen(t, ledger, "user-1", plan.ID, "250")
	if _, err := ledger.Withdraw(ctx, "user-1", dec("40.55")); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	txs, err := ledger.History(ctx, "user-1", domain.TransactionFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Status == domain.TxCompleted {
			sum = sum.Add(tx.Amount)
		}
	}

	balance, err := ledger.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(sum) {
		t.Errorf("balance %s does not match transaction sum %s", balance, sum)
	}
	if !balance.Equal(dec("210.00")) {
		t.Errorf("expected balance 210.00, got %s", balance)
	}
}

func TestHistory_FilterAndPagination(t *testing.T) {
	_, ledger := newLedgerEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustDeposit(t, ledger, "user-1", "10")
		time.Sleep(time.Millisecond)
	}
	if _, err := ledger.Withdraw(ctx, "user-1", dec("5")); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	deposits, err := ledger.History(ctx, "user-1", domain.TransactionFilter{Type: domain.TxDeposit}, 0, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(deposits) != 5 {
		t.Fatalf("expected 5 deposits, got %d", len(deposits))
	}
	for i := 1; i < len(deposits); i++ {
		if deposits[i].CreatedAt.After(deposits[i-1].CreatedAt) {
			t.Fatal("history must be ordered newest first")
		}
	}

	page1, err := ledger.History(ctx, "user-1", domain.TransactionFilter{Type: domain.TxDeposit}, 1, 2)
	if err != nil {
		t.Fatalf("history page 1: %v", err)
	}
	if len(page1) != 2 {
		t.Errorf("expected page of 2, got %d", len(page1))
	}
	page3, err := ledger.History(ctx, "user-1", domain.TransactionFilter{Type: domain.TxDeposit}, 3, 2)
	if err != nil {
		t.Fatalf("history page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Errorf("expected last page of 1, got %d", len(page3))
	}
}

func TestInvestmentLifecycle_Transitions(t *testing.T) {
	catalog, ledger := newLedgerEnv(t)
	ctx := context.Background()
	plan := standardPlan(t, catalog)
	mustDeposit(t, ledger, "user-1", "200")
	inv := mustOpen(t, ledger, "user-1", plan.ID, "200")

	// Not yet matured.
	err := ledger.MarkMatured(ctx, inv.ID)
	var invalid *domain.ErrInvalidState
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidState before maturity, got %v", err)
	}

	// Closing an ACTIVE investment skips a state.
	err = ledger.CloseInvestment(ctx, inv.ID)
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidState closing an active investment, got %v", err)
	}
}
