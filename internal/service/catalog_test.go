package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/infra/cache"
	"github.com/blackcnote/invest-api/internal/infra/memory"
	"github.com/blackcnote/invest-api/internal/infra/observability"
	"github.com/blackcnote/invest-api/internal/service"
)

func newCatalogEnv(t *testing.T) *service.CatalogService {
	t.Helper()
	return service.NewCatalogService(memory.New(nil), nil, observability.NewMetrics(), zap.NewNop())
}

func TestCreatePlan_Validation(t *testing.T) {
	catalog := newCatalogEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		spec domain.PlanSpec
	}{
		{"empty name", domain.PlanSpec{
			MinAmount: dec("10"), MaxAmount: dec("100"),
			InterestRate: dec("1"), InterestType: domain.InterestPercentage,
		}},
		{"min above max", domain.PlanSpec{
			Name: "Bad", MinAmount: dec("100"), MaxAmount: dec("10"),
			InterestRate: dec("1"), InterestType: domain.InterestPercentage,
		}},
		{"negative min", domain.PlanSpec{
			Name: "Bad", MinAmount: dec("-1"), MaxAmount: dec("10"),
			InterestRate: dec("1"), InterestType: domain.InterestPercentage,
		}},
		{"negative rate", domain.PlanSpec{
			Name: "Bad", MinAmount: dec("10"), MaxAmount: dec("100"),
			InterestRate: dec("-1"), InterestType: domain.InterestPercentage,
		}},
		{"negative duration", domain.PlanSpec{
			Name: "Bad", MinAmount: dec("10"), MaxAmount: dec("100"),
			InterestRate: dec("1"), InterestType: domain.InterestPercentage,
			DurationPeriods: -1,
		}},
		{"unknown interest type", domain.PlanSpec{
			Name: "Bad", MinAmount: dec("10"), MaxAmount: dec("100"),
			InterestRate: dec("1"), InterestType: "APR",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := catalog.CreatePlan(ctx, &tc.spec)
			var vErr *domain.ErrValidation
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestDisablePlan_IdempotentAndHidesFromListing(t *testing.T) {
	catalog := newCatalogEnv(t)
	ctx := context.Background()

	plan := mustCreatePlan(t, catalog, domain.PlanSpec{
		Name: "Visible", MinAmount: dec("10"), MaxAmount: dec("100"),
		InterestRate: dec("1"), InterestType: domain.InterestPercentage,
	})

	if err := catalog.DisablePlan(ctx, plan.ID); err != nil {
		t.Fatalf("disable: %v", err)
	}
	// Disabling twice is not an error.
	if err := catalog.DisablePlan(ctx, plan.ID); err != nil {
		t.Fatalf("second disable: %v", err)
	}

	plans, err := catalog.ListActivePlans(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("disabled plan should not be listed, got %d plans", len(plans))
	}

	// Still fetchable by ID for record keeping.
	got, err := catalog.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.PlanDisabled {
		t.Errorf("expected DISABLED, got %s", got.Status)
	}
}

func TestListActivePlans_ServedFromCacheUntilInvalidated(t *testing.T) {
	store := memory.New(nil)
	planCache := cache.New[[]domain.Plan](time.Minute)
	catalog := service.NewCatalogService(store, planCache, observability.NewMetrics(), zap.NewNop())
	ctx := context.Background()

	mustCreatePlan(t, catalog, domain.PlanSpec{
		Name: "One", MinAmount: dec("10"), MaxAmount: dec("100"),
		InterestRate: dec("1"), InterestType: domain.InterestPercentage,
	})

	first, err := catalog.ListActivePlans(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(first))
	}

	// Creating a plan invalidates; the next list sees both.
	mustCreatePlan(t, catalog, domain.PlanSpec{
		Name: "Two", MinAmount: dec("10"), MaxAmount: dec("100"),
		InterestRate: dec("1"), InterestType: domain.InterestPercentage,
	})
	second, err := catalog.ListActivePlans(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 plans after invalidation, got %d", len(second))
	}
}

func TestPreview_MatchesPostingArithmetic(t *testing.T) {
	catalog := newCatalogEnv(t)
	ctx := context.Background()

	percentage := mustCreatePlan(t, catalog, domain.PlanSpec{
		Name: "Pct", MinAmount: dec("100"), MaxAmount: dec("1000"),
		InterestRate: dec("2.5"), InterestType: domain.InterestPercentage,
	})
	flat := mustCreatePlan(t, catalog, domain.PlanSpec{
		Name: "Flat", MinAmount: dec("100"), MaxAmount: dec("1000"),
		InterestRate: dec("7.25"), InterestType: domain.InterestFixedAmount,
	})

	res, err := catalog.Preview(ctx, percentage.ID, dec("102.50"))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	// 102.50 * 2.5% = 2.5625, rounded half-up at 2 decimals.
	if !res.Profit.Equal(dec("2.56")) {
		t.Errorf("expected profit 2.56, got %s", res.Profit)
	}
	if !res.ReturnAmount.Equal(dec("105.06")) {
		t.Errorf("expected return 105.06, got %s", res.ReturnAmount)
	}

	res, err = catalog.Preview(ctx, flat.ID, dec("500"))
	if err != nil {
		t.Fatalf("preview flat: %v", err)
	}
	if !res.Profit.Equal(dec("7.25")) {
		t.Errorf("expected flat profit 7.25, got %s", res.Profit)
	}
}

func TestPreview_RejectsWhatOpenWouldReject(t *testing.T) {
	catalog := newCatalogEnv(t)
	ctx := context.Background()

	plan := mustCreatePlan(t, catalog, domain.PlanSpec{
		Name: "Strict", MinAmount: dec("100"), MaxAmount: dec("1000"),
		InterestRate: dec("1"), InterestType: domain.InterestPercentage,
	})

	_, err := catalog.Preview(ctx, plan.ID, dec("99"))
	var rangeErr *domain.ErrAmountOutOfRange
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected ErrAmountOutOfRange, got %v", err)
	}

	if err := catalog.DisablePlan(ctx, plan.ID); err != nil {
		t.Fatalf("disable: %v", err)
	}
	_, err = catalog.Preview(ctx, plan.ID, dec("500"))
	var disabled *domain.ErrPlanDisabled
	if !errors.As(err, &disabled) {
		t.Fatalf("expected ErrPlanDisabled, got %v", err)
	}
}
