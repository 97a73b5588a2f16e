// Package service provides the business logic layer (use cases):
// plan catalog, investment ledger, accrual processing and auth.
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

var catalogTracer = otel.Tracer("service/catalog")

const activePlansCacheKey = "plans:active"

// CatalogService manages investment plan definitions. Plan writes are
// admin-only (enforced at the handler layer) and invalidate the active-plan
// cache synchronously.
type CatalogService struct {
	store   port.PlanStore
	cache   port.Cache[[]domain.Plan]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(store port.PlanStore, cache port.Cache[[]domain.Plan], metrics *observability.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// CreatePlan validates the plan spec and persists a new ACTIVE plan.
func (s *CatalogService) CreatePlan(ctx context.Context, spec *domain.PlanSpec) (*domain.Plan, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreatePlan")
	defer span.End()

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	plan := &domain.Plan{
		ID:               uuid.NewString(),
		Name:             spec.Name,
		MinAmount:        spec.MinAmount,
		MaxAmount:        spec.MaxAmount,
		InterestRate:     spec.InterestRate,
		InterestType:     spec.InterestType,
		DurationPeriods:  spec.DurationPeriods,
		CapitalBack:      spec.CapitalBack,
		CompoundInterest: spec.CompoundInterest,
		Status:           domain.PlanActive,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	s.invalidate()

	s.logger.Info("plan created",
		zap.String("plan_id", plan.ID),
		zap.String("name", plan.Name),
		zap.String("interest_type", string(plan.InterestType)),
		zap.Int("duration_periods", plan.DurationPeriods),
	)
	return plan, nil
}

// GetPlan returns a plan by ID.
func (s *CatalogService) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.GetPlan")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id))

	return s.store.GetPlan(ctx, id)
}

// ListActivePlans returns ACTIVE plans in insertion order. Callers may sort
// for display; no implicit ranking is applied here.
func (s *CatalogService) ListActivePlans(ctx context.Context) ([]domain.Plan, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListActivePlans")
	defer span.End()

	if s.cache != nil {
		if plans, ok := s.cache.Get(activePlansCacheKey); ok {
			s.metrics.IncrCacheHit("plans")
			return plans, nil
		}
		s.metrics.IncrCacheMiss("plans")
	}

	plans, err := s.store.ListPlans(ctx, true)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(activePlansCacheKey, plans)
	}
	return plans, nil
}

// DisablePlan sets a plan to DISABLED. Idempotent; existing investments on
// the plan keep accruing.
func (s *CatalogService) DisablePlan(ctx context.Context, id string) error {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.DisablePlan")
	defer span.End()
	span.SetAttributes(attribute.String("plan.id", id))

	if err := s.store.SetPlanStatus(ctx, id, domain.PlanDisabled); err != nil {
		return err
	}
	s.invalidate()

	s.logger.Info("plan disabled", zap.String("plan_id", id))
	return nil
}

// PreviewResult is the output of the interest-preview calculator.
type PreviewResult struct {
	ReturnAmount decimal.Decimal `json:"return_amount"`
	Profit       decimal.Decimal `json:"profit"`
}

// Preview computes the one-period return for an amount on a plan. Pure: no
// state is written. It applies the same plan and bounds validation as
// opening an investment, so a preview never promises something the real
// operation would reject.
func (s *CatalogService) Preview(ctx context.Context, planID string, amount decimal.Decimal) (*PreviewResult, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.Preview")
	defer span.End()

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

	profit := plan.InterestFor(amount)
	return &PreviewResult{
		ReturnAmount: amount.Add(profit),
		Profit:       profit,
	}, nil
}

func (s *CatalogService) invalidate() {
	if s.cache != nil {
		s.cache.Delete(activePlansCacheKey)
	}
}
