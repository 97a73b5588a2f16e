package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/infra/observability"
	"github.com/blackcnote/invest-api/internal/port"
)

var accrualTracer = otel.Tracer("service/accrual")

// AccrualConfig tunes one accrual run.
type AccrualConfig struct {
	// Budget is the wall-clock limit per invocation. A run that exceeds it
	// saves its progress and the next invocation for the same period
	// resumes the remaining investments.
	Budget time.Duration
	// Concurrency bounds how many investments are processed in parallel.
	Concurrency int
	// RunLockTTL is the age after which a held run lock is treated as
	// abandoned (crashed run) and taken over.
	RunLockTTL time.Duration
}

// AccrualService posts interest for every ACTIVE investment once per
// period. It is idempotent per period: each investment carries the period
// key of its last posting, re-checked before computing anything, so firing
// the trigger twice never double-posts.
type AccrualService struct {
	store   port.Store
	cfg     AccrualConfig
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAccrualService creates an accrual service.
func NewAccrualService(store port.Store, cfg AccrualConfig, metrics *observability.Metrics, logger *zap.Logger) *AccrualService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	// A zero TTL would mark every lock holder stale and disable overlap
	// exclusion entirely.
	if cfg.RunLockTTL <= 0 {
		cfg.RunLockTTL = 15 * time.Minute
	}
	return &AccrualService{store: store, cfg: cfg, metrics: metrics, logger: logger}
}

// Run executes the accrual batch for the period containing now. Returns the
// run record, or ErrRunLocked when another invocation holds the period.
func (s *AccrualService) Run(ctx context.Context, now time.Time) (*domain.AccrualRun, error) {
	ctx, span := accrualTracer.Start(ctx, "AccrualService.Run")
	defer span.End()

	period := domain.PeriodKey(now)
	span.SetAttributes(attribute.String("accrual.period", period))
	started := time.Now()

	if err := s.store.AcquireRunLock(ctx, period, s.cfg.RunLockTTL); err != nil {
		var locked *domain.ErrRunLocked
		if errors.As(err, &locked) {
			s.logger.Warn("accrual run already in progress", zap.String("period", period))
			s.metrics.RecordAccrualRun("locked", time.Since(started))
		}
		return nil, err
	}
	defer func() {
		if err := s.store.ReleaseRunLock(context.Background(), period); err != nil {
			s.logger.Error("failed to release run lock", zap.String("period", period), zap.Error(err))
		}
	}()

	// A completed run for this period means a redundant trigger (restart,
	// manual re-fire). Nothing to do.
	if prev, err := s.store.GetRun(ctx, period); err == nil && prev.Complete {
		s.logger.Info("accrual period already complete", zap.String("period", period))
		s.metrics.RecordAccrualRun("complete", time.Since(started))
		return prev, nil
	}

	investments, err := s.store.ListActiveInvestments(ctx)
	if err != nil {
		return nil, err
	}

	run := &domain.AccrualRun{
		Period:         period,
		StartedAt:      started.UTC(),
		InterestPosted: decimal.Zero,
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.Budget > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Budget)
		defer cancel()
	}

	// Different investments are independent; process them in parallel.
	// The run lock only excludes runs for the same period; a run for an
	// adjacent period (manual trigger near midnight, budget-hit resume)
	// can still race this one on the same investment, which the
	// compare-and-swap in ApplyAccrual resolves.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.cfg.Concurrency)

	budgetHit := false
	for i := range investments {
		inv := investments[i]

		if gctx.Err() != nil {
			budgetHit = true
			break
		}
		g.Go(func() error {
			outcome, posted := s.accrueOne(gctx, &inv, period)
			mu.Lock()
			switch outcome {
			case accrued:
				run.Processed++
				run.InterestPosted = run.InterestPosted.Add(posted)
			case skipped:
				run.Skipped++
			case failed:
				run.Failed++
			}
			mu.Unlock()
			// Per-investment failures never abort the batch.
			return nil
		})
	}
	_ = g.Wait()
	if runCtx.Err() != nil {
		budgetHit = true
	}

	run.Complete = !budgetHit
	if run.Complete {
		run.CompletedAt = time.Now().UTC()
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		s.logger.Error("failed to save accrual run", zap.String("period", period), zap.Error(err))
	}

	outcome := "complete"
	if !run.Complete {
		outcome = "partial"
	}
	s.metrics.RecordAccrualRun(outcome, time.Since(started))
	s.metrics.AddInterestPosted(run.InterestPosted.InexactFloat64())

	s.logger.Info("accrual run finished",
		zap.String("period", period),
		zap.Int("processed", run.Processed),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", run.Failed),
		zap.String("interest_posted", run.InterestPosted.String()),
		zap.Bool("complete", run.Complete),
	)
	return run, nil
}

// GetRun returns the run record for a period.
func (s *AccrualService) GetRun(ctx context.Context, period string) (*domain.AccrualRun, error) {
	ctx, span := accrualTracer.Start(ctx, "AccrualService.GetRun")
	defer span.End()

	return s.store.GetRun(ctx, period)
}

type accrualOutcome int

const (
	accrued accrualOutcome = iota
	skipped
	failed
)

// accrueOne processes a single investment for the period. Errors are logged
// and reported as failed, never propagated: one orphaned or broken
// investment has no bearing on the rest of the batch.
func (s *AccrualService) accrueOne(ctx context.Context, inv *domain.Investment, period string) (accrualOutcome, decimal.Decimal) {
	// Idempotency gate: already posted for this period.
	if inv.LastAccruedPeriod == period {
		return skipped, decimal.Zero
	}

	plan, err := s.store.GetPlan(ctx, inv.PlanID)
	if err != nil {
		s.logger.Error("accrual: plan lookup failed, skipping investment",
			zap.String("investment_id", inv.ID),
			zap.String("plan_id", inv.PlanID),
			zap.Error(err),
		)
		s.metrics.IncrAccrualFailure()
		return failed, decimal.Zero
	}

	// Defensive: matured investments should already have transitioned.
	if plan.DurationPeriods > 0 && inv.PeriodsElapsed >= plan.DurationPeriods {
		s.logger.Warn("accrual: investment past maturity still active, skipping",
			zap.String("investment_id", inv.ID),
			zap.Int("periods_elapsed", inv.PeriodsElapsed),
		)
		return skipped, decimal.Zero
	}

	now := time.Now().UTC()
	snapshotElapsed := inv.PeriodsElapsed
	interestDue := plan.InterestFor(inv.CurrentPrincipal)
	interest := &domain.Transaction{
		ID:           uuid.NewString(),
		UserID:       inv.UserID,
		InvestmentID: inv.ID,
		Type:         domain.TxInterest,
		Amount:       interestDue,
		Status:       domain.TxCompleted,
		CreatedAt:    now,
	}

	if plan.CompoundInterest {
		inv.CurrentPrincipal = inv.CurrentPrincipal.Add(interestDue)
	}
	inv.PeriodsElapsed++
	inv.LastAccruedPeriod = period

	// Maturity: capital back posts the (possibly compounded) principal;
	// otherwise the principal is consumed by plan design and the
	// investment closes with no capital-return entry.
	var capitalReturn *domain.Transaction
	if plan.DurationPeriods > 0 && inv.PeriodsElapsed == plan.DurationPeriods {
		inv.Status = domain.InvestmentClosed
		if plan.CapitalBack {
			capitalReturn = &domain.Transaction{
				ID:           uuid.NewString(),
				UserID:       inv.UserID,
				InvestmentID: inv.ID,
				Type:         domain.TxCapitalReturn,
				Amount:       inv.CurrentPrincipal.Round(2),
				Status:       domain.TxCompleted,
				CreatedAt:    now,
			}
		}
	}

	if err := s.store.ApplyAccrual(ctx, inv, snapshotElapsed, interest, capitalReturn); err != nil {
		var stale *domain.ErrStaleInvestment
		if errors.As(err, &stale) {
			// A run for another period applied its step first. Nothing
			// was written here; the winner's posting stands and
			// periodsElapsed advanced exactly once.
			s.logger.Warn("accrual: investment advanced concurrently, skipping",
				zap.String("investment_id", inv.ID),
				zap.String("period", period),
			)
			return skipped, decimal.Zero
		}
		s.logger.Error("accrual: persist failed, skipping investment",
			zap.String("investment_id", inv.ID),
			zap.Error(err),
		)
		s.metrics.IncrAccrualFailure()
		return failed, decimal.Zero
	}

	return accrued, interestDue
}
