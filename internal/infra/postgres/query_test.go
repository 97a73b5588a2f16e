package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/infra/resilience"
)

func newQueryStore() *Store {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}
	return New(nil, resilience.NewCircuitBreaker("test"), cfg, zap.NewNop())
}

// A miss is an answer, not a fault: it must come back on the first
// attempt, unretried.
func TestQuery_DomainErrorNotRetried(t *testing.T) {
	s := newQueryStore()

	calls := 0
	err := s.query(context.Background(), "get plan", func() error {
		calls++
		return &domain.ErrNotFound{Resource: "plan", ID: "plan-gone"}
	})

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// A batch of misses (every orphaned investment in an accrual run looks up
// a plan that is gone) must not open the breaker and take healthy reads
// down with it.
func TestQuery_DomainErrorsDoNotTripBreaker(t *testing.T) {
	s := newQueryStore()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		err := s.query(ctx, "get plan", func() error {
			return &domain.ErrNotFound{Resource: "plan", ID: "plan-gone"}
		})
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			t.Fatalf("call %d: expected ErrNotFound, got %v", i, err)
		}
	}

	if err := s.query(ctx, "get plan", func() error { return nil }); err != nil {
		t.Fatalf("expected healthy read after misses, got %v", err)
	}
}

// Infrastructure faults keep the full treatment: retried with backoff,
// counted by the breaker, surfaced as ErrPersistence.
func TestQuery_InfraErrorRetriedAndWrapped(t *testing.T) {
	s := newQueryStore()

	calls := 0
	err := s.query(context.Background(), "get plan", func() error {
		calls++
		return errors.New("connection reset")
	})

	var pe *domain.ErrPersistence
	if !errors.As(err, &pe) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls (1 + 3 retries), got %d", calls)
	}
}
