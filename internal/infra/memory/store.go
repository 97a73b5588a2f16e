// Package memory implements port.Store in process memory. A single mutex
// serializes every write, which gives the same guarantees the Postgres
// adapter gets from SQL transactions: the balance re-check and the debit of
// OpenInvestment are one atomic unit, and an accrual step is either fully
// visible or not at all. Used for tests and single-node development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/port"
)

// Store is the in-memory adapter.
type Store struct {
	mu sync.Mutex

	plans     map[string]*domain.Plan
	planOrder []string

	investments map[string]*domain.Investment
	invOrder    []string

	// append-only; rows are never mutated or removed
	transactions []domain.Transaction

	runs     map[string]*domain.AccrualRun
	runLocks map[string]time.Time

	users        map[string]*domain.User
	usersByEmail map[string]string

	// balance cache, invalidated synchronously on every append
	balances port.Cache[decimal.Decimal]
}

// New creates an empty store. The balance cache may be nil, in which case
// balances are recomputed on every read.
func New(balances port.Cache[decimal.Decimal]) *Store {
	return &Store{
		plans:        make(map[string]*domain.Plan),
		investments:  make(map[string]*domain.Investment),
		runs:         make(map[string]*domain.AccrualRun),
		runLocks:     make(map[string]time.Time),
		users:        make(map[string]*domain.User),
		usersByEmail: make(map[string]string),
		balances:     balances,
	}
}

// --- PlanStore ---

func (s *Store) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *plan
	s.plans[p.ID] = &p
	s.planOrder = append(s.planOrder, p.ID)
	return nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "plan", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListPlans(ctx context.Context, activeOnly bool) ([]domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Plan, 0, len(s.planOrder))
	for _, id := range s.planOrder {
		p := s.plans[id]
		if activeOnly && p.Status != domain.PlanActive {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *Store) SetPlanStatus(ctx context.Context, id string, status domain.PlanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "plan", ID: id}
	}
	p.Status = status
	return nil
}

// --- InvestmentStore ---

func (s *Store) OpenInvestment(ctx context.Context, inv *domain.Investment, debit *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Balance re-check inside the atomic unit: two concurrent opens cannot
	// both pass against a stale balance.
	balance := s.balanceOfLocked(debit.UserID)
	required := debit.Amount.Neg()
	if balance.LessThan(required) {
		return &domain.ErrInsufficientFunds{Available: balance, Required: required}
	}

	s.appendLocked(debit)
	cp := *inv
	s.investments[cp.ID] = &cp
	s.invOrder = append(s.invOrder, cp.ID)
	return nil
}

func (s *Store) GetInvestment(ctx context.Context, id string) (*domain.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "investment", ID: id}
	}
	cp := *inv
	return &cp, nil
}

func (s *Store) ListActiveInvestments(ctx context.Context) ([]domain.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Investment
	for _, id := range s.invOrder {
		inv := s.investments[id]
		if inv.Status == domain.InvestmentActive {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *Store) ListInvestmentsByUser(ctx context.Context, userID string) ([]domain.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Investment
	for _, id := range s.invOrder {
		inv := s.investments[id]
		if inv.UserID == userID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *Store) ApplyAccrual(ctx context.Context, inv *domain.Investment, expectedElapsed int, interest *domain.Transaction, capitalReturn *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.investments[inv.ID]
	if !ok {
		return &domain.ErrNotFound{Resource: "investment", ID: inv.ID}
	}
	// Compare-and-swap against the caller's snapshot. Runs for different
	// periods are not excluded by the run lock, so a concurrent run may
	// have advanced this investment since it was listed.
	if stored.PeriodsElapsed != expectedElapsed || stored.LastAccruedPeriod == inv.LastAccruedPeriod {
		return &domain.ErrStaleInvestment{ID: inv.ID}
	}

	s.appendLocked(interest)
	if capitalReturn != nil {
		s.appendLocked(capitalReturn)
	}
	cp := *inv
	s.investments[cp.ID] = &cp
	return nil
}

func (s *Store) SetInvestmentStatus(ctx context.Context, id string, from, to domain.InvestmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "investment", ID: id}
	}
	if inv.Status != from {
		return &domain.ErrInvalidState{Resource: "investment", From: string(inv.Status), To: string(to)}
	}
	inv.Status = to
	return nil
}

// --- TransactionStore ---

func (s *Store) Append(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(tx)
	return nil
}

func (s *Store) BalanceOf(ctx context.Context, userID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balances != nil {
		if b, ok := s.balances.Get(userID); ok {
			return b, nil
		}
	}
	b := s.balanceOfLocked(userID)
	if s.balances != nil {
		s.balances.Set(userID, b)
	}
	return b, nil
}

func (s *Store) History(ctx context.Context, userID string, filter domain.TransactionFilter, page, pageSize int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Transaction
	for i := range s.transactions {
		t := &s.transactions[i]
		if t.UserID != userID || !filter.Matches(t) {
			continue
		}
		out = append(out, *t)
	}
	// newest first; the log itself is in insertion order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return out, nil
	}
	start := (page - 1) * pageSize
	if start >= len(out) {
		return []domain.Transaction{}, nil
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (s *Store) Withdraw(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balanceOfLocked(tx.UserID)
	required := tx.Amount.Neg()
	if balance.LessThan(required) {
		return &domain.ErrInsufficientFunds{Available: balance, Required: required}
	}
	s.appendLocked(tx)
	return nil
}

// appendLocked inserts a ledger row and invalidates the user's cached
// balance. Callers hold s.mu.
func (s *Store) appendLocked(tx *domain.Transaction) {
	s.transactions = append(s.transactions, *tx)
	if s.balances != nil {
		s.balances.Delete(tx.UserID)
	}
}

// balanceOfLocked recomputes the balance from COMPLETED rows. Callers hold
// s.mu.
func (s *Store) balanceOfLocked(userID string) decimal.Decimal {
	sum := decimal.Zero
	for i := range s.transactions {
		t := &s.transactions[i]
		if t.UserID == userID && t.Status == domain.TxCompleted {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// --- AccrualStore ---

func (s *Store) AcquireRunLock(ctx context.Context, period string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acquired, ok := s.runLocks[period]; ok && time.Since(acquired) < ttl {
		return &domain.ErrRunLocked{Period: period}
	}
	s.runLocks[period] = time.Now()
	return nil
}

func (s *Store) ReleaseRunLock(ctx context.Context, period string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runLocks, period)
	return nil
}

func (s *Store) SaveRun(ctx context.Context, run *domain.AccrualRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	s.runs[cp.Period] = &cp
	return nil
}

func (s *Store) GetRun(ctx context.Context, period string) (*domain.AccrualRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[period]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "accrual run", ID: period}
	}
	cp := *run
	return &cp, nil
}

// --- UserStore ---

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByEmail[user.Email]; ok {
		return &domain.ErrConflict{Message: "email already registered"}
	}
	cp := *user
	s.users[cp.ID] = &cp
	s.usersByEmail[cp.Email] = cp.ID
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: email}
	}
	cp := *s.users[id]
	return &cp, nil
}

var _ port.Store = (*Store)(nil)
