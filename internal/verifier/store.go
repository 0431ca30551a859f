package verifier

import (
	"context"
	"sync"

	"github.com/paypass/paypass-backend/internal/model"
)

// OutcomeStore records classified checkout outcomes. Upsert is keyed by
// checkout id: recording the same checkout twice converges on one entry.
type OutcomeStore interface {
	Upsert(ctx context.Context, outcome model.CheckoutOutcome) error
	Get(ctx context.Context, checkoutID string) (model.CheckoutOutcome, bool, error)
}

// MemoryStore provides thread-safe in-memory outcome storage. It backs the
// service when the database is unavailable and the tests always.
type MemoryStore struct {
	mu       sync.RWMutex
	outcomes map[string]model.CheckoutOutcome
}

// NewMemoryStore creates a new empty outcome store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		outcomes: make(map[string]model.CheckoutOutcome),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, outcome model.CheckoutOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[outcome.CheckoutID] = outcome
	return nil
}

func (s *MemoryStore) Get(_ context.Context, checkoutID string) (model.CheckoutOutcome, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.outcomes[checkoutID]
	return o, ok, nil
}

// Len returns the number of recorded outcomes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outcomes)
}
