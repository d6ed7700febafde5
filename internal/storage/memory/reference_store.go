package memory

import (
	"context"
	"sort"
	"sync"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/storage"
)

// ReferenceStore is an in-memory implementation of storage.ReferenceStore.
type ReferenceStore struct {
	mu      sync.RWMutex
	stocks  map[string]*domain.StockQuote
	options map[string]*domain.OptionSpec
}

// NewReferenceStore creates a new in-memory reference store.
func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{
		stocks:  make(map[string]*domain.StockQuote),
		options: make(map[string]*domain.OptionSpec),
	}
}

// InsertStock adds a stock definition. Returns ErrDuplicateKey if the ticker
// exists as either a stock or an option.
func (s *ReferenceStore) InsertStock(_ context.Context, q *domain.StockQuote) error {
	if q == nil || q.Ticker == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tickerExists(q.Ticker) {
		return storage.ErrDuplicateKey
	}
	quoteCopy := *q
	s.stocks[q.Ticker] = &quoteCopy
	return nil
}

// InsertOption adds an option definition. Returns ErrDuplicateKey if the
// ticker exists as either a stock or an option.
func (s *ReferenceStore) InsertOption(_ context.Context, o *domain.OptionSpec) error {
	if o == nil || o.Ticker == "" || !o.Kind.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tickerExists(o.Ticker) {
		return storage.ErrDuplicateKey
	}
	specCopy := *o
	s.options[o.Ticker] = &specCopy
	return nil
}

// ListStocks retrieves all stock definitions, ordered by ticker ASC.
func (s *ReferenceStore) ListStocks(_ context.Context) ([]*domain.StockQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StockQuote, 0, len(s.stocks))
	for _, q := range s.stocks {
		quoteCopy := *q
		result = append(result, &quoteCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})
	return result, nil
}

// ListOptions retrieves all option definitions, ordered by ticker ASC.
func (s *ReferenceStore) ListOptions(_ context.Context) ([]*domain.OptionSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.OptionSpec, 0, len(s.options))
	for _, o := range s.options {
		specCopy := *o
		result = append(result, &specCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})
	return result, nil
}

// tickerExists reports whether a ticker is taken by any security. Tickers
// are globally unique across stocks and options. Callers must hold the lock.
func (s *ReferenceStore) tickerExists(ticker string) bool {
	if _, ok := s.stocks[ticker]; ok {
		return true
	}
	_, ok := s.options[ticker]
	return ok
}

var _ storage.ReferenceStore = (*ReferenceStore)(nil)
