package memory

import (
	"context"
	"sync"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/storage"
)

// ReportHistoryStore is an in-memory implementation of
// storage.ReportHistoryStore.
type ReportHistoryStore struct {
	mu   sync.RWMutex
	data map[uint64]*domain.ValuationReport
}

// NewReportHistoryStore creates a new in-memory report history store.
func NewReportHistoryStore() *ReportHistoryStore {
	return &ReportHistoryStore{
		data: make(map[uint64]*domain.ValuationReport),
	}
}

// Insert appends one report. Returns ErrDuplicateKey if the sequence exists.
func (s *ReportHistoryStore) Insert(_ context.Context, r *domain.ValuationReport) error {
	if r == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.Seq]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[r.Seq] = copyReport(r)
	return nil
}

// GetBySeq retrieves a report by snapshot sequence number.
func (s *ReportHistoryStore) GetBySeq(_ context.Context, seq uint64) (*domain.ValuationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[seq]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyReport(r), nil
}

// GetSeqRange returns the min and max stored sequence numbers, or (0, 0)
// when empty.
func (s *ReportHistoryStore) GetSeqRange(_ context.Context) (minSeq, maxSeq uint64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	first := true
	for seq := range s.data {
		if first {
			minSeq, maxSeq = seq, seq
			first = false
			continue
		}
		if seq < minSeq {
			minSeq = seq
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return minSeq, maxSeq, nil
}

// copyReport deep-copies a report so callers cannot mutate stored state.
func copyReport(r *domain.ValuationReport) *domain.ValuationReport {
	reportCopy := *r
	reportCopy.Positions = make([]domain.PositionValue, len(r.Positions))
	copy(reportCopy.Positions, r.Positions)
	return &reportCopy
}

var _ storage.ReportHistoryStore = (*ReportHistoryStore)(nil)
