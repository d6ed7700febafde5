package storage

import (
	"context"

	"portfolio-pricing-lab/internal/domain"
)

// ReferenceStore provides access to static security reference data: stock
// and option definitions. Loading happens once, before the simulation
// starts.
type ReferenceStore interface {
	// InsertStock adds a stock definition. Returns ErrDuplicateKey if the
	// ticker exists.
	InsertStock(ctx context.Context, q *domain.StockQuote) error

	// InsertOption adds an option definition. Returns ErrDuplicateKey if the
	// ticker exists.
	InsertOption(ctx context.Context, o *domain.OptionSpec) error

	// ListStocks retrieves all stock definitions, ordered by ticker ASC.
	ListStocks(ctx context.Context) ([]*domain.StockQuote, error)

	// ListOptions retrieves all option definitions, ordered by ticker ASC.
	ListOptions(ctx context.Context) ([]*domain.OptionSpec, error)
}

// ReportHistoryStore provides append-only access to valuation report
// history.
type ReportHistoryStore interface {
	// Insert appends one report. Returns ErrDuplicateKey if a report with
	// the same sequence number exists.
	Insert(ctx context.Context, r *domain.ValuationReport) error

	// GetBySeq retrieves a report by snapshot sequence number. Returns
	// ErrNotFound if not exists.
	GetBySeq(ctx context.Context, seq uint64) (*domain.ValuationReport, error)

	// GetSeqRange returns the min and max stored sequence numbers, or
	// (0, 0) when empty.
	GetSeqRange(ctx context.Context) (minSeq, maxSeq uint64, err error)
}
