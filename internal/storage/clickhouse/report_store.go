package clickhouse

import (
	"context"
	"fmt"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/storage"
)

// ReportHistoryStore implements storage.ReportHistoryStore using ClickHouse.
//
// A report is stored as one row per position, keyed by (seq, position_index).
// total_nav is denormalized onto every row so a report can be reconstructed
// from its position rows alone.
type ReportHistoryStore struct {
	conn *Conn
}

// NewReportHistoryStore creates a new ReportHistoryStore.
func NewReportHistoryStore(conn *Conn) *ReportHistoryStore {
	return &ReportHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ReportHistoryStore = (*ReportHistoryStore)(nil)

// Insert persists a valuation report. Returns ErrDuplicateKey if a report
// with the same seq was already stored. MergeTree does not enforce
// uniqueness, so the check is an explicit query before the batch.
func (s *ReportHistoryStore) Insert(ctx context.Context, report *domain.ValuationReport) error {
	if report == nil || len(report.Positions) == 0 {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, report.Seq)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO valuation_history (
			seq, position_index, ticker, unit_price, effective_quantity, value, total_nav
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, pos := range report.Positions {
		err = batch.Append(
			report.Seq, uint32(i), pos.Ticker,
			pos.UnitPrice, pos.EffectiveQuantity, pos.Value, report.TotalNAV,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySeq reconstructs the report stored for a snapshot sequence number.
// Returns ErrNotFound if no rows exist for seq.
func (s *ReportHistoryStore) GetBySeq(ctx context.Context, seq uint64) (*domain.ValuationReport, error) {
	query := `
		SELECT position_index, ticker, unit_price, effective_quantity, value, total_nav
		FROM valuation_history
		WHERE seq = ?
		ORDER BY position_index ASC
	`

	rows, err := s.conn.Query(ctx, query, seq)
	if err != nil {
		return nil, fmt.Errorf("query by seq: %w", err)
	}
	defer rows.Close()

	report := &domain.ValuationReport{Seq: seq}
	for rows.Next() {
		var (
			index uint32
			pos   domain.PositionValue
		)
		err := rows.Scan(
			&index, &pos.Ticker,
			&pos.UnitPrice, &pos.EffectiveQuantity, &pos.Value, &report.TotalNAV,
		)
		if err != nil {
			return nil, fmt.Errorf("scan valuation row: %w", err)
		}
		report.Positions = append(report.Positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate valuation rows: %w", err)
	}

	if len(report.Positions) == 0 {
		return nil, storage.ErrNotFound
	}
	return report, nil
}

// GetSeqRange returns the smallest and largest stored sequence numbers.
// Returns (0, 0, nil) when the history is empty.
func (s *ReportHistoryStore) GetSeqRange(ctx context.Context) (uint64, uint64, error) {
	query := `
		SELECT count(*), min(seq), max(seq) FROM valuation_history
	`

	var count, minSeq, maxSeq uint64
	if err := s.conn.QueryRow(ctx, query).Scan(&count, &minSeq, &maxSeq); err != nil {
		return 0, 0, fmt.Errorf("query seq range: %w", err)
	}
	if count == 0 {
		return 0, 0, nil
	}
	return minSeq, maxSeq, nil
}

// exists checks whether any rows were stored for seq.
func (s *ReportHistoryStore) exists(ctx context.Context, seq uint64) (bool, error) {
	query := `
		SELECT count(*) FROM valuation_history WHERE seq = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, seq).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
