package postgres

import (
	"context"
	"fmt"
	"time"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/storage"
)

// ReferenceStore implements storage.ReferenceStore using PostgreSQL.
//
// Ticker uniqueness across stocks and options is enforced here: each insert
// checks the sibling table inside the same transaction. The per-table
// primary keys cover the within-table case.
type ReferenceStore struct {
	pool *Pool
}

// NewReferenceStore creates a new ReferenceStore.
func NewReferenceStore(pool *Pool) *ReferenceStore {
	return &ReferenceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReferenceStore = (*ReferenceStore)(nil)

// InsertStock adds a stock definition. Returns ErrDuplicateKey if the ticker
// exists as either a stock or an option.
func (s *ReferenceStore) InsertStock(ctx context.Context, q *domain.StockQuote) error {
	if q == nil || q.Ticker == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM options WHERE ticker = $1)`, q.Ticker).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check option ticker: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stocks (ticker, company_name, initial_price, mu, sigma)
		VALUES ($1, $2, $3, $4, $5)
	`, q.Ticker, q.CompanyName, q.Price, q.Mu, q.Sigma)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InsertOption adds an option definition. Returns ErrDuplicateKey if the
// ticker exists as either a stock or an option.
func (s *ReferenceStore) InsertOption(ctx context.Context, o *domain.OptionSpec) error {
	if o == nil || o.Ticker == "" || !o.Kind.Valid() {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stocks WHERE ticker = $1)`, o.Ticker).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check stock ticker: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO options (ticker, underlying_ticker, option_type, strike_price, expiry_date)
		VALUES ($1, $2, $3, $4, $5)
	`, o.Ticker, o.UnderlyingTicker, string(o.Kind), o.Strike, o.Expiry)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert option: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListStocks retrieves all stock definitions, ordered by ticker ASC.
func (s *ReferenceStore) ListStocks(ctx context.Context) ([]*domain.StockQuote, error) {
	query := `
		SELECT ticker, company_name, initial_price, mu, sigma
		FROM stocks
		ORDER BY ticker ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()

	var result []*domain.StockQuote
	for rows.Next() {
		var q domain.StockQuote
		if err := rows.Scan(&q.Ticker, &q.CompanyName, &q.Price, &q.Mu, &q.Sigma); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		result = append(result, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stocks: %w", err)
	}
	return result, nil
}

// ListOptions retrieves all option definitions, ordered by ticker ASC.
func (s *ReferenceStore) ListOptions(ctx context.Context) ([]*domain.OptionSpec, error) {
	query := `
		SELECT ticker, underlying_ticker, option_type, strike_price, expiry_date
		FROM options
		ORDER BY ticker ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()

	var result []*domain.OptionSpec
	for rows.Next() {
		var (
			o      domain.OptionSpec
			kind   string
			expiry time.Time
		)
		if err := rows.Scan(&o.Ticker, &o.UnderlyingTicker, &kind, &o.Strike, &expiry); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		o.Kind = domain.OptionKind(kind)
		o.Expiry = expiry.UTC()
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	return result, nil
}
