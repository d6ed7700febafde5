package refdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/storage"
)

// SampleStocks is a small demo universe for seeding fresh databases and for
// in-memory runs.
func SampleStocks() []*domain.StockQuote {
	return []*domain.StockQuote{
		{Ticker: "AAPL", CompanyName: "Apple Inc.", Price: 150.0, Mu: 0.08, Sigma: 0.25},
		{Ticker: "TSLA", CompanyName: "Tesla Inc.", Price: 250.0, Mu: 0.12, Sigma: 0.45},
	}
}

// SampleOptions returns demo option definitions over SampleStocks.
func SampleOptions() []*domain.OptionSpec {
	return []*domain.OptionSpec{
		{
			Ticker:           "AAPL_C170_2027",
			UnderlyingTicker: "AAPL",
			Kind:             domain.OptionKindCall,
			Strike:           170.0,
			Expiry:           time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			Ticker:           "TSLA_P200_2027",
			UnderlyingTicker: "TSLA",
			Kind:             domain.OptionKindPut,
			Strike:           200.0,
			Expiry:           time.Date(2027, 6, 18, 0, 0, 0, 0, time.UTC),
		},
	}
}

// SeedSample inserts the demo universe into a reference store. Rows that
// already exist are skipped, so seeding is safe to repeat.
func SeedSample(ctx context.Context, store storage.ReferenceStore) error {
	for _, s := range SampleStocks() {
		if err := store.InsertStock(ctx, s); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("seed stock %s: %w", s.Ticker, err)
		}
	}
	for _, o := range SampleOptions() {
		if err := store.InsertOption(ctx, o); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("seed option %s: %w", o.Ticker, err)
		}
	}
	return nil
}
