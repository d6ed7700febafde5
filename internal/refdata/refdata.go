// Package refdata loads security definitions from a reference store and
// validates them as a consistent universe: unique tickers across kinds and
// every option resolving to a known underlying stock.
package refdata

import (
	"context"
	"errors"
	"fmt"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/storage"
)

var (
	// ErrDuplicateTicker indicates the same ticker names both a stock and
	// an option.
	ErrDuplicateTicker = errors.New("duplicate ticker across security kinds")

	// ErrUnknownUnderlying indicates an option references a stock ticker
	// that is not part of the universe.
	ErrUnknownUnderlying = errors.New("option references unknown underlying")
)

// Definitions holds the validated security universe keyed by ticker.
type Definitions struct {
	Stocks  map[string]*domain.StockQuote
	Options map[string]*domain.OptionSpec
}

// Load reads all stocks and options from the store and validates them.
func Load(ctx context.Context, store storage.ReferenceStore) (*Definitions, error) {
	stocks, err := store.ListStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	options, err := store.ListOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}

	defs := &Definitions{
		Stocks:  make(map[string]*domain.StockQuote, len(stocks)),
		Options: make(map[string]*domain.OptionSpec, len(options)),
	}
	for _, s := range stocks {
		defs.Stocks[s.Ticker] = s
	}
	for _, o := range options {
		defs.Options[o.Ticker] = o
	}

	if err := defs.Validate(); err != nil {
		return nil, err
	}
	return defs, nil
}

// Validate checks cross-kind ticker uniqueness and underlying resolution.
func (d *Definitions) Validate() error {
	for ticker := range d.Options {
		if _, ok := d.Stocks[ticker]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTicker, ticker)
		}
	}
	for _, o := range d.Options {
		if _, ok := d.Stocks[o.UnderlyingTicker]; !ok {
			return fmt.Errorf("%w: %s -> %s", ErrUnknownUnderlying, o.Ticker, o.UnderlyingTicker)
		}
	}
	return nil
}

// SecurityByTicker resolves a ticker to its definition, stock or option.
func (d *Definitions) SecurityByTicker(ticker string) (domain.Security, bool) {
	if s, ok := d.Stocks[ticker]; ok {
		return *s, true
	}
	if o, ok := d.Options[ticker]; ok {
		return *o, true
	}
	return nil, false
}

// InitialQuotes builds the starting snapshot quote set from stock
// definitions, one quote per stock at its initial price.
func (d *Definitions) InitialQuotes() map[string]domain.StockQuote {
	quotes := make(map[string]domain.StockQuote, len(d.Stocks))
	for ticker, s := range d.Stocks {
		quotes[ticker] = *s
	}
	return quotes
}
