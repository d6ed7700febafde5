package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/storage"
)

func TestReferenceStore_InsertAndList(t *testing.T) {
	store := NewReferenceStore()
	ctx := context.Background()

	stocks := []*domain.StockQuote{
		{Ticker: "TSLA", CompanyName: "Tesla Inc", Price: 250.0, Mu: 0.2, Sigma: 0.6},
		{Ticker: "AAPL", CompanyName: "Apple Inc", Price: 150.0, Mu: 0.1, Sigma: 0.3},
	}
	for _, q := range stocks {
		if err := store.InsertStock(ctx, q); err != nil {
			t.Fatalf("InsertStock(%s) failed: %v", q.Ticker, err)
		}
	}

	got, err := store.ListStocks(ctx)
	if err != nil {
		t.Fatalf("ListStocks failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 stocks, got %d", len(got))
	}
	if got[0].Ticker != "AAPL" || got[1].Ticker != "TSLA" {
		t.Errorf("stocks not ordered by ticker: %s, %s", got[0].Ticker, got[1].Ticker)
	}
}

func TestReferenceStore_DuplicateStockTicker(t *testing.T) {
	store := NewReferenceStore()
	ctx := context.Background()

	q := &domain.StockQuote{Ticker: "AAPL", Price: 150.0}
	if err := store.InsertStock(ctx, q); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.InsertStock(ctx, q)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestReferenceStore_TickerUniqueAcrossKinds(t *testing.T) {
	store := NewReferenceStore()
	ctx := context.Background()

	if err := store.InsertStock(ctx, &domain.StockQuote{Ticker: "AAPL", Price: 150.0}); err != nil {
		t.Fatalf("InsertStock failed: %v", err)
	}

	opt := &domain.OptionSpec{
		Ticker:           "AAPL", // collides with the stock
		UnderlyingTicker: "AAPL",
		Kind:             domain.OptionKindCall,
		Strike:           160.0,
		Expiry:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	err := store.InsertOption(ctx, opt)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for cross-kind collision, got %v", err)
	}
}

func TestReferenceStore_InvalidInput(t *testing.T) {
	store := NewReferenceStore()
	ctx := context.Background()

	if err := store.InsertStock(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil stock, got %v", err)
	}
	if err := store.InsertStock(ctx, &domain.StockQuote{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty ticker, got %v", err)
	}
	badKind := &domain.OptionSpec{Ticker: "X", UnderlyingTicker: "Y", Kind: "STRADDLE"}
	if err := store.InsertOption(ctx, badKind); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad kind, got %v", err)
	}
}

func TestReferenceStore_ListReturnsCopies(t *testing.T) {
	store := NewReferenceStore()
	ctx := context.Background()

	if err := store.InsertStock(ctx, &domain.StockQuote{Ticker: "AAPL", Price: 150.0}); err != nil {
		t.Fatal(err)
	}

	first, _ := store.ListStocks(ctx)
	first[0].Price = 999.0

	second, _ := store.ListStocks(ctx)
	if second[0].Price != 150.0 {
		t.Errorf("store leaked internal state: price = %f, want 150", second[0].Price)
	}
}
