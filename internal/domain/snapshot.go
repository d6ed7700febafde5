package domain

import "sort"

// MarketSnapshot is an immutable point-in-time view of every tracked stock,
// identified by a monotonically increasing sequence number. Once published a
// snapshot never changes; each tick produces a new snapshot object.
type MarketSnapshot struct {
	seq    uint64
	quotes map[string]StockQuote
}

// NewMarketSnapshot builds a snapshot from the given quotes. The map is
// copied so later mutation of the argument cannot leak into the snapshot.
func NewMarketSnapshot(seq uint64, quotes map[string]StockQuote) *MarketSnapshot {
	copied := make(map[string]StockQuote, len(quotes))
	for ticker, q := range quotes {
		copied[ticker] = q
	}
	return &MarketSnapshot{seq: seq, quotes: copied}
}

// Seq returns the snapshot's sequence number.
func (m *MarketSnapshot) Seq() uint64 { return m.seq }

// Quote returns the quote for ticker, if tracked.
func (m *MarketSnapshot) Quote(ticker string) (StockQuote, bool) {
	q, ok := m.quotes[ticker]
	return q, ok
}

// Len returns the number of tracked stocks.
func (m *MarketSnapshot) Len() int { return len(m.quotes) }

// Tickers returns all tracked tickers in lexical order.
func (m *MarketSnapshot) Tickers() []string {
	tickers := make([]string, 0, len(m.quotes))
	for t := range m.quotes {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
