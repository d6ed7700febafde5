package domain

import "time"

// OptionKind discriminates calls from puts.
type OptionKind string

// Option kind constants
const (
	OptionKindCall OptionKind = "CALL"
	OptionKindPut  OptionKind = "PUT"
)

// Valid reports whether k is a known option kind.
func (k OptionKind) Valid() bool {
	return k == OptionKindCall || k == OptionKindPut
}

// OptionSpec represents a European option's static definition. Corresponds to
// the options table in PostgreSQL. Defined once at load time and never
// changes over a run.
type OptionSpec struct {
	Ticker           string     // PRIMARY KEY
	UnderlyingTicker string     // FK to stocks; must reference an existing StockQuote
	Kind             OptionKind // CALL | PUT
	Strike           float64    // strike price, > 0
	Expiry           time.Time  // expiry date (UTC, time-of-day ignored)
}
