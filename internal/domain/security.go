package domain

// Security is the closed set of instruments the system can hold and price:
// stocks and European options. The unexported method keeps the set closed so
// the valuator can switch over the concrete types exhaustively.
type Security interface {
	// SecurityID returns the instrument's ticker, unique across all securities.
	SecurityID() string

	isSecurity()
}

// SecurityID returns the ticker of a StockQuote.
func (s StockQuote) SecurityID() string { return s.Ticker }

// SecurityID returns the ticker of an OptionSpec.
func (o OptionSpec) SecurityID() string { return o.Ticker }

func (StockQuote) isSecurity() {}
func (OptionSpec) isSecurity() {}
