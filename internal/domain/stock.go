package domain

// StockQuote represents a stock together with its current price and the
// parameters of its price process. Corresponds to the stocks table in
// PostgreSQL.
//
// StockQuote is an immutable value: a price change produces a new StockQuote
// via WithPrice, never an in-place mutation.
type StockQuote struct {
	Ticker      string  // PRIMARY KEY
	CompanyName string  // display name
	Price       float64 // current price, >= 0
	Mu          float64 // drift of the price process
	Sigma       float64 // volatility of the price process, >= 0
}

// WithPrice returns a copy of the quote carrying the new price.
// All other fields are unchanged.
func (s StockQuote) WithPrice(price float64) StockQuote {
	s.Price = price
	return s
}
