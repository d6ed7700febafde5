package domain

// PositionValue is one priced position inside a ValuationReport.
type PositionValue struct {
	Ticker            string  // security ticker
	UnitPrice         float64 // snapshot price for stocks, theoretical price for options
	EffectiveQuantity int64   // quantity, scaled by the contract multiplier for options
	Value             float64 // UnitPrice * EffectiveQuantity
}

// ValuationReport is the portfolio valuation produced for one market
// snapshot. Positions appear in load order.
type ValuationReport struct {
	Seq       uint64 // sequence number of the snapshot this report prices
	Positions []PositionValue
	TotalNAV  float64 // sum of all position values
}
