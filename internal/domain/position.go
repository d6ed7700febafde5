package domain

// Position links a security to a held quantity. Quantity is fixed at load
// time; short positions are negative.
type Position struct {
	Security Security
	Quantity int64
}
