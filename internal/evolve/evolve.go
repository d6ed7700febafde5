// Package evolve advances stock prices through a discrete geometric Brownian
// motion step.
package evolve

import (
	"math"

	"portfolio-pricing-lab/internal/domain"
)

// Default evolution parameters: a 1 second step over a 12 week horizon, with
// prices clamped to [0.5, 1000].
const (
	DefaultDeltaT   = 1.0
	DefaultHorizon  = 7257600.0
	DefaultMinPrice = 0.5
	DefaultMaxPrice = 1000.0
)

// NormalSource supplies standard-normal random draws. *rand.Rand satisfies
// it.
type NormalSource interface {
	NormFloat64() float64
}

// Params configures one evolution step.
type Params struct {
	DeltaT   float64 // step size in seconds
	Horizon  float64 // total horizon T in seconds, used to normalize DeltaT
	MinPrice float64 // hard floor after the step
	MaxPrice float64 // hard ceiling after the step
}

// DefaultParams returns Params with the default constants.
func DefaultParams() Params {
	return Params{
		DeltaT:   DefaultDeltaT,
		Horizon:  DefaultHorizon,
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
	}
}

// Step advances one quote by one time step:
//
//	dS = S * (mu*(dt/T) + sigma*eps*sqrt(dt/T))
//	S' = clamp(S+dS, MinPrice, MaxPrice)
//
// and returns a new quote carrying S'. Pure and deterministic given eps.
// With Sigma == 0 the stochastic term vanishes and the step is pure drift.
// Clamping silently truncates economically implausible excursions rather
// than erroring.
func Step(q domain.StockQuote, p Params, eps float64) domain.StockQuote {
	ratio := p.DeltaT / p.Horizon
	deltaS := q.Price * (q.Mu*ratio + q.Sigma*eps*math.Sqrt(ratio))
	return q.WithPrice(clamp(q.Price+deltaS, p.MinPrice, p.MaxPrice))
}

// Evolver binds Params to a random source and consumes one draw per step.
// The source is owned by a single producing goroutine and must not be shared.
type Evolver struct {
	params Params
	source NormalSource
}

// NewEvolver creates an evolver. Zero-valued params fields are filled with
// defaults.
func NewEvolver(params Params, source NormalSource) *Evolver {
	if params.DeltaT == 0 {
		params.DeltaT = DefaultDeltaT
	}
	if params.Horizon == 0 {
		params.Horizon = DefaultHorizon
	}
	if params.MaxPrice == 0 {
		params.MinPrice = DefaultMinPrice
		params.MaxPrice = DefaultMaxPrice
	}
	return &Evolver{params: params, source: source}
}

// Next advances the quote by one step, consuming one draw from the source.
func (e *Evolver) Next(q domain.StockQuote) domain.StockQuote {
	return Step(q, e.params, e.source.NormFloat64())
}

// Params returns the evolver's parameters.
func (e *Evolver) Params() Params { return e.params }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
