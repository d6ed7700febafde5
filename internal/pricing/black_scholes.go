// Package pricing computes theoretical European option values with the
// Black-Scholes model.
package pricing

import (
	"math"
	"time"

	"portfolio-pricing-lab/internal/domain"
)

// DefaultRiskFreeRate is the assumed annual risk-free interest rate.
const DefaultRiskFreeRate = 0.02

// Abramowitz-Stegun coefficients for the normal CDF approximation.
const (
	cdfB1 = 0.319381530
	cdfB2 = -0.356563782
	cdfB3 = 1.781477937
	cdfB4 = -1.821255978
	cdfB5 = 1.330274429
	cdfP  = 0.2316419
	cdfC  = 0.39894228
)

// Price computes the theoretical value of a European option given the
// underlying's current price and volatility.
//
// Time to expiry is whole days between valuationDate and the spec's expiry,
// divided by 365. An option at or past expiry prices to its intrinsic value
// with no volatility or discounting term.
func Price(spec domain.OptionSpec, underlyingPrice, volatility, riskFreeRate float64, valuationDate time.Time) float64 {
	s := underlyingPrice
	k := spec.Strike
	t := float64(daysBetween(valuationDate, spec.Expiry)) / 365.0

	if t <= 0 {
		return intrinsic(spec.Kind, s, k)
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (riskFreeRate+0.5*volatility*volatility)*t) / (volatility * sqrtT)
	d2 := d1 - volatility*sqrtT

	discount := math.Exp(-riskFreeRate * t)
	if spec.Kind == domain.OptionKindCall {
		return s*NormCDF(d1) - k*discount*NormCDF(d2)
	}
	return k*discount*NormCDF(-d2) - s*NormCDF(-d1)
}

// intrinsic is the exercise value of an expired option.
func intrinsic(kind domain.OptionKind, s, k float64) float64 {
	if kind == domain.OptionKindCall {
		return math.Max(0, s-k)
	}
	return math.Max(0, k-s)
}

// NormCDF approximates the standard normal cumulative distribution function
// P(X <= z) using the Abramowitz-Stegun rational approximation, clipped to
// exact 0/1 outside +/-8 standard deviations for numerical safety.
func NormCDF(z float64) float64 {
	if z < -8.0 {
		return 0.0
	}
	if z > 8.0 {
		return 1.0
	}

	t := 1.0 / (1.0 + cdfP*math.Abs(z))
	poly := t * (cdfB1 + t*(cdfB2+t*(cdfB3+t*(cdfB4+t*cdfB5))))
	phi := cdfC * math.Exp(-z*z/2.0)

	result := 1.0 - phi*poly
	if z < 0 {
		result = 1.0 - result
	}
	return result
}

// daysBetween returns the number of whole calendar days from a to b, negative
// when b precedes a. Time-of-day and zone are ignored.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
