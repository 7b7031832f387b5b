// Package formulas holds the numeric building blocks of the loan calculator.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// RoundCents rounds a monetary value to 2 decimals (half away from zero).
func RoundCents(value float64) float64 {
	return math.Round(value*100) / 100
}

// PeriodicRate converts an annual percentage rate into the rate of one period.
// PeriodicRate(6, 12) == 0.005
func PeriodicRate(annualRatePercent float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		return 0
	}
	return annualRatePercent / 100 / float64(periodsPerYear)
}

// AnnuityPayment returns the fixed installment that amortizes principal over n
// periods at the given periodic rate:
//
//	payment = P * r / (1 - (1+r)^-n)
//
// A zero rate degrades to an even split. Non-positive principal or n yields 0.
func AnnuityPayment(principal, rate float64, n int) float64 {
	if principal <= 0 || n <= 0 {
		return 0
	}
	if rate == 0 {
		return principal / float64(n)
	}
	return principal * rate / (1 - math.Pow(1+rate, -float64(n)))
}

// Sum adds the values of a column (interest portions, principal portions, ...).
func Sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}
