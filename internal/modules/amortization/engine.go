package amortization

import (
	"math"

	"github.com/aristath/dealerledger/pkg/formulas"
)

// ComputePayment derives the payment and full schedule for p.
//
// The monthly rate is annualRatePercent/100/12 whatever the frequency; the
// frequency only rescales the charged payment, and the schedule still has
// TermPeriods monthly rows (unless TrueFrequency is set). The additional cost
// (insurance plus tax on the base payment) is a pass-through surcharge and is
// never amortized.
//
// ComputePayment never fails: principal <= 0, a non-positive term or a negative
// or non-finite rate produce a zero result with an empty schedule.
func ComputePayment(p LoanParameters) Result {
	frequency := p.Frequency.normalized()
	principal := formulas.RoundCents(p.Principal())

	result := Result{
		Principal:     math.Max(principal, 0),
		Frequency:     frequency,
		TrueFrequency: p.TrueFrequency,
		Multiplier:    frequency.Multiplier(),
		Schedule:      []Entry{},
	}
	if p.TrueFrequency {
		result.Multiplier = 1
	}

	if principal <= 0 || p.TermPeriods <= 0 || !validRate(p.AnnualRatePercent) {
		return result
	}

	periodsPerYear := 12
	if p.TrueFrequency {
		periodsPerYear = frequency.PeriodsPerYear()
	}

	rate := formulas.PeriodicRate(p.AnnualRatePercent, periodsPerYear)
	base := formulas.RoundCents(formulas.AnnuityPayment(principal, rate, p.TermPeriods))
	additional := additionalCost(p, base)

	result.PeriodicRate = rate
	result.BasePayment = base
	result.AdditionalCost = additional
	result.PeriodicPayment = formulas.RoundCents((base + additional) * result.Multiplier)
	result.Schedule = buildSchedule(principal, rate, base, additional, p.TermPeriods)

	interest := make([]float64, len(result.Schedule))
	for i, e := range result.Schedule {
		interest[i] = e.Interest
	}
	result.TotalInterest = formulas.RoundCents(formulas.Sum(interest))
	result.TotalCost = formulas.RoundCents(
		principal + result.TotalInterest + additional*float64(len(result.Schedule)),
	)

	return result
}

func validRate(rate float64) bool {
	return rate >= 0 && !math.IsNaN(rate) && !math.IsInf(rate, 0)
}

// additionalCost is the per-period surcharge: flat insurance plus tax on the
// base payment, whichever are enabled.
func additionalCost(p LoanParameters, base float64) float64 {
	var cost float64
	if p.Insurance != nil && p.Insurance.Enabled && p.Insurance.Amount > 0 {
		cost += p.Insurance.Amount
	}
	if p.Tax != nil && p.Tax.Enabled && p.Tax.Rate > 0 {
		cost += p.Tax.Rate * base
	}
	return formulas.RoundCents(cost)
}

// buildSchedule amortizes principal over at most n periods. All amounts are
// kept in cents. The principal portion is clamped to the remaining balance and
// the last period takes whatever is left, so the balance ends at exactly 0.
func buildSchedule(principal, rate, base, additional float64, n int) []Entry {
	schedule := make([]Entry, 0, n)
	balance := principal
	cumulative := 0.0

	for period := 1; period <= n && balance > 0; period++ {
		interest := formulas.RoundCents(balance * rate)
		principalPart := formulas.RoundCents(base - interest)
		if principalPart < 0 {
			principalPart = 0
		}
		if period == n || principalPart > balance {
			principalPart = balance
		}

		balance = formulas.RoundCents(balance - principalPart)
		cumulative = formulas.RoundCents(cumulative + interest)

		schedule = append(schedule, Entry{
			Period:             period,
			Payment:            formulas.RoundCents(principalPart + interest + additional),
			Principal:          principalPart,
			Interest:           interest,
			AdditionalCost:     additional,
			Balance:            balance,
			CumulativeInterest: cumulative,
		})
	}

	return schedule
}
