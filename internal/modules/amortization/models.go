// Package amortization turns loan parameters into a payment amount and a
// period-by-period amortization schedule. The engine is pure: no I/O, no
// shared state, O(term) per call.
package amortization

import "errors"

// ErrInvalidLoanParameters is returned by Validate for input the engine would
// otherwise reduce to a zero result.
var ErrInvalidLoanParameters = errors.New("invalid loan parameters")

// Frequency is how often installments are charged.
type Frequency string

const (
	FrequencyMonthly  Frequency = "monthly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyWeekly   Frequency = "weekly"
)

// normalized treats an empty frequency as monthly.
func (f Frequency) normalized() Frequency {
	if f == "" {
		return FrequencyMonthly
	}
	return f
}

// PeriodsPerYear is the number of installments per year at this frequency.
func (f Frequency) PeriodsPerYear() int {
	switch f.normalized() {
	case FrequencyBiweekly:
		return 26
	case FrequencyWeekly:
		return 52
	default:
		return 12
	}
}

// Multiplier rescales a monthly amount to one installment at this frequency:
// 1 for monthly, 12/26 for biweekly, 12/52 for weekly.
func (f Frequency) Multiplier() float64 {
	return 12 / float64(f.PeriodsPerYear())
}

// Insurance is a flat per-period add-on.
type Insurance struct {
	Enabled bool    `json:"enabled"`
	Amount  float64 `json:"amount" validate:"gte=0"`
}

// TaxAddOn charges Rate (a fraction, 0.13 = 13%) of the base payment per period.
type TaxAddOn struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate" validate:"gte=0,lte=1"`
}

// LoanParameters describes a vehicle financing request.
type LoanParameters struct {
	VehiclePrice      float64    `json:"vehicle_price" validate:"required,gt=0"`
	DownPayment       float64    `json:"down_payment" validate:"gte=0"`
	AnnualRatePercent float64    `json:"annual_rate_percent" validate:"gte=0,lte=100"`
	TermPeriods       int        `json:"term_periods" validate:"required,gte=1,lte=600"`
	Frequency         Frequency  `json:"frequency" validate:"omitempty,oneof=monthly biweekly weekly"`
	Insurance         *Insurance `json:"insurance,omitempty" validate:"omitempty"`
	Tax               *TaxAddOn  `json:"tax,omitempty" validate:"omitempty"`

	// TrueFrequency amortizes per installment (rate / periods-per-year, term
	// counted in installments) instead of the compatibility behaviour, where
	// the schedule is always monthly and frequency only rescales the displayed
	// payment.
	TrueFrequency bool `json:"true_frequency,omitempty"`
}

// Principal is the amortized amount: price minus down payment.
func (p LoanParameters) Principal() float64 {
	return p.VehiclePrice - p.DownPayment
}

// Entry is one row of the amortization schedule.
type Entry struct {
	Period             int     `json:"period"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	AdditionalCost     float64 `json:"additional_cost"`
	Balance            float64 `json:"balance"`
	CumulativeInterest float64 `json:"cumulative_interest"`
}

// Result is the outcome of ComputePayment.
type Result struct {
	Principal       float64   `json:"principal"`
	Frequency       Frequency `json:"frequency"`
	TrueFrequency   bool      `json:"true_frequency"`
	PeriodicRate    float64   `json:"periodic_rate"`
	BasePayment     float64   `json:"base_payment"`
	AdditionalCost  float64   `json:"additional_cost"`
	Multiplier      float64   `json:"multiplier"`
	PeriodicPayment float64   `json:"periodic_payment"`
	TotalInterest   float64   `json:"total_interest"`
	TotalCost       float64   `json:"total_cost"`
	Schedule        []Entry   `json:"schedule"`
}
