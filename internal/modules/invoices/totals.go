package invoices

import (
	"github.com/shopspring/decimal"
)

// ComputeTotals recomputes line totals, subtotal, tax and total from scratch.
// Line totals and tax are rounded to cents half away from zero.
func ComputeTotals(items []ItemInput, taxRate decimal.Decimal) (lines []Item, subtotal, tax, total decimal.Decimal) {
	lines = make([]Item, 0, len(items))
	subtotal = decimal.Zero

	for _, in := range items {
		lineTotal := in.Quantity.Mul(in.UnitPrice).Round(2)
		lines = append(lines, Item{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			LineTotal:   lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	tax = subtotal.Mul(taxRate).Round(2)
	total = subtotal.Add(tax)
	return lines, subtotal, tax, total
}

// applyItems replaces the invoice's items and totals.
func (inv *Invoice) applyItems(items []ItemInput, taxRate decimal.Decimal) {
	inv.Items, inv.Subtotal, inv.Tax, inv.Total = ComputeTotals(items, taxRate)
	inv.TaxRate = taxRate
}
