// Package pricing computes cart and order totals.
package pricing

import (
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// The two rates are applied in different contexts and are not interchangeable.
var (
	CartTaxRate  = decimal.RequireFromString("0.10")
	OrderTaxRate = decimal.RequireFromString("0.09")
)

// Line is a single priced quantity.
type Line struct {
	UnitPrice float64
	Quantity  int
}

// Compute returns subtotal, tax and total for lines at the given rate, each
// rounded half-up to two decimals. total is the sum of the rounded parts, so
// total == subtotal + tax holds exactly.
func Compute(lines []Line, taxRate decimal.Decimal) domain.Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 || l.UnitPrice <= 0 {
			continue
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = round(subtotal)
	tax := round(subtotal.Mul(taxRate))
	total := subtotal.Add(tax)

	return domain.Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// CartTotals computes the cached totals of a cart.
func CartTotals(items []domain.CartItem) domain.Totals {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return Compute(lines, CartTaxRate)
}

// OrderTotals computes order totals; shipping is added on top of subtotal+tax.
func OrderTotals(items []domain.OrderItem, shippingCost float64) domain.Totals {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	t := Compute(lines, OrderTaxRate)

	shipping := decimal.Zero
	if shippingCost > 0 {
		shipping = round(decimal.NewFromFloat(shippingCost))
	}
	t.Total = decimal.NewFromFloat(t.Subtotal).
		Add(decimal.NewFromFloat(t.Tax)).
		Add(shipping).
		Round(2).
		InexactFloat64()
	return t
}

// round is half-up for the non-negative amounts this package produces.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
