package pricing

import (
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCartTotals(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.CartItem
		want  domain.Totals
	}{
		{
			name:  "empty cart",
			items: nil,
			want:  domain.Totals{},
		},
		{
			name: "two lines",
			items: []domain.CartItem{
				{UnitPrice: 10, Quantity: 2},
				{UnitPrice: 5, Quantity: 1},
			},
			want: domain.Totals{Subtotal: 25, Tax: 2.5, Total: 27.5},
		},
		{
			name: "rounds tax half up",
			items: []domain.CartItem{
				{UnitPrice: 0.05, Quantity: 1},
			},
			want: domain.Totals{Subtotal: 0.05, Tax: 0.01, Total: 0.06},
		},
		{
			name: "float prices",
			items: []domain.CartItem{
				{UnitPrice: 19.99, Quantity: 3},
			},
			want: domain.Totals{Subtotal: 59.97, Tax: 6, Total: 65.97},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CartTotals(tt.items))
		})
	}
}

func TestOrderTotals_IncludesShipping(t *testing.T) {
	items := []domain.OrderItem{
		{UnitPrice: 10, Quantity: 2},
		{UnitPrice: 5, Quantity: 1},
	}

	got := OrderTotals(items, 3)

	assert.Equal(t, 25.0, got.Subtotal)
	assert.Equal(t, 2.25, got.Tax)
	assert.Equal(t, 30.25, got.Total)
}

func TestOrderTotals_NegativeShippingIgnored(t *testing.T) {
	got := OrderTotals([]domain.OrderItem{{UnitPrice: 10, Quantity: 1}}, -5)
	assert.Equal(t, 10.9, got.Total)
}

func TestCompute_DeterministicAndOrdered(t *testing.T) {
	lines := []Line{{UnitPrice: 3.33, Quantity: 3}, {UnitPrice: 7.77, Quantity: 7}, {UnitPrice: -1, Quantity: 2}}

	first := Compute(lines, CartTaxRate)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(lines, CartTaxRate))
	}
	assert.GreaterOrEqual(t, first.Total, first.Subtotal)
	assert.GreaterOrEqual(t, first.Subtotal, 0.0)
}

func TestTaxRatesDiffer(t *testing.T) {
	assert.False(t, CartTaxRate.Equal(OrderTaxRate))
}
