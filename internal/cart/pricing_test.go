package cart

import (
	"testing"

	"cartview/internal/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func money(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

// line builds a cart line; a negative discount means "no discount field".
func line(id string, price, discount int64, qty int) Item {
	p := &product.Product{ID: id, Model: "Model " + id, Price: money(price)}
	if discount >= 0 {
		p.DiscountPrice = money(discount)
	}
	return Item{Product: p, Quantity: qty}
}

func TestEffectiveUnitPrice(t *testing.T) {
	tests := []struct {
		name     string
		item     Item
		expected int64
	}{
		{"price minus discount", line("a", 1000, 100, 1), 900},
		{"missing discount is zero", line("b", 500, -1, 1), 500},
		{"zero discount", line("c", 500, 0, 1), 500},
		{"discount larger than price clamps to zero", line("d", 100, 150, 1), 0},
		{"missing product", Item{Quantity: 2}, 0},
		{"missing price", Item{Product: &product.Product{ID: "e", DiscountPrice: money(10)}, Quantity: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveUnitPrice(tt.item)
			assert.True(t, decimal.NewFromInt(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestListPrice(t *testing.T) {
	assert.Equal(t, "1000", ListPrice(line("a", 1000, 100, 1)).String())
	assert.True(t, ListPrice(Item{}).IsZero())
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, "1800", LineTotal(line("a", 1000, 100, 2)).String())
	// Quantities below one are billed as one.
	assert.Equal(t, "500", LineTotal(line("b", 500, 0, 0)).String())
	assert.Equal(t, "500", LineTotal(line("b", 500, 0, -3)).String())
}

func TestTotal(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.True(t, Total(nil).IsZero())
		assert.True(t, Total([]Item{}).IsZero())
	})

	t.Run("TwoItems", func(t *testing.T) {
		items := []Item{line("A", 1000, 100, 2), line("B", 500, 0, 1)}
		assert.Equal(t, "2300", Total(items).String())
	})

	t.Run("SkipsUnpricedLines", func(t *testing.T) {
		items := []Item{
			line("A", 1000, 100, 2),
			{Product: nil, Quantity: 4},
			{Product: &product.Product{ID: "X"}, Quantity: 1},
		}
		assert.Equal(t, "1800", Total(items).String())
	})

	t.Run("MatchesSumOfLines", func(t *testing.T) {
		items := []Item{line("A", 999, 99, 3), line("B", 250, -1, 2), line("C", 10, 20, 5)}

		sum := decimal.Zero
		for _, it := range items {
			sum = sum.Add(EffectiveUnitPrice(it).Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		assert.True(t, sum.Equal(Total(items)))
	})
}

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 1, ClampQuantity(-4))
	assert.Equal(t, 1, ClampQuantity(0))
	assert.Equal(t, 1, ClampQuantity(1))
	assert.Equal(t, 7, ClampQuantity(7))
}

func TestValidItems(t *testing.T) {
	items := []Item{
		line("A", 1, 0, 1),
		{Product: nil, Quantity: 1},
		{Product: &product.Product{}, Quantity: 1},
		line("B", 1, 0, 1),
	}

	got := validItems(items)

	assert.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ProductID())
	assert.Equal(t, "B", got[1].ProductID())
}
