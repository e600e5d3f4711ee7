package cart

import "github.com/shopspring/decimal"

// priced reports whether an item takes part in totals at all.
func priced(item Item) bool {
	return item.Product != nil && item.Product.Price.Valid
}

// EffectiveUnitPrice is list price minus the discount amount. A missing
// discount counts as zero; a missing product or price yields zero. A discount
// larger than the price is clamped to a zero unit price.
func EffectiveUnitPrice(item Item) decimal.Decimal {
	if !priced(item) {
		return decimal.Zero
	}

	price := item.Product.Price.Decimal
	if item.Product.DiscountPrice.Valid {
		price = price.Sub(item.Product.DiscountPrice.Decimal)
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// ListPrice is the undiscounted unit price, zero when absent.
func ListPrice(item Item) decimal.Decimal {
	if !priced(item) {
		return decimal.Zero
	}
	return item.Product.Price.Decimal
}

func LineTotal(item Item) decimal.Decimal {
	return EffectiveUnitPrice(item).Mul(decimal.NewFromInt(int64(ClampQuantity(item.Quantity))))
}

// Total sums LineTotal over priced items. It is zero for an empty cart.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if !priced(it) {
			continue
		}
		total = total.Add(LineTotal(it))
	}
	return total
}
