package product

import "github.com/shopspring/decimal"

const UnknownName = "Unknown Product"

// Product is the read-only projection the cart backend embeds in each cart
// item under "productId". Price and DiscountPrice may be absent.
type Product struct {
	ID            string              `json:"_id"`
	Model         string              `json:"model,omitempty"`
	Price         decimal.NullDecimal `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice"`
	Image         string              `json:"image,omitempty"`
}

func (p Product) DisplayName() string {
	if p.Model == "" {
		return UnknownName
	}
	return p.Model
}

// HasDiscount reports whether a non-zero discount amount is present.
func (p Product) HasDiscount() bool {
	return p.DiscountPrice.Valid && !p.DiscountPrice.Decimal.IsZero()
}
