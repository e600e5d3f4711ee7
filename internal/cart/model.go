package cart

import "cartview/internal/product"

// Item is one cart line as the backend returns it. Product is nil when the
// referenced product was deleted server-side.
type Item struct {
	Product  *product.Product `json:"productId"`
	Quantity int              `json:"quantity"`
}

func (i Item) ProductID() string {
	if i.Product == nil {
		return ""
	}
	return i.Product.ID
}

// Cart is the backend payload for GET /cart/{userId}.
type Cart struct {
	Items []Item `json:"items"`
}

// validItems drops lines without an addressable product, keeping server order.
func validItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ProductID() == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.Product != nil {
			p := *it.Product
			out[i].Product = &p
		}
	}
	return out
}

// ClampQuantity enforces the minimum quantity of one.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
