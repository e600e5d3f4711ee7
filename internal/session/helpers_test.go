package session

import (
	"context"
	"sync"

	"cartview/internal/cart"
	"cartview/internal/currency"
	"cartview/internal/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveUserID(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

type MockRates struct {
	mock.Mock
}

func (m *MockRates) Latest(ctx context.Context) (currency.RateTable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(currency.RateTable), args.Error(1)
}

// memoryBackend is an in-memory cart backend shared by every session in a test.
type memoryBackend struct {
	mu    sync.Mutex
	carts map[string][]cart.Item
	loads map[string]int

	loadErr   error
	removeErr error
	updateErr error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{carts: make(map[string][]cart.Item), loads: make(map[string]int)}
}

func (b *memoryBackend) put(userID string, items ...cart.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.carts[userID] = items
}

func (b *memoryBackend) loadCount(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads[userID]
}

func (b *memoryBackend) GetCart(_ context.Context, userID string) (*cart.Cart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads[userID]++
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	items := make([]cart.Item, 0, len(b.carts[userID]))
	for _, it := range b.carts[userID] {
		if it.Product != nil {
			p := *it.Product
			it.Product = &p
		}
		items = append(items, it)
	}
	return &cart.Cart{Items: items}, nil
}

func (b *memoryBackend) RemoveItem(_ context.Context, userID, productID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.removeErr != nil {
		return b.removeErr
	}
	kept := b.carts[userID][:0:0]
	for _, it := range b.carts[userID] {
		if it.ProductID() != productID {
			kept = append(kept, it)
		}
	}
	b.carts[userID] = kept
	return nil
}

func (b *memoryBackend) UpdateItemQuantity(_ context.Context, userID, productID string, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updateErr != nil {
		return b.updateErr
	}
	for i, it := range b.carts[userID] {
		if it.ProductID() == productID {
			b.carts[userID][i].Quantity = quantity
		}
	}
	return nil
}

// item builds a cart line. A negative discount means the field is absent.
func item(id string, price, discount int64, qty int) cart.Item {
	p := &product.Product{
		ID:    id,
		Model: "Model " + id,
		Price: decimal.NewNullDecimal(decimal.NewFromInt(price)),
	}
	if discount >= 0 {
		p.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(discount))
	}
	return cart.Item{Product: p, Quantity: qty}
}

func twoItems() []cart.Item {
	return []cart.Item{item("A", 1000, 100, 2), item("B", 500, 0, 1)}
}
