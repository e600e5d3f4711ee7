package cart

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"cartview/internal/httpclient"
)

// Backend is the storefront cart REST API.
type Backend interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) error
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error
}

type httpBackend struct {
	client *httpclient.Client
}

func NewHTTPBackend(apiBaseURL string, timeout time.Duration, opts ...httpclient.Option) Backend {
	return &httpBackend{client: httpclient.New(apiBaseURL, timeout, opts...)}
}

func itemPath(userID, productID string) string {
	return "/cart/" + url.PathEscape(userID) + "/item/" + url.PathEscape(productID)
}

func (b *httpBackend) GetCart(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	if err := b.client.Do(ctx, http.MethodGet, "/cart/"+url.PathEscape(userID), nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (b *httpBackend) RemoveItem(ctx context.Context, userID, productID string) error {
	return b.client.Do(ctx, http.MethodDelete, itemPath(userID, productID), nil, nil)
}

type quantityPatch struct {
	Quantity int `json:"quantity"`
}

func (b *httpBackend) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	return b.client.Do(ctx, http.MethodPatch, itemPath(userID, productID), quantityPatch{Quantity: quantity}, nil)
}
