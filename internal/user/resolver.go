package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cartview/internal/httpclient"
	"cartview/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrEmptyEmail   = errors.New("email is required")
	ErrUserNotFound = errors.New("user not found")
	ErrLookupFailed = errors.New("failed to resolve user id")
)

// Resolver maps a signed-in email to the opaque id the cart backend keys on.
type Resolver interface {
	ResolveUserID(ctx context.Context, email string) (string, error)
}

type httpResolver struct {
	client *httpclient.Client
}

func NewHTTPResolver(apiBaseURL string, timeout time.Duration, opts ...httpclient.Option) Resolver {
	return &httpResolver{client: httpclient.New(apiBaseURL, timeout, opts...)}
}

func (r *httpResolver) ResolveUserID(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmptyEmail
	}

	log := logger.FromCtx(ctx).With(zap.String("email", email))

	var res struct {
		UserID string `json:"userId"`
	}
	err := r.client.Do(ctx, http.MethodGet, "/users/getUserId/"+url.PathEscape(email), nil, &res)
	if httpclient.IsStatus(err, http.StatusNotFound) {
		log.Warn("user id lookup: unknown email")
		return "", ErrUserNotFound
	}
	if err != nil {
		log.Error("user id lookup failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	if res.UserID == "" {
		return "", ErrUserNotFound
	}

	log.Debug("user id resolved", zap.String("user_id", res.UserID))
	return res.UserID, nil
}
