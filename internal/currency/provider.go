package currency

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cartview/internal/httpclient"
	"cartview/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Provider fetches the latest rates relative to Base.
type Provider interface {
	Latest(ctx context.Context) (RateTable, error)
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type httpProvider struct {
	client *httpclient.Client
}

// NewHTTPProvider reads rates from an exchangerate-api style endpoint, e.g.
// https://api.exchangerate-api.com/v4/latest/INR.
func NewHTTPProvider(latestURL string, timeout time.Duration, opts ...httpclient.Option) Provider {
	return &httpProvider{client: httpclient.New(latestURL, timeout, opts...)}
}

func (p *httpProvider) Latest(ctx context.Context) (RateTable, error) {
	var res latestResponse
	if err := p.client.Do(ctx, http.MethodGet, "", nil, &res); err != nil {
		return nil, fmt.Errorf("fetch exchange rates: %w", err)
	}
	if res.Base != "" && !strings.EqualFold(res.Base, Base) {
		return nil, fmt.Errorf("fetch exchange rates: unexpected base %q", res.Base)
	}

	table := make(RateTable, len(res.Rates))
	for code, rate := range res.Rates {
		table[strings.ToUpper(code)] = rate
	}
	return table, nil
}

// FetchBestEffort never fails: on error it logs and returns an empty table,
// which makes every conversion the identity.
func FetchBestEffort(ctx context.Context, p Provider) RateTable {
	if p == nil {
		return RateTable{}
	}
	table, err := p.Latest(ctx)
	if err != nil {
		logger.FromCtx(ctx).Warn("exchange rates unavailable, prices shown in base currency", zap.Error(err))
		return RateTable{}
	}
	return table
}
