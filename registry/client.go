// Package registry queries the live medicinal products registry search API,
// used when a scanned code is not resolved locally.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/metrics"
	"github.com/eskulia/eskulia-api/registryparser/entities"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

var _ interfaces.RegistryClient = (*Client)(nil)

const maxResponseSize = 4 << 20

// Client calls the registry search endpoint behind a circuit breaker.
type Client struct {
	searchURL string
	http      *http.Client
	cb        *gobreaker.CircuitBreaker[entities.RegistryProduct]
}

// NewClient creates a client for searchURL with a per-request timeout.
// The breaker opens after 5 consecutive upstream failures and probes again after 30s.
func NewClient(searchURL string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker[entities.RegistryProduct](gobreaker.Settings{
		Name:        "registry-search",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// An empty result list is an answer, not a failure. A caller that went
		// away says nothing about the upstream either.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, common.ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		searchURL: searchURL,
		http:      &http.Client{Timeout: timeout},
		cb:        cb,
	}
}

// SearchByCode returns the first product matching the GTIN/EAN code.
// An empty result is ErrNotFound; transport, status, decode and breaker
// rejections are ErrUpstream.
func (c *Client) SearchByCode(ctx context.Context, code string) (entities.RegistryProduct, error) {
	product, err := c.cb.Execute(func() (entities.RegistryProduct, error) {
		return c.search(ctx, code)
	})

	switch {
	case err == nil:
		metrics.RegistryLookupsTotal.WithLabelValues("found").Inc()
	case errors.Is(err, common.ErrNotFound):
		metrics.RegistryLookupsTotal.WithLabelValues("not_found").Inc()
	case errors.Is(err, context.Canceled):
		metrics.RegistryLookupsTotal.WithLabelValues("canceled").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RegistryLookupsTotal.WithLabelValues("rejected").Inc()
		err = fmt.Errorf("%w: registry search: %v", common.ErrUpstream, err)
	default:
		metrics.RegistryLookupsTotal.WithLabelValues("upstream_error").Inc()
	}
	return product, err
}

func (c *Client) search(ctx context.Context, code string) (entities.RegistryProduct, error) {
	u, err := url.Parse(c.searchURL)
	if err != nil {
		return entities.RegistryProduct{}, fmt.Errorf("%w: invalid search url: %v", common.ErrUpstream, err)
	}
	q := u.Query()
	q.Set("eanGtin", code)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return entities.RegistryProduct{}, fmt.Errorf("%w: build request: %v", common.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return entities.RegistryProduct{}, fmt.Errorf("%w: registry search: %w", common.ErrUpstream, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return entities.RegistryProduct{}, fmt.Errorf("%w: registry search: status %d", common.ErrUpstream, resp.StatusCode)
	}

	var body entities.RegistrySearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return entities.RegistryProduct{}, fmt.Errorf("%w: decode registry response: %v", common.ErrUpstream, err)
	}

	if len(body.Content) == 0 {
		return entities.RegistryProduct{}, fmt.Errorf("code %s: %w", code, common.ErrNotFound)
	}
	return body.Content[0], nil
}
