// Package catasto queries the cadastral registry for parcel ownership
// extracts (visure). Each successful lookup is billed, so callers should
// dedup parcels before asking.
package catasto

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/resilience"
)

// ParcelExtract is the registry's answer for one parcel: the ownership
// rows plus each owner's registered mailing address.
type ParcelExtract struct {
	Parcel    model.ParcelInput
	Records   []model.RawOwnershipRecord
	Addresses []model.CandidateAddress
}

// CostRecorder is notified once per billed extraction.
type CostRecorder interface {
	RecordParcelLookup(certified bool)
}

// Client talks to the registry.
type Client interface {
	LookupParcel(ctx context.Context, parcel model.ParcelInput) (*ParcelExtract, error)
	LookupAll(ctx context.Context, parcels []model.ParcelInput) ([]ParcelExtract, error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit toward the registry.
func WithRateLimit(rps float64) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1) }
}

// WithCertified requests certified extractions, which carry a surcharge.
func WithCertified() Option {
	return func(c *client) { c.certified = true }
}

// WithCostRecorder records billed extractions against the campaign budget.
func WithCostRecorder(rec CostRecorder) Option {
	return func(c *client) { c.costs = rec }
}

// WithRetryPolicy overrides the default retry behavior.
func WithRetryPolicy(policy resilience.RetryPolicy) Option {
	return func(c *client) { c.retry = policy }
}

type client struct {
	baseURL    string
	apiKey     string
	certified  bool
	httpClient *http.Client
	limiter    *rate.Limiter
	costs      CostRecorder
	retry      resilience.RetryPolicy
	breaker    *resilience.Breaker
}

// NewClient creates a registry client for the endpoint at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(2, 3),
		retry:      resilience.DefaultRetryPolicy(),
		breaker:    resilience.NewBreaker(5, time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupParcel fetches the ownership extract for one parcel.
func (c *client) LookupParcel(ctx context.Context, parcel model.ParcelInput) (*ParcelExtract, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	extract, err := resilience.Retry(ctx, c.retry, "visura", func(ctx context.Context) (*ParcelExtract, error) {
		return resilience.Call(ctx, c.breaker, func(ctx context.Context) (*ParcelExtract, error) {
			return c.fetchExtract(ctx, parcel)
		})
	})
	if err != nil {
		return nil, err
	}

	if c.costs != nil {
		c.costs.RecordParcelLookup(c.certified)
	}
	return extract, nil
}

// LookupAll fetches extracts for every parcel, sequentially under the rate
// limit. Parcels the registry cannot resolve are logged and skipped; the
// caller sees the gap as a drop in its retrieval counts. Only context
// cancellation aborts the whole batch.
func (c *client) LookupAll(ctx context.Context, parcels []model.ParcelInput) ([]ParcelExtract, error) {
	extracts := make([]ParcelExtract, 0, len(parcels))
	for _, parcel := range parcels {
		extract, err := c.LookupParcel(ctx, parcel)
		if err != nil {
			if ctx.Err() != nil {
				return extracts, ctx.Err()
			}
			zap.L().Warn("parcel lookup failed",
				zap.String("municipality", parcel.Municipality),
				zap.String("foglio", parcel.Foglio),
				zap.String("particella", parcel.Particella),
				zap.Error(err))
			continue
		}
		extracts = append(extracts, *extract)
	}
	return extracts, nil
}
