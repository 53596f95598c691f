// Package geocode resolves raw Italian mailing addresses through an external
// geocoding provider, with a cache-aside layer so repeated campaign runs do
// not re-pay for the same address.
package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/resilience"
)

// Result holds the provider output for one address.
type Result struct {
	FormattedAddress string  `json:"formatted_address"`
	StreetName       string  `json:"street_name"`
	PostalCode       string  `json:"postal_code"`
	City             string  `json:"city"`
	ProvinceName     string  `json:"province_name"`
	ProvinceCode     string  `json:"province_code"`
	Country          string  `json:"country"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Quality          string  `json:"quality"`
	Matched          bool    `json:"matched"`
}

// Cache stores provider responses keyed by address hash. Satisfied by the
// campaign store.
type Cache interface {
	GetCachedGeocode(ctx context.Context, addressHash string) ([]byte, bool, error)
	SetCachedGeocode(ctx context.Context, addressHash string, payload []byte, ttl time.Duration) error
}

// CostRecorder is notified once per billed provider call. Cache hits are
// never recorded.
type CostRecorder interface {
	RecordGeocode()
}

// Client geocodes addresses.
type Client interface {
	Geocode(ctx context.Context, rawAddress string) (*Result, error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit toward the provider.
func WithRateLimit(rps float64) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1) }
}

// WithCache enables the cache-aside layer with the given TTL.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithCostRecorder records billed calls against the campaign budget.
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
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
	costs      CostRecorder
	retry      resilience.RetryPolicy
	breaker    *resilience.Breaker
}

// NewClient creates a geocoding client for the provider at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(10, 11),
		cacheTTL:   30 * 24 * time.Hour,
		retry:      resilience.DefaultRetryPolicy(),
		breaker:    resilience.NewBreaker(5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddressHash returns the cache key for a raw address. Keys are case and
// whitespace insensitive so trivially reformatted inputs share an entry.
func AddressHash(rawAddress string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(rawAddress), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c *client) Geocode(ctx context.Context, rawAddress string) (*Result, error) {
	hash := AddressHash(rawAddress)

	if c.cache != nil {
		if res, ok := c.cacheLookup(ctx, hash); ok {
			return res, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	res, err := resilience.Retry(ctx, c.retry, "geocode", func(ctx context.Context) (*Result, error) {
		return resilience.Call(ctx, c.breaker, func(ctx context.Context) (*Result, error) {
			return c.fetch(ctx, rawAddress)
		})
	})
	if err != nil {
		return nil, err
	}

	if c.costs != nil {
		c.costs.RecordGeocode()
	}
	if c.cache != nil {
		c.cacheStore(ctx, hash, res)
	}
	return res, nil
}

// Resolve geocodes the address and folds the provider result into it.
// Unmatched addresses come back with a failed status but usable raw data.
func Resolve(ctx context.Context, cl Client, addr model.CandidateAddress) model.CandidateAddress {
	res, err := cl.Geocode(ctx, addr.RawAddress)
	if err != nil {
		zap.L().Warn("geocoding failed",
			zap.String("owner_cf", addr.OwnerCF),
			zap.Error(err))
		addr.Status = model.GeocodingFailed
		return addr
	}
	return Apply(res, addr)
}

// Apply copies a provider result onto a candidate address.
func Apply(res *Result, addr model.CandidateAddress) model.CandidateAddress {
	if !res.Matched {
		addr.Status = model.GeocodingFailed
		return addr
	}
	addr.Status = model.GeocodingSuccess
	addr.GeocodedAddress = res.FormattedAddress
	addr.StreetName = res.StreetName
	addr.PostalCode = res.PostalCode
	addr.City = res.City
	addr.ProvinceName = res.ProvinceName
	addr.ProvinceCode = res.ProvinceCode
	addr.Country = res.Country
	if res.Latitude != 0 || res.Longitude != 0 {
		lat, lon := res.Latitude, res.Longitude
		addr.Latitude = &lat
		addr.Longitude = &lon
	}
	return addr
}
