package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/resilience"
)

// providerResponse is the provider's search payload. The first result is
// the best match.
type providerResponse struct {
	Results []struct {
		Formatted    string  `json:"formatted"`
		Street       string  `json:"street"`
		Postcode     string  `json:"postcode"`
		City         string  `json:"city"`
		Province     string  `json:"province"`
		ProvinceCode string  `json:"province_code"`
		Country      string  `json:"country"`
		Lat          float64 `json:"lat"`
		Lon          float64 `json:"lon"`
		Quality      string  `json:"quality"`
	} `json:"results"`
}

func (c *client) fetch(ctx context.Context, rawAddress string) (*Result, error) {
	params := url.Values{
		"q":      {rawAddress},
		"format": {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("geocode: provider returned status %d", resp.StatusCode)
		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.MarkTransient(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var pr providerResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	if len(pr.Results) == 0 {
		return &Result{Matched: false}, nil
	}

	best := pr.Results[0]
	return &Result{
		FormattedAddress: best.Formatted,
		StreetName:       best.Street,
		PostalCode:       best.Postcode,
		City:             best.City,
		ProvinceName:     best.Province,
		ProvinceCode:     best.ProvinceCode,
		Country:          best.Country,
		Latitude:         best.Lat,
		Longitude:        best.Lon,
		Quality:          best.Quality,
		Matched:          true,
	}, nil
}

func (c *client) cacheLookup(ctx context.Context, hash string) (*Result, bool) {
	payload, ok, err := c.cache.GetCachedGeocode(ctx, hash)
	if err != nil {
		zap.L().Warn("geocode cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(payload, &res); err != nil {
		zap.L().Warn("geocode cache entry corrupt", zap.String("hash", hash), zap.Error(err))
		return nil, false
	}
	return &res, true
}

func (c *client) cacheStore(ctx context.Context, hash string, res *Result) {
	payload, err := json.Marshal(res)
	if err != nil {
		return
	}
	ttl := c.cacheTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if err := c.cache.SetCachedGeocode(ctx, hash, payload, ttl); err != nil {
		zap.L().Warn("geocode cache write failed", zap.Error(err))
	}
}
