package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/resilience"
)

const matchedResponse = `{
	"results": [{
		"formatted": "Via Roma n. 12, 26857 Salerano sul Lambro Lodi",
		"street": "VIA ROMA",
		"postcode": "26857",
		"city": "SALERANO SUL LAMBRO",
		"province": "LODI",
		"province_code": "LO",
		"country": "IT",
		"lat": 45.2406,
		"lon": 9.4268,
		"quality": "rooftop"
	}]
}`

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) GetCachedGeocode(_ context.Context, hash string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.entries[hash]
	return payload, ok, nil
}

func (m *memCache) SetCachedGeocode(_ context.Context, hash string, payload []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[hash] = payload
	return nil
}

type countingRecorder struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRecorder) RecordGeocode() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func TestGeocodeMatched(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(matchedResponse))
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, "test-key")
	res, err := cl.Geocode(context.Background(), "Salerano sul Lambro(LO) Via Roma n. 12")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "Salerano sul Lambro(LO) Via Roma n. 12", gotQuery)
	assert.True(t, res.Matched)
	assert.Equal(t, "VIA ROMA", res.StreetName)
	assert.Equal(t, "26857", res.PostalCode)
	assert.Equal(t, "LO", res.ProvinceCode)
	assert.InDelta(t, 45.2406, res.Latitude, 0.0001)
}

func TestGeocodeUnmatched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, "")
	res, err := cl.Geocode(context.Background(), "Via Inesistente 999")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocodeCacheAside(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(matchedResponse))
	}))
	defer srv.Close()

	cache := newMemCache()
	rec := &countingRecorder{}
	cl := NewClient(srv.URL, "", WithCache(cache, time.Hour), WithCostRecorder(rec))

	first, err := cl.Geocode(context.Background(), "Via Roma n. 12")
	require.NoError(t, err)

	// Whitespace and case changes share the cache entry.
	second, err := cl.Geocode(context.Background(), "  via roma N. 12 ")
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, first.StreetName, second.StreetName)
}

func TestGeocodeRetriesTransient(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(matchedResponse))
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, "", WithRetryPolicy(resilience.RetryPolicy{
		Attempts:  3,
		BaseDelay: time.Millisecond,
	}))
	res, err := cl.Geocode(context.Background(), "Via Roma n. 12")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 2, calls)
}

func TestGeocodeDoesNotRetryClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, "", WithRetryPolicy(resilience.RetryPolicy{
		Attempts:  3,
		BaseDelay: time.Millisecond,
	}))
	_, err := cl.Geocode(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestAddressHashNormalization(t *testing.T) {
	a := AddressHash("Via Roma n. 12")
	b := AddressHash("  VIA  ROMA   n. 12 ")
	c := AddressHash("Via Milano n. 12")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestApplyMatched(t *testing.T) {
	res := &Result{
		FormattedAddress: "Via Roma n. 12, 26857 Salerano sul Lambro Lodi",
		StreetName:       "VIA ROMA",
		PostalCode:       "26857",
		City:             "SALERANO SUL LAMBRO",
		ProvinceName:     "LODI",
		ProvinceCode:     "LO",
		Country:          "IT",
		Latitude:         45.2406,
		Longitude:        9.4268,
		Matched:          true,
	}

	addr := Apply(res, model.CandidateAddress{
		OwnerCF:    "RSSMRA80A01F205X",
		RawAddress: "Salerano sul Lambro(LO) Via Roma n. 12",
	})

	assert.Equal(t, model.GeocodingSuccess, addr.Status)
	assert.True(t, addr.Geocoded())
	assert.Equal(t, "VIA ROMA", addr.StreetName)
	require.NotNil(t, addr.Latitude)
	assert.InDelta(t, 9.4268, *addr.Longitude, 0.0001)
}

func TestApplyUnmatched(t *testing.T) {
	addr := Apply(&Result{Matched: false}, model.CandidateAddress{RawAddress: "boh"})

	assert.Equal(t, model.GeocodingFailed, addr.Status)
	assert.False(t, addr.Geocoded())
	assert.Nil(t, addr.Latitude)
}

func TestResolveProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, "", WithRetryPolicy(resilience.RetryPolicy{
		Attempts:  2,
		BaseDelay: time.Millisecond,
	}))
	addr := Resolve(context.Background(), cl, model.CandidateAddress{
		OwnerCF:    "RSSMRA80A01F205X",
		RawAddress: "Via Roma n. 12",
	})

	assert.Equal(t, model.GeocodingFailed, addr.Status)
	assert.Equal(t, "Via Roma n. 12", addr.RawAddress)
}
