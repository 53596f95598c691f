package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteCampaignLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCampaign(ctx, "castiglione-q3")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, model.CampaignQueued, c.Status)

	got, err := s.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "castiglione-q3", got.Name)
	assert.Nil(t, got.Result)

	require.NoError(t, s.UpdateCampaignStatus(ctx, c.ID, model.CampaignClassifying))
	got, err = s.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignClassifying, got.Status)
}

func TestSQLiteSaveCampaignResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCampaign(ctx, "salerano")
	require.NoError(t, err)

	result := &model.CampaignResult{
		TotalAddresses: 23,
		TotalCostEUR:   10.72,
		Distribution: []model.QualityDistributionEntry{
			{Tier: model.TierUltraHigh, Count: 4, Percentage: 17.39},
		},
	}
	require.NoError(t, s.SaveCampaignResult(ctx, c.ID, result))

	got, err := s.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 23, got.Result.TotalAddresses)
	assert.InDelta(t, 10.72, got.Result.TotalCostEUR, 0.001)
	require.Len(t, got.Result.Distribution, 1)
	assert.Equal(t, model.TierUltraHigh, got.Result.Distribution[0].Tier)
}

func TestSQLiteNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetCampaign(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateCampaignStatus(ctx, "missing", model.CampaignFailed)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SaveCampaignResult(ctx, "missing", &model.CampaignResult{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListCampaigns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateCampaign(ctx, "alpha")
	require.NoError(t, err)
	_, err = s.CreateCampaign(ctx, "beta")
	require.NoError(t, err)
	require.NoError(t, s.UpdateCampaignStatus(ctx, a.ID, model.CampaignClassifying))

	all, err := s.ListCampaigns(ctx, CampaignFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	running, err := s.ListCampaigns(ctx, CampaignFilter{Status: model.CampaignClassifying})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "alpha", running[0].Name)

	limited, err := s.ListCampaigns(ctx, CampaignFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteGeocodeCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"street_name":"VIA ROMA","city":"SALERANO SUL LAMBRO"}`)
	require.NoError(t, s.SetCachedGeocode(ctx, "hash-1", payload, time.Hour))

	got, ok, err := s.GetCachedGeocode(ctx, "hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	_, ok, err = s.GetCachedGeocode(ctx, "hash-absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteGeocodeCacheExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCachedGeocode(ctx, "stale", []byte(`{}`), -time.Minute))
	require.NoError(t, s.SetCachedGeocode(ctx, "fresh", []byte(`{}`), time.Hour))

	_, ok, err := s.GetCachedGeocode(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.DeleteExpiredGeocodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err = s.GetCachedGeocode(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteGeocodeCacheUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCachedGeocode(ctx, "h", []byte(`{"v":1}`), time.Hour))
	require.NoError(t, s.SetCachedGeocode(ctx, "h", []byte(`{"v":2}`), time.Hour))

	got, ok, err := s.GetCachedGeocode(ctx, "h")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"v":2}`), got)
}
