// Package store persists campaign runs and the geocode response cache.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/config"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// ErrNotFound is returned when a campaign id has no row.
var ErrNotFound = eris.New("store: not found")

// CampaignFilter specifies criteria for listing campaigns.
type CampaignFilter struct {
	Status model.CampaignStatus `json:"status,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
	Offset int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for the campaign pipeline.
// Classification is deterministic, so stored results are a convenience;
// a lost run is recomputed, never repaired in place.
type Store interface {
	// Campaigns
	CreateCampaign(ctx context.Context, name string) (*model.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error
	SaveCampaignResult(ctx context.Context, id string, result *model.CampaignResult) error
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]model.Campaign, error)

	// Geocode cache
	GetCachedGeocode(ctx context.Context, addressHash string) ([]byte, bool, error)
	SetCachedGeocode(ctx context.Context, addressHash string, payload []byte, ttl time.Duration) error
	DeleteExpiredGeocodes(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the configured Store implementation.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
