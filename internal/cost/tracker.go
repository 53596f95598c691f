package cost

import (
	"sync"

	"go.uber.org/zap"
)

// Tracker accumulates campaign spend against a starting balance.
// Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	calc    *Calculator
	balance float64
	spent   float64
	lookups int
	geocode int
}

// NewTracker creates a Tracker with the given calculator and starting
// balance in EUR. A zero balance disables the low-balance warning.
func NewTracker(calc *Calculator, balance float64) *Tracker {
	return &Tracker{calc: calc, balance: balance}
}

// RecordParcelLookup charges one registry extraction.
func (t *Tracker) RecordParcelLookup(certified bool) {
	t.charge(t.calc.ParcelLookup(certified))
	t.mu.Lock()
	t.lookups++
	t.mu.Unlock()
}

// RecordGeocode charges one geocoding provider call.
func (t *Tracker) RecordGeocode() {
	t.charge(t.calc.GeocodeRequest())
	t.mu.Lock()
	t.geocode++
	t.mu.Unlock()
}

func (t *Tracker) charge(amount float64) {
	t.mu.Lock()
	t.spent += amount
	remaining := t.balance - t.spent
	low := t.balance > 0 && remaining < t.balance*0.1
	t.mu.Unlock()

	if low {
		zap.L().Warn("api balance running low",
			zap.Float64("remaining_eur", remaining),
			zap.Float64("starting_eur", t.balance))
	}
}

// Summary is a snapshot of campaign spend.
type Summary struct {
	SpentEUR     float64 `json:"spent_eur"`
	RemainingEUR float64 `json:"remaining_eur"`
	Lookups      int     `json:"lookups"`
	GeocodeCalls int     `json:"geocode_calls"`
}

// Summary returns the current spend snapshot.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		SpentEUR:     t.spent,
		RemainingEUR: t.balance - t.spent,
		Lookups:      t.lookups,
		GeocodeCalls: t.geocode,
	}
}
