package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatorParcelLookup(t *testing.T) {
	calc := NewCalculator(DefaultRates())

	assert.InDelta(t, 1.06, calc.ParcelLookup(false), 0.0001)
	assert.InDelta(t, 1.35, calc.ParcelLookup(true), 0.0001)
}

func TestCalculatorGeocodeRequest(t *testing.T) {
	calc := NewCalculator(Rates{Geocode: GeocodeRate{PerRequest: 0.005}})

	assert.InDelta(t, 0.005, calc.GeocodeRequest(), 0.0001)
}

func TestTrackerSummary(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultRates()), 100)

	for i := 0; i < 10; i++ {
		tr.RecordParcelLookup(false)
	}
	for i := 0; i < 23; i++ {
		tr.RecordGeocode()
	}

	s := tr.Summary()
	assert.InDelta(t, 10*1.06+23*0.005, s.SpentEUR, 0.0001)
	assert.InDelta(t, 100-s.SpentEUR, s.RemainingEUR, 0.0001)
	assert.Equal(t, 10, s.Lookups)
	assert.Equal(t, 23, s.GeocodeCalls)
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker(NewCalculator(DefaultRates()), 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordGeocode()
		}()
	}
	wg.Wait()

	s := tr.Summary()
	assert.Equal(t, 50, s.GeocodeCalls)
	assert.InDelta(t, 50*0.005, s.SpentEUR, 0.0001)
}
