package pipeline

import (
	"strings"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// ResolveParcelKey derives the canonical dedup key for an ownership
// record. All aggregation groups by this key so that a parcel with many
// owners is counted, and its area summed, exactly once.
func ResolveParcelKey(r model.RawOwnershipRecord) model.ParcelKey {
	return model.ParcelKey{
		Municipality: strings.ToUpper(strings.TrimSpace(r.Municipality)),
		Foglio:       strings.TrimSpace(r.Foglio),
		Particella:   strings.TrimSpace(r.Particella),
	}
}

// ParcelKeyForInput derives the same key from a campaign input row.
func ParcelKeyForInput(p model.ParcelInput) model.ParcelKey {
	return model.ParcelKey{
		Municipality: strings.ToUpper(strings.TrimSpace(p.Municipality)),
		Foglio:       strings.TrimSpace(p.Foglio),
		Particella:   strings.TrimSpace(p.Particella),
	}
}

// AreaAccumulator sums hectares once per parcel key. The first area seen
// for a key is the representative one; later rows for the same parcel
// (additional owners) contribute nothing.
type AreaAccumulator struct {
	seen map[model.ParcelKey]float64
}

// NewAreaAccumulator returns an empty accumulator.
func NewAreaAccumulator() *AreaAccumulator {
	return &AreaAccumulator{seen: make(map[model.ParcelKey]float64)}
}

// Add records the parcel if its key is new and reports whether it was.
func (a *AreaAccumulator) Add(key model.ParcelKey, areaHa float64) bool {
	if _, ok := a.seen[key]; ok {
		return false
	}
	a.seen[key] = areaHa
	return true
}

// Has reports whether the key has been recorded.
func (a *AreaAccumulator) Has(key model.ParcelKey) bool {
	_, ok := a.seen[key]
	return ok
}

// Count returns the number of distinct parcels recorded.
func (a *AreaAccumulator) Count() int { return len(a.seen) }

// Hectares returns the deduplicated area total.
func (a *AreaAccumulator) Hectares() float64 {
	var total float64
	for _, ha := range a.seen {
		total += ha
	}
	return total
}

// Keys returns the recorded parcel keys in unspecified order.
func (a *AreaAccumulator) Keys() []model.ParcelKey {
	keys := make([]model.ParcelKey, 0, len(a.seen))
	for k := range a.seen {
		keys = append(keys, k)
	}
	return keys
}
