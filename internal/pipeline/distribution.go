package pipeline

import "github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"

// BuildDistribution rolls classified addresses up into per-tier counts and
// percentages, in display order. Counts sum to the classified total;
// percentages sum to 100 within rounding noise.
func BuildDistribution(classified []model.ClassifiedAddress) []model.QualityDistributionEntry {
	counts := make(map[model.ConfidenceTier]int, len(model.Tiers))
	for _, c := range classified {
		counts[c.Tier]++
	}

	total := len(classified)
	entries := make([]model.QualityDistributionEntry, 0, len(model.Tiers))
	for _, tier := range model.Tiers {
		e := model.QualityDistributionEntry{Tier: tier, Count: counts[tier]}
		if total > 0 {
			e.Percentage = round2(float64(counts[tier]) / float64(total) * 100)
		}
		entries = append(entries, e)
	}
	return entries
}
