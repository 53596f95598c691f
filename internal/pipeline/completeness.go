package pipeline

import "github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"

// CompletenessScorer scores how many geocoded fields are present on a
// candidate address, in [0,1].
type CompletenessScorer interface {
	Score(addr model.CandidateAddress) float64
}

// NewCompletenessScorer returns the scorer variant in effect. The plain
// 4-field scorer is the default; the classifier's rule-table cutoffs are
// calibrated against it.
func NewCompletenessScorer(weighted bool) CompletenessScorer {
	if weighted {
		return weightedFieldScorer{}
	}
	return requiredFieldScorer{}
}

// requiredFieldScorer counts the four required geocoded fields.
type requiredFieldScorer struct{}

func (requiredFieldScorer) Score(addr model.CandidateAddress) float64 {
	return float64(countRequired(addr)) / 4.0
}

// weightedFieldScorer weights the four required fields at 80% and the
// optional latitude/longitude/country fields at 20%.
type weightedFieldScorer struct{}

func (weightedFieldScorer) Score(addr model.CandidateAddress) float64 {
	required := float64(countRequired(addr)) / 4.0

	optional := 0
	if addr.Latitude != nil {
		optional++
	}
	if addr.Longitude != nil {
		optional++
	}
	if addr.Country != "" {
		optional++
	}

	return required*0.8 + float64(optional)/3.0*0.2
}

func countRequired(addr model.CandidateAddress) int {
	n := 0
	if addr.StreetName != "" {
		n++
	}
	if addr.PostalCode != "" {
		n++
	}
	if addr.City != "" {
		n++
	}
	if addr.ProvinceName != "" {
		n++
	}
	return n
}
