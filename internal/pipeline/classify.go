package pipeline

import (
	"strings"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/config"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// Classifier assigns a confidence tier and routing channel to each
// candidate address via a deterministic, top-down rule table. It is a pure
// function of its inputs: no I/O, no clock, no randomness, and it never
// fails; a single unparseable address must not block the campaign.
type Classifier struct {
	completeness CompletenessScorer
	ultraHighCut float64
	highCut      float64
}

// NewClassifier builds a Classifier from the configured thresholds.
func NewClassifier(cfg config.ClassifierConfig) *Classifier {
	return &Classifier{
		completeness: NewCompletenessScorer(cfg.WeightedCompleteness),
		ultraHighCut: cfg.UltraHighCompleteness,
		highCut:      cfg.HighCompleteness,
	}
}

// Classify runs the decision table over one candidate address. Branches
// are evaluated top-down, first match wins; Reasoning records which branch
// fired.
func (c *Classifier) Classify(addr model.CandidateAddress) model.ClassifiedAddress {
	parsed := NormalizeAddress(addr.RawAddress)

	origNum := parsed.CivicNumber
	if origNum == "" && !HasSNCMarker(addr.RawAddress) {
		// The normalizer only understands the two canonical shapes; fall
		// back to generic extraction for free-form registry strings.
		origNum = ExtractCivicNumber(addr.RawAddress)
	}

	var geoNum string
	if addr.Geocoded() {
		geoNum = ExtractCivicNumber(addr.GeocodedAddress)
	}

	score := c.completeness.Score(addr)

	out := model.ClassifiedAddress{
		OwnerCF:           addr.OwnerCF,
		MatchType:         model.MatchNone,
		CompletenessScore: score,
		BestAddress:       addr.RawAddress,
	}

	// Branch 1: SNC, the registry recorded no civic number at all.
	if HasSNCMarker(addr.RawAddress) {
		if addr.Geocoded() && parsed.ProvinceCode != "" &&
			strings.EqualFold(parsed.ProvinceCode, addr.ProvinceCode) {
			out.Tier = model.TierMedium
			out.Channel = model.ChannelAgency
			out.QualityNotes = "SNC verified"
			out.Reasoning = "SNC address, geocoded province matches registry province"
			return out
		}
		out.Tier = model.TierLow
		out.Channel = model.ChannelAgency
		out.QualityNotes = "SNC unverified"
		out.Reasoning = "SNC address, no geocoding confirmation of the province"
		return out
	}

	// Branch 2: both sides carry a civic number, compare them.
	if origNum != "" && geoNum != "" {
		match := CompareCivicNumbers(origNum, geoNum)
		out.MatchType = match.MatchType
		out.Similarity = match.Similarity

		switch {
		case match.MatchType == model.MatchExact && score >= c.ultraHighCut:
			out.Tier = model.TierUltraHigh
			out.Channel = model.ChannelDirectMail
			out.BestAddress = addr.GeocodedAddress
			out.QualityNotes = "exact number, complete geocoding"
			out.Reasoning = "civic numbers identical and geocoded record is complete"

		case (match.MatchType == model.MatchExact || match.MatchType == model.MatchBase) && score >= c.highCut:
			out.Tier = model.TierHigh
			out.Channel = model.ChannelDirectMail
			out.BestAddress = addr.GeocodedAddress
			out.QualityNotes = "number match, sufficient geocoding"
			out.Reasoning = "civic number base matches and geocoded record is mostly complete"

		case match.MatchType == model.MatchAdjacent || match.MatchType == model.MatchClose:
			// The mismatch is resolved toward the registry: the cadastral
			// record is the source of truth when the geocoder lands a few
			// doors away.
			out.Tier = model.TierMedium
			out.Channel = model.ChannelDirectMail
			out.BestAddress = addr.RawAddress
			out.QualityNotes = "near-miss civic number, using registry address"
			out.Reasoning = match.Reason

		default:
			out.Tier = model.TierMedium
			out.Channel = model.ChannelDirectMail
			out.BestAddress = addr.RawAddress
			out.QualityNotes = "civic number mismatch, using registry address"
			out.Reasoning = match.Reason
		}
		return out
	}

	// Branch 3: registry has a number but geocoding produced none.
	if origNum != "" {
		out.Tier = model.TierMedium
		out.Channel = model.ChannelDirectMail
		out.QualityNotes = "unverified but numbered"
		out.Reasoning = "registry address carries a civic number; geocoding could not confirm it"
		return out
	}

	// Branch 4: the geocoder interpolated a number the registry never had.
	if geoNum != "" {
		out.Tier = model.TierLow
		out.Channel = model.ChannelAgency
		out.QualityNotes = "geocoding interpolated, untrustworthy"
		out.Reasoning = "no registry civic number but geocoder produced one by interpolation"
		return out
	}

	// Branch 5: neither source has a number.
	out.Tier = model.TierLow
	out.Channel = model.ChannelAgency
	out.QualityNotes = "no civic number available"
	out.Reasoning = "neither the registry nor the geocoder produced a civic number"
	return out
}
