package model

// ConfidenceTier grades how trustworthy a candidate address is for
// unattended direct-mail printing.
type ConfidenceTier string

const (
	TierUltraHigh ConfidenceTier = "ULTRA_HIGH"
	TierHigh      ConfidenceTier = "HIGH"
	TierMedium    ConfidenceTier = "MEDIUM"
	TierLow       ConfidenceTier = "LOW"
)

// Tiers lists all confidence tiers in display order, best first.
var Tiers = []ConfidenceTier{TierUltraHigh, TierHigh, TierMedium, TierLow}

// RoutingChannel decides where a classified address is sent. It is a
// deterministic function of the classifier's decision branch and is never
// mutated independently of the tier.
type RoutingChannel string

const (
	ChannelDirectMail RoutingChannel = "DIRECT_MAIL"
	ChannelAgency     RoutingChannel = "AGENCY"
)

// MatchType qualifies how the original civic number compares to the
// geocoded one.
type MatchType string

const (
	MatchExact      MatchType = "exact_match"
	MatchBase       MatchType = "base_match"
	MatchAdjacent   MatchType = "adjacent_number"
	MatchClose      MatchType = "close_number"
	MatchNearby     MatchType = "nearby_number"
	MatchDifferent  MatchType = "different_number"
	MatchNonNumeric MatchType = "non_numeric"
	MatchNone       MatchType = "no_match"
)

// ParsedAddress is the normalizer's structured view of a raw cadastral
// address string. Empty fields mean the component could not be recovered.
// CivicNumber preserves any alpha suffix ("34A").
type ParsedAddress struct {
	Municipality string `json:"municipality,omitempty"`
	ProvinceCode string `json:"province_code,omitempty"`
	Street       string `json:"street,omitempty"`
	CivicNumber  string `json:"civic_number,omitempty"`
}

// Parsed reports whether the normalizer recovered at least the street.
func (p ParsedAddress) Parsed() bool { return p.Street != "" }

// NumberMatch is the civic-number comparison result.
type NumberMatch struct {
	Similarity float64   `json:"similarity"`
	MatchType  MatchType `json:"match_type"`
	Reason     string    `json:"reason"`
}

// ClassifiedAddress is the classifier output attached 1:1 to a
// CandidateAddress. Reasoning records which decision branch fired so the
// routing can be audited after the fact.
type ClassifiedAddress struct {
	OwnerCF           string         `json:"owner_cf"`
	Tier              ConfidenceTier `json:"confidence_tier"`
	Channel           RoutingChannel `json:"routing_channel"`
	MatchType         MatchType      `json:"match_type"`
	Similarity        float64        `json:"similarity"`
	CompletenessScore float64        `json:"completeness_score"`
	BestAddress       string         `json:"best_address"`
	QualityNotes      string         `json:"quality_notes"`
	Reasoning         string         `json:"reasoning"`
}
