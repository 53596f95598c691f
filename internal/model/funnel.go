package model

import "time"

// FunnelType names one of the two campaign funnels.
type FunnelType string

const (
	FunnelLandAcquisition   FunnelType = "land_acquisition"
	FunnelContactProcessing FunnelType = "contact_processing"
)

// Land Acquisition funnel stage names, in order.
const (
	StageInputParcels    = "Input Parcels"
	StageAPIRetrieved    = "API Data Retrieved"
	StagePrivateOwners   = "Private Owners Only"
	StageCategoryAFilter = "Category-A Filter"
)

// Contact Processing funnel stage names, in order.
const (
	StageOwnerDiscovery    = "Owner Discovery"
	StageAddressExpansion  = "Address Expansion"
	StageAddressValidation = "Address Validation"
	StageDirectMailReady   = "Direct Mail Ready"
	StageAgencyRequired    = "Agency Required"
)

// FunnelStageMetric is one row of an ordered stage list within a funnel.
// ConversionRate is nil for the very first stage of the campaign and for
// enrichment-only stages that drop no rows. RetentionRate is relative to
// the funnel's first stage (100 at the first stage itself).
// GrowthExpected marks stages where the count may legitimately exceed the
// previous stage (one parcel fans out to many owners, one owner to many
// addresses); the consistency validator skips the shrink check there.
type FunnelStageMetric struct {
	FunnelType     FunnelType `json:"funnel_type"`
	StageIndex     int        `json:"stage_index"`
	StageName      string     `json:"stage_name"`
	Count          int        `json:"count"`
	Hectares       float64    `json:"hectares"`
	ConversionRate *float64   `json:"conversion_rate,omitempty"`
	RetentionRate  float64    `json:"retention_rate"`
	BusinessRule   string     `json:"business_rule"`
	GrowthExpected bool       `json:"growth_expected,omitempty"`
}

// QualityDistributionEntry aggregates classified addresses per confidence
// tier across an entire campaign. Percentages over all entries sum to
// 100 within 0.1 and counts sum to the candidate address total.
type QualityDistributionEntry struct {
	Tier       ConfidenceTier `json:"confidence_tier"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// ConsistencyViolation is a structured cross-view mismatch. It is returned
// as data, never raised as control flow: the caller decides whether to log
// and continue or abort the campaign.
type ConsistencyViolation struct {
	CheckName string  `json:"check_name"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Detail    string  `json:"detail,omitempty"`
}

// CampaignStatus tracks a stored campaign run.
type CampaignStatus string

const (
	CampaignQueued      CampaignStatus = "queued"
	CampaignClassifying CampaignStatus = "classifying"
	CampaignAggregating CampaignStatus = "aggregating"
	CampaignComplete    CampaignStatus = "complete"
	CampaignFailed      CampaignStatus = "failed"
)

// Campaign is a stored pipeline run.
type Campaign struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    CampaignStatus  `json:"status"`
	Result    *CampaignResult `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CampaignResult is the full output of one pipeline run over a campaign.
type CampaignResult struct {
	Classified     []ClassifiedAddress        `json:"classified"`
	LandFunnel     []FunnelStageMetric        `json:"land_funnel"`
	ContactFunnel  []FunnelStageMetric        `json:"contact_funnel"`
	Distribution   []QualityDistributionEntry `json:"distribution"`
	Violations     []ConsistencyViolation     `json:"violations"`
	TotalAddresses int                        `json:"total_addresses"`
	TotalCostEUR   float64                    `json:"total_cost_eur,omitempty"`
}
