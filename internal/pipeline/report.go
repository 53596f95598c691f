package pipeline

import (
	"time"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// CampaignReport packages a campaign result into the record shapes the
// report writer consumes: one classification row per candidate address,
// the ordered funnel stages, the distribution, and any violations.
type CampaignReport struct {
	CampaignID   string                           `json:"campaign_id"`
	CampaignName string                           `json:"campaign_name"`
	GeneratedAt  time.Time                        `json:"generated_at"`
	Rows         []ClassificationRow              `json:"rows"`
	Funnels      [][]model.FunnelStageMetric      `json:"funnels"`
	Distribution []model.QualityDistributionEntry `json:"distribution"`
	Violations   []model.ConsistencyViolation     `json:"violations"`
	Summary      ReportSummary                    `json:"summary"`
}

// ClassificationRow is one address in the report's classification sheet.
type ClassificationRow struct {
	OwnerCF      string               `json:"owner_cf"`
	RawAddress   string               `json:"raw_address"`
	BestAddress  string               `json:"best_address"`
	Tier         model.ConfidenceTier `json:"confidence_tier"`
	Channel      model.RoutingChannel `json:"routing_channel"`
	MatchType    model.MatchType      `json:"match_type"`
	Completeness float64              `json:"completeness_score"`
	QualityNotes string               `json:"quality_notes"`
	Reasoning    string               `json:"reasoning"`
}

// ReportSummary carries the executive headline numbers.
type ReportSummary struct {
	TotalAddresses int     `json:"total_addresses"`
	DirectMail     int     `json:"direct_mail"`
	Agency         int     `json:"agency"`
	TotalCostEUR   float64 `json:"total_cost_eur,omitempty"`
}

// AssembleReport builds the writer-facing report from a campaign result
// and its input rows. Classification rows keep the input order.
func AssembleReport(campaign model.Campaign, input CampaignInput, res *model.CampaignResult) *CampaignReport {
	rows := make([]ClassificationRow, 0, len(res.Classified))
	for i, c := range res.Classified {
		row := ClassificationRow{
			OwnerCF:      c.OwnerCF,
			BestAddress:  c.BestAddress,
			Tier:         c.Tier,
			Channel:      c.Channel,
			MatchType:    c.MatchType,
			Completeness: c.CompletenessScore,
			QualityNotes: c.QualityNotes,
			Reasoning:    c.Reasoning,
		}
		if i < len(input.Addresses) {
			row.RawAddress = input.Addresses[i].RawAddress
		}
		rows = append(rows, row)
	}

	return &CampaignReport{
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		GeneratedAt:  time.Now().UTC(),
		Rows:         rows,
		Funnels:      [][]model.FunnelStageMetric{res.LandFunnel, res.ContactFunnel},
		Distribution: res.Distribution,
		Violations:   res.Violations,
		Summary: ReportSummary{
			TotalAddresses: res.TotalAddresses,
			DirectMail:     countChannel(res.Classified, model.ChannelDirectMail),
			Agency:         countChannel(res.Classified, model.ChannelAgency),
			TotalCostEUR:   res.TotalCostEUR,
		},
	}
}
