package pipeline

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// ValidateCampaign cross-checks the derived views of a campaign result
// against each other. Violations are returned as data, never raised: the
// aggregator keeps computing and the caller decides whether to log and
// continue or abort.
func ValidateCampaign(res *model.CampaignResult) []model.ConsistencyViolation {
	var violations []model.ConsistencyViolation

	violations = append(violations, checkRoutingSplit(res)...)
	violations = append(violations, checkDistribution(res)...)
	violations = append(violations, checkFunnelShape(res.LandFunnel)...)
	violations = append(violations, checkFunnelShape(res.ContactFunnel)...)

	for _, v := range violations {
		zap.L().Warn("consistency: check failed",
			zap.String("check", v.CheckName),
			zap.Float64("expected", v.Expected),
			zap.Float64("actual", v.Actual),
			zap.String("detail", v.Detail),
		)
	}
	return violations
}

// checkRoutingSplit verifies that every classified address landed in
// exactly one routing channel.
func checkRoutingSplit(res *model.CampaignResult) []model.ConsistencyViolation {
	var direct, agency int
	for _, c := range res.Classified {
		switch c.Channel {
		case model.ChannelDirectMail:
			direct++
		case model.ChannelAgency:
			agency++
		}
	}

	if direct+agency != res.TotalAddresses {
		return []model.ConsistencyViolation{{
			CheckName: "routing_split_total",
			Expected:  float64(res.TotalAddresses),
			Actual:    float64(direct + agency),
			Detail:    fmt.Sprintf("DIRECT_MAIL=%d + AGENCY=%d must equal the candidate address total", direct, agency),
		}}
	}
	return nil
}

// checkDistribution verifies the quality distribution reconciles with the
// address total and that its percentages sum to 100 within 0.1.
func checkDistribution(res *model.CampaignResult) []model.ConsistencyViolation {
	var violations []model.ConsistencyViolation

	var countSum int
	var pctSum float64
	for _, e := range res.Distribution {
		countSum += e.Count
		pctSum += e.Percentage
	}

	if countSum != res.TotalAddresses {
		violations = append(violations, model.ConsistencyViolation{
			CheckName: "distribution_count_total",
			Expected:  float64(res.TotalAddresses),
			Actual:    float64(countSum),
			Detail:    "tier counts must sum to the candidate address total",
		})
	}
	if res.TotalAddresses > 0 && math.Abs(pctSum-100.0) > 0.1 {
		violations = append(violations, model.ConsistencyViolation{
			CheckName: "distribution_percentage_total",
			Expected:  100.0,
			Actual:    pctSum,
			Detail:    "tier percentages must sum to 100 within 0.1",
		})
	}
	return violations
}

// checkFunnelShape verifies that counts only shrink through a funnel
// (except at stages where fan-out is documented) and that no stage carries
// more hectares than the funnel's first stage. Filtering can only remove
// area, never add it.
func checkFunnelShape(stages []model.FunnelStageMetric) []model.ConsistencyViolation {
	if len(stages) == 0 {
		return nil
	}

	var violations []model.ConsistencyViolation
	firstHa := stages[0].Hectares

	for i := 1; i < len(stages); i++ {
		cur, prev := stages[i], stages[i-1]

		if !cur.GrowthExpected && cur.Count > prev.Count {
			violations = append(violations, model.ConsistencyViolation{
				CheckName: "funnel_count_monotonic",
				Expected:  float64(prev.Count),
				Actual:    float64(cur.Count),
				Detail: fmt.Sprintf("%s: stage %q count exceeds %q without documented fan-out",
					cur.FunnelType, cur.StageName, prev.StageName),
			})
		}
	}

	// Small epsilon absorbs float rounding from per-stage hectare sums.
	const haEpsilon = 0.01
	for i := 1; i < len(stages); i++ {
		if stages[i].Hectares > firstHa+haEpsilon {
			violations = append(violations, model.ConsistencyViolation{
				CheckName: "funnel_hectares_bounded",
				Expected:  firstHa,
				Actual:    stages[i].Hectares,
				Detail: fmt.Sprintf("%s: stage %q hectares exceed the funnel's first stage",
					stages[i].FunnelType, stages[i].StageName),
			})
		}
	}
	return violations
}
