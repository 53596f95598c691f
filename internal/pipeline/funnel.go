package pipeline

import (
	"math"

	"go.uber.org/zap"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// CampaignInput is the full row set a funnel run reduces over. Parcels is
// the campaign input list; Records are the registry rows actually
// retrieved; Addresses are the geocoded candidate addresses for the
// discovered owners.
type CampaignInput struct {
	Parcels   []model.ParcelInput        `json:"parcels"`
	Records   []model.RawOwnershipRecord `json:"records"`
	Addresses []model.CandidateAddress   `json:"addresses"`
}

// BuildFunnels computes the ordered stage metrics for both campaign
// funnels from the full classified row set. It cannot stream: conversion
// and retention rates are computed against global first-stage totals, so
// it runs only after every address has been classified.
func BuildFunnels(input CampaignInput, classified []model.ClassifiedAddress) (land, contact []model.FunnelStageMetric) {
	land = buildLandFunnel(input)
	contact = buildContactFunnel(input, classified, land)

	zap.L().Debug("funnel: stages computed",
		zap.Int("land_stages", len(land)),
		zap.Int("contact_stages", len(contact)),
	)
	return land, contact
}

// buildLandFunnel tracks parcels from campaign input through registry
// retrieval and the ownership filters. Count and Hectares are parcel-key
// deduplicated at every stage.
func buildLandFunnel(input CampaignInput) []model.FunnelStageMetric {
	inputAcc := NewAreaAccumulator()
	for _, p := range input.Parcels {
		inputAcc.Add(ParcelKeyForInput(p), p.AreaHa)
	}

	// Representative area per key comes from the input list when present,
	// otherwise from the first registry row for the key.
	areaOf := func(key model.ParcelKey, recordArea float64) float64 {
		if ha, ok := inputArea(inputAcc, key); ok {
			return ha
		}
		return recordArea
	}

	retrieved := NewAreaAccumulator()
	private := NewAreaAccumulator()
	categoryA := NewAreaAccumulator()
	for _, r := range input.Records {
		key := ResolveParcelKey(r)
		retrieved.Add(key, areaOf(key, r.AreaHa))
		if r.IsPrivateOwner() {
			private.Add(key, areaOf(key, r.AreaHa))
			if r.IsResidential() {
				categoryA.Add(key, areaOf(key, r.AreaHa))
			}
		}
	}

	// A campaign may be replayed from stored registry rows without the
	// original input file; the retrieved set then doubles as the input set.
	if inputAcc.Count() == 0 {
		inputAcc = retrieved
	}

	stages := []stageCount{
		{model.StageInputParcels, inputAcc.Count(), inputAcc.Hectares(), false,
			"parcels listed in the campaign input file"},
		{model.StageAPIRetrieved, retrieved.Count(), retrieved.Hectares(), false,
			"parcels for which the registry returned ownership data"},
		{model.StagePrivateOwners, private.Count(), private.Hectares(), false,
			"parcels with at least one natural-person owner"},
		{model.StageCategoryAFilter, categoryA.Count(), categoryA.Hectares(), false,
			"parcels with a residential (Cat.A) building"},
	}
	return materializeStages(model.FunnelLandAcquisition, stages, nil)
}

// buildContactFunnel tracks owners and addresses downstream of the
// qualifying parcels. Its first stage converts against the land funnel's
// last stage and may exceed 100%: one parcel fans out to many owners.
func buildContactFunnel(input CampaignInput, classified []model.ClassifiedAddress, land []model.FunnelStageMetric) []model.FunnelStageMetric {
	// Qualifying parcels and the owners on them.
	qualifying := make(map[model.ParcelKey]float64)
	ownerParcels := make(map[string]map[model.ParcelKey]float64)
	for _, r := range input.Records {
		if !r.IsPrivateOwner() || !r.IsResidential() {
			continue
		}
		key := ResolveParcelKey(r)
		if _, ok := qualifying[key]; !ok {
			qualifying[key] = r.AreaHa
		}
		if ownerParcels[r.OwnerCF] == nil {
			ownerParcels[r.OwnerCF] = make(map[model.ParcelKey]float64)
		}
		ownerParcels[r.OwnerCF][key] = qualifying[key]
	}

	ownersWithAddresses := make(map[string]bool)
	for _, a := range input.Addresses {
		ownersWithAddresses[a.OwnerCF] = true
	}

	directOwners := make(map[string]bool)
	agencyOwners := make(map[string]bool)
	var directCount, agencyCount int
	for _, c := range classified {
		switch c.Channel {
		case model.ChannelDirectMail:
			directCount++
			directOwners[c.OwnerCF] = true
		case model.ChannelAgency:
			agencyCount++
			agencyOwners[c.OwnerCF] = true
		}
	}

	addressHa := ownerHectares(ownerParcels, ownersWithAddresses)
	stages := []stageCount{
		{model.StageOwnerDiscovery, len(ownerParcels), hectaresOf(qualifying), true,
			"distinct owner tax codes on qualifying parcels; may exceed the parcel count"},
		{model.StageAddressExpansion, len(input.Addresses), addressHa, true,
			"candidate mailing addresses resolved for the discovered owners"},
		{model.StageAddressValidation, len(input.Addresses), addressHa, false,
			"geocoding enrichment only: no rows are dropped at this stage"},
		{model.StageDirectMailReady, directCount, ownerHectares(ownerParcels, directOwners), false,
			"addresses confident enough for unattended direct-mail printing"},
		{model.StageAgencyRequired, agencyCount, ownerHectares(ownerParcels, agencyOwners), false,
			"addresses routed to manual or agency investigation"},
	}

	var prevFunnelCount *int
	if len(land) > 0 {
		prevFunnelCount = &land[len(land)-1].Count
	}
	metrics := materializeStages(model.FunnelContactProcessing, stages, prevFunnelCount)

	// Address Validation drops nothing, so its conversion rate is
	// meaningless and stays nil rather than reporting a trivial 100%.
	for i := range metrics {
		if metrics[i].StageName == model.StageAddressValidation {
			metrics[i].ConversionRate = nil
		}
	}
	return metrics
}

// stageCount is an intermediate per-stage tally before rates are attached.
type stageCount struct {
	name           string
	count          int
	hectares       float64
	growthExpected bool
	rule           string
}

// materializeStages turns raw stage tallies into ordered metrics with
// conversion and retention rates. prevFunnelCount, when non-nil, is the
// final count of the preceding funnel and seeds the first stage's
// conversion rate (the Owner Discovery boundary).
func materializeStages(ft model.FunnelType, stages []stageCount, prevFunnelCount *int) []model.FunnelStageMetric {
	metrics := make([]model.FunnelStageMetric, 0, len(stages))
	for i, s := range stages {
		m := model.FunnelStageMetric{
			FunnelType:     ft,
			StageIndex:     i,
			StageName:      s.name,
			Count:          s.count,
			Hectares:       round2(s.hectares),
			BusinessRule:   s.rule,
			GrowthExpected: s.growthExpected,
		}

		switch {
		case i > 0:
			m.ConversionRate = rate(s.count, stages[i-1].count)
			m.RetentionRate = derefOr(rate(s.count, stages[0].count), 0)
		case prevFunnelCount != nil:
			m.ConversionRate = rate(s.count, *prevFunnelCount)
			m.RetentionRate = 100.0
		default:
			m.RetentionRate = 100.0
		}

		metrics = append(metrics, m)
	}
	return metrics
}

// rate returns num/den as a percentage rounded to one decimal, or nil when
// the denominator is zero.
func rate(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := round1(float64(num) / float64(den) * 100)
	return &v
}

func derefOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func inputArea(acc *AreaAccumulator, key model.ParcelKey) (float64, bool) {
	if !acc.Has(key) {
		return 0, false
	}
	return acc.seen[key], true
}

func hectaresOf(parcels map[model.ParcelKey]float64) float64 {
	var total float64
	for _, ha := range parcels {
		total += ha
	}
	return total
}

// ownerHectares sums qualifying-parcel area once per parcel key across the
// given owner set.
func ownerHectares(ownerParcels map[string]map[model.ParcelKey]float64, owners map[string]bool) float64 {
	seen := make(map[model.ParcelKey]bool)
	var total float64
	for cf := range owners {
		for key, ha := range ownerParcels[cf] {
			if !seen[key] {
				seen[key] = true
				total += ha
			}
		}
	}
	return total
}
