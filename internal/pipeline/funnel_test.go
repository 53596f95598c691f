package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// ownerCF fabricates a 16-character natural-person tax code.
func ownerCF(i int) string { return fmt.Sprintf("OWNER%011d", i) }

// campaignFixture models a small campaign: 10 input parcels (56.9 ha), all
// retrieved with private owners, 8 of them residential (53.0 ha), 13
// distinct owners on the qualifying parcels and 23 candidate addresses.
func campaignFixture() CampaignInput {
	var input CampaignInput

	// 8 qualifying parcels at 6.625 ha each (53.0 total), 2 non-residential
	// at 1.95 each (56.9 grand total).
	for i := 0; i < 10; i++ {
		area := 6.625
		if i >= 8 {
			area = 1.95
		}
		input.Parcels = append(input.Parcels, model.ParcelInput{
			Municipality: "SALERANO SUL LAMBRO",
			Foglio:       "4",
			Particella:   fmt.Sprintf("%d", 100+i),
			AreaHa:       area,
		})
	}

	// Owners per qualifying parcel: 3+2+2+2+1+1+1+1 = 13 distinct.
	ownersPerParcel := []int{3, 2, 2, 2, 1, 1, 1, 1}
	owner := 0
	for i, n := range ownersPerParcel {
		for j := 0; j < n; j++ {
			input.Records = append(input.Records, model.RawOwnershipRecord{
				Municipality: "SALERANO SUL LAMBRO",
				Province:     "LO",
				Foglio:       "4",
				Particella:   fmt.Sprintf("%d", 100+i),
				AreaHa:       6.625,
				OwnerCF:      ownerCF(owner),
				OwnerName:    fmt.Sprintf("Owner %d", owner),
				CategoryCode: "Cat.A/2",
				Quota:        "1/2",
			})
			owner++
		}
	}

	// The two non-residential parcels still have private owners.
	for i := 8; i < 10; i++ {
		input.Records = append(input.Records, model.RawOwnershipRecord{
			Municipality: "SALERANO SUL LAMBRO",
			Province:     "LO",
			Foglio:       "4",
			Particella:   fmt.Sprintf("%d", 100+i),
			AreaHa:       1.95,
			OwnerCF:      ownerCF(50 + i),
			CategoryCode: "Cat.C/2",
		})
	}

	// 23 addresses: ten owners with two addresses each, three with one.
	for i := 0; i < 13; i++ {
		n := 2
		if i >= 10 {
			n = 1
		}
		for j := 0; j < n; j++ {
			input.Addresses = append(input.Addresses, model.CandidateAddress{
				OwnerCF:    ownerCF(i),
				RawAddress: fmt.Sprintf("SALERANO SUL LAMBRO(LO) VIA ROMA n. %d", i+j+1),
				Status:     model.GeocodingSuccess,
			})
		}
	}

	return input
}

// classifiedFixture routes 18 fixture addresses to direct mail and 5 to
// agency, keyed to the fixture owners.
func classifiedFixture(input CampaignInput) []model.ClassifiedAddress {
	classified := make([]model.ClassifiedAddress, 0, len(input.Addresses))
	for i, a := range input.Addresses {
		c := model.ClassifiedAddress{OwnerCF: a.OwnerCF, Tier: model.TierHigh, Channel: model.ChannelDirectMail}
		if i >= 18 {
			c = model.ClassifiedAddress{OwnerCF: a.OwnerCF, Tier: model.TierLow, Channel: model.ChannelAgency}
		}
		classified = append(classified, c)
	}
	return classified
}

func TestBuildLandFunnel(t *testing.T) {
	input := campaignFixture()
	land, _ := BuildFunnels(input, nil)
	require.Len(t, land, 4)

	assert.Equal(t, model.StageInputParcels, land[0].StageName)
	assert.Equal(t, 10, land[0].Count)
	assert.InDelta(t, 56.9, land[0].Hectares, 0.01)
	assert.Nil(t, land[0].ConversionRate)
	assert.InDelta(t, 100.0, land[0].RetentionRate, 0.001)

	assert.Equal(t, 10, land[1].Count) // all parcels retrieved
	assert.Equal(t, 10, land[2].Count) // all have private owners

	catA := land[3]
	assert.Equal(t, model.StageCategoryAFilter, catA.StageName)
	assert.Equal(t, 8, catA.Count)
	assert.InDelta(t, 53.0, catA.Hectares, 0.01)
	require.NotNil(t, catA.ConversionRate)
	assert.InDelta(t, 80.0, *catA.ConversionRate, 0.001)
	assert.InDelta(t, 80.0, catA.RetentionRate, 0.001)
}

func TestBuildContactFunnel(t *testing.T) {
	input := campaignFixture()
	classified := classifiedFixture(input)
	_, contact := BuildFunnels(input, classified)
	require.Len(t, contact, 5)

	discovery := contact[0]
	assert.Equal(t, model.StageOwnerDiscovery, discovery.StageName)
	assert.Equal(t, 13, discovery.Count)
	assert.True(t, discovery.GrowthExpected)
	// Conversion against the previous funnel's final stage (8 parcels):
	// >100% is the documented fan-out, not an error.
	require.NotNil(t, discovery.ConversionRate)
	assert.InDelta(t, 162.5, *discovery.ConversionRate, 0.001)
	assert.InDelta(t, 100.0, discovery.RetentionRate, 0.001)

	expansion := contact[1]
	assert.Equal(t, 23, expansion.Count)
	assert.True(t, expansion.GrowthExpected)

	validation := contact[2]
	assert.Equal(t, model.StageAddressValidation, validation.StageName)
	assert.Equal(t, 23, validation.Count)
	assert.Nil(t, validation.ConversionRate, "enrichment-only stage drops nothing")

	direct, agency := contact[3], contact[4]
	assert.Equal(t, 18, direct.Count)
	assert.Equal(t, 5, agency.Count)
	assert.Equal(t, 23, direct.Count+agency.Count, "routing split must cover every address")
}

func TestBuildFunnelsEmptyCampaign(t *testing.T) {
	land, contact := BuildFunnels(CampaignInput{}, nil)
	require.Len(t, land, 4)
	require.Len(t, contact, 5)
	for _, m := range append(land, contact...) {
		assert.Zero(t, m.Count)
	}
}

// Without the input file (replay from stored registry rows) the retrieved
// set doubles as the input stage.
func TestBuildLandFunnelWithoutInputFile(t *testing.T) {
	input := campaignFixture()
	input.Parcels = nil

	land, _ := BuildFunnels(input, nil)
	assert.Equal(t, 10, land[0].Count)
	assert.Equal(t, land[1].Count, land[0].Count)
}

// Hectares can only shrink along a funnel: no stage may exceed the first
// stage of its funnel.
func TestFunnelHectaresNeverGrow(t *testing.T) {
	input := campaignFixture()
	land, contact := BuildFunnels(input, classifiedFixture(input))

	for _, stages := range [][]model.FunnelStageMetric{land, contact} {
		first := stages[0].Hectares
		for _, s := range stages[1:] {
			assert.LessOrEqual(t, s.Hectares, first+0.01, s.StageName)
		}
	}
}
