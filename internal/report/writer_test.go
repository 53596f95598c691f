package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/pipeline"
)

func sampleReport() *pipeline.CampaignReport {
	conv := 80.0
	return &pipeline.CampaignReport{
		CampaignID:   "c1",
		CampaignName: "salerano-q3",
		GeneratedAt:  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Rows: []pipeline.ClassificationRow{
			{
				OwnerCF:      "RSSMRA80A01F205X",
				RawAddress:   "Salerano sul Lambro(LO) Via Roma n. 12",
				BestAddress:  "Via Roma n. 12, 26857 Salerano sul Lambro Lodi",
				Tier:         model.TierUltraHigh,
				Channel:      model.ChannelDirectMail,
				MatchType:    model.MatchExact,
				Completeness: 1.0,
			},
			{
				OwnerCF:   "VRDLGI75B02G388Y",
				Tier:      model.TierLow,
				Channel:   model.ChannelAgency,
				MatchType: model.MatchNone,
			},
		},
		Funnels: [][]model.FunnelStageMetric{
			{
				{FunnelType: model.FunnelLandAcquisition, StageName: model.StageInputParcels, Count: 10, Hectares: 56.9, RetentionRate: 100},
				{FunnelType: model.FunnelLandAcquisition, StageName: model.StageAPIRetrieved, Count: 10, Hectares: 56.9, ConversionRate: &conv, RetentionRate: 100},
			},
			{
				{FunnelType: model.FunnelContactProcessing, StageName: model.StageOwnerDiscovery, Count: 13, RetentionRate: 100},
			},
		},
		Distribution: []model.QualityDistributionEntry{
			{Tier: model.TierUltraHigh, Count: 1, Percentage: 50},
			{Tier: model.TierLow, Count: 1, Percentage: 50},
		},
		Violations: nil,
		Summary:    pipeline.ReportSummary{TotalAddresses: 2, DirectMail: 1, Agency: 1, TotalCostEUR: 10.72},
	}
}

func TestBuildWorkbookSheets(t *testing.T) {
	f, err := BuildWorkbook(sampleReport())
	require.NoError(t, err)

	for _, name := range []string{
		sheetSummary, sheetClassification, sheetLandFunnel,
		sheetContactFunnel, sheetDistribution, sheetViolations,
	} {
		_, ok := f.Sheet[name]
		assert.True(t, ok, "missing sheet %q", name)
	}
}

func TestBuildWorkbookClassificationRows(t *testing.T) {
	f, err := BuildWorkbook(sampleReport())
	require.NoError(t, err)

	sheet := f.Sheet[sheetClassification]
	require.NotNil(t, sheet)
	// Header plus two data rows.
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Owner CF", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "RSSMRA80A01F205X", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "ULTRA_HIGH", sheet.Rows[1].Cells[3].String())
	assert.Equal(t, "AGENCY", sheet.Rows[2].Cells[4].String())
}

func TestBuildWorkbookFunnelConversion(t *testing.T) {
	f, err := BuildWorkbook(sampleReport())
	require.NoError(t, err)

	sheet := f.Sheet[sheetLandFunnel]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 3)

	// First stage has no conversion rate, second shows 80.
	assert.Equal(t, "", sheet.Rows[1].Cells[3].String())
	assert.Equal(t, "80", sheet.Rows[2].Cells[3].String())
}

func TestBuildWorkbookNoViolations(t *testing.T) {
	f, err := BuildWorkbook(sampleReport())
	require.NoError(t, err)

	sheet := f.Sheet[sheetViolations]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "No consistency violations", sheet.Rows[0].Cells[0].String())
}

func TestBuildWorkbookViolations(t *testing.T) {
	rep := sampleReport()
	rep.Violations = []model.ConsistencyViolation{
		{CheckName: "routing_split_total", Expected: 2, Actual: 3, Detail: "direct+agency != total"},
	}

	f, err := BuildWorkbook(rep)
	require.NoError(t, err)

	sheet := f.Sheet[sheetViolations]
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "routing_split_total", sheet.Rows[1].Cells[0].String())
}

func TestWriteWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.xlsx")
	require.NoError(t, WriteWorkbook(sampleReport(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[sheetSummary]
	require.True(t, ok)
	assert.Equal(t, "salerano-q3", sheet.Rows[0].Cells[1].String())
}
