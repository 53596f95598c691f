// Package report writes the campaign workbook: classification rows, both
// funnels, the quality distribution, and any consistency violations, one
// sheet each.
package report

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/pipeline"
)

const (
	sheetClassification = "Classification"
	sheetLandFunnel     = "Land Acquisition Funnel"
	sheetContactFunnel  = "Contact Processing Funnel"
	sheetDistribution   = "Quality Distribution"
	sheetViolations     = "Violations"
	sheetSummary        = "Summary"
)

// WriteWorkbook writes the campaign report to an XLSX file at path.
func WriteWorkbook(rep *pipeline.CampaignReport, path string) error {
	f, err := BuildWorkbook(rep)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save workbook")
	}
	return nil
}

// BuildWorkbook assembles the in-memory workbook for a campaign report.
func BuildWorkbook(rep *pipeline.CampaignReport) (*xlsx.File, error) {
	f := xlsx.NewFile()

	if err := addSummarySheet(f, rep); err != nil {
		return nil, err
	}
	if err := addClassificationSheet(f, rep.Rows); err != nil {
		return nil, err
	}

	funnelSheets := []string{sheetLandFunnel, sheetContactFunnel}
	for i, stages := range rep.Funnels {
		name := fmt.Sprintf("Funnel %d", i+1)
		if i < len(funnelSheets) {
			name = funnelSheets[i]
		}
		if err := addFunnelSheet(f, name, stages); err != nil {
			return nil, err
		}
	}

	if err := addDistributionSheet(f, rep.Distribution); err != nil {
		return nil, err
	}
	if err := addViolationsSheet(f, rep.Violations); err != nil {
		return nil, err
	}
	return f, nil
}

func addSummarySheet(f *xlsx.File, rep *pipeline.CampaignReport) error {
	sheet, err := f.AddSheet(sheetSummary)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	writeRow(sheet, "Campaign", rep.CampaignName)
	writeRow(sheet, "Campaign ID", rep.CampaignID)
	writeRow(sheet, "Generated", rep.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	writeRow(sheet, "Total Addresses", strconv.Itoa(rep.Summary.TotalAddresses))
	writeRow(sheet, "Direct Mail", strconv.Itoa(rep.Summary.DirectMail))
	writeRow(sheet, "Agency", strconv.Itoa(rep.Summary.Agency))
	if rep.Summary.TotalCostEUR > 0 {
		writeRow(sheet, "API Cost (EUR)", formatFloat(rep.Summary.TotalCostEUR))
	}
	return nil
}

func addClassificationSheet(f *xlsx.File, rows []pipeline.ClassificationRow) error {
	sheet, err := f.AddSheet(sheetClassification)
	if err != nil {
		return eris.Wrap(err, "report: add classification sheet")
	}

	writeRow(sheet,
		"Owner CF", "Raw Address", "Best Address", "Confidence", "Channel",
		"Match Type", "Completeness", "Quality Notes", "Reasoning")

	for _, r := range rows {
		writeRow(sheet,
			r.OwnerCF, r.RawAddress, r.BestAddress, string(r.Tier), string(r.Channel),
			string(r.MatchType), formatFloat(r.Completeness), r.QualityNotes, r.Reasoning)
	}
	return nil
}

func addFunnelSheet(f *xlsx.File, name string, stages []model.FunnelStageMetric) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %q", name)
	}

	writeRow(sheet, "Stage", "Count", "Hectares", "Conversion %", "Retention %", "Business Rule")
	for _, s := range stages {
		conversion := ""
		if s.ConversionRate != nil {
			conversion = formatFloat(*s.ConversionRate)
		}
		writeRow(sheet,
			s.StageName, strconv.Itoa(s.Count), formatFloat(s.Hectares),
			conversion, formatFloat(s.RetentionRate), s.BusinessRule)
	}
	return nil
}

func addDistributionSheet(f *xlsx.File, entries []model.QualityDistributionEntry) error {
	sheet, err := f.AddSheet(sheetDistribution)
	if err != nil {
		return eris.Wrap(err, "report: add distribution sheet")
	}

	writeRow(sheet, "Confidence", "Count", "Percentage")
	for _, e := range entries {
		writeRow(sheet, string(e.Tier), strconv.Itoa(e.Count), formatFloat(e.Percentage))
	}
	return nil
}

func addViolationsSheet(f *xlsx.File, violations []model.ConsistencyViolation) error {
	sheet, err := f.AddSheet(sheetViolations)
	if err != nil {
		return eris.Wrap(err, "report: add violations sheet")
	}

	if len(violations) == 0 {
		writeRow(sheet, "No consistency violations")
		return nil
	}

	writeRow(sheet, "Check", "Expected", "Actual", "Detail")
	for _, v := range violations {
		writeRow(sheet, v.CheckName, formatFloat(v.Expected), formatFloat(v.Actual), v.Detail)
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
