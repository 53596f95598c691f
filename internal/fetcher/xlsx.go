package fetcher

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// ParcelXLSXOptions configures the parcel sheet parser.
type ParcelXLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipRows   int    // header rows to skip, default 1
}

// ReadParcelXLSX reads the campaign parcel list from an XLSX sheet. Expected
// columns: comune, foglio, particella, superficie_ha.
func ReadParcelXLSX(path string, opts ParcelXLSXOptions) ([]model.ParcelInput, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	skip := opts.SkipRows
	if skip == 0 {
		skip = 1
	}

	var parcels []model.ParcelInput
	for i, row := range sheet.Rows {
		if i < skip {
			continue
		}
		cells := rowToStrings(row)
		if len(cells) < 3 || strings.TrimSpace(cells[0]) == "" {
			continue
		}

		p := model.ParcelInput{
			Municipality: strings.TrimSpace(cells[0]),
			Foglio:       strings.TrimSpace(cells[1]),
			Particella:   strings.TrimSpace(cells[2]),
		}
		if len(cells) > 3 {
			area, err := parseArea(cells[3])
			if err != nil {
				return nil, eris.Wrapf(err, "xlsx: row %d", i+1)
			}
			p.AreaHa = area
		}
		parcels = append(parcels, p)
	}
	return parcels, nil
}

// parseArea accepts both dot and Italian comma decimal formats.
func parseArea(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse area %q", s)
	}
	return v, nil
}

func getSheet(f *xlsx.File, opts ParcelXLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
