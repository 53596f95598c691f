// Package fetcher parses campaign input files: cadastral registry CSV
// exports and parcel XLSX sheets.
package fetcher

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// CSVOptions configures the registry CSV parsers.
type CSVOptions struct {
	Delimiter   rune // default ';', the registry export convention
	Windows1252 bool // registry exports are Windows-1252, not UTF-8
}

// commaFloat parses Italian-formatted decimals ("56,9", "1.234,56").
type commaFloat float64

func (f *commaFloat) UnmarshalCSV(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" {
		*f = 0
		return nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "csv: parse decimal %q", string(data))
	}
	*f = commaFloat(v)
	return nil
}

type ownershipRow struct {
	Municipality string     `csv:"comune"`
	Province     string     `csv:"provincia"`
	Foglio       string     `csv:"foglio"`
	Particella   string     `csv:"particella"`
	AreaHa       commaFloat `csv:"superficie_ha"`
	OwnerCF      string     `csv:"codice_fiscale"`
	OwnerName    string     `csv:"intestatario"`
	CategoryCode string     `csv:"categoria"`
	Quota        string     `csv:"quota"`
}

// ReadOwnershipCSV parses a registry ownership export into RawOwnershipRecords.
// Area decimals use the Italian comma convention and are normalized here, at
// the boundary; everything downstream sees float64 hectares.
func ReadOwnershipCSV(r io.Reader, opts CSVOptions) ([]model.RawOwnershipRecord, error) {
	dec, err := newDecoder(r, opts)
	if err != nil {
		return nil, err
	}

	var records []model.RawOwnershipRecord
	for {
		var row ownershipRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "csv: decode ownership row")
		}
		records = append(records, model.RawOwnershipRecord{
			Municipality: strings.TrimSpace(row.Municipality),
			Province:     strings.TrimSpace(row.Province),
			Foglio:       strings.TrimSpace(row.Foglio),
			Particella:   strings.TrimSpace(row.Particella),
			AreaHa:       float64(row.AreaHa),
			OwnerCF:      strings.ToUpper(strings.TrimSpace(row.OwnerCF)),
			OwnerName:    strings.TrimSpace(row.OwnerName),
			CategoryCode: strings.TrimSpace(row.CategoryCode),
			Quota:        strings.TrimSpace(row.Quota),
		})
	}
	return records, nil
}

type addressRow struct {
	OwnerCF         string     `csv:"codice_fiscale"`
	RawAddress      string     `csv:"indirizzo"`
	GeocodedAddress string     `csv:"indirizzo_geocodificato"`
	Status          string     `csv:"esito_geocoding"`
	StreetName      string     `csv:"via"`
	PostalCode      string     `csv:"cap"`
	City            string     `csv:"citta"`
	ProvinceName    string     `csv:"provincia"`
	ProvinceCode    string     `csv:"sigla_provincia"`
	Country         string     `csv:"paese"`
	Latitude        commaFloat `csv:"latitudine"`
	Longitude       commaFloat `csv:"longitudine"`
}

// ReadAddressCSV parses owner mailing addresses, optionally carrying a prior
// geocoding result. Rows without an esito_geocoding value are marked
// not_attempted so the pipeline knows to geocode them.
func ReadAddressCSV(r io.Reader, opts CSVOptions) ([]model.CandidateAddress, error) {
	dec, err := newDecoder(r, opts)
	if err != nil {
		return nil, err
	}

	var addresses []model.CandidateAddress
	for {
		var row addressRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "csv: decode address row")
		}

		addr := model.CandidateAddress{
			OwnerCF:         strings.ToUpper(strings.TrimSpace(row.OwnerCF)),
			RawAddress:      strings.TrimSpace(row.RawAddress),
			GeocodedAddress: strings.TrimSpace(row.GeocodedAddress),
			Status:          parseGeocodingStatus(row.Status),
			StreetName:      strings.TrimSpace(row.StreetName),
			PostalCode:      strings.TrimSpace(row.PostalCode),
			City:            strings.TrimSpace(row.City),
			ProvinceName:    strings.TrimSpace(row.ProvinceName),
			ProvinceCode:    strings.TrimSpace(row.ProvinceCode),
			Country:         strings.TrimSpace(row.Country),
		}
		if row.Latitude != 0 || row.Longitude != 0 {
			lat, lon := float64(row.Latitude), float64(row.Longitude)
			addr.Latitude = &lat
			addr.Longitude = &lon
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

func parseGeocodingStatus(s string) model.GeocodingStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "ok":
		return model.GeocodingSuccess
	case "failed", "error":
		return model.GeocodingFailed
	default:
		return model.GeocodingNotAttempted
	}
}

func newDecoder(r io.Reader, opts CSVOptions) (*csvutil.Decoder, error) {
	if opts.Windows1252 {
		r = charmap.Windows1252.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	reader.Comma = ';'
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	return dec, nil
}
