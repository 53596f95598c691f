package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

func TestReadOwnershipCSV(t *testing.T) {
	input := strings.Join([]string{
		"comune;provincia;foglio;particella;superficie_ha;codice_fiscale;intestatario;categoria;quota",
		"SALERANO SUL LAMBRO;LODI;4;118;6,625;RSSMRA80A01F205X;ROSSI MARIO;Cat.A/2;1/2",
		"SALERANO SUL LAMBRO;LODI;4;118;6,625;12345678901;IMMOBILIARE SRL;Cat.C/1;1/1",
	}, "\n")

	records, err := ReadOwnershipCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "SALERANO SUL LAMBRO", first.Municipality)
	assert.Equal(t, "LODI", first.Province)
	assert.Equal(t, "4", first.Foglio)
	assert.Equal(t, "118", first.Particella)
	assert.InDelta(t, 6.625, first.AreaHa, 0.0001)
	assert.Equal(t, "RSSMRA80A01F205X", first.OwnerCF)
	assert.True(t, first.IsPrivateOwner())
	assert.True(t, first.IsResidential())

	second := records[1]
	assert.False(t, second.IsPrivateOwner())
	assert.False(t, second.IsResidential())
}

func TestReadOwnershipCSVThousandsSeparator(t *testing.T) {
	input := "comune;provincia;foglio;particella;superficie_ha;codice_fiscale;intestatario;categoria;quota\n" +
		"LODI;LODI;1;1;1.234,5;RSSMRA80A01F205X;ROSSI MARIO;Cat.A/2;1/1"

	records, err := ReadOwnershipCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 1234.5, records[0].AreaHa, 0.0001)
}

func TestReadOwnershipCSVWindows1252(t *testing.T) {
	// "CÀ" in Windows-1252: 0xC0 is À.
	raw := []byte("comune;provincia;foglio;particella;superficie_ha;codice_fiscale;intestatario;categoria;quota\n" +
		"C\xc0 DEL CONTE;PAVIA;2;33;0,5;VRDLGI75B02G388Y;VERDI LUIGI;Cat.A/3;1/1")

	records, err := ReadOwnershipCSV(strings.NewReader(string(raw)), CSVOptions{Windows1252: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CÀ DEL CONTE", records[0].Municipality)
}

func TestReadOwnershipCSVBadDecimal(t *testing.T) {
	input := "comune;provincia;foglio;particella;superficie_ha;codice_fiscale;intestatario;categoria;quota\n" +
		"LODI;LODI;1;1;abc;RSSMRA80A01F205X;ROSSI MARIO;Cat.A/2;1/1"

	_, err := ReadOwnershipCSV(strings.NewReader(input), CSVOptions{})
	assert.Error(t, err)
}

func TestReadAddressCSV(t *testing.T) {
	input := strings.Join([]string{
		"codice_fiscale;indirizzo;indirizzo_geocodificato;esito_geocoding;via;cap;citta;provincia;sigla_provincia;paese;latitudine;longitudine",
		"RSSMRA80A01F205X;Salerano sul Lambro(LO) Via Roma n. 12;Via Roma n. 12, 26857 Salerano sul Lambro Lodi;success;VIA ROMA;26857;SALERANO SUL LAMBRO;LODI;LO;IT;45,2406;9,4268",
		"VRDLGI75B02G388Y;Lodi(LO) Via Garibaldi SNC;;;;;;;;;0;0",
	}, "\n")

	addresses, err := ReadAddressCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, addresses, 2)

	ok := addresses[0]
	assert.Equal(t, model.GeocodingSuccess, ok.Status)
	assert.True(t, ok.Geocoded())
	assert.Equal(t, "VIA ROMA", ok.StreetName)
	require.NotNil(t, ok.Latitude)
	assert.InDelta(t, 45.2406, *ok.Latitude, 0.0001)

	pending := addresses[1]
	assert.Equal(t, model.GeocodingNotAttempted, pending.Status)
	assert.False(t, pending.Geocoded())
	assert.Nil(t, pending.Latitude)
}

func TestReadAddressCSVStatusAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.GeocodingStatus
	}{
		{"ok alias", "ok", model.GeocodingSuccess},
		{"error alias", "error", model.GeocodingFailed},
		{"failed", "FAILED", model.GeocodingFailed},
		{"blank", "", model.GeocodingNotAttempted},
		{"unknown", "boh", model.GeocodingNotAttempted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseGeocodingStatus(tt.raw))
		})
	}
}
