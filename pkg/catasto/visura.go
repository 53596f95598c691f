package catasto

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/resilience"
)

type visuraRequest struct {
	Comune     string `json:"comune"`
	Foglio     string `json:"foglio"`
	Particella string `json:"particella"`
	Certified  bool   `json:"certificata,omitempty"`
}

// visuraResponse is the registry extract payload. Owner rows repeat the
// parcel identity so a multi-owner parcel yields one row per owner.
type visuraResponse struct {
	Comune       string  `json:"comune"`
	Provincia    string  `json:"provincia"`
	Foglio       string  `json:"foglio"`
	Particella   string  `json:"particella"`
	SuperficieHa float64 `json:"superficie_ha"`
	Intestatari  []struct {
		CodiceFiscale string `json:"codice_fiscale"`
		Denominazione string `json:"denominazione"`
		Categoria     string `json:"categoria"`
		Quota         string `json:"quota"`
		Residenza     string `json:"residenza"`
	} `json:"intestatari"`
}

func (c *client) fetchExtract(ctx context.Context, parcel model.ParcelInput) (*ParcelExtract, error) {
	payload, err := json.Marshal(visuraRequest{
		Comune:     parcel.Municipality,
		Foglio:     parcel.Foglio,
		Particella: parcel.Particella,
		Certified:  c.certified,
	})
	if err != nil {
		return nil, eris.Wrap(err, "catasto: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/visura", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "catasto: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "catasto: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, eris.Errorf("catasto: parcel %s/F%s/P%s not in registry",
			parcel.Municipality, parcel.Foglio, parcel.Particella)
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("catasto: registry returned status %d", resp.StatusCode)
		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.MarkTransient(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "catasto: read body")
	}

	var vr visuraResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, eris.Wrap(err, "catasto: parse response")
	}

	return buildExtract(parcel, vr), nil
}

// buildExtract flattens the visura into per-owner records and collects
// each owner's registered address for downstream geocoding. The registry
// area overrides the input file's area when present.
func buildExtract(parcel model.ParcelInput, vr visuraResponse) *ParcelExtract {
	if vr.SuperficieHa > 0 {
		parcel.AreaHa = vr.SuperficieHa
	}

	extract := &ParcelExtract{Parcel: parcel}
	seenAddr := make(map[string]bool)

	for _, owner := range vr.Intestatari {
		cf := strings.ToUpper(strings.TrimSpace(owner.CodiceFiscale))
		extract.Records = append(extract.Records, model.RawOwnershipRecord{
			Municipality: vr.Comune,
			Province:     vr.Provincia,
			Foglio:       vr.Foglio,
			Particella:   vr.Particella,
			AreaHa:       parcel.AreaHa,
			OwnerCF:      cf,
			OwnerName:    strings.TrimSpace(owner.Denominazione),
			CategoryCode: strings.TrimSpace(owner.Categoria),
			Quota:        strings.TrimSpace(owner.Quota),
		})

		residenza := strings.TrimSpace(owner.Residenza)
		if residenza == "" {
			continue
		}
		// The same owner on several parcels repeats the same residence.
		key := cf + "|" + residenza
		if seenAddr[key] {
			continue
		}
		seenAddr[key] = true
		extract.Addresses = append(extract.Addresses, model.CandidateAddress{
			OwnerCF:    cf,
			RawAddress: residenza,
			Status:     model.GeocodingNotAttempted,
		})
	}
	return extract
}
