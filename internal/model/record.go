// Package model defines the typed records flowing through the land
// acquisition pipeline: registry ownership rows, candidate mailing
// addresses, classification output, and funnel metrics.
package model

import (
	"fmt"
	"strings"
)

// GeocodingStatus describes the outcome of the upstream geocoding call.
type GeocodingStatus string

const (
	GeocodingSuccess      GeocodingStatus = "success"
	GeocodingFailed       GeocodingStatus = "failed"
	GeocodingNotAttempted GeocodingStatus = "not_attempted"
)

// ParcelInput is one row of the campaign input file: a parcel to look up
// in the cadastral registry.
type ParcelInput struct {
	Municipality string  `json:"municipality"`
	Foglio       string  `json:"foglio"`
	Particella   string  `json:"particella"`
	AreaHa       float64 `json:"area_ha"`
}

// RawOwnershipRecord is one (parcel, owner) pair returned by the cadastral
// registry. A parcel may have many owners and an owner may appear on many
// parcels, so (Municipality, Foglio, Particella, OwnerCF) is not unique.
type RawOwnershipRecord struct {
	Municipality string  `json:"municipality"`
	Province     string  `json:"province"`
	Foglio       string  `json:"foglio"`
	Particella   string  `json:"particella"`
	AreaHa       float64 `json:"area_ha"`
	OwnerCF      string  `json:"owner_cf"`
	OwnerName    string  `json:"owner_name"`
	CategoryCode string  `json:"category_code"`
	Quota        string  `json:"quota"`
}

// IsPrivateOwner reports whether the owner is a natural person. Italian
// codice fiscale for individuals is 16 alphanumeric characters; companies
// carry an 11-digit numeric VAT-style code.
func (r RawOwnershipRecord) IsPrivateOwner() bool {
	cf := strings.TrimSpace(r.OwnerCF)
	if len(cf) != 16 {
		return false
	}
	for _, ch := range cf {
		if (ch < 'A' || ch > 'Z') && (ch < 'a' || ch > 'z') && (ch < '0' || ch > '9') {
			return false
		}
	}
	return true
}

// IsResidential reports whether the parcel's building category is
// cadastral category A (residential use, e.g. "Cat.A/2").
func (r RawOwnershipRecord) IsResidential() bool {
	return strings.HasPrefix(strings.TrimSpace(r.CategoryCode), "Cat.A")
}

// CandidateAddress is one mailing address belonging to an owner, with the
// geocoding result resolved upstream. Geocoded sub-fields are empty when
// unavailable; Latitude/Longitude are nil when the provider returned none.
type CandidateAddress struct {
	OwnerCF         string          `json:"owner_cf"`
	RawAddress      string          `json:"raw_address"`
	GeocodedAddress string          `json:"geocoded_address,omitempty"`
	Status          GeocodingStatus `json:"geocoding_status"`
	StreetName      string          `json:"street_name,omitempty"`
	PostalCode      string          `json:"postal_code,omitempty"`
	City            string          `json:"city,omitempty"`
	ProvinceName    string          `json:"province_name,omitempty"`
	ProvinceCode    string          `json:"province_code,omitempty"`
	Country         string          `json:"country,omitempty"`
	Latitude        *float64        `json:"latitude,omitempty"`
	Longitude       *float64        `json:"longitude,omitempty"`
}

// Geocoded reports whether the provider produced a usable geocoded address.
func (a CandidateAddress) Geocoded() bool {
	return a.Status == GeocodingSuccess && a.GeocodedAddress != ""
}

// ParcelKey identifies a physical parcel. Two ownership records with the
// same key refer to the same parcel; area must be read from exactly one
// representative record per key.
type ParcelKey struct {
	Municipality string `json:"municipality"`
	Foglio       string `json:"foglio"`
	Particella   string `json:"particella"`
}

func (k ParcelKey) String() string {
	return fmt.Sprintf("%s/F%s/P%s", k.Municipality, k.Foglio, k.Particella)
}
