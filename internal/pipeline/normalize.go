// Package pipeline implements the campaign classification and aggregation
// stages: address normalization, civic-number comparison, confidence
// classification, parcel-keyed funnel metrics, and cross-view consistency
// checks.
package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// Cadastral residence strings come in exactly two shapes:
//
//	"SALERANO SUL LAMBRO(LO) VICOLO CREMONA n. 34"
//	"SALERANO SUL LAMBRO(LO) VICOLO CREMONA"    (numberless / SNC)
//
// The numbered shape is matched first; the trailing token after the
// literal "n." keeps any alpha suffix ("34A", "12/B").
var (
	numberedAddrRe = regexp.MustCompile(`^\s*([^(]+?)\s*\(([^)]+)\)\s*(.+?)\s+n\.\s*(\d+[A-Za-z/]*)\s*$`)
	plainAddrRe    = regexp.MustCompile(`^\s*([^(]+?)\s*\(([^)]+)\)\s*(.+?)\s*$`)
	sncMarkerRe    = regexp.MustCompile(`(?i)\bSNC\b`)
)

// NormalizeAddress parses a raw cadastral address string into its
// structured components. It never fails: unparseable input yields a
// ParsedAddress with all fields empty.
func NormalizeAddress(raw string) model.ParsedAddress {
	if m := numberedAddrRe.FindStringSubmatch(raw); m != nil {
		return model.ParsedAddress{
			Municipality: strings.TrimSpace(m[1]),
			ProvinceCode: strings.ToUpper(strings.TrimSpace(m[2])),
			Street:       strings.TrimSpace(m[3]),
			CivicNumber:  m[4],
		}
	}
	if m := plainAddrRe.FindStringSubmatch(raw); m != nil {
		return model.ParsedAddress{
			Municipality: strings.TrimSpace(m[1]),
			ProvinceCode: strings.ToUpper(strings.TrimSpace(m[2])),
			Street:       strings.TrimSpace(m[3]),
		}
	}
	return model.ParsedAddress{}
}

// RenderAddress is the inverse of NormalizeAddress for well-formed input.
func RenderAddress(p model.ParsedAddress) string {
	if !p.Parsed() {
		return ""
	}
	s := fmt.Sprintf("%s(%s) %s", p.Municipality, p.ProvinceCode, p.Street)
	if p.CivicNumber != "" {
		s += " n. " + p.CivicNumber
	}
	return s
}

// HasSNCMarker reports whether the raw address carries the "senza numero
// civico" marker, i.e. the registry recorded no house number.
func HasSNCMarker(raw string) bool {
	return sncMarkerRe.MatchString(raw)
}
