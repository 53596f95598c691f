package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nbelayachi/land-acquisition-pipeline-sub001/internal/model"
)

// Geocoded addresses arrive as "Street, Number, PostalCode City Province".
// The civic number is the token strictly between the first two commas; a
// naive first-number scan would grab the 5-digit postal code instead.
var (
	civicTokenRe    = regexp.MustCompile(`(\d+[A-Za-z/]*)`)
	civicAfterNRe   = regexp.MustCompile(`n\.\s*(\d+[A-Za-z/]*)`)
	civicTrailingRe = regexp.MustCompile(`(\d+[A-Za-z/]*)(?:\s|$)`)
)

// postalCodeDigits is the digit count at which a candidate token is
// rejected as a likely CAP (Italian postal code).
const postalCodeDigits = 5

// ExtractCivicNumber extracts the civic number from an address string, or
// returns "" when none can be found.
func ExtractCivicNumber(addr string) string {
	if strings.TrimSpace(addr) == "" {
		return ""
	}

	// Comma-separated geocoded shape: look only between the first two commas.
	if first := strings.Index(addr, ","); first >= 0 {
		rest := addr[first+1:]
		if second := strings.Index(rest, ","); second >= 0 {
			if m := civicTokenRe.FindStringSubmatch(rest[:second]); m != nil && !likelyPostalCode(m[1]) {
				return m[1]
			}
		}
	}

	// Fallback: explicit "n." marker.
	if m := civicAfterNRe.FindStringSubmatch(addr); m != nil && !likelyPostalCode(m[1]) {
		return m[1]
	}

	// Last resort: any number ending at a space or end-of-string.
	for _, m := range civicTrailingRe.FindAllStringSubmatch(addr, -1) {
		if !likelyPostalCode(m[1]) {
			return m[1]
		}
	}
	return ""
}

// likelyPostalCode rejects tokens whose leading digit run reaches five
// digits, the length of an Italian CAP.
func likelyPostalCode(token string) bool {
	base, _ := splitCivic(token)
	return len(base) >= postalCodeDigits
}

// splitCivic splits a civic number into its leading digits and whatever
// trails them (letter suffix, slash part).
func splitCivic(number string) (base, suffix string) {
	i := 0
	for i < len(number) && number[i] >= '0' && number[i] <= '9' {
		i++
	}
	return number[:i], number[i:]
}

// CompareCivicNumbers compares the original civic number against the
// geocoded one and grades the match. Either side empty means no match.
func CompareCivicNumbers(original, geocoded string) model.NumberMatch {
	if original == "" || geocoded == "" {
		return model.NumberMatch{Similarity: 0.0, MatchType: model.MatchNone, Reason: "civic number missing on one side"}
	}

	if strings.EqualFold(original, geocoded) {
		return model.NumberMatch{Similarity: 1.0, MatchType: model.MatchExact, Reason: "identical civic number"}
	}

	origBase, origSuffix := splitCivic(original)
	geoBase, geoSuffix := splitCivic(geocoded)

	if origBase == "" || geoBase == "" {
		return model.NumberMatch{Similarity: 0.1, MatchType: model.MatchNonNumeric,
			Reason: fmt.Sprintf("non-numeric civic number (%q vs %q)", original, geocoded)}
	}

	if origBase == geoBase {
		return model.NumberMatch{Similarity: 0.9, MatchType: model.MatchBase,
			Reason: fmt.Sprintf("same base %s, suffix %q vs %q", origBase, origSuffix, geoSuffix)}
	}

	a, errA := strconv.Atoi(origBase)
	b, errB := strconv.Atoi(geoBase)
	if errA != nil || errB != nil {
		return model.NumberMatch{Similarity: 0.1, MatchType: model.MatchNonNumeric,
			Reason: fmt.Sprintf("unparseable civic base (%q vs %q)", origBase, geoBase)}
	}

	diff := int(math.Abs(float64(a - b)))
	switch {
	case diff == 1:
		return model.NumberMatch{Similarity: 0.7, MatchType: model.MatchAdjacent,
			Reason: fmt.Sprintf("adjacent numbers %d and %d", a, b)}
	case diff == 2:
		return model.NumberMatch{Similarity: 0.6, MatchType: model.MatchClose,
			Reason: fmt.Sprintf("close numbers %d and %d", a, b)}
	case diff <= 5:
		return model.NumberMatch{Similarity: 0.4, MatchType: model.MatchNearby,
			Reason: fmt.Sprintf("nearby numbers %d and %d (diff %d)", a, b, diff)}
	default:
		return model.NumberMatch{Similarity: 0.2, MatchType: model.MatchDifferent,
			Reason: fmt.Sprintf("numbers %d and %d differ by %d", a, b, diff)}
	}
}
