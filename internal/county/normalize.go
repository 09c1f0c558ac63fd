// Package county canonicalizes county identifiers and names so metric
// datasets from different providers can be joined to county polygons.
package county

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// saintRe matches "saint" as a whole word. "St." needs no rule of its own
	// because periods are stripped before it runs.
	saintRe = regexp.MustCompile(`\bsaint\b`)

	// spaceRe covers Unicode space separators such as NBSP and em space.
	spaceRe = regexp.MustCompile(`[\s\p{Zs}]+`)

	punctReplacer = strings.NewReplacer(".", "", ",", "")
)

// NormalizeName canonicalizes a free-text county name into a comparison key.
//
//	"Autauga County, Alabama"    -> "autauga county alabama"
//	"St. Louis County, Missouri" -> "st louis county missouri"
//	"Saint Clair County"         -> "st clair county"
//
// It is idempotent: NormalizeName(NormalizeName(x)) == NormalizeName(x).
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	s := punctReplacer.Replace(strings.ToLower(name))
	s = saintRe.ReplaceAllString(s, "st")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	// Composition last: removing punctuation can bring a base letter and a
	// combining mark together.
	return norm.NFC.String(s)
}
