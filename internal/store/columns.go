package store

import (
	"fmt"
	"strings"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/county"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
)

// quoteIdent quotes a SQL identifier; both Postgres and SQLite accept
// double-quoted names, and the source tables use hyphens.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// populationQuery selects the population columns populationRow scans.
func populationQuery(table, cast string) string {
	return fmt.Sprintf(
		`SELECT geo_id, name, CAST(population_2010 AS %[2]s), CAST(population_2020 AS %[2]s), CAST(change AS %[2]s) FROM %[1]s ORDER BY geo_id`,
		quoteIdent(table), cast)
}

// gdpQuery selects the GDP columns gdpRow scans.
func gdpQuery(table, cast string) string {
	cols := []string{"geofips", "geoname"}
	for _, year := range metric.GDP.SeriesYears() {
		cols = append(cols, fmt.Sprintf("CAST(gdp_%d AS %s)", year, cast))
	}
	cols = append(cols, fmt.Sprintf("CAST(%s AS %s)", quoteIdent("moving-annual-average"), cast))
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY geofips", strings.Join(cols, ", "), quoteIdent(table))
}

// codeFromGeoID accepts either a Census GEO_ID ("0500000US01001") or a
// bare FIPS code.
func codeFromGeoID(v string) string {
	if code, ok := county.ExtractCode(map[string]any{"GEO_ID": v}); ok {
		return code
	}
	if code, ok := county.CanonicalCode(strings.Trim(v, `" `)); ok {
		return code
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
