package metric

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/county"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/fetcher"
)

// PopulationColumns maps a census year to its total population column in
// the data.census.gov decennial tables.
var PopulationColumns = map[int]string{
	2010: "P001001",
	2020: "P1_001N",
}

// descriptive header rows repeated under the machine header
var censusLabelRows = map[string]bool{
	"Geography":            true,
	"Geographic Area Name": true,
}

// ReadPopulationCSV reads one decennial census county table. Rows without a
// GEO_ID or NAME, descriptive header rows, and rows with a non-numeric total
// are skipped.
func ReadPopulationCSV(ctx context.Context, r io.Reader, year int) ([]*Record, error) {
	column, ok := PopulationColumns[year]
	if !ok {
		return nil, eris.Errorf("metric: no population column for year %d", year)
	}

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
	})

	var (
		records []*Record
		cols    map[string]int
	)
	for row := range rowCh {
		if cols == nil {
			cols = columnIndex(<-headerCh)
			for _, want := range []string{"GEO_ID", "NAME", column} {
				if _, ok := cols[want]; !ok {
					drain(rowCh)
					return nil, eris.Errorf("metric: population csv missing column %q", want)
				}
			}
		}

		geoID := cell(row, cols["GEO_ID"])
		name := cell(row, cols["NAME"])
		if geoID == "" || name == "" || censusLabelRows[name] {
			continue
		}

		raw := cell(row, cols[column])
		v := ParseValue(raw)
		if v == nil && raw != "" {
			continue
		}

		code, _ := county.ExtractCode(map[string]any{"GEO_ID": geoID})
		rec := NewRecord(code, name)
		rec.Set(year, v)
		records = append(records, rec)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "metric: read population csv")
	}
	return records, nil
}

// Combine merges per-year record sets into one record per county, keyed by
// code when present and normalized name otherwise. Later sets win for the
// display name, matching how the 2020 table is preferred over 2010.
func Combine(sets ...[]*Record) []*Record {
	var (
		out   []*Record
		byKey = make(map[string]*Record)
	)
	for _, set := range sets {
		for _, r := range set {
			if r == nil {
				continue
			}
			key := combineKey(r)
			if key == "" {
				continue
			}
			merged, ok := byKey[key]
			if !ok {
				merged = NewRecord(r.Code, r.Name)
				byKey[key] = merged
				out = append(out, merged)
			}
			if r.Name != "" {
				merged.Name = r.Name
			}
			if merged.Code == "" {
				merged.Code = r.Code
			}
			for year, v := range r.Values {
				merged.Values[year] = v
			}
			if r.Change != nil {
				c := *r.Change
				merged.Change = &c
			}
		}
	}
	return out
}

func combineKey(r *Record) string {
	if r.Code != "" {
		return "code:" + r.Code
	}
	if name := county.NormalizeName(r.Name); name != "" {
		return "name:" + name
	}
	return ""
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func drain(ch <-chan []string) {
	for range ch {
	}
}
