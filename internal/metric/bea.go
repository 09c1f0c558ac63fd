package metric

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/county"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/fetcher"
)

// headerSearchRows bounds how far into a BEA export the GeoFips/GeoName
// header may appear; the exports open with title and footnote lines.
const headerSearchRows = 10

// ReadGDPCSV reads a BEA CAGDP county table exported as CSV. Every header
// column that is a four-digit year becomes a value.
func ReadGDPCSV(ctx context.Context, r io.Reader) ([]*Record, error) {
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		LazyQuotes: true,
		TrimSpace:  true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "metric: read gdp csv")
	}
	return parseGDPRows(rows)
}

// ReadGDPXLSX reads the same table from a BEA workbook.
func ReadGDPXLSX(path string, sheet string) ([]*Record, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: sheet, SkipBlank: true})
	if err != nil {
		return nil, eris.Wrap(err, "metric: read gdp xlsx")
	}
	return parseGDPRows(rows)
}

type gdpLayout struct {
	header  int
	geoFips int
	geoName int
	years   map[int]int // column -> year
}

func findGDPLayout(rows [][]string) (gdpLayout, error) {
	for i := 0; i < len(rows) && i < headerSearchRows; i++ {
		layout := gdpLayout{header: i, geoFips: -1, geoName: -1, years: make(map[int]int)}
		for col, h := range rows[i] {
			h = strings.Trim(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), `"`)
			switch h {
			case "GeoFips":
				layout.geoFips = col
			case "GeoName":
				layout.geoName = col
			default:
				if year, ok := parseYear(h); ok {
					layout.years[col] = year
				}
			}
		}
		if layout.geoFips >= 0 && layout.geoName >= 0 {
			if len(layout.years) == 0 {
				return gdpLayout{}, eris.New("metric: gdp header has no year columns")
			}
			return layout, nil
		}
	}
	return gdpLayout{}, eris.Errorf("metric: no GeoFips/GeoName header in first %d rows", headerSearchRows)
}

func parseGDPRows(rows [][]string) ([]*Record, error) {
	layout, err := findGDPLayout(rows)
	if err != nil {
		return nil, err
	}

	var records []*Record
	for _, row := range rows[layout.header+1:] {
		fips := strings.Trim(cell(row, layout.geoFips), `" `)
		name := strings.Trim(cell(row, layout.geoName), `"`)
		if fips == "" || name == "" {
			continue
		}
		code, ok := county.CanonicalCode(fips)
		if !ok {
			// footnote rows such as "Note: ..." land in the GeoFips column
			continue
		}

		rec := NewRecord(code, name)
		for col, year := range layout.years {
			rec.Set(year, ParseValue(cell(row, col)))
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1900 || year > 2100 {
		return 0, false
	}
	return year, true
}
