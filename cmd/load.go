package main

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/choropleth"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/config"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/fetcher"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/store"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/tiger"
)

// inputs is everything the pure pipeline needs, gathered up front.
type inputs struct {
	Collection *geo.FeatureCollection
	Sources    []choropleth.Source
	Records    map[string]int
}

// newOpener builds the fetchers from config.
func newOpener(c *config.Config) *fetcher.Opener {
	timeout := time.Duration(c.Fetch.TimeoutSecs) * time.Second
	return fetcher.NewOpener(
		fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    c.Fetch.UserAgent,
			Timeout:      timeout,
			MaxRetries:   c.Fetch.MaxRetries,
			RateLimiters: fetcher.DefaultRateLimiters(),
		}),
		fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout}),
	)
}

// parseDatasets resolves dataset names, preserving order.
func parseDatasets(names []string) ([]metric.Dataset, error) {
	var out []metric.Dataset
	seen := make(map[string]bool)
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		ds, ok := metric.Datasets[n]
		if !ok {
			return nil, eris.Errorf("unknown dataset %q", n)
		}
		seen[n] = true
		out = append(out, ds)
	}
	if len(out) == 0 {
		return nil, eris.New("no datasets selected")
	}
	return out, nil
}

// loadInputs fetches the geometry and every dataset concurrently. Datasets
// with no configured source are skipped.
func loadInputs(ctx context.Context, c *config.Config, opener *fetcher.Opener, datasets []metric.Dataset) (*inputs, error) {
	log := zap.L().With(zap.String("component", "load"))

	var st store.MetricStore
	if c.Sources.Metrics == "store" {
		s, err := initStore(ctx, c)
		if err != nil {
			return nil, err
		}
		defer s.Close() //nolint:errcheck
		st = s
	}

	g, gctx := errgroup.WithContext(ctx)

	var fc *geo.FeatureCollection
	g.Go(func() error {
		var err error
		fc, err = loadGeometry(gctx, c, opener)
		return err
	})

	records := make([][]*metric.Record, len(datasets))
	present := make([]bool, len(datasets))
	for i, ds := range datasets {
		g.Go(func() error {
			var err error
			if st != nil {
				records[i], err = store.Load(gctx, st, ds.Name)
				present[i] = err == nil
			} else {
				records[i], present[i], err = loadDatasetFiles(gctx, c, opener, ds)
			}
			return eris.Wrapf(err, "load %s", ds.Name)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	in := &inputs{Collection: fc, Records: make(map[string]int, len(datasets))}
	for i, ds := range datasets {
		if !present[i] {
			log.Warn("no source configured for dataset, skipping", zap.String("dataset", ds.Name))
			continue
		}
		in.Sources = append(in.Sources, choropleth.NewSource(ds, records[i]))
		in.Records[ds.Name] = len(records[i])
		log.Info("dataset loaded",
			zap.String("dataset", ds.Name),
			zap.Int("records", len(records[i])),
		)
	}
	return in, nil
}

// loadGeometry reads county features from GeoJSON, a TIGER/Line archive, or
// an extracted shapefile, chosen by extension.
func loadGeometry(ctx context.Context, c *config.Config, opener *fetcher.Opener) (*geo.FeatureCollection, error) {
	ref := c.Sources.Geometry
	switch refExt(ref) {
	case ".zip":
		shpPath, err := tiger.Download(ctx, opener, ref, c.Tiger.Dir)
		if err != nil {
			return nil, err
		}
		return tiger.ReadCounties(shpPath)
	case ".shp":
		if fetcher.IsRemote(ref) {
			return nil, eris.Errorf("remote shapefile %s: use the .zip archive", ref)
		}
		return tiger.ReadCounties(ref)
	default:
		rc, err := opener.Open(ctx, ref)
		if err != nil {
			return nil, eris.Wrap(err, "open geometry")
		}
		defer rc.Close() //nolint:errcheck
		return geo.Decode(rc)
	}
}

// loadDatasetFiles reads one dataset from the configured files. The bool
// reports whether any file was configured for it.
func loadDatasetFiles(ctx context.Context, c *config.Config, opener *fetcher.Opener, ds metric.Dataset) ([]*metric.Record, bool, error) {
	switch ds.Name {
	case metric.Population.Name:
		refs := map[int]string{
			2010: c.Sources.Population2010,
			2020: c.Sources.Population2020,
		}
		var sets [][]*metric.Record
		for _, year := range ds.Years {
			ref := refs[year]
			if ref == "" {
				continue
			}
			recs, err := readPopulation(ctx, opener, ref, year)
			if err != nil {
				return nil, true, err
			}
			sets = append(sets, recs)
		}
		if len(sets) == 0 {
			return nil, false, nil
		}
		return metric.Combine(sets...), true, nil
	case metric.GDP.Name:
		if c.Sources.GDP == "" {
			return nil, false, nil
		}
		recs, err := readGDP(ctx, opener, c.Sources.GDP, c.Sources.GDPSheet, c.Fetch.CacheDir)
		return recs, true, err
	default:
		return nil, false, eris.Errorf("no file reader for dataset %q", ds.Name)
	}
}

func readPopulation(ctx context.Context, opener *fetcher.Opener, ref string, year int) ([]*metric.Record, error) {
	rc, err := opener.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return metric.ReadPopulationCSV(ctx, rc, year)
}

func readGDP(ctx context.Context, opener *fetcher.Opener, ref, sheet, cacheDir string) ([]*metric.Record, error) {
	if refExt(ref) == ".xlsx" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, eris.Wrap(err, "create cache dir")
		}
		local, err := opener.OpenToFile(ctx, ref, filepath.Join(cacheDir, path.Base(refPath(ref))))
		if err != nil {
			return nil, err
		}
		return metric.ReadGDPXLSX(local, sheet)
	}

	rc, err := opener.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return metric.ReadGDPCSV(ctx, rc)
}

// refPath strips scheme, host, and query from a URL reference.
func refPath(ref string) string {
	if fetcher.IsRemote(ref) {
		if u, err := url.Parse(ref); err == nil {
			return u.Path
		}
	}
	return ref
}

func refExt(ref string) string {
	return strings.ToLower(path.Ext(refPath(ref)))
}
