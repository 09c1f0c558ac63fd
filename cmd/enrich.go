package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/choropleth"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/geo"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich county boundaries with metric data",
	Long: `Loads county boundaries and the selected metric datasets, joins each
dataset onto the counties (FIPS code first, then normalized county name),
classifies every county, and writes the enriched GeoJSON.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		names, _ := cmd.Flags().GetStringSlice("datasets")
		out, _ := cmd.Flags().GetString("out")
		diagPath, _ := cmd.Flags().GetString("diagnostics")

		datasets, err := parseDatasets(names)
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		log := zap.L().With(
			zap.String("command", "enrich"),
			zap.String("run_id", runID),
		)

		in, err := loadInputs(ctx, cfg, newOpener(cfg), datasets)
		if err != nil {
			return eris.Wrap(err, "enrich: load inputs")
		}

		start := time.Now()
		res, err := choropleth.Run(in.Collection, in.Sources,
			choropleth.WithObserver(logObserver{log: log}))
		if err != nil {
			return eris.Wrap(err, "enrich")
		}
		log.Info("enrichment complete",
			zap.Int("features", len(res.Collection.Features)),
			zap.Duration("elapsed", time.Since(start)),
		)

		if err := writeCollection(out, res.Collection); err != nil {
			return err
		}

		if diagPath != "" {
			if err := writeDiagnostics(diagPath, runID, res.Diagnostics); err != nil {
				return err
			}
		}
		formatDiagnostics(os.Stderr, res.Diagnostics)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringSlice("datasets", []string{"population", "gdp"}, "datasets to join (population, gdp)")
	enrichCmd.Flags().StringP("out", "o", "-", "output GeoJSON path (- for stdout)")
	enrichCmd.Flags().String("diagnostics", "", "write per-dataset join diagnostics as JSON to this path")
	rootCmd.AddCommand(enrichCmd)
}

// logObserver logs join diagnostics as each dataset is matched.
type logObserver struct {
	log *zap.Logger
}

func (o logObserver) ObserveMatch(source string, d choropleth.Diagnostics) {
	o.log.Info("dataset joined",
		zap.String("dataset", source),
		zap.Int("total", d.Total),
		zap.Int("matched_by_code", d.MatchedByCode),
		zap.Int("matched_by_name", d.MatchedByName),
		zap.Int("unmatched", d.Unmatched),
	)
}

// writeCollection writes fc to path, or stdout for "-".
func writeCollection(path string, fc *geo.FeatureCollection) error {
	if path == "-" || path == "" {
		return geo.Encode(os.Stdout, fc)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "enrich: create output dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".countymap-*.geojson")
	if err != nil {
		return eris.Wrap(err, "enrich: create output")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := geo.Encode(tmp, fc); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "enrich: close output")
	}
	return eris.Wrap(os.Rename(tmp.Name(), path), "enrich: rename output")
}

func writeDiagnostics(path, runID string, diags map[string]choropleth.Diagnostics) error {
	data, err := json.MarshalIndent(struct {
		RunID       string                            `json:"runId"`
		Diagnostics map[string]choropleth.Diagnostics `json:"diagnostics"`
	}{runID, diags}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "enrich: marshal diagnostics")
	}
	return eris.Wrap(os.WriteFile(path, data, 0o644), "enrich: write diagnostics")
}

func formatDiagnostics(out io.Writer, diags map[string]choropleth.Diagnostics) {
	names := make([]string, 0, len(diags))
	for n := range diags {
		names = append(names, n)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATASET\tTOTAL\tBY_CODE\tBY_NAME\tUNMATCHED")
	_, _ = fmt.Fprintln(w, "-------\t-----\t-------\t-------\t---------")
	for _, n := range names {
		d := diags[n]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", n, d.Total, d.MatchedByCode, d.MatchedByName, d.Unmatched)
	}
	_ = w.Flush()
}
