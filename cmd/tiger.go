package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/tiger"
)

var tigerCmd = &cobra.Command{
	Use:   "tiger",
	Short: "Convert TIGER/Line county boundaries to GeoJSON",
	Long: `Downloads the nationwide TIGER/Line county shapefile archive for a vintage
(or uses --url / a local .zip), extracts it, and writes the counties as a
GeoJSON FeatureCollection usable as sources.geometry.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		year, _ := cmd.Flags().GetInt("year")
		ref, _ := cmd.Flags().GetString("url")
		out, _ := cmd.Flags().GetString("out")

		if year == 0 {
			year = cfg.Tiger.Year
		}
		if ref == "" {
			ref = cfg.Tiger.URL
		}
		cfg.Tiger.Year = year
		cfg.Tiger.URL = ref
		if err := cfg.Validate("tiger"); err != nil {
			return err
		}
		if ref == "" {
			ref = tiger.CountyURL(year)
		}

		log := zap.L().With(zap.String("command", "tiger"), zap.String("ref", ref))
		log.Info("fetching county boundaries", zap.Int("year", year))

		shpPath, err := tiger.Download(ctx, newOpener(cfg), ref, cfg.Tiger.Dir)
		if err != nil {
			return eris.Wrap(err, "tiger")
		}
		fc, err := tiger.ReadCounties(shpPath)
		if err != nil {
			return eris.Wrap(err, "tiger")
		}
		if err := writeCollection(out, fc); err != nil {
			return err
		}

		log.Info("county boundaries written",
			zap.Int("features", len(fc.Features)),
			zap.String("out", out),
		)
		if out != "-" {
			fmt.Fprintf(os.Stderr, "wrote %d counties to %s\n", len(fc.Features), out)
		}
		return nil
	},
}

func init() {
	tigerCmd.Flags().Int("year", 0, "TIGER/Line vintage (default: from config or 2024)")
	tigerCmd.Flags().String("url", "", "archive URL or local .zip (overrides --year)")
	tigerCmd.Flags().StringP("out", "o", "counties.geojson", "output GeoJSON path (- for stdout)")
	rootCmd.AddCommand(tigerCmd)
}
