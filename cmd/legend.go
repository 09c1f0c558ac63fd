package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/classify"
)

var legendCmd = &cobra.Command{
	Use:   "legend",
	Short: "Print the legend for a map layer",
	Long:  "Prints the bucket labels and colors used to fill a layer. Layers: " + strings.Join(classify.LegendLayers(), ", ") + ".",
	RunE: func(cmd *cobra.Command, _ []string) error {
		layer, _ := cmd.Flags().GetString("layer")
		format, _ := cmd.Flags().GetString("format")

		entries, err := classify.Legend(layer)
		if err != nil {
			return err
		}
		return writeLegend(os.Stdout, entries, format)
	},
}

func init() {
	legendCmd.Flags().String("layer", "population", "layer name")
	legendCmd.Flags().String("format", "text", "output format: text, yaml, json")
	rootCmd.AddCommand(legendCmd)
}

func writeLegend(out io.Writer, entries []classify.LegendEntry, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return eris.Wrap(err, "legend: encode yaml")
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(entries), "legend: encode json")
	case "text":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "LABEL\tCOLOR\tRANGE\tDESCRIPTION")
		_, _ = fmt.Fprintln(w, "-----\t-----\t-----\t-----------")
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Label, e.Color, formatBounds(e), e.Description)
		}
		return w.Flush()
	default:
		return eris.Errorf("legend: unknown format %q", format)
	}
}

func formatBounds(e classify.LegendEntry) string {
	switch {
	case e.Min == nil && e.Max == nil:
		return ""
	case e.Min == nil:
		return fmt.Sprintf("< %g", *e.Max)
	case e.Max == nil:
		return fmt.Sprintf(">= %g", *e.Min)
	default:
		return fmt.Sprintf("[%g, %g)", *e.Min, *e.Max)
	}
}
