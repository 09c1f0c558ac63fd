package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/config"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/metric"
	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/store"
)

// initStore opens the configured metric database.
func initStore(ctx context.Context, c *config.Config) (store.MetricStore, error) {
	tables := store.Tables{
		Population: c.Store.PopulationTable,
		GDP:        c.Store.GDPTable,
	}
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "countymap.db"
		}
		return store.NewSQLite(dsn, tables)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, tables, &store.PoolConfig{MaxConns: c.Store.MaxConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the metric database",
}

var storeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping the metric database and count rows per dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Ping(ctx); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "DATASET\tROWS\tWITH_CODE")
		_, _ = fmt.Fprintln(w, "-------\t----\t---------")
		for _, ds := range []metric.Dataset{metric.Population, metric.GDP} {
			recs, err := store.Load(ctx, st, ds.Name)
			if err != nil {
				return eris.Wrapf(err, "store check %s", ds.Name)
			}
			withCode := 0
			for _, r := range recs {
				if r.Code != "" {
					withCode++
				}
			}
			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", ds.Name, len(recs), withCode)
		}
		return w.Flush()
	},
}

func init() {
	storeCmd.AddCommand(storeCheckCmd)
	rootCmd.AddCommand(storeCmd)
}
