// Command flag runs coordinated-buy detection over a canonical transaction
// CSV and writes the five detection columns back, in place by default.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coordscan/pkg/core/config"
	"coordscan/pkg/core/detect"
	"coordscan/pkg/core/registry"
	"coordscan/pkg/core/report"
	"coordscan/pkg/core/tabular"
)

func main() {
	var (
		configPath      string
		inPath          string
		outPath         string
		xlsxPath        string
		registryPages   int
		userAgent       string
		by              string
		absTol          float64
		pctTol          float64
		minBuyers       int
		keepHistory     bool
		noPreferRevised bool
	)

	cmd := &cobra.Command{
		Use:           "flag",
		Short:         "Flag coordinated buys in a transaction CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("by") {
				cfg.By = by
			}
			if cmd.Flags().Changed("abs-tol") {
				cfg.AbsTol = absTol
			}
			if cmd.Flags().Changed("pct-tol") {
				cfg.PctTol = pctTol
			}
			if cmd.Flags().Changed("min-buyers") {
				cfg.MinBuyers = minBuyers
			}
			if keepHistory {
				cfg.KeepHistory = true
			}
			if noPreferRevised {
				f := false
				cfg.PreferRevised = &f
			}

			params, err := cfg.DetectParams()
			if err != nil {
				return err
			}

			zl, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer zl.Sync()
			log := zl.Sugar()

			var table *tabular.Table
			if registryPages > 0 {
				ua := userAgent
				if ua == "" {
					ua = cfg.UserAgent
				}
				if ua == "" {
					ua = os.Getenv("EDGAR_USER_AGENT")
				}
				if ua == "" {
					return fmt.Errorf("a User-Agent with contact info is required for registry fetches")
				}
				if outPath == "" {
					outPath = "registry.csv"
				}
				table, err = fetchRegistry(cmd.Context(), ua, registryPages, log)
				if err != nil {
					return err
				}
			} else {
				if outPath == "" {
					outPath = inPath
				}
				table, err = tabular.ReadFile(inPath)
				if err != nil {
					return err
				}
			}

			coordinated, err := detect.FlagTable(table, params)
			if err != nil {
				return err
			}
			if err := table.WriteFile(outPath); err != nil {
				return err
			}
			log.Infow("flagged", "in", inPath, "out", outPath,
				"rows", len(table.Rows), "coordinated", coordinated)

			if xlsxPath != "" {
				if err := report.WriteXLSX(table, xlsxPath); err != nil {
					return err
				}
				log.Infow("report written", "xlsx", xlsxPath, "summary", report.Summary(table))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&inPath, "in", "out.csv", "input CSV")
	cmd.Flags().StringVar(&outPath, "out", "", "output CSV (default: update --in in place)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "optional Excel report path")
	cmd.Flags().IntVar(&registryPages, "registry-pages", 0, "fetch N insider-registry search pages instead of reading --in")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent with contact info for registry fetches")
	cmd.Flags().StringVar(&by, "by", "publication", "date basis: publication or transaction")
	cmd.Flags().Float64Var(&absTol, "abs-tol", 0.02, "absolute price span tolerance")
	cmd.Flags().Float64Var(&pctTol, "pct-tol", 0.003, "span tolerance as fraction of median price")
	cmd.Flags().IntVar(&minBuyers, "min-buyers", 2, "minimum distinct buyers")
	cmd.Flags().BoolVar(&keepHistory, "keep-history", false, "keep superseded history rows")
	cmd.Flags().BoolVar(&noPreferRevised, "no-prefer-revised", false, "disable revision-preference dedup")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// fetchRegistry pulls the first n search pages and concatenates their result
// tables under the first page's headers.
func fetchRegistry(ctx context.Context, userAgent string, n int, log *zap.SugaredLogger) (*tabular.Table, error) {
	client := registry.NewClient(userAgent)
	var table *tabular.Table
	for page := 1; page <= n; page++ {
		t, err := client.FetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if table == nil {
			table = t
		} else {
			for _, row := range t.Rows {
				table.Append(row)
			}
		}
		log.Infow("registry page fetched", "page", page, "rows", len(t.Rows))
	}
	return table, nil
}
