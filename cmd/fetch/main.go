// Command fetch walks the daily EDGAR index over a date range and writes
// the canonical transaction CSV consumed by the flag command.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coordscan/pkg/core/config"
	"coordscan/pkg/core/fetch"
	"coordscan/pkg/core/pipeline"
	"coordscan/pkg/core/store"
)

func main() {
	var (
		configPath string
		csvPath    string
		dateStr    string
		startStr   string
		endStr     string
		userAgent  string
		rps        float64
		workers    int
		codes      []string
		noTenPct   bool
		keepOTC    bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:           "fetch",
		Short:         "Fetch ownership filings from the daily index into a CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; environment variables may be set directly.
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("user-agent") {
				cfg.UserAgent = userAgent
			}
			if cfg.UserAgent == "" {
				cfg.UserAgent = os.Getenv("EDGAR_USER_AGENT")
			}
			if cfg.UserAgent == "" {
				return fmt.Errorf("a User-Agent with contact info is required (flag, config or EDGAR_USER_AGENT)")
			}
			if cmd.Flags().Changed("rps") {
				cfg.RequestsPerSecond = rps
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("include-codes") {
				cfg.IncludeCodes = codes
			}
			if noTenPct {
				f := false
				cfg.RequireTenPercent = &f
			}
			if keepOTC {
				cfg.KeepOTC = true
			}

			start, end, err := resolveRange(dateStr, startStr, endStr)
			if err != nil {
				return err
			}

			zl, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer zl.Sync()
			runID := uuid.NewString()
			log := zl.Sugar().With("run_id", runID)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out, err := pipeline.OpenCSV(csvPath)
			if err != nil {
				return err
			}
			defer out.Close()

			sinks := []pipeline.RowSink{out}
			if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
				mirror, err := store.New(ctx, dbURL, runID)
				if err != nil {
					return err
				}
				defer mirror.Close()
				sinks = append(sinks, mirror)
			}

			orch := pipeline.New(pipeline.Options{
				Client:  fetch.NewClient(cfg.FetchOptions()),
				Filter:  cfg.FilterConfig(),
				Workers: cfg.Workers,
				Verbose: verbose,
				Logger:  log,
			})

			result, err := orch.Run(ctx, start, end, sinks...)
			if err != nil {
				return err
			}
			log.Infow("done", "scanned", result.Scanned, "kept", result.Kept, "csv", csvPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&csvPath, "csv", "out.csv", "output CSV path")
	cmd.Flags().StringVar(&dateStr, "date", "", "single date YYYY-MM-DD")
	cmd.Flags().StringVar(&startStr, "start", "", "range start YYYY-MM-DD")
	cmd.Flags().StringVar(&endStr, "end", "", "range end YYYY-MM-DD")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent with contact info")
	cmd.Flags().Float64Var(&rps, "rps", 2.0, "requests-per-second ceiling")
	cmd.Flags().IntVar(&workers, "workers", 6, "worker/connection pool size")
	cmd.Flags().StringSliceVar(&codes, "include-codes", []string{"P", "C"}, "transaction codes to keep")
	cmd.Flags().BoolVar(&noTenPct, "no-tenpct-filter", false, "keep all filers, not only ten-percent owners")
	cmd.Flags().BoolVar(&keepOTC, "keep-otc", false, "keep OTC/foreign symbols")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log one line per kept row")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveRange turns the date flags into an inclusive range, defaulting to
// yesterday when nothing is given.
func resolveRange(date, start, end string) (time.Time, time.Time, error) {
	parse := func(s string) (time.Time, error) {
		return time.Parse("2006-01-02", s)
	}
	switch {
	case date != "":
		d, err := parse(date)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --date: %w", err)
		}
		return d, d, nil
	case start != "" && end != "":
		s, err := parse(start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		e, err := parse(end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
		if e.Before(s) {
			return time.Time{}, time.Time{}, fmt.Errorf("--end precedes --start")
		}
		return s, e, nil
	case start != "" || end != "":
		return time.Time{}, time.Time{}, fmt.Errorf("--start and --end must be given together")
	}
	y := time.Now().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	return y, y, nil
}
