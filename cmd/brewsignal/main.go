// Command brewsignal runs the IP demand-signal pipeline and scoring
// engine: serve exposes the REST API, collect triggers a run_collection
// pass, migrate applies schema migrations, and confidence recalculates
// a stored confidence score — grounded on the upstream scanner's
// cobra-rooted cmd/cryptorun entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MaxShih147/brew-signal/internal/aggregate"
	"github.com/MaxShih147/brew-signal/internal/breaker"
	"github.com/MaxShih147/brew-signal/internal/collector"
	"github.com/MaxShih147/brew-signal/internal/config"
	"github.com/MaxShih147/brew-signal/internal/health"
	"github.com/MaxShih147/brew-signal/internal/httpapi"
	"github.com/MaxShih147/brew-signal/internal/logging"
	"github.com/MaxShih147/brew-signal/internal/metrics"
	"github.com/MaxShih147/brew-signal/internal/pipeline"
	"github.com/MaxShih147/brew-signal/internal/ratelimit"
	"github.com/MaxShih147/brew-signal/internal/retry"
	"github.com/MaxShih147/brew-signal/internal/store"
	"github.com/MaxShih147/brew-signal/internal/store/migrations"
	"github.com/MaxShih147/brew-signal/internal/store/postgres"
)

const appName = "brewsignal"

var (
	configPath string
	logLevel   string
	jsonLogs   bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := &cobra.Command{
		Use:     appName,
		Short:   "IP demand-signal pipeline and opportunity/BD scoring engine",
		Version: "v0.1.0",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(!jsonLogs, logLevel)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config overlay (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of console output")

	root.AddCommand(serveCmd(), migrateCmd(), collectCmd(), confidenceCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Defaults(), nil
	}
	return config.Load(configPath)
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	return postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns,
		time.Duration(cfg.Database.ConnMaxLifeSecs)*time.Second)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			st := postgres.NewStore(db, 10*time.Second)
			reg := metrics.NewRegistry()
			runner := newRunner(cfg, st)

			srv := httpapi.New(cfg, st, runner, reg, log.Logger)
			log.Info().Str("addr", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)).Msg("starting brewsignal server")

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.Info().Msg("applying migrations")
			return migrations.Up(cfg.Database.DSN)
		},
	}
}

func collectCmd() *cobra.Command {
	var ipID, geo, timeframe, sourceKey string

	run := &cobra.Command{
		Use:   "run",
		Short: "Run a single collection pass for one IP and source",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(ipID)
			if err != nil {
				return fmt.Errorf("invalid --ip: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			st := postgres.NewStore(db, 10*time.Second)
			runner := newRunner(cfg, st)

			summary, err := runner.RunCollection(cmd.Context(), id, geo, timeframe, sourceKey)
			if err != nil {
				return err
			}
			log.Info().
				Str("outcome", string(summary.Outcome)).
				Int("aliases", len(summary.Aliases)).
				Int("composite_rows", len(summary.Composite)).
				Msg("collection run complete")
			return nil
		},
	}
	run.Flags().StringVar(&ipID, "ip", "", "IP id (uuid)")
	run.Flags().StringVar(&geo, "geo", "TW", "geography code")
	run.Flags().StringVar(&timeframe, "timeframe", "today 3-m", "sampling timeframe")
	run.Flags().StringVar(&sourceKey, "source", "", "source_key to collect from")
	_ = run.MarkFlagRequired("ip")
	_ = run.MarkFlagRequired("source")

	var geoAll, timeframeAll string
	var concurrency int
	all := &cobra.Command{
		Use:   "all",
		Short: "Run collection for every IP against every configured source, fanned out concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			st := postgres.NewStore(db, 10*time.Second)
			runner := newRunner(cfg, st)

			ips, err := st.IPs.List(cmd.Context())
			if err != nil {
				return err
			}
			jobs := make([]pipeline.Job, 0, len(ips)*len(runner.Collectors))
			for _, ip := range ips {
				for src := range runner.Collectors {
					jobs = append(jobs, pipeline.Job{IPID: ip.ID, Geo: geoAll, Timeframe: timeframeAll, SourceKey: src})
				}
			}

			results := runner.RunAll(cmd.Context(), jobs, concurrency)
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					log.Error().Err(res.Err).Str("ip", res.Job.IPID.String()).Str("source", res.Job.SourceKey).Msg("collection job failed")
					continue
				}
				log.Info().Str("ip", res.Job.IPID.String()).Str("source", res.Job.SourceKey).Str("outcome", string(res.Summary.Outcome)).Msg("collection job complete")
			}
			log.Info().Int("total", len(results)).Int("failed", failed).Msg("fan-out collection complete")
			return nil
		},
	}
	all.Flags().StringVar(&geoAll, "geo", "TW", "geography code")
	all.Flags().StringVar(&timeframeAll, "timeframe", "today 3-m", "sampling timeframe")
	all.Flags().IntVar(&concurrency, "concurrency", 4, "maximum concurrent (ip, source) jobs")

	cmd := &cobra.Command{Use: "collect", Short: "Data-collection operations"}
	cmd.AddCommand(run, all)
	return cmd
}

func confidenceCmd() *cobra.Command {
	var ipID string

	recalc := &cobra.Command{
		Use:   "recalculate",
		Short: "Recompute and persist one IP's confidence score from source health",
		Long: "Recomputes confidence from current source-health rows only; the " +
			"POST /admin/confidence/{id}/recalculate endpoint additionally folds " +
			"in live indicator coverage.",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(ipID)
			if err != nil {
				return fmt.Errorf("invalid --ip: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			st := postgres.NewStore(db, 10*time.Second)
			registry, err := st.SourceRegistry.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]health.SourceHealthRow, 0, len(registry))
			for _, src := range registry {
				row := health.SourceHealthRow{
					SourceKey: src.SourceKey, IsKeySource: src.IsKeySource,
					PriorityWeight: src.PriorityWeight, AvailabilityLevel: src.AvailabilityLevel,
				}
				h, err := st.SourceHealth.Get(cmd.Context(), id, src.SourceKey)
				if err != nil {
					return err
				}
				if h != nil {
					row.Attempted = true
					row.Status = h.Status
				}
				rows = append(rows, row)
			}

			conf := health.ComputeConfidence(health.ConfidenceInput{
				IPID:            id.String(),
				Sources:         rows,
				ExpectedSources: len(registry),
				Now:             time.Now(),
				Weights:         cfg.Confidence,
			})
			conf.IPID = id
			if err := st.Confidence.Upsert(cmd.Context(), conf); err != nil {
				return err
			}
			log.Info().Int("score", conf.ConfidenceScore).Str("band", string(conf.ConfidenceBand)).Msg("confidence recalculated")
			return nil
		},
	}
	recalc.Flags().StringVar(&ipID, "ip", "", "IP id (uuid)")
	_ = recalc.MarkFlagRequired("ip")

	cmd := &cobra.Command{Use: "confidence", Short: "Confidence-score operations"}
	cmd.AddCommand(recalc)
	return cmd
}

// newRunner wires a pipeline.Runner with every configured source
// collector, the process-wide rate-limit and breaker managers, and the
// retry policy, per spec.md §5's module-level pacing-state requirement.
func newRunner(cfg config.Config, st store.Store) *pipeline.Runner {
	doer := newHTTPDoer(15 * time.Second)

	gates := ratelimit.NewManager()
	freshness := make(map[string]pipeline.Freshness, len(cfg.Sources))
	for key, sc := range cfg.Sources {
		gates.Configure(key, time.Duration(sc.MinIntervalSecs*float64(time.Second)))
		freshness[key] = pipeline.Freshness{FreshHours: sc.FreshHours, WarnHours: sc.WarnHours}
	}

	collectors := map[string]collector.Collector{
		"pytrends":            collector.NewTrendsCollector(doer, "https://trends.google.com"),
		"youtube":             collector.NewVideoCollector(doer, "https://www.googleapis.com"),
		"mal":                 collector.NewCatalogueCollector(doer, "https://api.jikan.moe"),
		"tw_ecommerce_shopee": collector.NewShopeeCollector(doer, "https://shopee.tw"),
		"tw_ecommerce_momo":   collector.NewMomoCollector(doer, "https://www.momoshop.com.tw"),
	}

	return &pipeline.Runner{
		Collectors: collectors,
		RateLimits: gates,
		Breakers: breaker.NewManager(
			cfg.Collector.BreakerThreshold,
			time.Duration(cfg.Collector.BreakerCooldownSecs)*time.Second,
		),
		Retry:      retry.NewPolicy(cfg.Collector.Retries, cfg.Collector.BackoffBaseSecs),
		Store:      st,
		Thresholds: aggregate.Thresholds{TWow: cfg.Signal.TWow, PBreak: cfg.Signal.PBreak},
		Freshness:  freshness,
		Logger:     log.Logger,
	}
}
