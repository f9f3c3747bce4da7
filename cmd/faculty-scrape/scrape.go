package main

import (
	"context"
	"time"

	"faculty/internal/config"
	"faculty/internal/faculty"
	"faculty/internal/metrics"
	"faculty/internal/metrics/datadog"
	"faculty/internal/scraper"
	"faculty/internal/storage"
	_ "faculty/internal/storage/all"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScrapeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch the directory and export the records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.loadConfig(cmd)
			if err != nil {
				return err
			}
			return e.scrape(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	addSiteFlags(cmd)
	f.String("input-dir", "", "scrape saved .html pages from this directory instead of fetching")
	f.Int("workers", scraper.DefaultWorkers, "concurrent page fetches")
	f.Bool("dedupe", false, "drop records whose email already appeared")
	f.Bool("no-profiles", false, "skip profile-page enrichment")
	f.String("csv", "", `write CSV to this path ("-" for stdout)`)
	f.String("xlsx", "", "write an XLSX workbook to this path")
	f.Bool("table", false, "print a table to stdout")
	f.Int("max-width", 60, "table column width cap (0 = unbounded)")
	f.Bool("datadog", false, "submit metrics to Datadog (DD_API_KEY, DD_SITE)")
	f.String("store", "", "also write records to a database: sqlite, postgres, mssql")
	f.String("dsn", "", "database DSN for --store")
	f.String("store-table", storage.DefaultTable, "table name for --store")
	return cmd
}

// addSiteFlags registers the flags shared by scrape and pages.
func addSiteFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("url", "", "directory page URL")
	f.StringSlice("page", nil, "explicit page URL (repeatable); overrides --letters")
	f.String("letters", "", `derive one page per letter, e.g. "A-Z" or "A-C,X"`)
	f.String("letter-param", "letter", "query parameter used by --letters")
	f.String("rules", "", "selector rules file (.json or .yaml); default: built-in rules")
	f.Duration("timeout", scraper.DefaultTimeout, "per-request timeout")
	f.String("user-agent", "", "User-Agent header")
}

func (e *env) newScraper(cfg *config.Config, logger *zap.Logger, m metrics.Backend) (*scraper.Scraper, error) {
	rules, err := loadRules(cfg.Scrape.RulesFile)
	if err != nil {
		return nil, err
	}
	return scraper.New(scraper.Config{
		BaseURL:     cfg.Scrape.BaseURL,
		Pages:       cfg.Scrape.Pages,
		Letters:     cfg.Scrape.Letters,
		LetterParam: cfg.Scrape.LetterParam,
		Rules:       rules,
		Workers:     cfg.Scrape.Workers,
		Timeout:     cfg.Scrape.Timeout,
		UserAgent:   cfg.Scrape.UserAgent,
		Dedupe:      cfg.Scrape.Dedupe,
		NoProfiles:  cfg.Scrape.NoProfiles,
		Logger:      logger,
		Metrics:     m,
		HTTPClient:  e.client,
	})
}

func (e *env) scrape(ctx context.Context, cfg *config.Config) error {
	logger, err := config.NewLogger(cfg.Log, e.stderr)
	if err != nil {
		return usage(err)
	}
	defer func() { _ = logger.Sync() }()

	rec := metrics.NewRecorder()
	backend := metrics.Tee{rec}
	if cfg.Metrics.Datadog {
		dd, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    cfg.Metrics.JobName,
			Tags:       datadog.ParseTagsCSV(cfg.Metrics.Tags),
			FlushEvery: cfg.Metrics.FlushEvery,
		})
		if err != nil {
			return err
		}
		defer func() {
			if cerr := dd.Close(); cerr != nil {
				logger.Warn("datadog flush failed", zap.Error(cerr))
			}
		}()
		backend = append(backend, dd)
	}

	s, err := e.newScraper(cfg, logger, backend)
	if err != nil {
		return err
	}

	var result faculty.Result
	if cfg.Scrape.InputDir != "" {
		result, err = s.ScrapeDir(ctx, cfg.Scrape.InputDir)
	} else {
		result, err = s.Scrape(ctx)
	}
	if err != nil {
		return err
	}

	if err := e.export(ctx, cfg, s, result, logger); err != nil {
		return err
	}

	logger.Info("run summary",
		zap.Float64("pages_ok", rec.Counter(metrics.PagesTotal, metrics.Labels{"status": "ok"})),
		zap.Float64("pages_failed", rec.Counter(metrics.PagesTotal, metrics.Labels{"status": "error"})),
		zap.Float64("profiles", rec.Counter(metrics.RecordsTotal, metrics.Labels{"kind": "profile"})),
		zap.Int("records", len(result)))
	return nil
}

// export writes every requested output. With none requested, CSV goes to stdout.
func (e *env) export(ctx context.Context, cfg *config.Config, s *scraper.Scraper, result faculty.Result, logger *zap.Logger) error {
	out := cfg.Output
	if out.CSV == "" && out.XLSX == "" && !out.Table && cfg.Store.Kind == "" {
		out.CSV = "-"
	}

	switch out.CSV {
	case "":
	case "-":
		if err := faculty.WriteCSV(e.stdout, result); err != nil {
			return err
		}
	default:
		if err := s.ExportCSV(out.CSV); err != nil {
			return err
		}
		logger.Info("csv written", zap.String("path", out.CSV), zap.Int("records", len(result)))
	}

	if out.XLSX != "" {
		if err := faculty.ExportXLSX(out.XLSX, result); err != nil {
			return err
		}
		logger.Info("xlsx written", zap.String("path", out.XLSX))
	}

	if out.Table {
		s.AsTable().Render(e.stdout, out.MaxWidth)
	}

	if cfg.Store.Kind != "" {
		return e.store(ctx, cfg.Store, result, logger)
	}
	return nil
}

func (e *env) store(ctx context.Context, sc config.StoreConfig, result faculty.Result, logger *zap.Logger) error {
	sink, err := storage.Open(ctx, storage.Config{Kind: sc.Kind, DSN: sc.DSN, Table: sc.Table})
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := sink.EnsureSchema(ctx); err != nil {
		return err
	}
	runID := uuid.NewString()
	n, err := sink.WriteRecords(ctx, runID, result)
	if err != nil {
		return eris.Wrapf(err, "store run %s", runID)
	}
	logger.Info("records stored", zap.String("kind", sc.Kind), zap.String("run_id", runID), zap.Int64("rows", n))
	return nil
}
