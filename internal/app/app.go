// Package app wires one batch run: fetch, aggregate, publish.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/teamfeed/internal/config"
	"github.com/deusflow/teamfeed/internal/feed"
	"github.com/deusflow/teamfeed/internal/logger"
	"github.com/deusflow/teamfeed/internal/metrics"
	"github.com/deusflow/teamfeed/internal/normalize"
	"github.com/deusflow/teamfeed/internal/pipeline"
	"github.com/deusflow/teamfeed/internal/relevance"
	"github.com/deusflow/teamfeed/internal/rss"
)

// Fetcher reads every configured source.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []rss.Source) rss.Result
}

type App struct {
	cfg        *config.Config
	log        *slog.Logger
	metrics    *metrics.Metrics
	classifier *relevance.Classifier
	sources    *rss.SourcesConfig
	fetcher    Fetcher
	store      *feed.Store
	now        func() time.Time
}

// New loads rules and sources and prepares the fetcher. Any error here is a
// startup failure.
func New(cfg *config.Config, log *slog.Logger, m *metrics.Metrics) (*App, error) {
	if log == nil {
		log = logger.Logger
	}
	if m == nil {
		m = metrics.Global
	}

	rules, err := relevance.LoadRules(cfg.RulesConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	rules, err = rules.WithSelection(cfg.FeedLimit, cfg.MinTier, cfg.MinResults)
	if err != nil {
		return nil, fmt.Errorf("selection overrides: %w", err)
	}

	sources, err := rss.LoadSources(cfg.FeedsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	if sources.Team != "" && sources.Team != cfg.TeamSlug {
		log.Warn("sources file is for another team", "file_team", sources.Team, "team", cfg.TeamSlug)
	}

	normalizer := normalize.New(rules)
	fetcher := rss.NewFetcher(cfg.RequestTimeout, cfg.UserAgent, cfg.MaxItemsPerFeed, normalizer, log)

	return &App{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		classifier: relevance.NewClassifier(rules),
		sources:    sources,
		fetcher:    fetcher,
		store:      feed.NewStore(cfg.OutputPath),
		now:        time.Now,
	}, nil
}

// Run performs a single run with the process-wide logger and metrics.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.With("run_id", uuid.NewString(), "team", cfg.TeamSlug)

	a, err := New(cfg, log, metrics.Global)
	if err != nil {
		metrics.Global.SetError(err.Error())
		exportMetrics(metrics.Global, cfg.MetricsTextfile, log)
		return err
	}
	return a.Run(ctx)
}

// exportMetrics writes the textfile when one is configured. Failures are
// only logged.
func exportMetrics(m *metrics.Metrics, path string, log *slog.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		log.Warn("Failed to write metrics textfile", "path", path, "error", err)
	}
}

// Run fetches, aggregates and writes the snapshot. Fetch problems degrade
// the output; only a failed write is returned as an error.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	a.log.Info("Starting run", "sources", len(a.sources.Feeds), "output", a.cfg.OutputPath)

	fetched := a.fetcher.FetchAll(ctx, a.sources.Feeds)
	items := fetched.Items()
	a.metrics.AddFetched(len(items), fetched.OK, fetched.Failed)

	prev, err := a.store.Load()
	if err != nil {
		a.metrics.IncrementSnapshotFailures()
		a.log.Warn("Previous snapshot unreadable, ignoring it", "path", a.cfg.OutputPath, "error", err)
		prev = nil
	}

	res := pipeline.Run(items, prev, a.classifier, pipeline.Options{
		MaxAge: a.cfg.NewsMaxAge,
		Now:    a.now,
	}, a.log)

	if err := a.store.Save(res.Document); err != nil {
		a.metrics.IncrementSnapshotFailures()
		a.metrics.SetError(err.Error())
		exportMetrics(a.metrics, a.cfg.MetricsTextfile, a.log)
		return fmt.Errorf("write snapshot: %w", err)
	}

	a.metrics.AddPipeline(res.Stats.TooOld, res.Stats.Rejected, res.Stats.Duplicates, len(res.Document.Items))
	a.metrics.SetState(string(res.State))
	a.metrics.RecordProcessingTime(time.Since(start))
	a.metrics.SetLastRun()

	exportMetrics(a.metrics, a.cfg.MetricsTextfile, a.log)

	a.log.Info("Run finished",
		"state", string(res.State),
		"tier", res.Tier.String(),
		"fetched", len(items),
		"feeds_ok", fetched.OK,
		"feeds_failed", fetched.Failed,
		"too_old", res.Stats.TooOld,
		"rejected", res.Stats.Rejected,
		"duplicates", res.Stats.Duplicates,
		"written", len(res.Document.Items),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	a.log.Debug("Run stats", "stats", a.metrics.GetStats())

	return nil
}
