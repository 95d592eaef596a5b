// Package pipeline runs one aggregation pass over already-fetched stories:
// repair, age window, classification, dedupe, selection and the fallbacks
// that keep the published snapshot usable when a run finds nothing.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/teamfeed/internal/dedup"
	"github.com/deusflow/teamfeed/internal/feed"
	"github.com/deusflow/teamfeed/internal/news"
	"github.com/deusflow/teamfeed/internal/ranking"
	"github.com/deusflow/teamfeed/internal/relevance"
)

// DefaultMaxAge drops stories older than four days.
const DefaultMaxAge = 96 * time.Hour

// State describes which path produced the document.
type State string

const (
	StateFresh   State = "fresh"
	StateRelaxed State = "relaxed"
	StateStale   State = "stale"
	StateEmpty   State = "empty"
)

// Options tunes a run. Zero values fall back to the classifier's rules.
type Options struct {
	Limit      int
	MinTier    news.Tier
	MinResults int
	// MaxAge drops stories published before now-MaxAge. Zero disables it.
	MaxAge time.Duration
	Now    func() time.Time
}

// Stats counts what happened to the input.
type Stats struct {
	Input      int
	TooOld     int
	Rejected   int
	Duplicates int
	Selected   int
}

// Result is the outcome of Run. Document is always valid to publish.
type Result struct {
	Document feed.Document
	State    State
	Tier     news.Tier
	Stats    Stats
}

// Run never fails: a run that selects nothing re-publishes prev with a new
// timestamp, or an empty document when there is no previous snapshot.
func Run(items []news.Item, prev *feed.Document, classifier *relevance.Classifier, opts Options, logger *slog.Logger) (res Result) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	runAt := now().UTC().Truncate(time.Second)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panic, falling back to previous snapshot", "panic", fmt.Sprint(r))
			res = fallback(prev, runAt, res.Stats)
		}
	}()

	sel, stats := process(items, classifier, opts, runAt, logger)
	if len(sel.Items) == 0 {
		logger.Warn("no stories selected", "input", stats.Input, "rejected", stats.Rejected, "too_old", stats.TooOld)
		return fallback(prev, runAt, stats)
	}

	state := StateFresh
	if sel.Relaxed {
		state = StateRelaxed
		logger.Info("selection relaxed", "tier", sel.Tier.String(), "selected", len(sel.Items))
	}

	return Result{
		Document: feed.Build(sel.Items, runAt),
		State:    state,
		Tier:     sel.Tier,
		Stats:    stats,
	}
}

func process(items []news.Item, classifier *relevance.Classifier, opts Options, now time.Time, logger *slog.Logger) (ranking.Selection, Stats) {
	rules := classifier.Rules()
	stats := Stats{Input: len(items)}

	candidates := make([]news.Item, 0, len(items))
	for _, it := range items {
		it = it.Repair(now)
		it.Source = rules.CanonicalSource(it.Source)
		if opts.MaxAge > 0 && now.Sub(it.Published) > opts.MaxAge {
			stats.TooOld++
			logger.Debug("story too old", "title", it.Title, "published", it.Published)
			continue
		}
		candidates = append(candidates, it)
	}

	scored := classifier.ScoreAll(candidates)
	accepted := make([]news.Scored, 0, len(scored))
	for _, rec := range scored {
		if !rec.Tier.Accepted() {
			stats.Rejected++
			logger.Debug("story rejected", "title", rec.Title, "source", rec.Source, "disqualify", rec.Signals.Disqualify)
			continue
		}
		logger.Debug("story accepted", "title", rec.Title, "source", rec.Source, "tier", rec.Tier.String(), "score", rec.Score)
		accepted = append(accepted, rec)
	}

	deduped := dedup.DedupeWithStats(accepted)
	stats.Duplicates = deduped.Collapsed

	sel := ranking.SelectWithFallback(deduped.Items, selectionOptions(rules, opts))
	stats.Selected = len(sel.Items)

	return sel, stats
}

func selectionOptions(rules *relevance.Rules, opts Options) ranking.Options {
	out := ranking.Options{
		Limit:      rules.Limit(),
		MinTier:    rules.MinTier(),
		MinResults: rules.MinResults(),
	}
	if opts.Limit > 0 {
		out.Limit = opts.Limit
	}
	if opts.MinTier.Accepted() {
		out.MinTier = opts.MinTier
	}
	if opts.MinResults > 0 {
		out.MinResults = opts.MinResults
	}
	return out
}

func fallback(prev *feed.Document, now time.Time, stats Stats) Result {
	if prev != nil && len(prev.Items) > 0 {
		return Result{Document: prev.Restamp(now), State: StateStale, Stats: stats}
	}
	return Result{Document: feed.Empty(now), State: StateEmpty, Stats: stats}
}
