// Package ranking orders classified stories and picks the ones to publish.
package ranking

import (
	"sort"

	"github.com/deusflow/teamfeed/internal/news"
)

// Options controls a selection pass.
type Options struct {
	Limit      int
	MinTier    news.Tier
	MinResults int
}

// Selection is the outcome of SelectWithFallback.
type Selection struct {
	Items   []news.Scored
	Tier    news.Tier // tier floor that produced Items
	Relaxed bool      // true when Tier is below the requested floor
}

// Select keeps accepted stories at or above minTier, orders them by score
// then recency, and returns at most limit of them. Equal keys keep their
// input order.
func Select(records []news.Scored, limit int, minTier news.Tier) []news.Scored {
	if limit <= 0 {
		return []news.Scored{}
	}
	if minTier < news.TierSoftContext {
		minTier = news.TierSoftContext
	}

	kept := make([]news.Scored, 0, len(records))
	for _, rec := range records {
		if rec.Tier.Accepted() && rec.Tier >= minTier {
			kept = append(kept, rec)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Published.After(kept[j].Published)
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// SelectWithFallback runs Select at opts.MinTier and, while fewer than
// opts.MinResults stories survive, lowers the floor one tier at a time down to
// SoftContext.
func SelectWithFallback(records []news.Scored, opts Options) Selection {
	minResults := opts.MinResults
	if minResults <= 0 {
		minResults = 1
	}
	if minResults > opts.Limit {
		minResults = opts.Limit
	}

	floor := opts.MinTier
	if floor < news.TierSoftContext {
		floor = news.TierSoftContext
	}
	if floor > news.TierTrustedSource {
		floor = news.TierTrustedSource
	}

	tier := floor
	items := Select(records, opts.Limit, tier)
	for len(items) < minResults && tier > news.TierSoftContext {
		tier--
		items = Select(records, opts.Limit, tier)
	}

	return Selection{
		Items:   items,
		Tier:    tier,
		Relaxed: tier < floor,
	}
}
