package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/teamfeed/internal/news"
)

var now = time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)

func scored(title string, tier news.Tier, score, hoursAgo int) news.Scored {
	return news.Scored{
		Item: news.Item{
			Source:    "Wire",
			Title:     title,
			Published: now.Add(-time.Duration(hoursAgo) * time.Hour),
		},
		Tier:  tier,
		Score: score,
	}
}

func titles(items []news.Scored) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestSelectOrdering(t *testing.T) {
	records := []news.Scored{
		scored("old direct", news.TierDirectMention, 95, 48),
		scored("new context", news.TierContextMention, 70, 1),
		scored("new direct", news.TierDirectMention, 95, 2),
		scored("trusted", news.TierTrustedSource, 100, 72),
	}

	got := Select(records, 10, news.TierSoftContext)
	assert.Equal(t, []string{"trusted", "new direct", "old direct", "new context"}, titles(got))
}

func TestSelectStableTies(t *testing.T) {
	records := []news.Scored{
		scored("first", news.TierDirectMention, 90, 3),
		scored("second", news.TierDirectMention, 90, 3),
		scored("third", news.TierDirectMention, 90, 3),
	}

	got := Select(records, 10, news.TierOpponentFraming)
	assert.Equal(t, []string{"first", "second", "third"}, titles(got))
}

func TestSelectFiltersAndLimits(t *testing.T) {
	records := []news.Scored{
		scored("rejected", news.TierRejected, 0, 1),
		scored("soft", news.TierSoftContext, 20, 1),
		scored("opponent", news.TierOpponentFraming, 40, 1),
		scored("direct a", news.TierDirectMention, 90, 1),
		scored("direct b", news.TierDirectMention, 85, 1),
	}

	tests := []struct {
		name    string
		limit   int
		minTier news.Tier
		want    []string
	}{
		{name: "default floor", limit: 10, minTier: news.TierOpponentFraming, want: []string{"direct a", "direct b", "opponent"}},
		{name: "soft floor", limit: 10, minTier: news.TierSoftContext, want: []string{"direct a", "direct b", "opponent", "soft"}},
		{name: "rejected floor never admits rejected", limit: 10, minTier: news.TierRejected, want: []string{"direct a", "direct b", "opponent", "soft"}},
		{name: "limit", limit: 2, minTier: news.TierSoftContext, want: []string{"direct a", "direct b"}},
		{name: "zero limit", limit: 0, minTier: news.TierSoftContext, want: []string{}},
		{name: "high floor", limit: 10, minTier: news.TierTrustedSource, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(records, tt.limit, tt.minTier)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	records := []news.Scored{
		scored("low", news.TierSoftContext, 20, 1),
		scored("high", news.TierDirectMention, 90, 1),
	}

	_ = Select(records, 10, news.TierSoftContext)
	assert.Equal(t, "low", records[0].Title)
}

func TestSelectIdempotent(t *testing.T) {
	records := []news.Scored{
		scored("a", news.TierContextMention, 60, 5),
		scored("b", news.TierDirectMention, 90, 1),
		scored("c", news.TierDirectMention, 90, 3),
	}

	once := Select(records, 10, news.TierSoftContext)
	twice := Select(once, 10, news.TierSoftContext)
	assert.Equal(t, once, twice)
}

func TestSelectWithFallback(t *testing.T) {
	softOnly := []news.Scored{
		scored("bracketology", news.TierSoftContext, 25, 2),
		scored("noise", news.TierRejected, 0, 1),
	}

	sel := SelectWithFallback(softOnly, Options{Limit: 20, MinTier: news.TierOpponentFraming})
	require.Len(t, sel.Items, 1)
	assert.True(t, sel.Relaxed)
	assert.Equal(t, news.TierSoftContext, sel.Tier)

	strong := append([]news.Scored{scored("direct", news.TierDirectMention, 90, 1)}, softOnly...)
	sel = SelectWithFallback(strong, Options{Limit: 20, MinTier: news.TierOpponentFraming})
	assert.False(t, sel.Relaxed)
	assert.Equal(t, news.TierOpponentFraming, sel.Tier)
	assert.Equal(t, []string{"direct"}, titles(sel.Items))
}

func TestSelectWithFallbackMinResults(t *testing.T) {
	records := []news.Scored{
		scored("direct", news.TierDirectMention, 90, 1),
		scored("context", news.TierContextMention, 60, 1),
		scored("soft", news.TierSoftContext, 20, 1),
	}

	sel := SelectWithFallback(records, Options{Limit: 20, MinTier: news.TierDirectMention, MinResults: 2})
	assert.Equal(t, news.TierContextMention, sel.Tier)
	assert.True(t, sel.Relaxed)
	assert.Equal(t, []string{"direct", "context"}, titles(sel.Items))
}

func TestSelectWithFallbackNothingAccepted(t *testing.T) {
	sel := SelectWithFallback([]news.Scored{scored("noise", news.TierRejected, 0, 1)}, Options{Limit: 20, MinTier: news.TierDirectMention})
	assert.Empty(t, sel.Items)
	assert.Equal(t, news.TierSoftContext, sel.Tier)

	sel = SelectWithFallback(nil, Options{Limit: 20})
	assert.NotNil(t, sel.Items)
	assert.Empty(t, sel.Items)
}
