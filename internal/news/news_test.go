package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "query stripped", in: "https://x/b?utm=1", want: "https://x/b"},
		{name: "different query same identity", in: "https://x/b?utm=2", want: "https://x/b"},
		{name: "fragment stripped", in: "https://example.com/story#comments", want: "https://example.com/story"},
		{name: "host lowercased", in: "HTTPS://Example.COM/Path/Story", want: "https://example.com/Path/Story"},
		{name: "trailing slash", in: "https://example.com/story/", want: "https://example.com/story"},
		{name: "root kept", in: "https://example.com/", want: "https://example.com/"},
		{name: "whitespace", in: "  https://example.com/a  ", want: "https://example.com/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURL(tt.in))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "purdue tops indiana", NormalizeTitle("  Purdue   TOPS\tIndiana "))
	assert.Equal(t, NormalizeTitle("Season Opener Set"), NormalizeTitle("season opener  set"))
	assert.Empty(t, NormalizeTitle("   "))
}

func TestItemRepair(t *testing.T) {
	now := time.Date(2025, 11, 3, 12, 30, 45, 999, time.FixedZone("EST", -5*3600))

	got := Item{Title: "  ", Published: time.Time{}}.Repair(now)
	assert.Equal(t, UnknownSource, got.Source)
	assert.Equal(t, UntitledTitle, got.Title)
	assert.True(t, got.Untitled)
	assert.Empty(t, got.TitleKey())
	assert.Equal(t, time.UTC, got.Published.Location())
	assert.True(t, got.Published.Equal(now.Truncate(time.Second)))
	assert.Zero(t, got.Published.Nanosecond())

	published := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	kept := Item{Source: "ESPN", Title: "Headline", URL: " https://x/a ", Published: published}.Repair(now)
	assert.Equal(t, "ESPN", kept.Source)
	assert.False(t, kept.Untitled)
	assert.Equal(t, "headline", kept.TitleKey())
	assert.Equal(t, "https://x/a", kept.URL)
	assert.True(t, kept.Published.Equal(published))
}

func TestParseTier(t *testing.T) {
	for _, tier := range append([]Tier{TierRejected}, Tiers...) {
		parsed, err := ParseTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}

	_, err := ParseTier("platinum")
	assert.Error(t, err)

	parsed, err := ParseTier("  Direct ")
	require.NoError(t, err)
	assert.Equal(t, TierDirectMention, parsed)
}

func TestTierOrdering(t *testing.T) {
	for i := 1; i < len(Tiers); i++ {
		assert.Greater(t, Tiers[i-1], Tiers[i], "tiers must be listed from most to least confident")
	}
	assert.False(t, TierRejected.Accepted())
	assert.True(t, TierSoftContext.Accepted())
}
