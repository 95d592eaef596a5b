package relevance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/teamfeed/internal/news"
)

func TestNewRulesDefaults(t *testing.T) {
	rules, err := NewRules(testSpec())
	require.NoError(t, err)

	assert.Equal(t, "Purdue men's basketball", rules.SubjectName())
	assert.Equal(t, 20, rules.Limit())
	assert.Equal(t, 1, rules.MinResults())
	assert.Equal(t, news.TierOpponentFraming, rules.MinTier())
	assert.Equal(t, 100, rules.Points(news.TierTrustedSource))
	assert.Zero(t, rules.Points(news.TierRejected))
}

func TestNewRulesValidation(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name   string
		mutate func(*RulesSpec)
	}{
		{name: "no subject terms", mutate: func(s *RulesSpec) { s.Subject.Terms = []string{" ", ""} }},
		{name: "unknown tier points", mutate: func(s *RulesSpec) { s.Scoring.TierPoints = map[string]int{"gold": 1} }},
		{name: "rejected tier points", mutate: func(s *RulesSpec) { s.Scoring.TierPoints = map[string]int{"rejected": 1} }},
		{name: "not strictly decreasing", mutate: func(s *RulesSpec) { s.Scoring.TierPoints = map[string]int{"direct": 100} }},
		{name: "bonuses exceed gap", mutate: func(s *RulesSpec) { s.Scoring.SportBonus = intPtr(15) }},
		{name: "negative bonus", mutate: func(s *RulesSpec) { s.Scoring.MentionBonus = intPtr(-1) }},
		{name: "soft tier not positive", mutate: func(s *RulesSpec) {
			s.Scoring.TierPoints = map[string]int{"soft": 0}
		}},
		{name: "bad min tier", mutate: func(s *RulesSpec) { s.Selection.MinTier = "rejected" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testSpec()
			tt.mutate(&spec)
			_, err := NewRules(spec)
			assert.ErrorIs(t, err, ErrInvalidRules)
		})
	}
}

func TestCanonicalSource(t *testing.T) {
	rules, err := NewRules(testSpec())
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: news.UnknownSource},
		{in: "   ", want: news.UnknownSource},
		{in: "Hammer & Rails", want: "Hammer & Rails"},
		{in: "HAMMER & RAILS", want: "Hammer & Rails"},
		{in: "hammerandrails.com", want: "Hammer & Rails"},
		{in: "https://www.hammerandrails.com/rss/current.xml", want: "Hammer & Rails"},
		{in: "ESPN College Basketball", want: "ESPN"},
		{in: "Team Athletics Official", want: "Team Athletics"},
		{in: "Team Athletics", want: "Team Athletics"},
		{in: "  Some Blog  ", want: "Some Blog"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := rules.CanonicalSource(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, rules.CanonicalSource(got), "canonicalization must be idempotent")
		})
	}
}

func TestApostropheVariants(t *testing.T) {
	terms := compileTerms([]string{"Men's Basketball", "hoops", "hoops"})
	assert.ElementsMatch(t, []string{
		"men's basketball",
		"men’s basketball",
		"men‘s basketball",
		"menʼs basketball",
		"hoops",
	}, terms)
}

func TestWithSelection(t *testing.T) {
	rules, err := NewRules(testSpec())
	require.NoError(t, err)

	tuned, err := rules.WithSelection(5, "direct", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, tuned.Limit())
	assert.Equal(t, news.TierDirectMention, tuned.MinTier())
	assert.Equal(t, 3, tuned.MinResults())

	assert.Equal(t, 20, rules.Limit(), "original rules must stay untouched")

	same, err := rules.WithSelection(0, "", 0)
	require.NoError(t, err)
	assert.Equal(t, rules.Limit(), same.Limit())

	_, err = rules.WithSelection(0, "bogus", 0)
	assert.ErrorIs(t, err, ErrInvalidRules)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
subject:
  name: Test Program
  terms: [purdue, boilermakers]
sport_terms: [basketball]
disqualify_terms: [football]
sources:
  aliases:
    purduesports.com: PurdueSports
  trusted: [PurdueSports]
scoring:
  tier_points:
    trusted: 200
  sport_bonus: 2
selection:
  limit: 10
  min_tier: context
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Program", rules.SubjectName())
	assert.Equal(t, 200, rules.Points(news.TierTrustedSource))
	assert.Equal(t, 10, rules.Limit())
	assert.Equal(t, news.TierContextMention, rules.MinTier())
	assert.True(t, rules.IsTrusted("purduesports.com"))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShippedRulesFile(t *testing.T) {
	rules, err := LoadRules(filepath.Join("..", "..", "configs", "rules.yaml"))
	require.NoError(t, err)

	c := NewClassifier(rules)
	assert.Equal(t, news.TierRejected, c.Classify(news.Item{Title: "Conference wrestling championship preview"}))
	assert.Equal(t, news.TierOpponentFraming, c.Classify(news.Item{Source: "AP", Title: "Rival State holds off No. 1 Purdue in exhibition"}))
	assert.Equal(t, 20, rules.Limit())
}
