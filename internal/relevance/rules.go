// Package relevance decides how confidently a story concerns the tracked
// program. Rules are built once from data and never mutated afterwards.
package relevance

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/teamfeed/internal/news"
)

// ErrInvalidRules is returned when a rules file cannot produce a usable classifier.
var ErrInvalidRules = errors.New("invalid relevance rules")

// apostrophes are the forms a possessive shows up in across feeds.
var apostrophes = []string{"'", "’", "‘", "ʼ"}

// RulesSpec is the on-disk shape of configs/rules.yaml.
type RulesSpec struct {
	Subject         SubjectSpec   `yaml:"subject"`
	SportTerms      []string      `yaml:"sport_terms"`
	BigPictureTerms []string      `yaml:"big_picture_terms"`
	DisqualifyTerms []string      `yaml:"disqualify_terms"`
	HeadToHeadVerbs []string      `yaml:"head_to_head_verbs"`
	Sources         SourcesSpec   `yaml:"sources"`
	Scoring         ScoringSpec   `yaml:"scoring"`
	Selection       SelectionSpec `yaml:"selection"`
}

type SubjectSpec struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// SourcesSpec maps raw feed names (lower-case aliases, domains) to display labels.
type SourcesSpec struct {
	Aliases  map[string]string `yaml:"aliases"`
	Trusted  []string          `yaml:"trusted"`
	National []string          `yaml:"national"`
}

// ScoringSpec holds base points per tier name plus the two flat bonuses.
type ScoringSpec struct {
	TierPoints   map[string]int `yaml:"tier_points"`
	SportBonus   *int           `yaml:"sport_bonus"`
	MentionBonus *int           `yaml:"mention_bonus"`
}

type SelectionSpec struct {
	Limit      int    `yaml:"limit"`
	MinTier    string `yaml:"min_tier"`
	MinResults int    `yaml:"min_results"`
}

// Rules is the compiled, read-only classifier configuration.
type Rules struct {
	subjectName string

	subject    []string
	sport      []string
	bigPicture []string
	disqualify []string
	headToHead *regexp.Regexp

	aliases   map[string]string
	aliasKeys []string
	trusted   map[string]struct{}
	national  map[string]struct{}

	points       map[news.Tier]int
	sportBonus   int
	mentionBonus int

	limit      int
	minTier    news.Tier
	minResults int
}

const (
	defaultLimit        = 20
	defaultMinResults   = 1
	defaultSportBonus   = 5
	defaultMentionBonus = 10
)

var defaultPoints = map[news.Tier]int{
	news.TierTrustedSource:   100,
	news.TierDirectMention:   80,
	news.TierContextMention:  60,
	news.TierOpponentFraming: 40,
	news.TierSoftContext:     20,
}

var defaultHeadToHeadVerbs = []string{
	"over", "beat", "beats", "vs", "vs.", "versus", "upset", "upsets", "stun", "stuns",
	"hold off", "holds off", "edge", "edges", "top", "tops", "topple", "topples", "knock off", "knocks off",
}

// LoadRules reads and compiles a YAML rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}

	var spec RulesSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}

	return NewRules(spec)
}

// NewRules compiles a spec, filling defaults and validating the scoring table.
func NewRules(spec RulesSpec) (*Rules, error) {
	r := &Rules{
		subjectName: strings.TrimSpace(spec.Subject.Name),
		subject:     compileTerms(spec.Subject.Terms),
		sport:       compileTerms(spec.SportTerms),
		bigPicture:  compileTerms(spec.BigPictureTerms),
		disqualify:  compileTerms(spec.DisqualifyTerms),
		aliases:     make(map[string]string),
		trusted:     make(map[string]struct{}),
		national:    make(map[string]struct{}),
		points:      make(map[news.Tier]int, len(defaultPoints)),
		limit:       spec.Selection.Limit,
		minResults:  spec.Selection.MinResults,
	}

	if len(r.subject) == 0 {
		return nil, fmt.Errorf("%w: subject terms are required", ErrInvalidRules)
	}
	if r.subjectName == "" {
		r.subjectName = r.subject[0]
	}

	verbs := compileTerms(spec.HeadToHeadVerbs)
	if len(verbs) == 0 {
		verbs = compileTerms(defaultHeadToHeadVerbs)
	}
	r.headToHead = headToHeadPattern(verbs, r.subject)

	for alias, canonical := range spec.Sources.Aliases {
		key := fold(strings.TrimSpace(alias))
		canonical = strings.TrimSpace(canonical)
		if key == "" || canonical == "" {
			continue
		}
		r.aliases[key] = canonical
		// canonical labels resolve to themselves
		if _, ok := r.aliases[fold(canonical)]; !ok {
			r.aliases[fold(canonical)] = canonical
		}
	}
	for key := range r.aliases {
		r.aliasKeys = append(r.aliasKeys, key)
	}
	sort.Slice(r.aliasKeys, func(i, j int) bool {
		if len(r.aliasKeys[i]) != len(r.aliasKeys[j]) {
			return len(r.aliasKeys[i]) > len(r.aliasKeys[j])
		}
		return r.aliasKeys[i] < r.aliasKeys[j]
	})

	for _, name := range spec.Sources.Trusted {
		if key := fold(strings.TrimSpace(name)); key != "" {
			r.trusted[key] = struct{}{}
		}
	}
	for _, name := range spec.Sources.National {
		if key := fold(strings.TrimSpace(name)); key != "" {
			r.national[key] = struct{}{}
		}
	}

	if err := r.compileScoring(spec.Scoring); err != nil {
		return nil, err
	}
	if err := r.compileSelection(spec.Selection); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Rules) compileScoring(spec ScoringSpec) error {
	for tier, pts := range defaultPoints {
		r.points[tier] = pts
	}
	for name, pts := range spec.TierPoints {
		tier, err := news.ParseTier(name)
		if err != nil || !tier.Accepted() {
			return fmt.Errorf("%w: tier_points: unknown tier %q", ErrInvalidRules, name)
		}
		r.points[tier] = pts
	}

	r.sportBonus = defaultSportBonus
	if spec.SportBonus != nil {
		r.sportBonus = *spec.SportBonus
	}
	r.mentionBonus = defaultMentionBonus
	if spec.MentionBonus != nil {
		r.mentionBonus = *spec.MentionBonus
	}
	if r.sportBonus < 0 || r.mentionBonus < 0 {
		return fmt.Errorf("%w: bonuses must not be negative", ErrInvalidRules)
	}

	// news.Tiers runs from most to least confident
	minGap := -1
	for i := 1; i < len(news.Tiers); i++ {
		hi, lo := r.points[news.Tiers[i-1]], r.points[news.Tiers[i]]
		if hi <= lo {
			return fmt.Errorf("%w: %s points (%d) must exceed %s points (%d)",
				ErrInvalidRules, news.Tiers[i-1], hi, news.Tiers[i], lo)
		}
		if gap := hi - lo; minGap < 0 || gap < minGap {
			minGap = gap
		}
	}
	if r.points[news.TierSoftContext] <= 0 {
		return fmt.Errorf("%w: soft tier points must be positive", ErrInvalidRules)
	}
	if r.sportBonus+r.mentionBonus >= minGap {
		return fmt.Errorf("%w: bonuses (%d) must stay below the smallest tier gap (%d)",
			ErrInvalidRules, r.sportBonus+r.mentionBonus, minGap)
	}
	return nil
}

func (r *Rules) compileSelection(spec SelectionSpec) error {
	if r.limit <= 0 {
		r.limit = defaultLimit
	}
	if r.minResults <= 0 {
		r.minResults = defaultMinResults
	}
	r.minTier = news.TierOpponentFraming
	if spec.MinTier != "" {
		tier, err := news.ParseTier(spec.MinTier)
		if err != nil || !tier.Accepted() {
			return fmt.Errorf("%w: selection.min_tier %q", ErrInvalidRules, spec.MinTier)
		}
		r.minTier = tier
	}
	return nil
}

// WithSelection returns a copy with selection overrides applied. Zero values keep the current setting.
func (r *Rules) WithSelection(limit int, minTier string, minResults int) (*Rules, error) {
	cp := *r
	if limit > 0 {
		cp.limit = limit
	}
	if minResults > 0 {
		cp.minResults = minResults
	}
	if minTier != "" {
		tier, err := news.ParseTier(minTier)
		if err != nil || !tier.Accepted() {
			return nil, fmt.Errorf("%w: min tier %q", ErrInvalidRules, minTier)
		}
		cp.minTier = tier
	}
	return &cp, nil
}

func (r *Rules) SubjectName() string { return r.subjectName }

func (r *Rules) Limit() int { return r.limit }

func (r *Rules) MinTier() news.Tier { return r.minTier }

func (r *Rules) MinResults() int { return r.minResults }

// Points returns the base points for a tier; rejected stories score zero.
func (r *Rules) Points(t news.Tier) int { return r.points[t] }

// CanonicalSource maps a raw feed or site name to its display label.
// Unknown names pass through trimmed; an empty name becomes "Unknown".
func (r *Rules) CanonicalSource(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return news.UnknownSource
	}
	key := fold(name)
	if canonical, ok := r.aliases[key]; ok {
		return canonical
	}
	if host := hostOf(key); host != "" {
		if canonical, ok := r.aliases[host]; ok {
			return canonical
		}
		if canonical, ok := r.aliases[strings.TrimPrefix(host, "www.")]; ok {
			return canonical
		}
	}
	for _, alias := range r.aliasKeys {
		if strings.Contains(key, alias) {
			return r.aliases[alias]
		}
	}
	return name
}

// IsTrusted reports whether the source label belongs to an always-on-topic outlet.
func (r *Rules) IsTrusted(source string) bool {
	_, ok := r.trusted[fold(r.CanonicalSource(source))]
	return ok
}

// IsNational reports whether the source is a national outlet for the sport.
func (r *Rules) IsNational(source string) bool {
	_, ok := r.national[fold(r.CanonicalSource(source))]
	return ok
}

func hostOf(key string) string {
	if !strings.Contains(key, "://") {
		return ""
	}
	u, err := url.Parse(key)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// compileTerms folds, trims, expands apostrophe variants and drops duplicates.
func compileTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = fold(strings.Join(strings.Fields(term), " "))
		if term == "" {
			continue
		}
		for _, variant := range apostropheVariants(term) {
			if _, dup := seen[variant]; dup {
				continue
			}
			seen[variant] = struct{}{}
			out = append(out, variant)
		}
	}
	return out
}

func apostropheVariants(term string) []string {
	if !strings.ContainsAny(term, strings.Join(apostrophes, "")) {
		return []string{term}
	}
	variants := make([]string, 0, len(apostrophes))
	for _, want := range apostrophes {
		v := term
		for _, have := range apostrophes {
			v = strings.ReplaceAll(v, have, want)
		}
		variants = append(variants, v)
	}
	return variants
}

// headToHeadPattern matches "<verb> [no. 1|#1|ranked] <subject>".
func headToHeadPattern(verbs, subjects []string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + alternation(verbs) + `)\s+(?:(?:no\.?\s*\d+|#\s*\d+|ranked)\s+)?(?:` + alternation(subjects) + `)`)
}

func alternation(terms []string) string {
	sorted := append([]string(nil), terms...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return strings.Join(quoted, "|")
}

func fold(s string) string {
	return cases.Fold().String(s)
}
