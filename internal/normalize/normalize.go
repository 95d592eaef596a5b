// Package normalize turns raw feed entries and scraped headlines into
// news.Item values: plain text, decoded entities, bounded summaries,
// resolved links and UTC timestamps.
package normalize

import (
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/teamfeed/internal/news"
	"github.com/deusflow/teamfeed/internal/scraper"
)

// MaxSummaryRunes bounds the summary shown on a card.
const MaxSummaryRunes = 240

const ellipsis = "…"

// SourceNamer maps a raw feed name to its display label.
type SourceNamer interface {
	CanonicalSource(raw string) string
}

type Normalizer struct {
	policy  *bluemonday.Policy
	sources SourceNamer
	now     func() time.Time
}

// New creates a normalizer. sources may be nil, in which case feed names are
// only trimmed.
func New(sources SourceNamer) *Normalizer {
	return &Normalizer{
		policy:  bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true),
		sources: sources,
		now:     time.Now,
	}
}

// WithClock returns a copy that uses now for entries without a timestamp.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	cp := *n
	cp.now = now
	return &cp
}

// FeedItem converts a parsed RSS/Atom entry.
func (n *Normalizer) FeedItem(source string, it *gofeed.Item) news.Item {
	if it == nil {
		return news.Item{Source: n.source(source), Published: n.stamp(time.Time{})}
	}

	summary := it.Description
	if strings.TrimSpace(summary) == "" {
		summary = it.Content
	}

	return news.Item{
		Source:    n.source(source),
		Title:     n.Text(it.Title),
		Summary:   Truncate(n.Text(summary), MaxSummaryRunes),
		URL:       link(it),
		Published: n.stamp(published(it)),
	}
}

// Headline converts a scraped headline.
func (n *Normalizer) Headline(source string, h scraper.Headline) news.Item {
	ts := h.Published
	if ts.IsZero() {
		ts = parseDate(h.RawPublished)
	}
	return news.Item{
		Source:    n.source(source),
		Title:     n.Text(h.Title),
		Summary:   Truncate(n.Text(h.Summary), MaxSummaryRunes),
		URL:       strings.TrimSpace(h.URL),
		Published: n.stamp(ts),
	}
}

// Text strips markup, decodes entities and collapses whitespace.
func (n *Normalizer) Text(s string) string {
	if s == "" {
		return ""
	}
	clean := html.UnescapeString(n.policy.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// Truncate cuts s to at most max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRight(string(runes[:max-1]), " ")
	return cut + ellipsis
}

func (n *Normalizer) source(raw string) string {
	if n.sources != nil {
		return n.sources.CanonicalSource(raw)
	}
	if name := strings.TrimSpace(raw); name != "" {
		return name
	}
	return news.UnknownSource
}

func (n *Normalizer) stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = n.now()
	}
	return t.UTC()
}

func link(it *gofeed.Item) string {
	if l := strings.TrimSpace(it.Link); l != "" {
		return l
	}
	for _, l := range it.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	guid := strings.TrimSpace(it.GUID)
	if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
		return guid
	}
	return ""
}

func published(it *gofeed.Item) time.Time {
	if it.PublishedParsed != nil {
		return *it.PublishedParsed
	}
	if it.UpdatedParsed != nil {
		return *it.UpdatedParsed
	}
	if t := parseDate(it.Published); !t.IsZero() {
		return t
	}
	return parseDate(it.Updated)
}

// parseDate reads zone-less dates as UTC.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}

	return t
}
