// Package feed builds the published snapshot and keeps it on disk.
package feed

import (
	"sort"
	"time"

	"github.com/deusflow/teamfeed/internal/news"
)

// JustNow labels stories published within the last hour.
const JustNow = "Just now"

// Document is the JSON snapshot consumed by the front end.
type Document struct {
	UpdatedAt string   `json:"updated_at"`
	Items     []Entry  `json:"items"`
	Sources   []string `json:"sources"`
}

// Entry is one published story.
type Entry struct {
	Source         string    `json:"source"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	URL            string    `json:"url"`
	Published      string    `json:"published"`
	PublishedLabel string    `json:"published_label"`
	Tier           news.Tier `json:"tier"`
	Score          int       `json:"score"`
}

// Build turns selected records into a document stamped with now.
// Item order is preserved.
func Build(records []news.Scored, now time.Time) Document {
	now = now.UTC()
	doc := Document{
		UpdatedAt: Timestamp(now),
		Items:     make([]Entry, 0, len(records)),
		Sources:   []string{},
	}

	seen := make(map[string]struct{})
	for _, rec := range records {
		doc.Items = append(doc.Items, Entry{
			Source:         rec.Source,
			Title:          rec.Title,
			Summary:        rec.Summary,
			URL:            rec.URL,
			Published:      Timestamp(rec.Published),
			PublishedLabel: Label(rec.Published, now),
			Tier:           rec.Tier,
			Score:          rec.Score,
		})
		if _, ok := seen[rec.Source]; !ok {
			seen[rec.Source] = struct{}{}
			doc.Sources = append(doc.Sources, rec.Source)
		}
	}
	sort.Strings(doc.Sources)

	return doc
}

// Restamp returns a copy of the document with only updated_at changed.
func (d Document) Restamp(now time.Time) Document {
	out := Document{
		UpdatedAt: Timestamp(now),
		Items:     append([]Entry{}, d.Items...),
		Sources:   append([]string{}, d.Sources...),
	}
	return out
}

// Empty returns a schema-valid document with no stories.
func Empty(now time.Time) Document {
	return Build(nil, now)
}

// Timestamp formats t as RFC 3339 in UTC with second precision.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// Label is the short date shown next to a story: "Jan 02", or "Just now"
// for stories under an hour old or without a usable timestamp.
func Label(published, now time.Time) string {
	if published.IsZero() {
		return JustNow
	}
	if age := now.Sub(published); age < time.Hour {
		return JustNow
	}
	return published.UTC().Format("Jan 02")
}
