package news

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

const (
	// UnknownSource labels records whose feed carried no name.
	UnknownSource = "Unknown"
	// UntitledTitle replaces an empty headline.
	UntitledTitle = "Untitled"
)

// Item is a candidate story as produced by the normalizer.
type Item struct {
	Source    string
	Title     string
	Summary   string
	URL       string
	Published time.Time
	// Untitled marks a title filled in by Repair; it never identifies a story.
	Untitled bool
}

// Signals records which vocabulary groups matched during classification.
type Signals struct {
	Subject     bool
	Sport       bool
	BigPicture  bool
	HeadToHead  bool
	Trusted     bool
	National    bool
	Disqualify  string // matched disqualifying term, if any
	SubjectTerm string // first matched subject term
}

// Scored is an Item after classification.
type Scored struct {
	Item
	Tier    Tier
	Score   int
	Signals Signals
}

// Repair fills the fields a story cannot go without. It never drops data.
func (it Item) Repair(now time.Time) Item {
	it.Source = strings.TrimSpace(it.Source)
	if it.Source == "" {
		it.Source = UnknownSource
	}
	it.Title = strings.TrimSpace(it.Title)
	if it.Title == "" {
		it.Title = UntitledTitle
		it.Untitled = true
	}
	it.URL = strings.TrimSpace(it.URL)
	if it.Published.IsZero() {
		it.Published = now
	}
	it.Published = it.Published.UTC().Truncate(time.Second)
	return it
}

// CanonicalURL returns the identity form of a link: no query, no fragment,
// lower-case scheme and host, no trailing slash. The original link is kept
// on the record; this form is only used for duplicate detection.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}

// TitleKey is the title identity of a story, empty for placeholder titles.
func (it Item) TitleKey() string {
	if it.Untitled {
		return ""
	}
	return NormalizeTitle(it.Title)
}

// NormalizeTitle folds case and collapses whitespace so that headlines that
// differ only in capitalization or spacing compare equal.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(cases.Fold().String(title)), " ")
}
