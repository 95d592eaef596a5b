package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// MinHeadlineWords filters navigation links and other short anchors.
const MinHeadlineWords = 3

// Headline is a story teaser found on an HTML page.
type Headline struct {
	Title        string
	Summary      string
	URL          string
	Published    time.Time
	RawPublished string
}

// Headlines loads pageURL and extracts story teasers. <article> blocks are
// preferred; pages without them fall back to plain links.
func Headlines(ctx context.Context, client *http.Client, pageURL, userAgent string) ([]Headline, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("bad page url: %w", err)
	}

	return Extract(doc, base), nil
}

// Extract pulls headlines out of an already parsed page.
func Extract(doc *goquery.Document, base *url.URL) []Headline {
	seen := make(map[string]struct{})
	var out []Headline

	add := func(h Headline) {
		if h.URL == "" || len(strings.Fields(h.Title)) < MinHeadlineWords {
			return
		}
		if _, dup := seen[h.URL]; dup {
			return
		}
		seen[h.URL] = struct{}{}
		out = append(out, h)
	}

	articles := doc.Find("article")
	if articles.Length() > 0 {
		articles.Each(func(i int, s *goquery.Selection) {
			add(fromArticle(s, base))
		})
		return out
	}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(Headline{
			Title: cleanText(s.Text()),
			URL:   resolve(base, href),
		})
	})

	return out
}

func fromArticle(s *goquery.Selection, base *url.URL) Headline {
	var h Headline

	heading := s.Find("h1, h2, h3").First()
	anchor := heading.Find("a[href]").First()
	if anchor.Length() == 0 {
		anchor = s.Find("a[href]").First()
	}

	if heading.Length() > 0 {
		h.Title = cleanText(heading.Text())
	} else {
		h.Title = cleanText(anchor.Text())
	}

	if href, ok := anchor.Attr("href"); ok {
		h.URL = resolve(base, href)
	}

	h.Summary = cleanText(s.Find("p").First().Text())

	if t := s.Find("time").First(); t.Length() > 0 {
		raw, ok := t.Attr("datetime")
		if !ok || strings.TrimSpace(raw) == "" {
			raw = t.Text()
		}
		h.RawPublished = strings.TrimSpace(raw)
		if ts, err := dateparse.ParseIn(h.RawPublished, time.UTC); err == nil {
			h.Published = ts
		}
	}

	return h
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
