package rss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/teamfeed/internal/news"
	"github.com/deusflow/teamfeed/internal/normalize"
	"github.com/deusflow/teamfeed/internal/scraper"
)

// ErrNoSources is returned when the sources file lists no usable feed.
var ErrNoSources = errors.New("no feed sources configured")

// Kind selects how a source is read.
type Kind string

const (
	KindAuto Kind = "auto" // try RSS/Atom, fall back to HTML
	KindRSS  Kind = "rss"
	KindHTML Kind = "html"
)

// DefaultMaxItemsPerFeed caps how many entries one source contributes.
const DefaultMaxItemsPerFeed = 50

// Source is one entry of the sources file.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Kind Kind   `yaml:"kind"`
}

// SourcesConfig is YAML config structure
//
//	team: purdue-mbb
//	feeds:
//	  - name: Hammer & Rails
//	    url: https://...
//	    kind: rss
type SourcesConfig struct {
	Team  string   `yaml:"team"`
	Feeds []Source `yaml:"feeds"`
}

// LoadSources reads the feed list from a YAML file. Entries without a URL
// are skipped and an unknown kind is treated as auto.
func LoadSources(path string) (*SourcesConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources %s: %w", path, err)
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode sources %s: %w", path, err)
	}

	feeds := make([]Source, 0, len(cfg.Feeds))
	for _, src := range cfg.Feeds {
		src.Name = strings.TrimSpace(src.Name)
		src.URL = strings.TrimSpace(src.URL)
		if src.URL == "" {
			continue
		}
		switch Kind(strings.ToLower(string(src.Kind))) {
		case KindRSS:
			src.Kind = KindRSS
		case KindHTML:
			src.Kind = KindHTML
		default:
			src.Kind = KindAuto
		}
		feeds = append(feeds, src)
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSources)
	}
	cfg.Feeds = feeds

	return &cfg, nil
}

// Batch is what one source produced.
type Batch struct {
	Source Source
	Items  []news.Item
	Via    Kind // how the items were obtained
	Err    error
}

// Result aggregates a FetchAll pass.
type Result struct {
	Batches []Batch
	OK      int
	Failed  int
}

// Items flattens all batches, in source order.
func (r Result) Items() []news.Item {
	var out []news.Item
	for _, b := range r.Batches {
		out = append(out, b.Items...)
	}
	return out
}

// Fetcher downloads sources one at a time.
type Fetcher struct {
	Client          *http.Client
	UserAgent       string
	MaxItemsPerFeed int
	Normalizer      *normalize.Normalizer
	Logger          *slog.Logger

	parser *gofeed.Parser
}

// NewFetcher builds a fetcher sharing one HTTP client for feeds and pages.
func NewFetcher(timeout time.Duration, userAgent string, maxPerFeed int, n *normalize.Normalizer, logger *slog.Logger) *Fetcher {
	if maxPerFeed <= 0 {
		maxPerFeed = DefaultMaxItemsPerFeed
	}
	if logger == nil {
		logger = slog.Default()
	}
	if n == nil {
		n = normalize.New(nil)
	}
	client := &http.Client{Timeout: timeout}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	return &Fetcher{
		Client:          client,
		UserAgent:       userAgent,
		MaxItemsPerFeed: maxPerFeed,
		Normalizer:      n,
		Logger:          logger,
		parser:          parser,
	}
}

// FetchAll reads every source sequentially. A failing source is logged and
// recorded in its Batch; it never stops the pass.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) Result {
	var res Result

	for _, src := range sources {
		if ctx.Err() != nil {
			res.Batches = append(res.Batches, Batch{Source: src, Err: ctx.Err()})
			res.Failed++
			continue
		}

		batch := f.Fetch(ctx, src)
		res.Batches = append(res.Batches, batch)
		if batch.Err != nil {
			res.Failed++
			f.Logger.Warn("Error fetching source", "source", src.Name, "url", src.URL, "error", batch.Err)
			continue
		}
		res.OK++
		f.Logger.Info("Loaded news from source", "source", src.Name, "count", len(batch.Items), "via", string(batch.Via))
	}

	f.Logger.Info("Processed feeds", "ok", res.OK, "total", len(sources))
	return res
}

// Fetch reads a single source. Feeds that fail to parse or come back empty
// are retried as HTML pages unless the source is pinned to rss.
func (f *Fetcher) Fetch(ctx context.Context, src Source) Batch {
	batch := Batch{Source: src}

	if src.Kind != KindHTML {
		items, err := f.fetchFeed(ctx, src)
		if err == nil && len(items) > 0 {
			batch.Items, batch.Via = items, KindRSS
			return batch
		}
		if src.Kind == KindRSS {
			batch.Err = err
			return batch
		}
		if err != nil {
			f.Logger.Debug("feed parse failed, trying HTML", "source", src.Name, "error", err)
		}
	}

	items, err := f.fetchPage(ctx, src)
	if err != nil {
		batch.Err = err
		return batch
	}
	batch.Items, batch.Via = items, KindHTML
	return batch
}

func (f *Fetcher) fetchFeed(ctx context.Context, src Source) ([]news.Item, error) {
	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	name := src.Name
	if name == "" {
		name = feed.Title
	}

	entries := feed.Items
	if len(entries) > f.MaxItemsPerFeed {
		entries = entries[:f.MaxItemsPerFeed]
	}

	out := make([]news.Item, 0, len(entries))
	for _, it := range entries {
		out = append(out, f.Normalizer.FeedItem(name, it))
	}
	return out, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, src Source) ([]news.Item, error) {
	headlines, err := scraper.Headlines(ctx, f.Client, src.URL, f.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("scrape page: %w", err)
	}

	if len(headlines) > f.MaxItemsPerFeed {
		headlines = headlines[:f.MaxItemsPerFeed]
	}

	out := make([]news.Item, 0, len(headlines))
	for _, h := range headlines {
		out = append(out, f.Normalizer.Headline(src.Name, h))
	}
	return out, nil
}
