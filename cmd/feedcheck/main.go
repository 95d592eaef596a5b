// feedcheck prints the current snapshot and dry-runs the classifier on a
// hand-written story.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/deusflow/teamfeed/internal/config"
	"github.com/deusflow/teamfeed/internal/feed"
	"github.com/deusflow/teamfeed/internal/news"
	"github.com/deusflow/teamfeed/internal/relevance"
)

func main() {
	title := flag.String("title", "", "headline to classify")
	summary := flag.String("summary", "", "summary to classify")
	source := flag.String("source", "", "source name of the story")
	limit := flag.Int("n", 5, "snapshot items to print")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	if *title != "" || *summary != "" {
		rules, err := relevance.LoadRules(cfg.RulesConfigPath)
		if err != nil {
			log.Fatalf("❌ Failed to load rules: %v", err)
		}
		classify(relevance.NewClassifier(rules), news.Item{Source: *source, Title: *title, Summary: *summary})
		return
	}

	if err := printSnapshot(feed.NewStore(cfg.OutputPath), *limit); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func classify(c *relevance.Classifier, item news.Item) {
	item.Source = c.Rules().CanonicalSource(item.Source)
	s := c.Score(item)

	fmt.Printf("Source:  %s\n", s.Source)
	fmt.Printf("Tier:    %s\n", s.Tier)
	fmt.Printf("Score:   %d\n", s.Score)
	fmt.Println("Signals:")
	fmt.Printf("  subject:     %v %s\n", s.Signals.Subject, s.Signals.SubjectTerm)
	fmt.Printf("  sport:       %v\n", s.Signals.Sport)
	fmt.Printf("  big picture: %v\n", s.Signals.BigPicture)
	fmt.Printf("  head-to-head: %v\n", s.Signals.HeadToHead)
	fmt.Printf("  trusted:     %v\n", s.Signals.Trusted)
	fmt.Printf("  national:    %v\n", s.Signals.National)
	if s.Signals.Disqualify != "" {
		fmt.Printf("  disqualified by %q\n", s.Signals.Disqualify)
	}
	if floor := c.Rules().MinTier(); s.Tier.Accepted() && s.Tier < floor {
		fmt.Printf("Below the %s floor: only shown when the run has to relax.\n", floor)
	}
}

func printSnapshot(store *feed.Store, limit int) error {
	doc, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if doc == nil {
		fmt.Printf("No snapshot at %s yet\n", store.Path)
		return nil
	}

	fmt.Printf("📰 Snapshot %s\n", store.Path)
	if updated, err := time.Parse(time.RFC3339, doc.UpdatedAt); err == nil {
		fmt.Printf("  Updated: %s (%s ago)\n", doc.UpdatedAt, time.Since(updated).Round(time.Minute))
	} else {
		fmt.Printf("  Updated: %q (unparseable)\n", doc.UpdatedAt)
	}
	fmt.Printf("  Items: %d | Sources: %v\n", len(doc.Items), doc.Sources)

	if len(doc.Items) == 0 {
		fmt.Println("  (no stories)")
		return nil
	}
	for i, it := range doc.Items {
		if i >= limit {
			fmt.Printf("  ... %d more\n", len(doc.Items)-limit)
			break
		}
		fmt.Printf("  %d. [%s %d] %s\n", i+1, it.Tier, it.Score, it.Title)
		fmt.Printf("     %s | %s | %s\n", it.Source, it.PublishedLabel, it.URL)
	}
	return nil
}
