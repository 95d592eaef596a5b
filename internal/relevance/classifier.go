package relevance

import (
	"strings"

	"github.com/deusflow/teamfeed/internal/news"
)

// Classifier assigns tiers and scores using a fixed Rules set.
type Classifier struct {
	rules *Rules
}

func NewClassifier(rules *Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Rules exposes the configuration the classifier was built with.
func (c *Classifier) Rules() *Rules {
	return c.rules
}

// Classify returns the tier for a single story.
func (c *Classifier) Classify(item news.Item) news.Tier {
	return c.Score(item).Tier
}

// Score classifies the story and computes its rank:
// tier points + sport vocabulary bonus + subject mention bonus.
// Rejected stories always score zero.
func (c *Classifier) Score(item news.Item) news.Scored {
	tier, sig := c.evaluate(item)
	scored := news.Scored{Item: item, Tier: tier, Signals: sig}
	if !tier.Accepted() {
		return scored
	}

	scored.Score = c.rules.points[tier]
	if sig.Sport {
		scored.Score += c.rules.sportBonus
	}
	if sig.Subject {
		scored.Score += c.rules.mentionBonus
	}
	return scored
}

// ScoreAll scores every item, preserving input order.
func (c *Classifier) ScoreAll(items []news.Item) []news.Scored {
	out := make([]news.Scored, 0, len(items))
	for _, it := range items {
		out = append(out, c.Score(it))
	}
	return out
}

func (c *Classifier) evaluate(item news.Item) (news.Tier, news.Signals) {
	r := c.rules
	title := fold(item.Title)
	summary := fold(item.Summary)
	text := title + " " + summary

	var sig news.Signals

	// disqualifying vocabulary beats every positive signal, trusted sources included
	if term := firstMatch(text, r.disqualify); term != "" {
		sig.Disqualify = term
		return news.TierRejected, sig
	}

	sig.Trusted = r.IsTrusted(item.Source)
	sig.National = r.IsNational(item.Source)
	sig.SubjectTerm = firstMatch(text, r.subject)
	sig.Subject = sig.SubjectTerm != ""
	sig.Sport = firstMatch(text, r.sport) != ""
	sig.BigPicture = firstMatch(text, r.bigPicture) != ""
	sig.HeadToHead = r.headToHead.MatchString(text)

	subjectInTitle := firstMatch(title, r.subject) != ""
	framed := false
	if subjectInTitle {
		framed = c.opponentFramed(title)
	} else if sig.Subject {
		framed = c.opponentFramed(summary)
	}

	switch {
	case sig.Trusted:
		return news.TierTrustedSource, sig
	case framed:
		return news.TierOpponentFraming, sig
	case subjectInTitle, sig.Subject && sig.Sport:
		return news.TierDirectMention, sig
	// a summary-only mention inside a poll or bracket roundup is context
	case sig.Subject && sig.BigPicture:
		return news.TierContextMention, sig
	case sig.Subject:
		return news.TierDirectMention, sig
	case sig.National && (sig.Sport || sig.BigPicture):
		return news.TierSoftContext, sig
	default:
		return news.TierRejected, sig
	}
}

// opponentFramed reports whether the subject's first appearance in text is as
// the object of a head-to-head phrase ("holds off No. 1 Purdue"), i.e. the
// story is written from the rival's side.
func (c *Classifier) opponentFramed(text string) bool {
	loc := c.rules.headToHead.FindStringIndex(text)
	if loc == nil {
		return false
	}
	first := firstIndex(text, c.rules.subject)
	return first >= loc[0]
}

func firstMatch(text string, terms []string) string {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return t
		}
	}
	return ""
}

func firstIndex(text string, terms []string) int {
	best := -1
	for _, t := range terms {
		if i := strings.Index(text, t); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}
