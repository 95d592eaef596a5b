package news

import (
	"fmt"
	"strings"
)

// Tier is a relevance confidence level. Higher values are more confident.
type Tier int

const (
	TierRejected Tier = iota
	TierSoftContext
	TierOpponentFraming
	TierContextMention
	TierDirectMention
	TierTrustedSource
)

// Tiers lists every accepted tier from most to least confident.
var Tiers = []Tier{
	TierTrustedSource,
	TierDirectMention,
	TierContextMention,
	TierOpponentFraming,
	TierSoftContext,
}

var tierNames = map[Tier]string{
	TierRejected:        "rejected",
	TierSoftContext:     "soft",
	TierOpponentFraming: "opponent",
	TierContextMention:  "context",
	TierDirectMention:   "direct",
	TierTrustedSource:   "trusted",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Accepted reports whether the tier admits a story at all.
func (t Tier) Accepted() bool {
	return t > TierRejected && t <= TierTrustedSource
}

// ParseTier accepts the names produced by String.
func ParseTier(name string) (Tier, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, n := range tierNames {
		if n == key {
			return t, nil
		}
	}
	return TierRejected, fmt.Errorf("unknown tier %q", name)
}

// MarshalText lets tiers appear by name in YAML and JSON.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
