// Package dedup collapses records that describe the same story.
//
// Two records are the same story when they share a canonical URL or a
// normalized title. Titles filled in by repair are not keys. The relation is
// transitive: a record that shares a URL with one record and a title with
// another joins all three into one group.
// Each group keeps a single survivor, chosen by latest publish time, then
// higher score, then earlier input position.
package dedup

import (
	"github.com/deusflow/teamfeed/internal/news"
)

// Result carries the survivors plus how many records were folded away.
type Result struct {
	Items     []news.Scored
	Collapsed int
}

// Dedupe returns one record per story. Survivors are listed in the order
// their group first appeared in the input.
func Dedupe(records []news.Scored) []news.Scored {
	return DedupeWithStats(records).Items
}

// DedupeWithStats is Dedupe plus the number of dropped duplicates.
func DedupeWithStats(records []news.Scored) Result {
	if len(records) == 0 {
		return Result{Items: []news.Scored{}}
	}

	groups := newUnionFind(len(records))
	byURL := make(map[string]int)
	byTitle := make(map[string]int)

	for i, rec := range records {
		if key := news.CanonicalURL(rec.URL); key != "" {
			if j, ok := byURL[key]; ok {
				groups.union(i, j)
			} else {
				byURL[key] = i
			}
		}
		if key := rec.TitleKey(); key != "" {
			if j, ok := byTitle[key]; ok {
				groups.union(i, j)
			} else {
				byTitle[key] = i
			}
		}
	}

	survivor := make(map[int]int)
	order := make([]int, 0, len(records))
	for i := range records {
		root := groups.find(i)
		best, seen := survivor[root]
		if !seen {
			survivor[root] = i
			order = append(order, root)
			continue
		}
		if better(records[i], records[best]) {
			survivor[root] = i
		}
	}

	out := make([]news.Scored, 0, len(order))
	for _, root := range order {
		out = append(out, records[survivor[root]])
	}

	return Result{Items: out, Collapsed: len(records) - len(out)}
}

// better reports whether a should replace the current survivor b.
// Equal candidates keep the earlier one.
func better(a, b news.Scored) bool {
	if !a.Published.Equal(b.Published) {
		return a.Published.After(b.Published)
	}
	return a.Score > b.Score
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union keeps the smaller index as root so group order follows first appearance.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
