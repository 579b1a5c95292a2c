// Package search finds records across every category of a campaign by label and,
// with lower priority, by their secondary descriptive fields.
package search

import (
	"strings"

	"github.com/dyluth/tome/internal/store"
	"github.com/dyluth/tome/pkg/world"
)

const (
	// DefaultLimit caps the result list when the caller does not ask for a size
	DefaultLimit = 20

	// MinQueryLength is the shortest trimmed query that is searched at all
	MinQueryLength = 2
)

// Rank orders matches; lower ranks sort first.
type Rank int

const (
	// RankLabel is a match on the record's name or title
	RankLabel Rank = iota

	// RankSecondary is a match only on a secondary descriptive field
	RankSecondary
)

func (r Rank) String() string {
	if r == RankLabel {
		return "label"
	}
	return "secondary"
}

// Source is the campaign being searched.
type Source interface {
	Collection(c world.Category) *store.Store
}

// Match is one search hit. Record is a copy.
type Match struct {
	Category world.Category
	Record   *world.Record
	Rank     Rank
}

// Search returns records whose label or secondary fields contain query, compared
// case-insensitively. Results are ordered by rank, then category declaration order,
// then collection order, and capped at limit (DefaultLimit when limit <= 0).
// Queries shorter than MinQueryLength after trimming return nothing.
func Search(query string, src Source, limit int) []Match {
	needle := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(needle)) < MinQueryLength {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var labelHits, secondaryHits []Match
	for _, c := range world.Categories() {
		s := src.Collection(c)
		if s == nil {
			continue
		}
		s.Each(func(r *world.Record) bool {
			if r.Fields == nil {
				return true
			}
			switch {
			case contains(r.Label(), needle):
				labelHits = append(labelHits, Match{Category: c, Record: r, Rank: RankLabel})
			case containsAny(r.Fields.SearchText(), needle):
				secondaryHits = append(secondaryHits, Match{Category: c, Record: r, Rank: RankSecondary})
			}
			return true
		})
	}

	matches := append(labelHits, secondaryHits...)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	for i := range matches {
		matches[i].Record = matches[i].Record.Clone()
	}
	return matches
}

func contains(value, needle string) bool {
	return value != "" && strings.Contains(strings.ToLower(value), needle)
}

func containsAny(values []string, needle string) bool {
	for _, v := range values {
		if contains(v, needle) {
			return true
		}
	}
	return false
}
