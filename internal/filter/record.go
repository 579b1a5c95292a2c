package filter

import (
	"path/filepath"
	"strings"

	"github.com/dyluth/tome/pkg/world"
)

// Criteria defines filtering criteria for records.
// All filters are ANDed together - a record must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	LabelGlob        string // Case-insensitive glob on the record label, empty = no filter
	Status           string // Case-insensitive match on the status field, empty = no filter
}

// Matches returns true if the record matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(r *world.Record) bool {
	if c.SinceTimestampMs > 0 || c.UntilTimestampMs > 0 {
		touched := touchedAt(r)
		if c.SinceTimestampMs > 0 && touched < c.SinceTimestampMs {
			return false
		}
		if c.UntilTimestampMs > 0 && touched > c.UntilTimestampMs {
			return false
		}
	}

	if c.LabelGlob != "" {
		matched, err := filepath.Match(strings.ToLower(c.LabelGlob), strings.ToLower(r.Label()))
		if err != nil || !matched {
			return false
		}
	}

	// Categories without a status field never match a status filter
	if c.Status != "" {
		if r.Fields == nil {
			return false
		}
		status, ok := world.Value(r.Fields, "status")
		if !ok || !strings.EqualFold(status, c.Status) {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.LabelGlob != "" ||
		c.Status != ""
}

// Apply returns the records matching c, preserving order.
func (c *Criteria) Apply(records []*world.Record) []*world.Record {
	if !c.HasFilters() {
		return records
	}
	out := make([]*world.Record, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// touchedAt is the last modification time, falling back to the creation day.
func touchedAt(r *world.Record) int64 {
	if r.ModifiedAt != nil {
		return r.ModifiedAt.UnixMilli()
	}
	return r.CreatedAt.UnixMilli()
}
