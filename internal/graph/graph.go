// Package graph maintains the bidirectional links between records of a campaign.
//
// Every link is stored on both of its records: if A lists B then B lists A. The
// functions here are the only code that writes link maps, and each of them either
// updates both sides or neither. Lookups of records that have disappeared degrade
// to no-ops so a UI racing a deletion never crashes and never leaves half a link.
package graph

import (
	"github.com/dyluth/tome/internal/store"
	"github.com/dyluth/tome/pkg/world"
)

// Collections resolves a category to its store. A campaign implements it.
type Collections interface {
	Collection(c world.Category) *store.Store
}

// Endpoint names one record of a campaign.
type Endpoint struct {
	Category world.Category
	ID       world.ID
}

// lookup returns the live record behind e.
func lookup(cols Collections, e Endpoint) (*world.Record, bool) {
	s := cols.Collection(e.Category)
	if s == nil {
		return nil, false
	}
	return s.Lookup(e.ID)
}

// Connect links a and b in both directions. Self links and links to records that no
// longer exist are refused as no-ops. Connecting an existing pair changes nothing.
// Returns whether any link map changed.
func Connect(cols Collections, a, b Endpoint) bool {
	if a == b {
		return false
	}
	ra, ok := lookup(cols, a)
	if !ok {
		return false
	}
	rb, ok := lookup(cols, b)
	if !ok {
		return false
	}

	if ra.LinkedItems == nil {
		ra.LinkedItems = world.Links{}
	}
	if rb.LinkedItems == nil {
		rb.LinkedItems = world.Links{}
	}
	addedA := ra.LinkedItems.Add(b.Category, b.ID)
	addedB := rb.LinkedItems.Add(a.Category, a.ID)
	return addedA || addedB
}

// Disconnect removes the link between a and b in both directions. Missing links and
// missing records are no-ops; if only one side still exists its half is removed.
// Returns whether any link map changed.
func Disconnect(cols Collections, a, b Endpoint) bool {
	if a == b {
		return false
	}
	removed := false
	if ra, ok := lookup(cols, a); ok && ra.LinkedItems.Remove(b.Category, b.ID) {
		removed = true
	}
	if rb, ok := lookup(cols, b); ok && rb.LinkedItems.Remove(a.Category, a.ID) {
		removed = true
	}
	return removed
}

// LinkedItems resolves a record's links to copies of the linked records, keyed by
// category. Every category present in the link map appears in the result, possibly
// with an empty list; ids that no longer resolve are dropped.
func LinkedItems(cols Collections, r *world.Record) map[world.Category][]*world.Record {
	out := make(map[world.Category][]*world.Record)
	if r == nil {
		return out
	}
	for _, c := range r.LinkedItems.Keys() {
		resolved := []*world.Record{}
		s := cols.Collection(c)
		for _, id := range r.LinkedItems[c] {
			if s == nil {
				break
			}
			if linked, ok := s.Get(id); ok {
				resolved = append(resolved, linked)
			}
		}
		out[c] = resolved
	}
	return out
}

// AvailableItems lists copies of the records of category target that source could
// still be connected to: everything except source itself and what it already links.
func AvailableItems(cols Collections, source Endpoint, target world.Category) []*world.Record {
	s := cols.Collection(target)
	if s == nil {
		return nil
	}

	var linked world.Links
	if r, ok := lookup(cols, source); ok {
		linked = r.LinkedItems
	}

	out := []*world.Record{}
	s.Each(func(r *world.Record) bool {
		if target == source.Category && r.ID == source.ID {
			return true
		}
		if linked.Has(target, r.ID) {
			return true
		}
		out = append(out, r.Clone())
		return true
	})
	return out
}

// ConnectionCount is the number of links a record holds across all categories.
func ConnectionCount(r *world.Record) int {
	if r == nil {
		return 0
	}
	return r.LinkedItems.Count()
}

// Cascade disconnects e from every record it links to, in preparation for deleting
// it. The work is proportional to e's own links; unrelated records are not scanned.
// Returns the number of links removed.
func Cascade(cols Collections, e Endpoint) int {
	r, ok := lookup(cols, e)
	if !ok {
		return 0
	}
	removed := 0
	for _, c := range r.LinkedItems.Keys() {
		ids := append([]world.ID(nil), r.LinkedItems[c]...)
		for _, id := range ids {
			if Disconnect(cols, e, Endpoint{Category: c, ID: id}) {
				removed++
			}
		}
	}
	return removed
}
