package graph

import (
	"fmt"

	"github.com/dyluth/tome/pkg/world"
)

// Link audit
//
// Campaigns built through Connect, Disconnect and Cascade never need this. Imported
// or hand-edited documents can arrive with one-sided links, links to records that do
// not exist, or self links; Audit finds them and Repair normalises them.

// IssueKind classifies a link inconsistency.
type IssueKind string

const (
	// IssueDangling is a link to a record that does not exist
	IssueDangling IssueKind = "dangling"

	// IssueOneSided is a link whose target does not link back
	IssueOneSided IssueKind = "one-sided"

	// IssueSelfLink is a record linking to itself
	IssueSelfLink IssueKind = "self-link"
)

// Issue is one inconsistent link, seen from From.
type Issue struct {
	Kind IssueKind
	From Endpoint
	To   Endpoint
}

func (i Issue) String() string {
	return fmt.Sprintf("%s link %s/%s -> %s/%s", i.Kind, i.From.Category, i.From.ID, i.To.Category, i.To.ID)
}

// Audit scans every record of every category and reports inconsistent links in
// category declaration order, then collection order, then link order.
func Audit(cols Collections) []Issue {
	var issues []Issue
	for _, c := range world.Categories() {
		s := cols.Collection(c)
		if s == nil {
			continue
		}
		s.Each(func(r *world.Record) bool {
			from := Endpoint{Category: c, ID: r.ID}
			for _, tc := range r.LinkedItems.Keys() {
				for _, id := range r.LinkedItems[tc] {
					to := Endpoint{Category: tc, ID: id}
					switch target, ok := lookup(cols, to); {
					case to == from:
						issues = append(issues, Issue{Kind: IssueSelfLink, From: from, To: to})
					case !ok:
						issues = append(issues, Issue{Kind: IssueDangling, From: from, To: to})
					case !target.LinkedItems.Has(c, r.ID):
						issues = append(issues, Issue{Kind: IssueOneSided, From: from, To: to})
					}
				}
			}
			return true
		})
	}
	return issues
}

// Repair fixes every issue Audit reports: dangling and self links are removed,
// one-sided links are completed. Returns the issues that were fixed.
func Repair(cols Collections) []Issue {
	issues := Audit(cols)
	for _, issue := range issues {
		switch issue.Kind {
		case IssueDangling, IssueSelfLink:
			if r, ok := lookup(cols, issue.From); ok {
				r.LinkedItems.Remove(issue.To.Category, issue.To.ID)
			}
		case IssueOneSided:
			Connect(cols, issue.From, issue.To)
		}
	}
	return issues
}
