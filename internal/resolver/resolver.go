// Package resolver turns user-typed references into campaigns and records.
package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/tome/internal/campaign"
	"github.com/dyluth/tome/internal/store"
	"github.com/dyluth/tome/pkg/world"
)

// MinShortIDLength is the minimum required length for campaign id prefixes.
const MinShortIDLength = 6

// maxListed caps how many candidates FormatAmbiguousError prints.
const maxListed = 10

// ResolveCampaign finds the campaign a reference names. In order it tries:
// 1. The full campaign id
// 2. The campaign name, case-insensitively
// 3. A campaign id prefix of at least MinShortIDLength characters
func ResolveCampaign(campaigns []*campaign.Campaign, ref string) (*campaign.Campaign, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &NotFoundError{Kind: "campaign", Ref: ref}
	}

	for _, c := range campaigns {
		if string(c.ID()) == ref {
			return c, nil
		}
	}

	var named []*campaign.Campaign
	for _, c := range campaigns {
		if strings.EqualFold(c.Name(), ref) {
			named = append(named, c)
		}
	}
	if len(named) == 1 {
		return named[0], nil
	}
	if len(named) > 1 {
		return nil, &AmbiguousError{Kind: "campaign", Ref: ref, Matches: describeCampaigns(named)}
	}

	if len(ref) < MinShortIDLength {
		return nil, &NotFoundError{Kind: "campaign", Ref: ref}
	}

	var prefixed []*campaign.Campaign
	for _, c := range campaigns {
		if strings.HasPrefix(string(c.ID()), ref) {
			prefixed = append(prefixed, c)
		}
	}
	switch len(prefixed) {
	case 0:
		return nil, &NotFoundError{Kind: "campaign", Ref: ref}
	case 1:
		return prefixed[0], nil
	default:
		return nil, &AmbiguousError{Kind: "campaign", Ref: ref, Matches: describeCampaigns(prefixed)}
	}
}

// ResolveRecord finds the record a reference names within one collection.
// A numeric reference is an id; otherwise the exact label wins over a label prefix,
// both compared case-insensitively. The returned record is a copy.
func ResolveRecord(s *store.Store, ref string) (*world.Record, error) {
	kind := s.Category().Singular()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &NotFoundError{Kind: kind, Ref: ref}
	}

	if n, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if r, ok := s.Get(world.ID(n)); ok {
			return r, nil
		}
	}

	var exact, prefixed []*world.Record
	lower := strings.ToLower(ref)
	for _, r := range s.Records() {
		label := strings.ToLower(r.Label())
		switch {
		case label == lower:
			exact = append(exact, r)
		case strings.HasPrefix(label, lower):
			prefixed = append(prefixed, r)
		}
	}

	candidates := exact
	if len(candidates) == 0 {
		candidates = prefixed
	}
	switch len(candidates) {
	case 0:
		return nil, &NotFoundError{Kind: kind, Ref: ref}
	case 1:
		return candidates[0], nil
	default:
		return nil, &AmbiguousError{Kind: kind, Ref: ref, Matches: describeRecords(candidates)}
	}
}

func describeCampaigns(cs []*campaign.Campaign) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = fmt.Sprintf("%s  %s", c.ID(), c.Name())
	}
	return out
}

func describeRecords(rs []*world.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = fmt.Sprintf("%d  %s", r.ID, r.Label())
	}
	return out
}

// NotFoundError indicates nothing matched the reference.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found matching '%s'", e.Kind, e.Ref)
}

// AmbiguousError indicates several candidates matched the reference.
type AmbiguousError struct {
	Kind    string
	Ref     string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous %s '%s' matches %d entries", e.Kind, e.Ref, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly message for ambiguous references.
// Lists the candidates (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous %s '%s' matches %d entries:\n", err.Kind, err.Ref, len(err.Matches))

	shown := min(len(err.Matches), maxListed)
	for _, m := range err.Matches[:shown] {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	if len(err.Matches) > maxListed {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-maxListed)
	}

	fmt.Fprintf(&b, "\nUse the id or a longer name to pick one %s.", err.Kind)
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
