package watch

import (
	"fmt"

	"github.com/dyluth/tome/internal/persist"
	"github.com/dyluth/tome/pkg/world"
)

// Describe compares two consecutive saved lists and returns one line per change, in
// list order with deletions last. prev is nil for the first event seen.
func Describe(prev, next *persist.Event) []string {
	if prev == nil {
		return []string{fmt.Sprintf("📚 Library loaded: %s", countCampaigns(len(next.Campaigns)))}
	}

	before := make(map[world.CampaignID]persist.CampaignSummary, len(prev.Campaigns))
	for _, c := range prev.Campaigns {
		before[c.ID] = c
	}

	var lines []string
	seen := make(map[world.CampaignID]bool, len(next.Campaigns))
	for _, c := range next.Campaigns {
		seen[c.ID] = true
		old, existed := before[c.ID]
		switch {
		case !existed:
			lines = append(lines, fmt.Sprintf("📜 Campaign created: %s (%s)", c.Name, countRecords(c.Records)))
		case old.Name != c.Name:
			lines = append(lines, fmt.Sprintf("✏️  Campaign renamed: %s → %s", old.Name, c.Name))
		case old.Records != c.Records:
			lines = append(lines, fmt.Sprintf("📝 Campaign updated: %s (%s, was %d)", c.Name, countRecords(c.Records), old.Records))
		case !old.LastModified.Equal(c.LastModified.Time):
			lines = append(lines, fmt.Sprintf("📝 Campaign updated: %s (%s)", c.Name, countRecords(c.Records)))
		}
	}

	for _, c := range prev.Campaigns {
		if !seen[c.ID] {
			lines = append(lines, fmt.Sprintf("🗑️  Campaign deleted: %s", c.Name))
		}
	}

	if len(lines) == 0 {
		lines = append(lines, fmt.Sprintf("💾 Library saved: %s", countCampaigns(len(next.Campaigns))))
	}
	return lines
}

func countCampaigns(n int) string {
	if n == 1 {
		return "1 campaign"
	}
	return fmt.Sprintf("%d campaigns", n)
}

func countRecords(n int) string {
	if n == 1 {
		return "1 record"
	}
	return fmt.Sprintf("%d records", n)
}
