// Package ledger renders campaigns, records, search results and link audits for
// the terminal and for machine consumption.
package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/tome/internal/campaign"
	"github.com/dyluth/tome/internal/graph"
	"github.com/dyluth/tome/internal/search"
	"github.com/dyluth/tome/pkg/world"
)

// FormatRecordTable writes records as a formatted table to the provided writer.
// The table includes columns: ID, LABEL, LINKS, AGE and SUMMARY (truncated).
// Returns the number of records formatted.
func FormatRecordTable(w io.Writer, cat world.Category, records []*world.Record, campaignName string, now time.Time) int {
	if len(records) == 0 {
		fmt.Fprintf(w, "No %s found in campaign '%s'\n", cat, campaignName)
		return 0
	}

	fmt.Fprintf(w, "%s in campaign '%s':\n\n", capitalise(string(cat)), campaignName)

	fmt.Fprintf(w, "%-16s %-28s %-5s %-8s %s\n",
		"ID", "LABEL", "LINKS", "AGE", "SUMMARY")
	fmt.Fprintf(w, "%-16s %-28s %-5s %-8s %s\n",
		"----------------", "----------------------------", "-----", "--------", "----------------------------------------")

	for _, r := range records {
		fmt.Fprintf(w, "%-16s %-28s %-5d %-8s %s\n",
			r.ID,
			formatLabel(r.Label(), 28),
			graph.ConnectionCount(r),
			formatAge(touchedAt(r), now),
			formatSummary(r),
		)
	}

	fmt.Fprintf(w, "\n%d %s\n", len(records), plural(len(records), cat.Singular(), string(cat)))
	return len(records)
}

// FormatCampaignTable writes the campaign list, marking the active campaign with '*'.
func FormatCampaignTable(w io.Writer, campaigns []*campaign.Campaign, active world.CampaignID) int {
	if len(campaigns) == 0 {
		fmt.Fprintln(w, "No campaigns yet")
		return 0
	}

	fmt.Fprintf(w, "  %-8s %-28s %-7s %s\n", "ID", "NAME", "RECORDS", "MODIFIED")
	fmt.Fprintf(w, "  %-8s %-28s %-7s %s\n", "--------", "----------------------------", "-------", "----------")

	for _, c := range campaigns {
		marker := " "
		if c.ID() == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-8s %-28s %-7d %s\n",
			marker,
			formatShortID(string(c.ID())),
			formatLabel(c.Name(), 28),
			c.RecordCount(),
			dash(c.LastModified().String()),
		)
	}

	fmt.Fprintf(w, "\n%d %s\n", len(campaigns), plural(len(campaigns), "campaign", "campaigns"))
	return len(campaigns)
}

// FormatJSONL writes records as line-delimited JSON (JSONL) to the provided writer.
// Each record is written as a single JSON object on its own line.
func FormatJSONL(w io.Writer, records []*world.Record) error {
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes v as pretty-printed JSON followed by a newline.
func FormatSingleJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// FormatRecordDetail writes one record with all its fields followed by its linked records,
// grouped by category in declaration order.
func FormatRecordDetail(w io.Writer, cat world.Category, r *world.Record, linked map[world.Category][]*world.Record) {
	fmt.Fprintf(w, "%s %s  %s\n\n", capitalise(cat.Singular()), r.ID, r.Label())

	values := world.Values(r.Fields)
	width := len("modified:")
	for _, v := range values {
		width = max(width, len(v.Key)+1)
	}
	for _, v := range values {
		fmt.Fprintf(w, "  %-*s  %s\n", width, v.Key+":", v.Value)
	}
	fmt.Fprintf(w, "  %-*s  %s\n", width, "created:", dash(r.CreatedAt.String()))
	if r.ModifiedAt != nil {
		fmt.Fprintf(w, "  %-*s  %s\n", width, "modified:", r.ModifiedAt.UTC().Format(time.RFC3339))
	}

	total := 0
	for _, rs := range linked {
		total += len(rs)
	}
	if total == 0 {
		fmt.Fprintf(w, "\nNo linked records\n")
		return
	}

	fmt.Fprintf(w, "\nLinked (%d):\n", total)
	for _, c := range world.Categories() {
		for _, l := range linked[c] {
			fmt.Fprintf(w, "  %-10s %-16s %s\n", c, l.ID, l.Label())
		}
	}
}

// FormatMatches writes search results in rank order.
func FormatMatches(w io.Writer, query string, matches []search.Match) int {
	if len(matches) == 0 {
		fmt.Fprintf(w, "No matches for '%s'\n", query)
		return 0
	}

	fmt.Fprintf(w, "%-10s %-16s %-28s %s\n", "CATEGORY", "ID", "LABEL", "MATCHED")
	fmt.Fprintf(w, "%-10s %-16s %-28s %s\n", "----------", "----------------", "----------------------------", "---------")
	for _, m := range matches {
		fmt.Fprintf(w, "%-10s %-16s %-28s %s\n",
			m.Category,
			m.Record.ID,
			formatLabel(m.Record.Label(), 28),
			m.Rank,
		)
	}

	fmt.Fprintf(w, "\n%d %s\n", len(matches), plural(len(matches), "match", "matches"))
	return len(matches)
}

// FormatIssues writes link audit findings. repaired switches the wording to the past tense.
func FormatIssues(w io.Writer, issues []graph.Issue, repaired bool) int {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No link problems found")
		return 0
	}

	for _, issue := range issues {
		fmt.Fprintf(w, "  %s\n", issue)
	}

	verb := "found"
	if repaired {
		verb = "repaired"
	}
	fmt.Fprintf(w, "\n%d %s %s\n", len(issues), plural(len(issues), "problem", "problems"), verb)
	return len(issues)
}

// formatLabel truncates labels for table display. Empty labels return "-".
func formatLabel(label string, width int) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "-"
	}
	if len(label) > width {
		return label[:width-3] + "..."
	}
	return label
}

// formatSummary shows the first non-empty secondary value of a record, first line
// only, max 40 characters. Records with nothing to show return "-".
func formatSummary(r *world.Record) string {
	if r.Fields == nil {
		return "-"
	}
	for _, text := range r.Fields.SearchText() {
		for _, line := range strings.Split(text, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				return formatLabel(trimmed, 40)
			}
		}
	}
	return "-"
}

// formatShortID truncates campaign ids to the first 8 characters.
func formatShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatAge shows relative time like "2m ago", "1h ago", etc.
func formatAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now.Sub(t)
	switch {
	case diff < 0:
		return "0s ago"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}

func touchedAt(r *world.Record) time.Time {
	if r.ModifiedAt != nil {
		return *r.ModifiedAt
	}
	return r.CreatedAt.Time
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func capitalise(s string) string {
	switch s {
	case "":
		return s
	case "npc":
		return "NPC"
	case "npcs":
		return "NPCs"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
