package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/tome/internal/ledger"
	"github.com/dyluth/tome/internal/printer"
	"github.com/dyluth/tome/internal/search"
	"github.com/dyluth/tome/pkg/world"
)

var (
	searchLimit  int
	searchOutput string
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Find records by label and description",
	Long: `Find records in the active campaign whose label or descriptive fields contain
QUERY, ignoring case. Label matches come first.

Examples:
  tome search dragon
  tome search "missing caravan" --limit 5
  tome search inn -o json | jq '.[].record.name'`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(runSearch),
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum matches (default from tome.yml)")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(searchCmd)
}

// matchJSON is the machine-readable form of a search.Match.
type matchJSON struct {
	Category world.Category `json:"category"`
	Rank     string         `json:"rank"`
	Record   *world.Record  `json:"record"`
}

func runSearch(ctx context.Context, s *session, args []string) error {
	query := strings.Join(args, " ")
	if len([]rune(strings.TrimSpace(query))) < search.MinQueryLength {
		return printer.Error(
			"query too short",
			fmt.Sprintf("Search needs at least %d characters.", search.MinQueryLength),
			nil,
		)
	}

	c, err := s.campaign()
	if err != nil {
		return err
	}

	limit := searchLimit
	if limit <= 0 {
		limit = s.cfg.SearchLimit()
	}
	matches := c.Search(query, limit)

	switch searchOutput {
	case "default":
		ledger.FormatMatches(printer.Writer(), query, matches)
	case "json":
		out := make([]matchJSON, len(matches))
		for i, m := range matches {
			out[i] = matchJSON{Category: m.Category, Rank: m.Rank.String(), Record: m.Record}
		}
		return ledger.FormatSingleJSON(printer.Writer(), out)
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", searchOutput),
			[]string{"Valid formats: default, json"},
		)
	}
	return nil
}
