package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/tome/internal/campaign"
	"github.com/dyluth/tome/internal/filter"
	"github.com/dyluth/tome/internal/graph"
	"github.com/dyluth/tome/internal/ledger"
	"github.com/dyluth/tome/internal/printer"
	"github.com/dyluth/tome/internal/resolver"
	"github.com/dyluth/tome/internal/timespec"
	"github.com/dyluth/tome/pkg/world"
)

var (
	setValues    []string
	showOutput   string
	listOutput   string
	listStatus   string
	listName     string
	listSince    string
	listUntil    string
	categoryHelp = "Categories: locations, players, npcs, objects, quests, notes (singular forms work too)."
)

var addCmd = &cobra.Command{
	Use:   "add CATEGORY --set key=value...",
	Short: "Add a record to the active campaign",
	Long: `Add a record to the active campaign.

` + categoryHelp + `
Every category needs a label: 'name' for locations, players, npcs and objects,
'title' for quests and notes.

Examples:
  tome add npc --set name="Marta the Innkeeper" --set role=Innkeeper
  tome add quest --set title="The Missing Caravan" --set status=active
  tome add note --set title="Session 1" --set tags="combat, travel"`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(runAdd),
}

var editCmd = &cobra.Command{
	Use:   "edit CATEGORY RECORD --set key=value...",
	Short: "Change fields of a record",
	Long: `Change fields of a record. Fields not named with --set keep their value;
--set key= clears one.

RECORD is a record id, its label, or a unique label prefix.`,
	Args: cobra.ExactArgs(2),
	RunE: withSession(runEdit),
}

var rmCmd = &cobra.Command{
	Use:     "rm CATEGORY RECORD",
	Aliases: []string{"delete"},
	Short:   "Delete a record and every link to it",
	Args:    cobra.ExactArgs(2),
	RunE:    withSession(runRm),
}

var showCmd = &cobra.Command{
	Use:   "show CATEGORY RECORD",
	Short: "Show a record with its linked records",
	Args:  cobra.ExactArgs(2),
	RunE:  withSession(runShow),
}

var listCmd = &cobra.Command{
	Use:     "list [CATEGORY]",
	Aliases: []string{"ls"},
	Short:   "List records of the active campaign",
	Long: `List records of the active campaign, one table per category, or only the
records of CATEGORY.

Output Formats (require CATEGORY):
  default - Human-readable table
  jsonl   - Line-delimited JSON, one record per line
  json    - One JSON array

Filters:
  --name   - Label glob, case-insensitive ("gorm*", "*inn*")
  --status - Status field, case-insensitive exact match
  --since  - Records changed after this time (duration, date or RFC3339)
  --until  - Records changed before this time

Examples:
  tome list npcs --status=alive
  tome list quests --since=2025-10-01 -o jsonl | jq .title`,
	Args: cobra.MaximumNArgs(1),
	RunE: withSession(runList),
}

func init() {
	addCmd.Flags().StringArrayVarP(&setValues, "set", "s", nil, "Field value as key=value (repeatable)")
	editCmd.Flags().StringArrayVarP(&setValues, "set", "s", nil, "Field value as key=value (repeatable)")

	showCmd.Flags().StringVarP(&showOutput, "output", "o", "default", "Output format: default or json")

	listCmd.Flags().StringVarP(&listOutput, "output", "o", "default", "Output format: default, jsonl or json")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status field")
	listCmd.Flags().StringVar(&listName, "name", "", "Filter by label (glob pattern)")
	listCmd.Flags().StringVar(&listSince, "since", "", "Show records changed after time (duration, date or RFC3339)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Show records changed before time (duration, date or RFC3339)")

	rootCmd.AddCommand(addCmd, editCmd, rmCmd, showCmd, listCmd)
}

func runAdd(ctx context.Context, s *session, args []string) error {
	cat, err := parseCategory(args[0])
	if err != nil {
		return err
	}
	c, err := s.campaign()
	if err != nil {
		return err
	}

	values, err := parseSet(setValues)
	if err != nil {
		return err
	}
	fields, err := world.FieldsFromMap(cat, values)
	if err != nil {
		return fieldsError(cat, err)
	}

	r, err := c.Save(cat, fields)
	if err != nil {
		return err
	}
	notice(c.Collection(cat))
	printer.Faint("id %s\n", r.ID)
	return nil
}

func runEdit(ctx context.Context, s *session, args []string) error {
	cat, c, r, err := s.record(args[0], args[1])
	if err != nil {
		return err
	}

	values, err := parseSet(setValues)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return printer.Error("nothing to change", "No --set values were given.", []string{
			fmt.Sprintf("Set a field:\n  tome edit %s %s --set description=\"...\"", args[0], args[1]),
		})
	}

	fields := r.Fields.CloneFields()
	if err := world.ApplyValues(fields, values); err != nil {
		return fieldsError(cat, err)
	}
	if err := world.ValidateFields(fields); err != nil {
		return fieldsError(cat, err)
	}

	if _, err := c.Edit(cat, r.ID, fields); err != nil {
		return err
	}
	notice(c.Collection(cat))
	return nil
}

func runRm(ctx context.Context, s *session, args []string) error {
	cat, c, r, err := s.record(args[0], args[1])
	if err != nil {
		return err
	}

	links := graph.ConnectionCount(r)
	c.DeleteRecord(cat, r.ID)
	notice(c.Collection(cat))
	if links > 0 {
		printer.Faint("Removed %d %s\n", links, pluralLinks(links))
	}
	return nil
}

func runShow(ctx context.Context, s *session, args []string) error {
	cat, c, r, err := s.record(args[0], args[1])
	if err != nil {
		return err
	}

	switch showOutput {
	case "default":
		e := graph.Endpoint{Category: cat, ID: r.ID}
		ledger.FormatRecordDetail(printer.Writer(), cat, r, c.LinkedItems(e))
	case "json":
		return ledger.FormatSingleJSON(printer.Writer(), r)
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", showOutput),
			[]string{"Valid formats: default, json"},
		)
	}
	return nil
}

func runList(ctx context.Context, s *session, args []string) error {
	format, err := ledger.ParseOutputFormat(listOutput)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, jsonl, json"})
	}

	sinceMS, untilMS, err := timespec.ParseRange(listSince, listUntil)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use duration format like '1h30m', a date like '2025-10-29' or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}
	criteria := &filter.Criteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		LabelGlob:        listName,
		Status:           listStatus,
	}

	c, err := s.campaign()
	if err != nil {
		return err
	}
	now := time.Now()

	if len(args) == 1 {
		cat, err := parseCategory(args[0])
		if err != nil {
			return err
		}
		return ledger.ListRecords(printer.Writer(), c, cat, format, criteria, now)
	}

	if format != ledger.OutputFormatDefault {
		return printer.Error(
			"category required",
			fmt.Sprintf("The %s format lists one category at a time.", format),
			[]string{fmt.Sprintf("Name the category:\n  tome list npcs -o %s", format)},
		)
	}

	shown := 0
	for _, cat := range world.Categories() {
		records := criteria.Apply(c.Collection(cat).Records())
		if len(records) == 0 {
			continue
		}
		if shown > 0 {
			printer.Println()
		}
		shown += ledger.FormatRecordTable(printer.Writer(), cat, records, c.Name(), now)
	}
	if shown == 0 {
		printer.Info("No records found in campaign '%s'\n", c.Name())
	}
	return nil
}

// record resolves a CATEGORY RECORD argument pair in the working campaign.
func (s *session) record(categoryArg, ref string) (world.Category, *campaign.Campaign, *world.Record, error) {
	cat, err := parseCategory(categoryArg)
	if err != nil {
		return "", nil, nil, err
	}
	c, err := s.campaign()
	if err != nil {
		return "", nil, nil, err
	}
	r, err := resolver.ResolveRecord(c.Collection(cat), ref)
	if err != nil {
		return "", nil, nil, resolveError(err, cat.Singular(), ref, []string{
			fmt.Sprintf("List %s:\n  tome list %s", cat, cat),
		})
	}
	return cat, c, r, nil
}

func parseCategory(arg string) (world.Category, error) {
	cat, err := world.ParseCategory(arg)
	if err != nil {
		return "", printer.Error("unknown category", err.Error(), []string{categoryHelp})
	}
	return cat, nil
}

// parseSet turns repeated key=value flags into a map. The last value for a key wins.
func parseSet(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, printer.Error(
				"invalid --set value",
				fmt.Sprintf("Expected key=value, got %q.", pair),
				[]string{"Example:\n  --set name=\"Marta the Innkeeper\""},
			)
		}
		values[key] = value
	}
	return values, nil
}

func fieldsError(cat world.Category, err error) error {
	keys := make([]string, 0)
	for key := range world.KnownKeys(cat) {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return printer.Error(
		fmt.Sprintf("invalid %s", cat.Singular()),
		err.Error(),
		[]string{fmt.Sprintf("Fields of %s: %s", cat, strings.Join(keys, ", "))},
	)
}

func pluralLinks(n int) string {
	if n == 1 {
		return "link"
	}
	return "links"
}
