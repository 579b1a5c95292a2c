package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/tome/internal/campaign"
	"github.com/dyluth/tome/internal/graph"
	"github.com/dyluth/tome/internal/ledger"
	"github.com/dyluth/tome/internal/printer"
	"github.com/dyluth/tome/pkg/world"
)

var linkCmd = &cobra.Command{
	Use:   "link CATEGORY RECORD CATEGORY RECORD",
	Short: "Link two records in both directions",
	Long: `Link two records in both directions. Linking records that are already linked
changes nothing.

Example:
  tome link npc "Marta" location "The Crossroads Inn"`,
	Args: cobra.ExactArgs(4),
	RunE: withSession(runLink),
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink CATEGORY RECORD CATEGORY RECORD",
	Short: "Remove the link between two records",
	Args:  cobra.ExactArgs(4),
	RunE:  withSession(runUnlink),
}

var availableCmd = &cobra.Command{
	Use:   "available CATEGORY RECORD TARGET_CATEGORY",
	Short: "List records of TARGET_CATEGORY that RECORD could still be linked to",
	Args:  cobra.ExactArgs(3),
	RunE:  withSession(runAvailable),
}

func init() {
	rootCmd.AddCommand(linkCmd, unlinkCmd, availableCmd)
}

// endpoints resolves the two records named by a four-argument link command.
func (s *session) endpoints(args []string) (*campaign.Campaign, *world.Record, *world.Record, graph.Endpoint, graph.Endpoint, error) {
	catA, c, a, err := s.record(args[0], args[1])
	if err != nil {
		return nil, nil, nil, graph.Endpoint{}, graph.Endpoint{}, err
	}
	catB, _, b, err := s.record(args[2], args[3])
	if err != nil {
		return nil, nil, nil, graph.Endpoint{}, graph.Endpoint{}, err
	}
	return c, a, b, graph.Endpoint{Category: catA, ID: a.ID}, graph.Endpoint{Category: catB, ID: b.ID}, nil
}

func runLink(ctx context.Context, s *session, args []string) error {
	c, a, b, ea, eb, err := s.endpoints(args)
	if err != nil {
		return err
	}
	if ea == eb {
		return printer.Error("cannot link a record to itself", fmt.Sprintf("%s and %s are the same record.", args[1], args[3]), nil)
	}

	if c.Connect(ea, eb) {
		printer.Success("Linked %s %q ↔ %s %q\n", ea.Category.Singular(), a.Label(), eb.Category.Singular(), b.Label())
	} else {
		printer.Info("%q and %q are already linked\n", a.Label(), b.Label())
	}
	return nil
}

func runUnlink(ctx context.Context, s *session, args []string) error {
	c, a, b, ea, eb, err := s.endpoints(args)
	if err != nil {
		return err
	}

	if c.Disconnect(ea, eb) {
		printer.Success("Unlinked %s %q and %s %q\n", ea.Category.Singular(), a.Label(), eb.Category.Singular(), b.Label())
	} else {
		printer.Info("%q and %q are not linked\n", a.Label(), b.Label())
	}
	return nil
}

func runAvailable(ctx context.Context, s *session, args []string) error {
	cat, c, r, err := s.record(args[0], args[1])
	if err != nil {
		return err
	}
	target, err := parseCategory(args[2])
	if err != nil {
		return err
	}

	items := c.AvailableItems(graph.Endpoint{Category: cat, ID: r.ID}, target)
	ledger.FormatRecordTable(printer.Writer(), target, items, c.Name(), time.Now())
	return nil
}
