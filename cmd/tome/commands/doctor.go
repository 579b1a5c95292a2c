package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/tome/internal/campaign"
	"github.com/dyluth/tome/internal/ledger"
	"github.com/dyluth/tome/internal/printer"
)

var (
	doctorFix bool
	doctorAll bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check links for dangling, one-sided and self references",
	Long: `Check the links of the active campaign (or every campaign with --all).

Campaigns edited through tome never have link problems; imported or hand-edited
documents can. With --fix, links to missing records and self links are removed
and one-sided links are completed.

Exits with status 1 when problems are found and not fixed.`,
	Args: cobra.NoArgs,
	RunE: withSession(runDoctor),
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair the problems found")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false, "Check every campaign")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(ctx context.Context, s *session, args []string) error {
	var targets []*campaign.Campaign
	if doctorAll {
		targets = s.lib.List()
	} else {
		c, err := s.campaign()
		if err != nil {
			return err
		}
		targets = []*campaign.Campaign{c}
	}

	unresolved := 0
	for i, c := range targets {
		if i > 0 {
			printer.Println()
		}
		printer.Step("Checking %q\n", c.Name())

		if doctorFix {
			ledger.FormatIssues(printer.Writer(), c.Repair(), true)
			continue
		}
		unresolved += ledger.FormatIssues(printer.Writer(), c.Audit(), false)
	}

	if unresolved > 0 {
		printer.Faint("\nRun 'tome doctor --fix' to repair them.\n")
		return fmt.Errorf("%d link problems found", unresolved)
	}
	return nil
}
