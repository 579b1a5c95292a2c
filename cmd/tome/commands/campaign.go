package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/tome/internal/campaign"
	"github.com/dyluth/tome/internal/exchange"
	"github.com/dyluth/tome/internal/ledger"
	"github.com/dyluth/tome/internal/printer"
	"github.com/dyluth/tome/pkg/world"
)

var (
	campaignDescription string
	campaignEmpty       bool
	campaignName        string
	campaignExportFile  string
)

var campaignCmd = &cobra.Command{
	Use:     "campaign",
	Aliases: []string{"campaigns"},
	Short:   "Manage campaigns",
	Long: `Create, list, select, rename, delete, export and import campaigns.

Campaigns are referenced by full id, an id prefix of at least 6 characters, or name.`,
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a campaign and make it active",
	Long: `Create a campaign and make it active.

New campaigns get one starter record per category, linked together, unless --empty
is given or campaigns.seed is false in tome.yml.`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(runCampaignCreate),
}

var campaignListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List campaigns (the active one is marked with *)",
	Args:    cobra.NoArgs,
	RunE:    withSession(runCampaignList),
}

var campaignUseCmd = &cobra.Command{
	Use:   "use CAMPAIGN",
	Short: "Make a campaign the active one",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runCampaignUse),
}

var campaignEditCmd = &cobra.Command{
	Use:   "edit CAMPAIGN",
	Short: "Rename a campaign or change its description",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runCampaignEdit),
}

var campaignRmCmd = &cobra.Command{
	Use:     "rm CAMPAIGN",
	Aliases: []string{"delete"},
	Short:   "Delete a campaign and all its records",
	Args:    cobra.ExactArgs(1),
	RunE:    withSession(runCampaignRm),
}

var campaignExportCmd = &cobra.Command{
	Use:   "export [CAMPAIGN]",
	Short: "Write a campaign as a JSON document",
	Long: `Write a campaign as one indented JSON document, to stdout or to --file.

Without CAMPAIGN the active campaign is exported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withSession(runCampaignExport),
}

var campaignImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Add a campaign from an exported JSON document",
	Long: `Add a campaign from an exported JSON document ("-" reads stdin).

The imported campaign always gets a new id, and its dates are reset to today.
Link problems in the document are reported; run 'tome doctor --fix' to repair them.`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(runCampaignImport),
}

func init() {
	campaignCreateCmd.Flags().StringVarP(&campaignDescription, "description", "d", "", "Campaign description")
	campaignCreateCmd.Flags().BoolVar(&campaignEmpty, "empty", false, "Do not add starter records")

	campaignEditCmd.Flags().StringVar(&campaignName, "name", "", "New campaign name")
	campaignEditCmd.Flags().StringVarP(&campaignDescription, "description", "d", "", "New campaign description")

	campaignExportCmd.Flags().StringVarP(&campaignExportFile, "file", "f", "", "Write to this file instead of stdout")

	campaignCmd.AddCommand(campaignCreateCmd, campaignListCmd, campaignUseCmd, campaignEditCmd,
		campaignRmCmd, campaignExportCmd, campaignImportCmd)
	rootCmd.AddCommand(campaignCmd)
}

func runCampaignCreate(ctx context.Context, s *session, args []string) error {
	seed := s.cfg.SeedCampaigns() && !campaignEmpty
	c, err := s.lib.Create(args[0], campaignDescription, seed)
	if err != nil {
		return printer.Error("cannot create campaign", err.Error(), []string{"Give the campaign a name:\n  tome campaign create \"My Campaign\""})
	}

	printer.Success("Campaign %q created (%s)\n", c.Name(), c.ID())
	if seed {
		printer.Faint("Added %d starter records. See them with 'tome list'.\n", c.RecordCount())
	}
	return nil
}

func runCampaignList(ctx context.Context, s *session, args []string) error {
	var active world.CampaignID
	if c, ok := s.lib.Active(); ok {
		active = c.ID()
	}
	ledger.FormatCampaignTable(printer.Writer(), s.lib.List(), active)
	return nil
}

func runCampaignUse(ctx context.Context, s *session, args []string) error {
	c, err := s.resolveCampaign(args[0])
	if err != nil {
		return err
	}
	if err := s.lib.SetActive(c.ID()); err != nil {
		return err
	}
	printer.Success("Now working on %q\n", c.Name())
	return nil
}

func runCampaignEdit(ctx context.Context, s *session, args []string) error {
	c, err := s.resolveCampaign(args[0])
	if err != nil {
		return err
	}

	var patch campaign.Patch
	if campaignEditCmd.Flags().Changed("name") {
		name := strings.TrimSpace(campaignName)
		if name == "" {
			return printer.Error("cannot update campaign", "campaign name is required", nil)
		}
		patch.Name = &name
	}
	if campaignEditCmd.Flags().Changed("description") {
		patch.Description = &campaignDescription
	}
	if patch.Name == nil && patch.Description == nil {
		return printer.Error("nothing to change", "Neither --name nor --description was given.", []string{
			fmt.Sprintf("Rename the campaign:\n  tome campaign edit %s --name \"New Name\"", args[0]),
		})
	}

	if err := c.Update(patch); err != nil {
		return printer.Error("cannot update campaign", err.Error(), nil)
	}
	printer.Success("Campaign %q updated\n", c.Name())
	return nil
}

func runCampaignRm(ctx context.Context, s *session, args []string) error {
	c, err := s.resolveCampaign(args[0])
	if err != nil {
		return err
	}
	s.lib.Delete(c.ID())
	s.libraryNotice()
	return nil
}

func runCampaignExport(ctx context.Context, s *session, args []string) error {
	c, err := s.campaign()
	if len(args) == 1 {
		c, err = s.resolveCampaign(args[0])
	}
	if err != nil {
		return err
	}

	doc, err := s.lib.Export(c.ID())
	if err != nil {
		return err
	}

	if campaignExportFile == "" {
		return exchange.Export(printer.Writer(), doc)
	}

	f, err := os.Create(campaignExportFile)
	if err != nil {
		return printer.Error("cannot write export", err.Error(), nil)
	}
	if err := exchange.Export(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("failed to export campaign: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", campaignExportFile, err)
	}
	printer.Success("Exported %q to %s\n", c.Name(), campaignExportFile)
	return nil
}

func runCampaignImport(ctx context.Context, s *session, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return printer.Error("cannot read import file", err.Error(), nil)
		}
		defer f.Close()
		r = f
	}

	doc, err := exchange.Import(r, time.Now())
	if err != nil {
		return printer.Error(
			"invalid campaign document",
			err.Error(),
			[]string{"Import a file written by 'tome campaign export'"},
		)
	}

	c, err := s.lib.Import(doc)
	if err != nil {
		return printer.Error("cannot import campaign", err.Error(), nil)
	}
	s.libraryNotice()

	if issues := c.Audit(); len(issues) > 0 {
		printer.Warning("%d link problems found in the imported campaign\n", len(issues))
		printer.Faint("Run 'tome doctor --fix --campaign %s' to repair them.\n", c.ID())
	}
	return nil
}
