package commands

import (
	"fmt"
	"path/filepath"

	"github.com/dyluth/tome/internal/printer"
	"github.com/dyluth/tome/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new tome project",
	Long: `Initialize a new tome project with the default configuration.

Creates:
  • tome.yml - Project configuration file (storage backend, search, notifications)
  • .tome/   - Local state (active campaign, badger database)

Use --force to reinitialize an existing project (WARNING: replaces tome.yml and .tome/).
Campaign data stored in tome.json is never removed.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (removes existing tome.yml and .tome/)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}

	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(dir); err != nil {
			return printer.Error("project already initialized", err.Error(), nil)
		}
	}

	if err := scaffold.Initialize(dir, forceInit, printer.Writer()); err != nil {
		return printer.Error("initialization failed", err.Error(), nil)
	}

	scaffold.PrintSuccess(printer.Writer())
	return nil
}
