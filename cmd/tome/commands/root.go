package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags
var (
	projectDir  string
	configPath  string
	campaignRef string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tome",
	Short: "Tome - campaign notebook for game masters",
	Long: `Tome keeps the world of a tabletop campaign in one place: locations, player
characters, NPCs, objects, quests and session notes, plus the links between them.

Campaigns are stored in a JSON file, an embedded Badger database or a shared Redis
server, selected in tome.yml.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory holding tome.yml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to tome.yml (default: <dir>/tome.yml)")
	rootCmd.PersistentFlags().StringVar(&campaignRef, "campaign", "", "Campaign to work on (id, id prefix or name) instead of the active one")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
}
