package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "prnudge",
		Short: "PR staleness reminders over Slack",
		Long: `Tracks open pull requests for a set of GitHub users across
organizations, finds the ones that have gone quiet, and nudges each
author with a single Slack DM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemind(cmd, opts)
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add remind flags to root command so `prnudge` and `prnudge remind`
	// work identically
	addRemindFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdRemind(opts))
	rootCmd.AddCommand(NewCmdReport(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdHistory())
	rootCmd.AddCommand(NewCmdVersion())
	rootCmd.AddCommand(NewCmdRateLimit())

	return rootCmd
}
