package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prnudge/prnudge/internal/runlog"
)

// NewCmdHistory creates the history command.
func NewCmdHistory() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent reminder deliveries",
		Long:  `Show the most recent reminder delivery attempts recorded by previous runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	return cmd
}

func runHistory(limit int) error {
	store, err := runlog.NewStore()
	if err != nil {
		return fmt.Errorf("could not open send log: %w", err)
	}

	entries := store.Recent(limit)
	if len(entries) == 0 {
		fmt.Println("No deliveries recorded yet.")
		return nil
	}

	for _, e := range entries {
		outcome := e.Outcome
		if e.DryRun {
			outcome = "dry_run"
		}
		line := fmt.Sprintf("%s  %-12s %-12s %d PRs",
			e.RunAt.Local().Format("2006-01-02 15:04"), e.Author, outcome, len(e.PRs))
		if e.Error != "" {
			line += "  (" + e.Error + ")"
		}
		fmt.Println(line)
		if len(e.PRs) > 0 {
			fmt.Printf("    %s\n", strings.Join(e.PRs, ", "))
		}
	}

	return nil
}
