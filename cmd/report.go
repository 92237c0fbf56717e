package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prnudge/prnudge/internal/github"
	"github.com/prnudge/prnudge/internal/log"
	"github.com/prnudge/prnudge/internal/model"
	"github.com/prnudge/prnudge/internal/output"
	"github.com/prnudge/prnudge/internal/service"
)

// NewCmdReport creates the report command.
func NewCmdReport(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show tracked PRs and their staleness without sending anything",
		Long: `Fetches and evaluates tracked pull requests, then prints them as a
table or JSON. No Slack messages are sent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "table", "Output format (table, json)")
	cmd.Flags().StringVar(&opts.State, "state", "", "PR state filter (open, closed, both; overrides config)")
	cmd.Flags().StringVar(&opts.Author, "user", "", "Only show PRs by this GitHub user")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "Inactivity threshold in days (overrides config)")
	cmd.Flags().IntVar(&opts.Lookback, "lookback", 0, "Search window in days (overrides config)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent API requests (overrides config)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	return cmd
}

func runReport(cmd *cobra.Command, opts *Options) error {
	log.Initialize(opts.Verbosity, os.Stderr)

	format, ok := output.ParseFormat(opts.Format)
	if !ok {
		return fmt.Errorf("invalid format: %s (must be table or json)", opts.Format)
	}

	cfg, err := loadRunConfig(opts)
	if err != nil {
		return err
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	client, err := github.NewClient(ctx, token)
	if err != nil {
		return err
	}

	rs := service.NewPipeline(client, client, *cfg).Collect(ctx, enrichProgress)

	filter := output.Filter{Author: opts.Author}
	if opts.State != "" {
		sf, err := model.ParseStateFilter(opts.State)
		if err != nil {
			return err
		}
		filter.State = sf
	}

	report := output.BuildReport(rs, filter)
	return output.NewFormatter(format).Format(report, os.Stdout)
}
