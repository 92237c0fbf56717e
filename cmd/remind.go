package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/prnudge/prnudge/config"
	"github.com/prnudge/prnudge/internal/github"
	"github.com/prnudge/prnudge/internal/log"
	"github.com/prnudge/prnudge/internal/notify"
	"github.com/prnudge/prnudge/internal/runlog"
	"github.com/prnudge/prnudge/internal/service"
	"github.com/prnudge/prnudge/internal/slack"
)

// NewCmdRemind creates the remind command.
func NewCmdRemind(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send stale-PR reminders (same as bare 'prnudge')",
		Long: `Fetches tracked pull requests, evaluates staleness, and sends one
Slack DM per author summarizing their quiet PRs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRemind(cmd, opts)
		},
	}

	addRemindFlags(cmd, opts)
	return cmd
}

// addRemindFlags adds the remind-specific flags to a command.
func addRemindFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Preview reminders without sending anything")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "Inactivity threshold in days (overrides config)")
	cmd.Flags().IntVar(&opts.Lookback, "lookback", 0, "Search window in days (overrides config)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent API requests (overrides config)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "Overall run timeout")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
}

func runRemind(cmd *cobra.Command, opts *Options) error {
	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := loadRunConfig(opts)
	if err != nil {
		return err
	}

	githubToken := cfg.GetGitHubToken()
	if githubToken == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	var messenger slack.Messenger
	if !opts.DryRun {
		slackToken := cfg.GetSlackToken()
		if slackToken == "" {
			return fmt.Errorf("Slack token not configured. Set the SLACK_BOT_TOKEN environment variable (or use --dry-run)")
		}
		messenger = slack.NewClient(slackToken)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	client, err := github.NewClient(ctx, githubToken)
	if err != nil {
		return err
	}

	rs := service.NewPipeline(client, client, *cfg).Collect(ctx, enrichProgress)

	batches := notify.BuildBatches(rs.PRs, rs.Verdicts)
	summary := notify.NewDispatcher(messenger, cfg, opts.DryRun).Dispatch(ctx, batches)

	recordRun(rs.CollectedAt, opts.DryRun, summary.Deliveries)
	printRemindSummary(os.Stdout, rs, summary, opts.DryRun)

	return remindError(rs, summary)
}

// loadRunConfig loads the merged config, applies flag overrides, and
// validates before any network call.
func loadRunConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.Days > 0 {
		cfg.InactivityThresholdDays = opts.Days
	}
	if opts.Lookback > 0 {
		cfg.LookbackDays = opts.Lookback
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.State != "" {
		cfg.StateFilter = opts.State
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func enrichProgress(completed, total int) {
	if completed == total || completed%25 == 0 {
		log.Debug("enriching pull requests", "completed", completed, "total", total)
	}
}

func recordRun(runAt time.Time, dryRun bool, deliveries []notify.Delivery) {
	store, err := runlog.NewStore()
	if err != nil {
		log.Warn("could not open send log", "error", err)
		return
	}
	if err := store.Record(runAt, dryRun, deliveries); err != nil {
		log.Warn("could not record send log", "error", err)
	}
}

// printRemindSummary writes the run results to w regardless of the
// logger's verbosity, so a bare run still reports what happened.
func printRemindSummary(w io.Writer, rs *service.ResultSet, summary notify.Summary, dryRun bool) {
	verb := "sent"
	if dryRun {
		verb = "would send"
	}

	fmt.Fprintf(w, "Tracked PRs: %d\n", len(rs.PRs))
	fmt.Fprintf(w, "Stale PRs:   %d\n", summary.StalePRs)
	fmt.Fprintf(w, "Reminders:   %d %s, %d skipped (no Slack mapping), %d failed\n",
		summary.Sent, verb, summary.Skipped, summary.Failed)

	for _, d := range summary.Deliveries {
		fmt.Fprintf(w, "  %s %s: %s\n", deliveryMark(d.Outcome), d.Author, describeDelivery(d))
	}

	if failed := rs.FailedOrgs(); len(failed) > 0 {
		fmt.Fprintf(w, "%s could not fetch: %v\n", color.YellowString("warning:"), failed)
	}
	if rs.Incomplete > 0 {
		fmt.Fprintf(w, "%s %d PRs excluded from staleness (enrichment failed)\n",
			color.YellowString("warning:"), rs.Incomplete)
	}
}

func deliveryMark(o notify.Outcome) string {
	switch o {
	case notify.OutcomeSent, notify.OutcomeDryRun:
		return color.GreenString("✓")
	case notify.OutcomeNoSlackID:
		return color.YellowString("-")
	default:
		return color.RedString("✗")
	}
}

func describeDelivery(d notify.Delivery) string {
	keys := make([]string, 0, len(d.PRs))
	for _, k := range d.PRs {
		keys = append(keys, k.String())
	}
	prs := strings.Join(keys, ", ")

	switch d.Outcome {
	case notify.OutcomeSent:
		return fmt.Sprintf("sent to %s (%s)", d.SlackID, prs)
	case notify.OutcomeDryRun:
		label := d.SlackID
		if label == "" {
			label = "NOT MAPPED"
		}
		return fmt.Sprintf("would send to %s (%s)", label, prs)
	case notify.OutcomeNoSlackID:
		return fmt.Sprintf("skipped, no Slack mapping (%s)", prs)
	default:
		return fmt.Sprintf("failed: %v (%s)", d.Err, prs)
	}
}

// remindError decides the exit status. Partial results are still
// reported, but any fetch or delivery failure makes the run nonzero so
// schedulers notice.
func remindError(rs *service.ResultSet, summary notify.Summary) error {
	if failed := rs.FailedOrgs(); len(failed) > 0 {
		return fmt.Errorf("fetch failed for %d organization(s): %v", len(failed), failed)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("delivery failed for %d author(s)", summary.Failed)
	}
	return nil
}
