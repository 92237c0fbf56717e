// Package notify groups stale pull requests into per-author batches
// and delivers one reminder DM per author.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prnudge/prnudge/internal/log"
	"github.com/prnudge/prnudge/internal/model"
	"github.com/prnudge/prnudge/internal/slack"
)

// Outcome records how delivery went for one author.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomeFailed    Outcome = "failed"
	OutcomeNoSlackID Outcome = "no_slack_id"
	OutcomeDryRun    Outcome = "dry_run"
)

// Delivery is the per-author result of a dispatch run.
type Delivery struct {
	Author  string
	SlackID string
	PRs     []model.PRKey
	Outcome Outcome
	Err     error
}

// Summary aggregates a dispatch run.
type Summary struct {
	StalePRs   int
	Sent       int
	Skipped    int
	Failed     int
	Deliveries []Delivery
}

// Resolver maps a GitHub login to a Slack user ID.
type Resolver interface {
	SlackIDFor(github string) (string, bool)
}

// Dispatcher sends one reminder per author with stale PRs.
type Dispatcher struct {
	messenger slack.Messenger
	resolver  Resolver
	dryRun    bool
	preview   io.Writer
	now       func() time.Time
}

func NewDispatcher(messenger slack.Messenger, resolver Resolver, dryRun bool) *Dispatcher {
	return &Dispatcher{
		messenger: messenger,
		resolver:  resolver,
		dryRun:    dryRun,
		preview:   os.Stdout,
		now:       time.Now,
	}
}

// Dispatch delivers each batch in order. A failure for one author
// never blocks the rest; it is recorded and counted in the summary.
func (d *Dispatcher) Dispatch(ctx context.Context, batches []Batch) Summary {
	var summary Summary
	for _, b := range batches {
		summary.StalePRs += b.prCount()
		delivery := d.deliver(ctx, b)
		switch delivery.Outcome {
		case OutcomeSent, OutcomeDryRun:
			summary.Sent++
		case OutcomeNoSlackID:
			summary.Skipped++
		case OutcomeFailed:
			summary.Failed++
		}
		summary.Deliveries = append(summary.Deliveries, delivery)
	}
	return summary
}

func (d *Dispatcher) deliver(ctx context.Context, b Batch) Delivery {
	delivery := Delivery{Author: b.Author, PRs: b.Keys()}

	slackID, ok := d.resolver.SlackIDFor(b.Author)
	if ok {
		delivery.SlackID = slackID
		b.SlackID = slackID
	}

	// A dry run previews every batch, mapped or not, straight to the
	// preview writer so it is visible at any verbosity.
	if d.dryRun {
		label := slackID
		if !ok {
			label = "NOT MAPPED"
		}
		fmt.Fprintf(d.preview, "\n--- Message for %s (Slack: %s) ---\n%s\n", b.Author, label, ComposeMessage(b, d.now()))
		delivery.Outcome = OutcomeDryRun
		return delivery
	}

	if !ok {
		log.Warn("no slack mapping for author, skipping", "author", b.Author, "prs", b.prCount())
		delivery.Outcome = OutcomeNoSlackID
		return delivery
	}

	text := ComposeMessage(b, d.now())
	if err := d.messenger.SendDM(ctx, slackID, text); err != nil {
		log.Error("failed to send reminder", "author", b.Author, "slack_id", slackID, "error", err)
		delivery.Outcome = OutcomeFailed
		delivery.Err = err
		return delivery
	}
	log.Info("sent reminder", "author", b.Author, "slack_id", slackID, "prs", b.prCount())
	delivery.Outcome = OutcomeSent
	return delivery
}
