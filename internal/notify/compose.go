package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/prnudge/prnudge/internal/model"
	"github.com/prnudge/prnudge/internal/stale"
)

const maxTitleLen = 50

// Batch is the set of stale PRs addressed to one author.
type Batch struct {
	Author  string
	SlackID string

	// NoActivity and AwaitingMerge partition the author's stale PRs.
	NoActivity    []StalePR
	AwaitingMerge []StalePR
}

// StalePR pairs a record with its inactivity span for rendering.
type StalePR struct {
	PR             model.PRRecord
	InactivityDays int

	// ApprovedDaysAgo is set only for awaiting-merge PRs.
	ApprovedDaysAgo int
}

func (b *Batch) prCount() int {
	return len(b.NoActivity) + len(b.AwaitingMerge)
}

// Keys lists every PR in the batch, no-activity first.
func (b *Batch) Keys() []model.PRKey {
	keys := make([]model.PRKey, 0, b.prCount())
	for _, s := range b.NoActivity {
		keys = append(keys, s.PR.Key())
	}
	for _, s := range b.AwaitingMerge {
		keys = append(keys, s.PR.Key())
	}
	return keys
}

// ComposeMessage renders the reminder DM for one author. The same
// batch and date always produce identical text, so a dry run shows
// exactly what a live run would send.
func ComposeMessage(b Batch, now time.Time) string {
	lines := []string{
		fmt.Sprintf("*Weekly PR Reminder* - %s\n", now.Format("Jan 02, 2006")),
		fmt.Sprintf("Hi! You have *%d* PR(s) that need attention:\n", b.prCount()),
	}

	if len(b.NoActivity) > 0 {
		lines = append(lines, "*No Activity:*")
		for _, s := range b.NoActivity {
			lines = append(lines, fmt.Sprintf("  • <%s|PR #%d>: \"%s\" - No activity for %d days",
				s.PR.HTMLURL, s.PR.Number, truncateTitle(s.PR.Title), s.InactivityDays))
		}
	}
	if len(b.AwaitingMerge) > 0 {
		lines = append(lines, "\n*Approved - Awaiting Merge:*")
		for _, s := range b.AwaitingMerge {
			lines = append(lines, fmt.Sprintf("  • <%s|PR #%d>: \"%s\" - Approved %d days ago",
				s.PR.HTMLURL, s.PR.Number, truncateTitle(s.PR.Title), s.ApprovedDaysAgo))
		}
	}
	return strings.Join(lines, "\n")
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return string(runes[:maxTitleLen])
}

// BuildBatches groups stale verdicts by author, preserving the order
// authors and PRs first appear in prs. Non-stale verdicts are ignored.
func BuildBatches(prs []model.PRRecord, verdicts []stale.Verdict) []Batch {
	byKey := make(map[model.PRKey]stale.Verdict, len(verdicts))
	for _, v := range verdicts {
		byKey[v.Key] = v
	}

	index := make(map[string]int)
	var batches []Batch
	for _, pr := range prs {
		v, ok := byKey[pr.Key()]
		if !ok || !v.Stale {
			continue
		}
		i, ok := index[pr.Author]
		if !ok {
			i = len(batches)
			index[pr.Author] = i
			batches = append(batches, Batch{Author: pr.Author})
		}
		s := StalePR{PR: pr, InactivityDays: v.InactivityDays, ApprovedDaysAgo: v.ApprovedDaysAgo}
		if v.AwaitingMerge {
			batches[i].AwaitingMerge = append(batches[i].AwaitingMerge, s)
		} else {
			batches[i].NoActivity = append(batches[i].NoActivity, s)
		}
	}
	return batches
}
