// Package stale decides which pull requests have gone quiet for long
// enough to warrant a reminder.
package stale

import (
	"time"

	"github.com/prnudge/prnudge/internal/model"
)

// Verdict is the result of evaluating a single pull request.
type Verdict struct {
	Key model.PRKey

	// Stale is true when the PR is open, ready for review, fully
	// enriched, and has seen no activity for at least the threshold.
	Stale bool

	// InactivityDays is the whole number of days since the last
	// recorded activity. Zero for PRs that are not eligible.
	InactivityDays int

	// AwaitingMerge is true for stale PRs that already carry an
	// approval and are just waiting on a merge.
	AwaitingMerge bool

	// ApprovedDaysAgo is the whole number of days since the first
	// approval. Zero unless AwaitingMerge is true.
	ApprovedDaysAgo int
}

// Evaluate applies the inactivity threshold to a single record.
// Drafts, closed and merged PRs, and records whose enrichment failed
// are never stale.
func Evaluate(pr model.PRRecord, now time.Time, thresholdDays int) Verdict {
	v := Verdict{Key: pr.Key()}
	if pr.State != model.StateOpen || pr.Draft || pr.Incomplete {
		return v
	}
	v.InactivityDays = inactivityDays(pr.LastActivityAt(), now)
	v.Stale = v.InactivityDays >= thresholdDays
	v.AwaitingMerge = v.Stale && pr.FirstApprovedAt != nil
	if v.AwaitingMerge {
		v.ApprovedDaysAgo = inactivityDays(*pr.FirstApprovedAt, now)
	}
	return v
}

// EvaluateAll evaluates every record, preserving input order.
func EvaluateAll(prs []model.PRRecord, now time.Time, thresholdDays int) []Verdict {
	verdicts := make([]Verdict, 0, len(prs))
	for _, pr := range prs {
		verdicts = append(verdicts, Evaluate(pr, now, thresholdDays))
	}
	return verdicts
}

// inactivityDays truncates toward zero: 6.9 days of silence is 6 days.
func inactivityDays(last, now time.Time) int {
	if !now.After(last) {
		return 0
	}
	return int(now.Sub(last).Hours() / 24)
}
