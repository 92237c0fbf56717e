package github

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/prnudge/prnudge/internal/log"
	"github.com/prnudge/prnudge/internal/model"
	"golang.org/x/sync/errgroup"
)

// reviewApproved is the review state marking an approval.
const reviewApproved = "APPROVED"

// Enricher folds comment and review timelines into PR records.
type Enricher struct {
	timeline TimelineReader
	workers  int
}

// NewEnricher creates an Enricher with the given concurrency cap.
func NewEnricher(timeline TimelineReader, workers int) *Enricher {
	if workers < 1 {
		workers = 1
	}
	return &Enricher{
		timeline: timeline,
		workers:  workers,
	}
}

// EnrichAll enriches records in place. Records are independent, so
// enrichment fans out with bounded concurrency; a failure for one
// record marks it incomplete and never blocks the rest.
// onProgress may be nil.
func (e *Enricher) EnrichAll(ctx context.Context, prs []model.PRRecord, onProgress func(completed, total int)) {
	total := len(prs)
	var completed int64

	g := new(errgroup.Group)
	g.SetLimit(e.workers)

	for i := range prs {
		g.Go(func() error {
			e.enrich(ctx, &prs[i])
			if onProgress != nil {
				onProgress(int(atomic.AddInt64(&completed, 1)), total)
			}
			return nil
		})
	}

	_ = g.Wait()

	incomplete := 0
	for i := range prs {
		if prs[i].Incomplete {
			incomplete++
		}
	}
	log.Info("enriched PRs", "count", total, "incomplete", incomplete)
}

func (e *Enricher) enrich(ctx context.Context, pr *model.PRRecord) {
	switch pr.State {
	case model.StateOpen:
		e.enrichOpen(ctx, pr)
	case model.StateClosed, model.StateMerged:
		e.enrichClosed(ctx, pr)
	}
}

// enrichOpen computes last comment and first approval times from the
// PR's timelines. Comments by the PR author do not count: the policy
// cares about outstanding third-party feedback, not the author's own
// replies.
func (e *Enricher) enrichOpen(ctx context.Context, pr *model.PRRecord) {
	key := pr.Key()

	issueComments, err := e.timeline.ListIssueComments(ctx, key)
	if err != nil {
		markIncomplete(pr, err)
		return
	}

	reviewComments, err := e.timeline.ListReviewComments(ctx, key)
	if err != nil {
		markIncomplete(pr, err)
		return
	}

	reviews, err := e.timeline.ListReviews(ctx, key)
	if err != nil {
		markIncomplete(pr, err)
		return
	}

	for _, comment := range issueComments {
		if strings.EqualFold(comment.Author, pr.Author) {
			continue
		}
		pr.ObserveComment(comment.At)
	}
	for _, comment := range reviewComments {
		if strings.EqualFold(comment.Author, pr.Author) {
			continue
		}
		pr.ObserveComment(comment.At)
	}

	for _, review := range reviews {
		if review.State == reviewApproved && !review.At.IsZero() {
			pr.ObserveApproval(review.At)
		}
	}
}

// enrichClosed fetches line-change counts only. Closed and merged PRs
// are never stale, so their timelines are not needed.
func (e *Enricher) enrichClosed(ctx context.Context, pr *model.PRRecord) {
	additions, deletions, err := e.timeline.GetPRDiffStats(ctx, pr.Key())
	if err != nil {
		markIncomplete(pr, err)
		return
	}
	pr.Additions = additions
	pr.Deletions = deletions
}

// markIncomplete flags a record whose enrichment failed. Derived fields
// are cleared: a half-enriched record must never read as "no recent
// activity" and trigger a false reminder.
func markIncomplete(pr *model.PRRecord, err error) {
	log.Warn("enrichment incomplete", "pr", pr.Key(), "error", err)
	pr.LastCommentAt = nil
	pr.FirstApprovedAt = nil
	pr.Additions = 0
	pr.Deletions = 0
	pr.Incomplete = true
}
