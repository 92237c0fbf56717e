package github

import (
	"context"
	"time"

	"github.com/prnudge/prnudge/internal/model"
)

// Comment is a single comment on a PR timeline, issue-level or
// review-level.
type Comment struct {
	Author string
	At     time.Time
}

// Review is a single submitted PR review.
type Review struct {
	Author string
	State  string // APPROVED, CHANGES_REQUESTED, COMMENTED, ...
	At     time.Time
}

// Searcher defines the search surface of the GitHub client.
// This interface enables mocking the client in unit tests.
type Searcher interface {
	SearchPRs(ctx context.Context, query string) ([]model.PRRecord, error)
}

// TimelineReader defines the per-PR timeline surface of the GitHub
// client, used by enrichment.
type TimelineReader interface {
	ListIssueComments(ctx context.Context, key model.PRKey) ([]Comment, error)
	ListReviewComments(ctx context.Context, key model.PRKey) ([]Comment, error)
	ListReviews(ctx context.Context, key model.PRKey) ([]Review, error)
	GetPRDiffStats(ctx context.Context, key model.PRKey) (additions, deletions int, err error)
}

// Ensure Client implements both interfaces.
var (
	_ Searcher       = (*Client)(nil)
	_ TimelineReader = (*Client)(nil)
)
