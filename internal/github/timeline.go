package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v59/github"
	"github.com/prnudge/prnudge/internal/model"
)

// ListIssueComments returns all issue-level comments on a PR.
func (c *Client) ListIssueComments(ctx context.Context, key model.PRKey) ([]Comment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var comments []Comment

	for {
		var page []*gh.IssueComment
		var resp *gh.Response
		err := c.withRetry(ctx, "list issue comments", func() error {
			var err error
			page, resp, err = c.client.Issues.ListComments(ctx, key.Org, key.Repo, key.Number, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list comments for %s: %w", key, err)
		}

		for _, comment := range page {
			at := comment.GetUpdatedAt().Time
			if at.IsZero() {
				at = comment.GetCreatedAt().Time
			}
			comments = append(comments, Comment{
				Author: comment.GetUser().GetLogin(),
				At:     at,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// ListReviewComments returns all review-level (inline diff) comments on a PR.
func (c *Client) ListReviewComments(ctx context.Context, key model.PRKey) ([]Comment, error) {
	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var comments []Comment

	for {
		var page []*gh.PullRequestComment
		var resp *gh.Response
		err := c.withRetry(ctx, "list review comments", func() error {
			var err error
			page, resp, err = c.client.PullRequests.ListComments(ctx, key.Org, key.Repo, key.Number, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list review comments for %s: %w", key, err)
		}

		for _, comment := range page {
			at := comment.GetUpdatedAt().Time
			if at.IsZero() {
				at = comment.GetCreatedAt().Time
			}
			comments = append(comments, Comment{
				Author: comment.GetUser().GetLogin(),
				At:     at,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// ListReviews returns all submitted reviews on a PR.
func (c *Client) ListReviews(ctx context.Context, key model.PRKey) ([]Review, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var reviews []Review

	for {
		var page []*gh.PullRequestReview
		var resp *gh.Response
		err := c.withRetry(ctx, "list reviews", func() error {
			var err error
			page, resp, err = c.client.PullRequests.ListReviews(ctx, key.Org, key.Repo, key.Number, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews for %s: %w", key, err)
		}

		for _, review := range page {
			reviews = append(reviews, Review{
				Author: review.GetUser().GetLogin(),
				State:  review.GetState(),
				At:     review.GetSubmittedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return reviews, nil
}

// GetPRDiffStats fetches line-change counts from the PR detail
// endpoint. Only called for closed/merged PRs; open PRs skip this to
// bound API cost.
func (c *Client) GetPRDiffStats(ctx context.Context, key model.PRKey) (int, int, error) {
	var pr *gh.PullRequest
	err := c.withRetry(ctx, "get PR detail", func() error {
		var err error
		pr, _, err = c.client.PullRequests.Get(ctx, key.Org, key.Repo, key.Number)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return pr.GetAdditions(), pr.GetDeletions(), nil
}
