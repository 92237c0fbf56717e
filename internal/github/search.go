package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v59/github"
	"github.com/prnudge/prnudge/internal/log"
	"github.com/prnudge/prnudge/internal/model"
)

// SearchPRs runs a search query and returns one PRRecord per matching
// pull request, walking every result page.
func (c *Client) SearchPRs(ctx context.Context, query string) ([]model.PRRecord, error) {
	opts := &gh.SearchOptions{
		Sort:  "created",
		Order: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var records []model.PRRecord

	for {
		var result *gh.IssuesSearchResult
		var resp *gh.Response
		err := c.withRetry(ctx, "search PRs", func() error {
			var err error
			result, resp, err = c.client.Search.Issues(ctx, query, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search pull requests: %w", err)
		}

		for _, issue := range result.Issues {
			rec, err := issueToRecord(issue)
			if err != nil {
				log.Debug("skipping unparseable search result", "url", issue.GetURL(), "error", err)
				continue
			}
			records = append(records, rec)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return records, nil
}

// issueToRecord converts a search result (the search API returns PRs as
// issues) into a PRRecord.
func issueToRecord(issue *gh.Issue) (model.PRRecord, error) {
	org, repo, err := splitRepositoryURL(issue.GetRepositoryURL())
	if err != nil {
		return model.PRRecord{}, err
	}

	state := model.StateOpen
	if issue.GetState() == "closed" {
		state = model.StateClosed
	}
	if links := issue.GetPullRequestLinks(); links != nil && links.MergedAt != nil {
		state = model.StateMerged
	}

	return model.PRRecord{
		Org:         org,
		Repo:        repo,
		Number:      issue.GetNumber(),
		Title:       issue.GetTitle(),
		Author:      issue.GetUser().GetLogin(),
		State:       state,
		Draft:       issue.GetDraft(),
		HTMLURL:     issue.GetHTMLURL(),
		SubmittedAt: issue.GetCreatedAt().Time,
	}, nil
}

// splitRepositoryURL extracts owner and repo from an API repository URL.
// URL format: https://api.github.com/repos/owner/repo
func splitRepositoryURL(apiURL string) (string, string, error) {
	parts := strings.Split(apiURL, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid repository URL format: %s", apiURL)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
