package github

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prnudge/prnudge/internal/log"
	"github.com/prnudge/prnudge/internal/model"
	"golang.org/x/sync/errgroup"
)

// FetchParams configures a PR fetch across organizations and users.
type FetchParams struct {
	Orgs         []string
	Users        []string
	LookbackDays int
	Filter       model.StateFilter
	Workers      int
}

// FetchResult holds the fetched PRs plus per-organization outcomes.
// A partial result (some org failed after retries) is still usable and
// must be distinguishable from a complete one.
type FetchResult struct {
	PRs       []model.PRRecord
	OrgErrors map[string]error
}

// Complete reports whether every organization fetch succeeded.
func (r *FetchResult) Complete() bool {
	return len(r.OrgErrors) == 0
}

// FailedOrgs returns the organizations whose fetch failed, sorted.
func (r *FetchResult) FailedOrgs() []string {
	orgs := make([]string, 0, len(r.OrgErrors))
	for org := range r.OrgErrors {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)
	return orgs
}

// Fetcher queries the search API for PRs authored by tracked users.
type Fetcher struct {
	searcher Searcher
	now      func() time.Time
}

// NewFetcher creates a Fetcher backed by the given search client.
func NewFetcher(searcher Searcher) *Fetcher {
	return &Fetcher{
		searcher: searcher,
		now:      time.Now,
	}
}

// Fetch runs one search query per (org, user) pair with bounded
// concurrency and merges the results, deduplicated by PR identity.
// A query failure is recorded against its organization and never
// aborts the remaining queries.
func (f *Fetcher) Fetch(ctx context.Context, params FetchParams) *FetchResult {
	since := f.now().UTC().AddDate(0, 0, -params.LookbackDays).Format("2006-01-02")

	result := &FetchResult{
		OrgErrors: make(map[string]error),
	}
	seen := make(map[model.PRKey]bool)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(params.Workers)

	for _, org := range params.Orgs {
		for _, user := range params.Users {
			g.Go(func() error {
				query := buildSearchQuery(org, user, since, params.Filter)
				log.Debug("searching PRs", "org", org, "user", user, "query", query)

				prs, err := f.searcher.SearchPRs(gctx, query)

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					log.Warn("PR fetch failed", "org", org, "user", user, "error", err)
					result.OrgErrors[org] = errors.Join(result.OrgErrors[org],
						fmt.Errorf("%s: %w", user, err))
					return nil
				}

				for _, pr := range prs {
					// The org/author qualifiers filter server-side; guard
					// against search index surprises client-side.
					if !strings.EqualFold(pr.Author, user) {
						continue
					}
					key := pr.Key()
					if seen[key] {
						continue
					}
					seen[key] = true
					result.PRs = append(result.PRs, pr)
				}
				return nil
			})
		}
	}

	_ = g.Wait()

	log.Info("fetched PRs",
		"count", len(result.PRs),
		"orgs", len(params.Orgs),
		"users", len(params.Users),
		"failedOrgs", len(result.OrgErrors))

	return result
}

// buildSearchQuery assembles a search API query for one (org, user)
// pair. The state filter "both" adds no state qualifier.
func buildSearchQuery(org, user, since string, filter model.StateFilter) string {
	parts := []string{"is:pr", "org:" + org, "author:" + user, "created:>=" + since}
	switch filter {
	case model.FilterOpen:
		parts = append(parts, "is:open")
	case model.FilterClosed:
		parts = append(parts, "is:closed")
	}
	return strings.Join(parts, " ")
}
