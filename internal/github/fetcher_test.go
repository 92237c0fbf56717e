package github

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prnudge/prnudge/internal/model"
)

// mockSearcher returns canned results or errors keyed by substrings of
// the search query.
type mockSearcher struct {
	results map[string][]model.PRRecord
	errs    map[string]error
}

func (m *mockSearcher) SearchPRs(_ context.Context, query string) ([]model.PRRecord, error) {
	for substr, err := range m.errs {
		if strings.Contains(query, substr) {
			return nil, err
		}
	}
	for substr, prs := range m.results {
		if strings.Contains(query, substr) {
			return prs, nil
		}
	}
	return nil, nil
}

func testPR(org, repo string, number int, author string) model.PRRecord {
	return model.PRRecord{
		Org:         org,
		Repo:        repo,
		Number:      number,
		Author:      author,
		State:       model.StateOpen,
		SubmittedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestFetcher(searcher Searcher) *Fetcher {
	f := NewFetcher(searcher)
	f.now = func() time.Time {
		return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	}
	return f
}

func TestFetchMergesAndDeduplicates(t *testing.T) {
	shared := testPR("org-a", "repo", 7, "alice")
	searcher := &mockSearcher{
		results: map[string][]model.PRRecord{
			"author:alice": {shared, shared, testPR("org-a", "repo", 8, "alice")},
			"author:bob":   {testPR("org-a", "repo", 9, "bob")},
		},
	}

	result := newTestFetcher(searcher).Fetch(context.Background(), FetchParams{
		Orgs:         []string{"org-a"},
		Users:        []string{"alice", "bob"},
		LookbackDays: 90,
		Filter:       model.FilterOpen,
		Workers:      4,
	})

	if !result.Complete() {
		t.Fatalf("expected complete result, got org errors %v", result.OrgErrors)
	}
	if len(result.PRs) != 3 {
		t.Fatalf("expected 3 deduplicated PRs, got %d", len(result.PRs))
	}

	seen := make(map[model.PRKey]int)
	for _, pr := range result.PRs {
		seen[pr.Key()]++
	}
	for key, count := range seen {
		if count != 1 {
			t.Errorf("PR %s appears %d times, want exactly once", key, count)
		}
	}
}

func TestFetchPartialFailureIsolatedPerOrg(t *testing.T) {
	searcher := &mockSearcher{
		results: map[string][]model.PRRecord{
			"org:org-a": {testPR("org-a", "repo", 1, "alice")},
		},
		errs: map[string]error{
			"org:org-b": errors.New("search PRs: giving up after 3 attempts: 503"),
		},
	}

	result := newTestFetcher(searcher).Fetch(context.Background(), FetchParams{
		Orgs:         []string{"org-a", "org-b"},
		Users:        []string{"alice"},
		LookbackDays: 90,
		Filter:       model.FilterOpen,
		Workers:      2,
	})

	if result.Complete() {
		t.Fatal("expected partial result")
	}
	if len(result.PRs) != 1 {
		t.Errorf("expected org-a's PR to survive, got %d PRs", len(result.PRs))
	}
	failed := result.FailedOrgs()
	if len(failed) != 1 || failed[0] != "org-b" {
		t.Errorf("FailedOrgs() = %v, want [org-b]", failed)
	}
	if result.OrgErrors["org-a"] != nil {
		t.Errorf("org-a should have no error, got %v", result.OrgErrors["org-a"])
	}
}

func TestFetchFiltersForeignAuthors(t *testing.T) {
	// The search index can return stale matches; authors that don't
	// match the queried user are dropped client-side.
	searcher := &mockSearcher{
		results: map[string][]model.PRRecord{
			"author:alice": {
				testPR("org-a", "repo", 1, "alice"),
				testPR("org-a", "repo", 2, "mallory"),
			},
		},
	}

	result := newTestFetcher(searcher).Fetch(context.Background(), FetchParams{
		Orgs:         []string{"org-a"},
		Users:        []string{"alice"},
		LookbackDays: 90,
		Filter:       model.FilterOpen,
		Workers:      1,
	})

	if len(result.PRs) != 1 || result.PRs[0].Author != "alice" {
		t.Errorf("expected only alice's PR, got %+v", result.PRs)
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter model.StateFilter
		want   string
	}{
		{
			name:   "open filter",
			filter: model.FilterOpen,
			want:   "is:pr org:frostdb author:alice created:>=2025-06-03 is:open",
		},
		{
			name:   "closed filter",
			filter: model.FilterClosed,
			want:   "is:pr org:frostdb author:alice created:>=2025-06-03 is:closed",
		},
		{
			name:   "both adds no state qualifier",
			filter: model.FilterBoth,
			want:   "is:pr org:frostdb author:alice created:>=2025-06-03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery("frostdb", "alice", "2025-06-03", tt.filter)
			if got != tt.want {
				t.Errorf("buildSearchQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchLookbackWindow(t *testing.T) {
	var gotQuery string
	searcher := &recordingSearcher{onQuery: func(q string) { gotQuery = q }}

	newTestFetcher(searcher).Fetch(context.Background(), FetchParams{
		Orgs:         []string{"org-a"},
		Users:        []string{"alice"},
		LookbackDays: 30,
		Filter:       model.FilterOpen,
		Workers:      1,
	})

	// now is pinned to 2025-09-01; 30 days back is 2025-08-02
	if !strings.Contains(gotQuery, "created:>=2025-08-02") {
		t.Errorf("query %q missing lookback lower bound", gotQuery)
	}
}

type recordingSearcher struct {
	onQuery func(string)
}

func (r *recordingSearcher) SearchPRs(_ context.Context, query string) ([]model.PRRecord, error) {
	if r.onQuery != nil {
		r.onQuery(query)
	}
	return nil, nil
}
