// Package service runs the collection pipeline: search, enrichment,
// and staleness evaluation, leaving delivery to the caller.
package service

import (
	"context"
	"time"

	"github.com/prnudge/prnudge/config"
	"github.com/prnudge/prnudge/internal/github"
	"github.com/prnudge/prnudge/internal/model"
	"github.com/prnudge/prnudge/internal/stale"
)

// ResultSet is everything a run collected about the tracked users.
type ResultSet struct {
	PRs      []model.PRRecord
	Verdicts []stale.Verdict

	// OrgErrors holds fetch failures by organization. Results from
	// the remaining organizations are still present.
	OrgErrors map[string]error

	// Incomplete counts records whose enrichment failed.
	Incomplete int

	CollectedAt time.Time
}

// Complete reports whether every organization was fetched and every
// record fully enriched.
func (r *ResultSet) Complete() bool {
	return len(r.OrgErrors) == 0 && r.Incomplete == 0
}

// FailedOrgs returns the organizations whose fetch failed, sorted.
func (r *ResultSet) FailedOrgs() []string {
	fr := github.FetchResult{OrgErrors: r.OrgErrors}
	return fr.FailedOrgs()
}

// StaleCount returns the number of PRs judged stale.
func (r *ResultSet) StaleCount() int {
	var n int
	for _, v := range r.Verdicts {
		if v.Stale {
			n++
		}
	}
	return n
}

// Pipeline wires the fetcher, enricher, and evaluator together.
type Pipeline struct {
	fetcher  *github.Fetcher
	enricher *github.Enricher
	cfg      config.Config
	now      func() time.Time
}

func NewPipeline(searcher github.Searcher, timeline github.TimelineReader, cfg config.Config) *Pipeline {
	return &Pipeline{
		fetcher:  github.NewFetcher(searcher),
		enricher: github.NewEnricher(timeline, cfg.Workers),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Collect fetches, enriches, and evaluates every tracked PR. Partial
// fetch failures and enrichment failures are recorded in the result
// rather than returned as an error.
func (p *Pipeline) Collect(ctx context.Context, onProgress func(completed, total int)) *ResultSet {
	now := p.now()

	result := p.fetcher.Fetch(ctx, github.FetchParams{
		Orgs:         p.cfg.Orgs,
		Users:        p.cfg.TrackedUsers,
		LookbackDays: p.cfg.LookbackDays,
		Filter:       model.StateFilter(p.cfg.StateFilter),
		Workers:      p.cfg.Workers,
	})

	p.enricher.EnrichAll(ctx, result.PRs, onProgress)

	var incomplete int
	for i := range result.PRs {
		if result.PRs[i].Incomplete {
			incomplete++
		}
	}

	return &ResultSet{
		PRs:         result.PRs,
		Verdicts:    stale.EvaluateAll(result.PRs, now, p.cfg.InactivityThresholdDays),
		OrgErrors:   result.OrgErrors,
		Incomplete:  incomplete,
		CollectedAt: now,
	}
}
