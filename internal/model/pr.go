// Package model contains domain types for PR activity tracking.
// These types are independent of any external GitHub library.
package model

import (
	"fmt"
	"time"
)

// State represents the lifecycle state of a pull request.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

// StateFilter selects which PR states a fetch should return.
type StateFilter string

const (
	FilterOpen   StateFilter = "open"
	FilterClosed StateFilter = "closed"
	FilterBoth   StateFilter = "both"
)

// ParseStateFilter validates a state filter string from config or flags.
func ParseStateFilter(s string) (StateFilter, error) {
	switch StateFilter(s) {
	case FilterOpen, FilterClosed, FilterBoth:
		return StateFilter(s), nil
	default:
		return "", fmt.Errorf("invalid state filter %q (want open, closed, or both)", s)
	}
}

// PRKey identifies a pull request globally.
type PRKey struct {
	Org    string `json:"org"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

// String returns the canonical org/repo#number form.
func (k PRKey) String() string {
	return fmt.Sprintf("%s/%s#%d", k.Org, k.Repo, k.Number)
}

// PRRecord is one pull request with its derived activity signals.
// Raw fields come from the search API; derived fields are filled in
// by enrichment and stay nil until then.
type PRRecord struct {
	Org    string `json:"org"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`

	Title   string `json:"title"`
	Author  string `json:"author"`
	State   State  `json:"state"`
	Draft   bool   `json:"draft"`
	HTMLURL string `json:"htmlUrl"`

	SubmittedAt time.Time `json:"submittedAt"`

	// Derived from comment and review timelines. LastCommentAt only
	// counts comments by someone other than the author.
	LastCommentAt   *time.Time `json:"lastCommentAt,omitempty"`
	FirstApprovedAt *time.Time `json:"firstApprovedAt,omitempty"`

	// Populated for closed/merged PRs only.
	Additions int `json:"additions,omitempty"`
	Deletions int `json:"deletions,omitempty"`

	// Incomplete marks a record whose enrichment failed partway.
	// Such a record must never be read as "no activity".
	Incomplete bool `json:"incomplete,omitempty"`
}

// Key returns the PR's global identity.
func (pr *PRRecord) Key() PRKey {
	return PRKey{Org: pr.Org, Repo: pr.Repo, Number: pr.Number}
}

// LastActivityAt returns the most recent of submit, comment, and
// approval times. It is always >= SubmittedAt.
func (pr *PRRecord) LastActivityAt() time.Time {
	last := pr.SubmittedAt
	if pr.LastCommentAt != nil && pr.LastCommentAt.After(last) {
		last = *pr.LastCommentAt
	}
	if pr.FirstApprovedAt != nil && pr.FirstApprovedAt.After(last) {
		last = *pr.FirstApprovedAt
	}
	return last
}

// ObserveComment records a comment timestamp, keeping LastCommentAt
// monotonically non-decreasing.
func (pr *PRRecord) ObserveComment(at time.Time) {
	if pr.LastCommentAt == nil || at.After(*pr.LastCommentAt) {
		t := at
		pr.LastCommentAt = &t
	}
}

// ObserveApproval records an approval timestamp. The first approval is
// a permanent milestone: only an earlier approval can replace it, and
// it is never cleared.
func (pr *PRRecord) ObserveApproval(at time.Time) {
	if pr.FirstApprovedAt == nil || at.Before(*pr.FirstApprovedAt) {
		t := at
		pr.FirstApprovedAt = &t
	}
}
