// Package output renders collected PR activity for the terminal.
package output

import (
	"io"
	"strings"
	"time"

	"github.com/prnudge/prnudge/internal/model"
	"github.com/prnudge/prnudge/internal/service"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(s)) {
	case FormatTable:
		return FormatTable, true
	case FormatJSON:
		return FormatJSON, true
	}
	return "", false
}

// Row is one PR with its evaluated staleness, ready for rendering.
type Row struct {
	Key             model.PRKey `json:"key"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	State           model.State `json:"state"`
	Draft           bool        `json:"draft,omitempty"`
	URL             string      `json:"url"`
	SubmittedAt     time.Time   `json:"submittedAt"`
	LastCommentAt   *time.Time  `json:"lastCommentAt,omitempty"`
	FirstApprovedAt *time.Time  `json:"firstApprovedAt,omitempty"`
	LastActivityAt  time.Time   `json:"lastActivityAt"`
	InactivityDays  int         `json:"inactivityDays"`
	Stale           bool        `json:"stale"`
	AwaitingMerge   bool        `json:"awaitingMerge,omitempty"`
	Incomplete      bool        `json:"incomplete,omitempty"`
	Additions       int         `json:"additions"`
	Deletions       int         `json:"deletions"`
}

// Report is the renderable form of a collection run.
type Report struct {
	Rows        []Row     `json:"rows"`
	FailedOrgs  []string  `json:"failedOrgs,omitempty"`
	Incomplete  int       `json:"incomplete,omitempty"`
	CollectedAt time.Time `json:"collectedAt"`
}

// Filter narrows a report to specific states or authors. Zero values
// match everything.
type Filter struct {
	State  model.StateFilter
	Author string
}

func (f Filter) matches(row Row) bool {
	switch f.State {
	case model.FilterOpen:
		if row.State != model.StateOpen {
			return false
		}
	case model.FilterClosed:
		if row.State == model.StateOpen {
			return false
		}
	}
	if f.Author != "" && !strings.EqualFold(f.Author, row.Author) {
		return false
	}
	return true
}

// BuildReport flattens a result set into rows, applying the filter.
func BuildReport(rs *service.ResultSet, filter Filter) Report {
	report := Report{
		FailedOrgs:  rs.FailedOrgs(),
		Incomplete:  rs.Incomplete,
		CollectedAt: rs.CollectedAt,
	}

	verdicts := make(map[model.PRKey]int, len(rs.Verdicts))
	for i, v := range rs.Verdicts {
		verdicts[v.Key] = i
	}

	for i := range rs.PRs {
		pr := &rs.PRs[i]
		row := Row{
			Key:             pr.Key(),
			Title:           pr.Title,
			Author:          pr.Author,
			State:           pr.State,
			Draft:           pr.Draft,
			URL:             pr.HTMLURL,
			SubmittedAt:     pr.SubmittedAt,
			LastCommentAt:   pr.LastCommentAt,
			FirstApprovedAt: pr.FirstApprovedAt,
			LastActivityAt:  pr.LastActivityAt(),
			Incomplete:      pr.Incomplete,
			Additions:       pr.Additions,
			Deletions:       pr.Deletions,
		}
		if vi, ok := verdicts[pr.Key()]; ok {
			v := rs.Verdicts[vi]
			row.InactivityDays = v.InactivityDays
			row.Stale = v.Stale
			row.AwaitingMerge = v.AwaitingMerge
		}
		if filter.matches(row) {
			report.Rows = append(report.Rows, row)
		}
	}
	return report
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(report Report, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return &TableFormatter{}
	}
}
