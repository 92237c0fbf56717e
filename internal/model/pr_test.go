package model

import (
	"testing"
	"time"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestPRKeyString(t *testing.T) {
	k := PRKey{Org: "frostdb", Repo: "frostdb", Number: 42}
	if got := k.String(); got != "frostdb/frostdb#42" {
		t.Errorf("String() = %q, want %q", got, "frostdb/frostdb#42")
	}
}

func TestParseStateFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    StateFilter
		wantErr bool
	}{
		{"open", FilterOpen, false},
		{"closed", FilterClosed, false},
		{"both", FilterBoth, false},
		{"merged", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStateFilter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStateFilter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStateFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastActivityAt(t *testing.T) {
	comment := base.Add(48 * time.Hour)
	approval := base.Add(72 * time.Hour)

	tests := []struct {
		name string
		pr   PRRecord
		want time.Time
	}{
		{
			name: "no derived activity falls back to submit time",
			pr:   PRRecord{SubmittedAt: base},
			want: base,
		},
		{
			name: "comment after submit wins",
			pr:   PRRecord{SubmittedAt: base, LastCommentAt: &comment},
			want: comment,
		},
		{
			name: "approval after comment wins",
			pr:   PRRecord{SubmittedAt: base, LastCommentAt: &comment, FirstApprovedAt: &approval},
			want: approval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pr.LastActivityAt()
			if !got.Equal(tt.want) {
				t.Errorf("LastActivityAt() = %v, want %v", got, tt.want)
			}
			if got.Before(tt.pr.SubmittedAt) {
				t.Errorf("LastActivityAt() = %v is before SubmittedAt %v", got, tt.pr.SubmittedAt)
			}
		})
	}
}

func TestObserveCommentMonotonic(t *testing.T) {
	pr := PRRecord{SubmittedAt: base}

	pr.ObserveComment(base.Add(24 * time.Hour))
	pr.ObserveComment(base.Add(6 * time.Hour)) // earlier, must not regress
	if !pr.LastCommentAt.Equal(base.Add(24 * time.Hour)) {
		t.Errorf("LastCommentAt regressed to %v", pr.LastCommentAt)
	}

	pr.ObserveComment(base.Add(48 * time.Hour))
	if !pr.LastCommentAt.Equal(base.Add(48 * time.Hour)) {
		t.Errorf("LastCommentAt = %v, want later comment to win", pr.LastCommentAt)
	}
}

func TestObserveApprovalKeepsEarliest(t *testing.T) {
	pr := PRRecord{SubmittedAt: base}

	pr.ObserveApproval(base.Add(72 * time.Hour))
	pr.ObserveApproval(base.Add(24 * time.Hour)) // earlier approval replaces
	if !pr.FirstApprovedAt.Equal(base.Add(24 * time.Hour)) {
		t.Errorf("FirstApprovedAt = %v, want earliest approval", pr.FirstApprovedAt)
	}

	pr.ObserveApproval(base.Add(96 * time.Hour)) // later approval ignored
	if !pr.FirstApprovedAt.Equal(base.Add(24 * time.Hour)) {
		t.Errorf("FirstApprovedAt = %v, later approval must not replace", pr.FirstApprovedAt)
	}
}
