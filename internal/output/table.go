package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/prnudge/prnudge/internal/format"
	"github.com/prnudge/prnudge/internal/model"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	// Only use hyperlinks if stdout is a terminal
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// Format outputs the report as a table
func (f *TableFormatter) Format(report Report, w io.Writer) error {
	if len(report.Rows) == 0 {
		fmt.Fprintln(w, "No pull requests found.")
		f.writeWarnings(report, w)
		return nil
	}

	const (
		colPR       = 30
		colTitle    = 40
		colAuthor   = 14
		colState    = 8
		colAge      = 5
		colComment  = 8
		colApproved = 9
		colSize     = 12
		colIdle     = 6
	)

	fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s  %s  %s  %s\n",
		format.PadRight("Pull Request", colPR),
		format.PadRight("Title", colTitle),
		format.PadRight("Author", colAuthor),
		format.PadRight("State", colState),
		format.PadRight("Age", colAge),
		format.PadRight("Comment", colComment),
		format.PadRight("Approved", colApproved),
		format.PadRight("Size", colSize),
		format.PadRight("Idle", colIdle),
		"Status")
	fmt.Fprintln(w, strings.Repeat("-", colPR+colTitle+colAuthor+colState+colAge+colComment+colApproved+colSize+colIdle+24))

	for _, row := range report.Rows {
		key := format.TruncateToWidth(row.Key.String(), colPR)
		title := format.TruncateToWidth(row.Title, colTitle)

		// The OSC 8 wrapper adds no visible width, so pad by the
		// plain key's width.
		keyCell := hyperlink(key, row.URL) + strings.Repeat(" ", colPR-format.DisplayWidth(key))

		fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s  %s  %s  %s\n",
			keyCell,
			format.PadRight(title, colTitle),
			format.PadRight(format.TruncateToWidth(row.Author, colAuthor), colAuthor),
			format.PadRight(stateLabel(row), colState),
			format.PadRight(format.FormatAge(report.CollectedAt.Sub(row.SubmittedAt)), colAge),
			format.PadRight(ageCell(row.LastCommentAt, report.CollectedAt), colComment),
			format.PadRight(ageCell(row.FirstApprovedAt, report.CollectedAt), colApproved),
			format.PadRight(format.FormatDiffStats(row.Additions, row.Deletions), colSize),
			format.PadRight(fmt.Sprintf("%dd", row.InactivityDays), colIdle),
			statusLabel(row))
	}

	f.writeWarnings(report, w)
	return nil
}

func (f *TableFormatter) writeWarnings(report Report, w io.Writer) {
	if len(report.FailedOrgs) > 0 {
		fmt.Fprintf(w, "\n%s results missing for: %s\n",
			color.YellowString("warning:"), strings.Join(report.FailedOrgs, ", "))
	}
	if report.Incomplete > 0 {
		fmt.Fprintf(w, "%s %d PRs could not be fully enriched\n",
			color.YellowString("warning:"), report.Incomplete)
	}
}

// ageCell renders the age of an optional timestamp, "-" when absent.
func ageCell(t *time.Time, now time.Time) string {
	if t == nil {
		return "-"
	}
	return format.FormatAge(now.Sub(*t))
}

func stateLabel(row Row) string {
	if row.Draft {
		return "draft"
	}
	return string(row.State)
}

func statusLabel(row Row) string {
	switch {
	case row.Incomplete:
		return color.YellowString("incomplete")
	case row.AwaitingMerge:
		return color.MagentaString("awaiting merge")
	case row.Stale:
		return color.RedString("stale")
	case row.State == model.StateOpen && !row.Draft:
		return color.GreenString("active")
	default:
		return ""
	}
}
