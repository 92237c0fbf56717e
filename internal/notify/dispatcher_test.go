package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prnudge/prnudge/internal/log"
)

type sentDM struct {
	userID string
	text   string
}

type mockMessenger struct {
	sent    []sentDM
	failFor map[string]error
}

func (m *mockMessenger) SendDM(_ context.Context, userID, text string) error {
	if err, ok := m.failFor[userID]; ok {
		return err
	}
	m.sent = append(m.sent, sentDM{userID: userID, text: text})
	return nil
}

type mapResolver map[string]string

func (m mapResolver) SlackIDFor(github string) (string, bool) {
	id, ok := m[github]
	return id, ok
}

func fixedDispatcher(m *mockMessenger, r Resolver, dryRun bool) *Dispatcher {
	d := NewDispatcher(m, r, dryRun)
	d.now = func() time.Time { return composeNow }
	d.preview = io.Discard
	return d
}

func TestDispatchOneMessagePerAuthor(t *testing.T) {
	messenger := &mockMessenger{}
	resolver := mapResolver{"alice": "U123"}
	batches := []Batch{{
		Author: "alice",
		NoActivity: []StalePR{
			stalePR("alice", 1, "One", 8),
			stalePR("alice", 2, "Two", 9),
		},
	}}

	summary := fixedDispatcher(messenger, resolver, false).Dispatch(context.Background(), batches)

	if len(messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(messenger.sent))
	}
	if messenger.sent[0].userID != "U123" {
		t.Errorf("sent to %s, want U123", messenger.sent[0].userID)
	}
	if summary.Sent != 1 || summary.StalePRs != 2 {
		t.Errorf("summary = %+v, want 1 sent covering 2 PRs", summary)
	}
	if len(summary.Deliveries) != 1 || summary.Deliveries[0].Outcome != OutcomeSent {
		t.Errorf("deliveries = %+v", summary.Deliveries)
	}
}

func TestDispatchSkipsUnmappedAuthor(t *testing.T) {
	messenger := &mockMessenger{}
	resolver := mapResolver{"alice": "U123"}
	batches := []Batch{
		{Author: "alice", NoActivity: []StalePR{stalePR("alice", 1, "One", 8)}},
		{Author: "bob", NoActivity: []StalePR{stalePR("bob", 2, "Two", 9)}},
	}

	summary := fixedDispatcher(messenger, resolver, false).Dispatch(context.Background(), batches)

	if len(messenger.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(messenger.sent))
	}
	if summary.Sent != 1 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 1 sent 1 skipped", summary)
	}
	if summary.Deliveries[1].Outcome != OutcomeNoSlackID {
		t.Errorf("bob outcome = %s, want %s", summary.Deliveries[1].Outcome, OutcomeNoSlackID)
	}
}

func TestDispatchFailureDoesNotBlockOthers(t *testing.T) {
	messenger := &mockMessenger{failFor: map[string]error{"U111": errors.New("channel_not_found")}}
	resolver := mapResolver{"alice": "U111", "bob": "U222"}
	batches := []Batch{
		{Author: "alice", NoActivity: []StalePR{stalePR("alice", 1, "One", 8)}},
		{Author: "bob", NoActivity: []StalePR{stalePR("bob", 2, "Two", 9)}},
	}

	summary := fixedDispatcher(messenger, resolver, false).Dispatch(context.Background(), batches)

	if summary.Failed != 1 || summary.Sent != 1 {
		t.Errorf("summary = %+v, want 1 failed 1 sent", summary)
	}
	if summary.Deliveries[0].Outcome != OutcomeFailed || summary.Deliveries[0].Err == nil {
		t.Errorf("alice delivery = %+v, want failed with error", summary.Deliveries[0])
	}
	if len(messenger.sent) != 1 || messenger.sent[0].userID != "U222" {
		t.Errorf("bob should still receive his reminder, sent = %+v", messenger.sent)
	}
}

func TestDispatchDryRunSendsNothing(t *testing.T) {
	messenger := &mockMessenger{}
	resolver := mapResolver{"alice": "U123"}
	batches := []Batch{{Author: "alice", NoActivity: []StalePR{stalePR("alice", 1, "One", 8)}}}

	summary := fixedDispatcher(messenger, resolver, true).Dispatch(context.Background(), batches)

	if len(messenger.sent) != 0 {
		t.Fatalf("dry run sent %d messages, want 0", len(messenger.sent))
	}
	if summary.Sent != 1 || summary.Deliveries[0].Outcome != OutcomeDryRun {
		t.Errorf("summary = %+v, want dry_run counted as sent", summary)
	}
}

func TestDispatchDryRunPreviewAtDefaultVerbosity(t *testing.T) {
	var logs bytes.Buffer
	log.Initialize(0, &logs)
	defer log.Initialize(0, io.Discard)

	var preview bytes.Buffer
	d := fixedDispatcher(&mockMessenger{}, mapResolver{"alice": "U123"}, true)
	d.preview = &preview

	batches := []Batch{{Author: "alice", NoActivity: []StalePR{stalePR("alice", 1, "One", 8)}}}
	d.Dispatch(context.Background(), batches)

	// The preview goes to its own writer, not the logger, so it shows
	// up even when info logging is suppressed.
	out := preview.String()
	if !strings.Contains(out, "--- Message for alice (Slack: U123) ---") {
		t.Errorf("preview missing header, got:\n%s", out)
	}
	if !strings.Contains(out, "*Weekly PR Reminder*") {
		t.Errorf("preview missing composed message, got:\n%s", out)
	}
}

func TestDispatchDryRunPreviewsUnmappedAuthor(t *testing.T) {
	var preview bytes.Buffer
	d := fixedDispatcher(&mockMessenger{}, mapResolver{}, true)
	d.preview = &preview

	batches := []Batch{{Author: "bob", NoActivity: []StalePR{stalePR("bob", 1, "One", 8)}}}
	summary := d.Dispatch(context.Background(), batches)

	if !strings.Contains(preview.String(), "--- Message for bob (Slack: NOT MAPPED) ---") {
		t.Errorf("unmapped author should still be previewed, got:\n%s", preview.String())
	}
	if summary.Deliveries[0].Outcome != OutcomeDryRun {
		t.Errorf("outcome = %s, want %s", summary.Deliveries[0].Outcome, OutcomeDryRun)
	}
}

func TestDispatchDryRunTextMatchesLiveRun(t *testing.T) {
	resolver := mapResolver{"alice": "U123"}
	batches := []Batch{{Author: "alice", NoActivity: []StalePR{stalePR("alice", 1, "One", 8)}}}

	live := &mockMessenger{}
	fixedDispatcher(live, resolver, false).Dispatch(context.Background(), batches)

	// The dry run previews ComposeMessage output verbatim; render it
	// the same way here and compare against what the live run sent.
	want := ComposeMessage(Batch{
		Author:     "alice",
		SlackID:    "U123",
		NoActivity: batches[0].NoActivity,
	}, composeNow)

	if len(live.sent) != 1 || live.sent[0].text != want {
		t.Errorf("live text differs from dry-run rendering\ngot:\n%s\nwant:\n%s", live.sent[0].text, want)
	}
}

func TestDispatchEmptyBatches(t *testing.T) {
	messenger := &mockMessenger{}
	summary := fixedDispatcher(messenger, mapResolver{}, false).Dispatch(context.Background(), nil)
	if summary.StalePRs != 0 || summary.Sent != 0 || len(summary.Deliveries) != 0 {
		t.Errorf("summary = %+v, want all-zero", summary)
	}
}
