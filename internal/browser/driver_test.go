package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeSession records every interaction and counts Close calls so tests can
// assert the driver's single-teardown discipline.
type fakeSession struct {
	calls      []string
	closeCount int

	failOn func(call string) error
}

func (f *fakeSession) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn != nil {
		return f.failOn(call)
	}
	return nil
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	return f.record("navigate " + url)
}

func (f *fakeSession) WaitVisible(ctx context.Context, selector string) error {
	return f.record("wait " + selector)
}

func (f *fakeSession) Fill(ctx context.Context, selector, value string) error {
	return f.record(fmt.Sprintf("fill %s=%s", selector, value))
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	return f.record("click " + selector)
}

func (f *fakeSession) Check(ctx context.Context, selector string) error {
	return f.record("check " + selector)
}

func (f *fakeSession) WaitSettled(ctx context.Context) error {
	return f.record("settle")
}

func (f *fakeSession) Close() error {
	f.closeCount++
	return nil
}

func testConfig() Config {
	return Config{
		BaseURL:  "https://tracker.example.com/redmine",
		Username: "automation",
		Password: "secret",
	}
}

func newTestDriver(sess *fakeSession) *Driver {
	return NewDriverWithFactory(testConfig(), func(ctx context.Context) (Session, error) {
		return sess, nil
	})
}

func TestSubmitNotesSuccess(t *testing.T) {
	sess := &fakeSession{}
	d := newTestDriver(sess)

	result, err := d.SubmitNotes(context.Background(), "4521", []string{"done", "pending"})
	if err != nil {
		t.Fatalf("SubmitNotes returned error: %v", err)
	}

	if !result.Success {
		t.Error("Expected success result")
	}
	if result.ProcessedCount != 2 {
		t.Errorf("ProcessedCount = %d, want 2", result.ProcessedCount)
	}
	if !strings.Contains(result.Message, "2 note(s)") || !strings.Contains(result.Message, "4521") {
		t.Errorf("Unexpected message: %q", result.Message)
	}
	if sess.closeCount != 1 {
		t.Errorf("Session closed %d times, want exactly 1", sess.closeCount)
	}

	want := []string{
		"navigate https://tracker.example.com/redmine/issues/4521",
		"wait #username",
		"fill #username=automation",
		"fill #password=secret",
		"click #login-submit",
		"settle",
		"navigate https://tracker.example.com/redmine/issues/4521",
		"click a.icon-edit",
		"wait #issue_notes",
		"fill #issue_notes=done",
		"check #issue_private_notes",
		`click input[type="submit"][value="Submit"]`,
		"settle",
		"click a.icon-edit",
		"wait #issue_notes",
		"fill #issue_notes=pending",
		"check #issue_private_notes",
		`click input[type="submit"][value="Submit"]`,
		"settle",
	}
	if len(sess.calls) != len(want) {
		t.Fatalf("Recorded %d calls, want %d:\n%v", len(sess.calls), len(want), sess.calls)
	}
	for i, call := range want {
		if sess.calls[i] != call {
			t.Errorf("Call %d = %q, want %q", i, sess.calls[i], call)
		}
	}
}

func TestSubmitNotesLaunchFailure(t *testing.T) {
	launchErr := errors.New("chrome not found")
	d := NewDriverWithFactory(testConfig(), func(ctx context.Context) (Session, error) {
		return nil, launchErr
	})

	_, err := d.SubmitNotes(context.Background(), "1", []string{"a"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if KindOf(err) != KindLaunchFailed {
		t.Errorf("Kind = %q, want %q", KindOf(err), KindLaunchFailed)
	}
	if !errors.Is(err, launchErr) {
		t.Error("Expected launch error in chain")
	}
}

func TestSubmitNotesNavigationFailure(t *testing.T) {
	sess := &fakeSession{
		failOn: func(call string) error {
			if strings.HasPrefix(call, "navigate") {
				return errors.New("load never settled")
			}
			return nil
		},
	}
	d := newTestDriver(sess)

	_, err := d.SubmitNotes(context.Background(), "1", []string{"a"})
	if KindOf(err) != KindNavigationTimeout {
		t.Errorf("Kind = %q, want %q", KindOf(err), KindNavigationTimeout)
	}
	if sess.closeCount != 1 {
		t.Errorf("Session closed %d times, want exactly 1", sess.closeCount)
	}
}

func TestSubmitNotesLoginFormNeverAppears(t *testing.T) {
	sess := &fakeSession{
		failOn: func(call string) error {
			if call == "wait #username" {
				return context.DeadlineExceeded
			}
			return nil
		},
	}
	d := newTestDriver(sess)

	_, err := d.SubmitNotes(context.Background(), "1", []string{"a"})
	if KindOf(err) != KindLoginFormNotFound {
		t.Errorf("Kind = %q, want %q", KindOf(err), KindLoginFormNotFound)
	}
	if sess.closeCount != 1 {
		t.Errorf("Session closed %d times, want exactly 1", sess.closeCount)
	}
}

func TestSubmitNotesFailureMidLoop(t *testing.T) {
	editClicks := 0
	sess := &fakeSession{
		failOn: func(call string) error {
			if call == "click a.icon-edit" {
				editClicks++
				if editClicks == 3 {
					return errors.New("edit link missing")
				}
			}
			return nil
		},
	}
	d := newTestDriver(sess)

	_, err := d.SubmitNotes(context.Background(), "7", []string{"a", "b", "c"})
	if KindOf(err) != KindSubmitFailed {
		t.Fatalf("Kind = %q, want %q", KindOf(err), KindSubmitFailed)
	}
	// Two notes completed before the third edit click failed.
	if got := SubmittedCount(err); got != 2 {
		t.Errorf("SubmittedCount = %d, want 2", got)
	}
	if sess.closeCount != 1 {
		t.Errorf("Session closed %d times, want exactly 1", sess.closeCount)
	}
}

func TestSubmitNotesEmptyList(t *testing.T) {
	sess := &fakeSession{}
	d := newTestDriver(sess)

	result, err := d.SubmitNotes(context.Background(), "9", nil)
	if err != nil {
		t.Fatalf("SubmitNotes returned error: %v", err)
	}
	if result.ProcessedCount != 0 {
		t.Errorf("ProcessedCount = %d, want 0", result.ProcessedCount)
	}
	if sess.closeCount != 1 {
		t.Errorf("Session closed %d times, want exactly 1", sess.closeCount)
	}
}
