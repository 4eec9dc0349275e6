package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type sentEmail struct {
	recipient string
	subject   string
	body      string
	from      string
	ctxErr    error
	deadline  bool
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
	// attempted, when set, receives a value after every send attempt.
	attempted chan struct{}
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	return f.SendFrom(ctx, recipient, subject, body, "")
}

func (f *fakeEmailSender) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	_, hasDeadline := ctx.Deadline()
	f.mu.Lock()
	f.sent = append(f.sent, sentEmail{
		recipient: recipient,
		subject:   subject,
		body:      body,
		from:      sender,
		ctxErr:    ctx.Err(),
		deadline:  hasDeadline,
	})
	f.mu.Unlock()
	if f.attempted != nil {
		f.attempted <- struct{}{}
	}
	return f.err
}

func (f *fakeEmailSender) calls() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEmail(nil), f.sent...)
}

func waitForSignal(t *testing.T, ch <-chan struct{}, message string) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal(message)
	}
}

func TestDeliverDetachesFromCanceledContext(t *testing.T) {
	sender := &fakeEmailSender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Deliver(ctx, sender, " player@test.com ", Message{Subject: "S", Body: "B"}, "")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	calls := sender.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one send, got %d", len(calls))
	}
	if calls[0].ctxErr != nil {
		t.Fatalf("send context should not inherit cancellation, got %v", calls[0].ctxErr)
	}
	if !calls[0].deadline {
		t.Fatal("send context should carry a timeout")
	}
	if calls[0].recipient != "player@test.com" {
		t.Fatalf("recipient = %q", calls[0].recipient)
	}
}

func TestDeliverUsesSenderOverride(t *testing.T) {
	sender := &fakeEmailSender{}
	if err := Deliver(context.Background(), sender, "p@test.com", Message{Subject: "S", Body: "B"}, "matches@test.com"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got := sender.calls()[0].from; got != "matches@test.com" {
		t.Fatalf("from = %q", got)
	}
}

func TestDeliverRequiresRecipient(t *testing.T) {
	sender := &fakeEmailSender{}
	if err := Deliver(context.Background(), sender, "  ", Message{Subject: "S", Body: "B"}, ""); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("err = %v, want ErrNoRecipient", err)
	}
	if len(sender.calls()) != 0 {
		t.Fatal("no send expected without a recipient")
	}
}

func TestSendAsyncCompletesAfterRequestEnds(t *testing.T) {
	sender := &fakeEmailSender{err: errors.New("ses down"), attempted: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())

	SendAsync(ctx, sender, "p@test.com", Message{Subject: "S", Body: "B"}, "", nil)
	cancel()

	waitForSignal(t, sender.attempted, "expected async send to run")
	calls := sender.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one send, got %d", len(calls))
	}
	if calls[0].ctxErr != nil || !calls[0].deadline {
		t.Fatalf("send context = %+v, want live context with deadline", calls[0])
	}
}

func TestSendAsyncSkipsEmptyMessages(t *testing.T) {
	sender := &fakeEmailSender{}
	SendAsync(context.Background(), sender, "p@test.com", Message{}, "", nil)
	SendAsync(context.Background(), nil, "p@test.com", Message{Subject: "S", Body: "B"}, "", nil)
	if len(sender.calls()) != 0 {
		t.Fatal("empty message must not be sent")
	}
}

func TestBuildTeamChangeEmail(t *testing.T) {
	msg := BuildTeamChangeEmail(TeamChangeDetails{
		PlayerName: "Sam",
		EventTitle: "Thursday 7s",
		Group:      "Team B",
		Date:       "Thursday, May 2, 2030",
	})
	if msg.Subject != "Team change - Thursday 7s" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Hi Sam,", "You are playing for Team B in Thursday 7s.", "Field: TBD", "Date: Thursday, May 2, 2030"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}

	reserve := BuildTeamChangeEmail(TeamChangeDetails{EventTitle: "Thursday 7s", Group: "the reserve"})
	if !strings.Contains(reserve.Body, "moved to the reserve") {
		t.Errorf("reserve body = %q", reserve.Body)
	}
}

func TestBuildKickoffReminderEmail(t *testing.T) {
	start := time.Date(2030, 5, 2, 19, 0, 0, 0, time.UTC)
	date, timeRange := FormatDateTimeRange(start, start.Add(time.Hour))
	if date != "Thursday, May 2, 2030" || timeRange != "7:00 PM - 8:00 PM UTC" {
		t.Fatalf("FormatDateTimeRange = %q, %q", date, timeRange)
	}

	msg := BuildKickoffReminderEmail(KickoffReminderDetails{
		PlayerName: "Alex",
		EventTitle: "Sunday league",
		FieldName:  "Hackney Marshes",
		Date:       date,
		TimeRange:  timeRange,
		Team:       "Team A",
	})
	if msg.Subject != "Kickoff reminder - Sunday league" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Field: Hackney Marshes", "Kickoff: 7:00 PM - 8:00 PM UTC", "Team: Team A"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}
