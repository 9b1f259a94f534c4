package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/foxzi/splitmail/internal/mailer"
)

// mockSender implements mailer.Sender for testing
type mockSender struct {
	mu       sync.Mutex
	sent     []string
	failFor  map[string]error
	sendFunc func(req mailer.SendRequest) error
}

func (m *mockSender) Send(_ context.Context, req mailer.SendRequest) (mailer.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendFunc != nil {
		if err := m.sendFunc(req); err != nil {
			return mailer.SendResult{}, err
		}
	}
	if err, ok := m.failFor[req.To]; ok {
		return mailer.SendResult{}, err
	}
	m.sent = append(m.sent, req.To)
	return mailer.SendResult{MessageID: "msg-" + req.To}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pastBatch(window string, emails ...string) Batch {
	return Batch{
		ID:      window,
		Window:  window,
		Emails:  emails,
		Subject: "s",
		HTML:    "h",
		SendAt:  time.Now().Add(-time.Minute),
		Status:  StatusScheduled,
	}
}

func TestDispatchSendsAllBatches(t *testing.T) {
	sender := &mockSender{}
	d := NewDispatcher(sender, testLogger())

	reports, err := d.Run(context.Background(), []Batch{
		pastBatch("Morning 1", "a@example.com", "b@example.com"),
		pastBatch("Evening 1", "c@example.com"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].Window != "Morning 1" || reports[0].Recipients != 2 {
		t.Errorf("first report = %+v", reports[0])
	}
	if reports[1].Window != "Evening 1" || reports[1].Recipients != 1 {
		t.Errorf("second report = %+v", reports[1])
	}
	if len(sender.sent) != 3 {
		t.Errorf("sent %d emails, want 3", len(sender.sent))
	}
}

func TestDispatchContinuesAfterSendFailure(t *testing.T) {
	sender := &mockSender{
		failFor: map[string]error{"bad@example.com": errors.New("mailbox full")},
	}
	d := NewDispatcher(sender, testLogger())

	batch := pastBatch("Morning 1", "a@example.com", "bad@example.com", "c@example.com")
	reports, err := d.Run(context.Background(), []Batch{batch})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Errorf("sent %d emails, want 2 (failure must not abort the batch)", len(sender.sent))
	}
	// The report counts the full batch, failures included.
	if len(reports) != 1 || reports[0].Recipients != 3 {
		t.Errorf("reports = %+v, want full recipient count 3", reports)
	}
}

func TestDispatchWaitsForFutureSendTime(t *testing.T) {
	sender := &mockSender{}
	d := NewDispatcher(sender, testLogger())

	batch := pastBatch("Morning 1", "a@example.com")
	batch.SendAt = time.Now().Add(50 * time.Millisecond)

	start := time.Now()
	if _, err := d.Run(context.Background(), []Batch{batch}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Run returned after %v, should have waited for the send time", elapsed)
	}
}

func TestDispatchCancelledDuringWait(t *testing.T) {
	sender := &mockSender{}
	d := NewDispatcher(sender, testLogger())

	done := pastBatch("Morning 1", "a@example.com")
	farFuture := pastBatch("Evening 1", "b@example.com")
	farFuture.SendAt = time.Now().Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	reports, err := d.Run(ctx, []Batch{done, farFuture})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// The first batch completed before the cancel.
	if len(reports) != 1 || reports[0].Window != "Morning 1" {
		t.Errorf("reports = %+v", reports)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d emails, want 1", len(sender.sent))
	}
}

func TestDispatchCancelledBetweenSends(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sender := &mockSender{}
	sender.sendFunc = func(req mailer.SendRequest) error {
		// Cancel after the first successful send.
		cancel()
		return nil
	}
	d := NewDispatcher(sender, testLogger())

	batch := pastBatch("Morning 1", "a@example.com", "b@example.com", "c@example.com")
	_, err := d.Run(ctx, []Batch{batch})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d emails after cancel, want 1", len(sender.sent))
	}
}
