package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/foxzi/splitmail/internal/mailer"
	"github.com/foxzi/splitmail/internal/metrics"
	"github.com/foxzi/splitmail/internal/schedule"
)

type mockSender struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]error
}

func (s *mockSender) Send(_ context.Context, req mailer.SendRequest) (mailer.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[req.To]; ok {
		return mailer.SendResult{}, err
	}
	s.sent = append(s.sent, req.To)
	return mailer.SendResult{MessageID: "msg-1", SentAt: time.Now()}, nil
}

func (s *mockSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func setupWorker(t *testing.T, sender mailer.Sender) (*Worker, *schedule.Store) {
	t.Helper()

	store, err := schedule.NewStore(t.TempDir() + "/batches.db")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, sender, metrics.New(), logger, 10*time.Millisecond), store
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorkerDispatchesDueBatch(t *testing.T) {
	sender := &mockSender{}
	w, store := setupWorker(t, sender)

	batch := &schedule.Batch{
		ID:      "batch-1",
		Window:  "Morning 1",
		Emails:  []string{"a@example.com", "b@example.com"},
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
		SendAt:  time.Now().Add(-time.Minute),
		Status:  schedule.StatusScheduled,
	}
	if err := store.Add(batch); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	w.Start()
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool { return sender.sentCount() == 2 })

	waitFor(t, 2*time.Second, func() bool {
		got, err := store.Get("batch-1")
		return err == nil && got != nil && got.Status == schedule.StatusDone
	})

	got, err := store.Get("batch-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Sent != 2 || got.Failed != 0 {
		t.Errorf("expected sent=2 failed=0, got sent=%d failed=%d", got.Sent, got.Failed)
	}
}

func TestWorkerLeavesFutureBatchAlone(t *testing.T) {
	sender := &mockSender{}
	w, store := setupWorker(t, sender)

	batch := &schedule.Batch{
		ID:     "batch-future",
		Window: "Evening 1",
		Emails: []string{"a@example.com"},
		SendAt: time.Now().Add(time.Hour),
		Status: schedule.StatusScheduled,
	}
	if err := store.Add(batch); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	w.Start()
	time.Sleep(100 * time.Millisecond)
	w.Stop()

	if n := sender.sentCount(); n != 0 {
		t.Errorf("expected 0 sends for future batch, got %d", n)
	}

	got, err := store.Get("batch-future")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != schedule.StatusScheduled {
		t.Errorf("expected batch still scheduled, got %q", got.Status)
	}
}

func TestWorkerMarksAllFailedBatch(t *testing.T) {
	sender := &mockSender{failFor: map[string]error{"a@example.com": errors.New("rejected")}}
	w, store := setupWorker(t, sender)

	batch := &schedule.Batch{
		ID:     "batch-fail",
		Window: "Night 1",
		Emails: []string{"a@example.com"},
		SendAt: time.Now().Add(-time.Minute),
		Status: schedule.StatusScheduled,
	}
	if err := store.Add(batch); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	w.Start()
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool {
		got, err := store.Get("batch-fail")
		return err == nil && got != nil && got.Status == schedule.StatusFailed
	})

	got, err := store.Get("batch-fail")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Failed != 1 {
		t.Errorf("expected failed=1, got %d", got.Failed)
	}
}
