package schedule

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return ts
}

func TestPlanRollsPastTimesToTomorrow(t *testing.T) {
	windows := DefaultWindows()
	// 20:00: Morning 1 (08:00) and Evening 2 (19:00) both already passed.
	now := mustTime(t, "2024-05-01T20:00:00Z")

	buckets := map[string][]string{
		"Morning 1": {"m@example.com"},
		"Evening 2": {"e@example.com"},
	}

	batches := Plan(now, windows, buckets, "subject", "<p>html</p>")
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}

	// Both rolled to tomorrow, so 08:00 sorts before 19:00.
	if batches[0].Window != "Morning 1" || batches[1].Window != "Evening 2" {
		t.Errorf("dispatch order = %s, %s", batches[0].Window, batches[1].Window)
	}
	for _, b := range batches {
		if b.SendAt.Day() != 2 {
			t.Errorf("batch %s not rolled to tomorrow: %v", b.Window, b.SendAt)
		}
	}
}

func TestPlanKeepsFutureTimesToday(t *testing.T) {
	windows := DefaultWindows()
	now := mustTime(t, "2024-05-01T07:00:00Z")

	buckets := map[string][]string{
		"Morning 1": {"m@example.com"},
	}

	batches := Plan(now, windows, buckets, "s", "h")
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	want := mustTime(t, "2024-05-01T08:00:00Z")
	if !batches[0].SendAt.Equal(want) {
		t.Errorf("SendAt = %v, want %v", batches[0].SendAt, want)
	}
}

func TestPlanOrderDiffersFromTableOrder(t *testing.T) {
	windows := DefaultWindows()
	// At 20:00, Night 1 (00:30) rolls to tomorrow 00:30 and sorts before
	// Evening 2 (19:00), which also rolls to tomorrow.
	now := mustTime(t, "2024-05-01T20:00:00Z")

	buckets := map[string][]string{
		"Evening 2": {"e@example.com"},
		"Night 1":   {"n@example.com"},
	}

	batches := Plan(now, windows, buckets, "s", "h")
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if batches[0].Window != "Night 1" {
		t.Errorf("first batch = %s, want Night 1", batches[0].Window)
	}
}

func TestPlanSkipsEmptyBuckets(t *testing.T) {
	batches := Plan(mustTime(t, "2024-05-01T07:00:00Z"), DefaultWindows(), map[string][]string{
		"Morning 1": {},
		"Evening 1": {"e@example.com"},
	}, "s", "h")

	if len(batches) != 1 || batches[0].Window != "Evening 1" {
		t.Errorf("batches = %+v", batches)
	}
}

func TestPlanBatchFields(t *testing.T) {
	now := mustTime(t, "2024-05-01T07:00:00Z")
	batches := Plan(now, DefaultWindows(), map[string][]string{
		"Morning 1": {"a@example.com", "b@example.com"},
	}, "the subject", "<p>the html</p>")

	b := batches[0]
	if b.ID == "" {
		t.Error("batch has no ID")
	}
	if b.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", b.Status)
	}
	if b.Subject != "the subject" || b.HTML != "<p>the html</p>" {
		t.Errorf("content not carried: %+v", b)
	}
	if len(b.Emails) != 2 {
		t.Errorf("emails = %v", b.Emails)
	}
}
