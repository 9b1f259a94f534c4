package schedule

import "testing"

func TestClassify(t *testing.T) {
	windows := DefaultWindows()

	tests := []struct {
		openTime string
		want     string
	}{
		{"06:00", "Morning 1"},
		{"09:30", "Morning 1"},
		{"09:59", "Morning 1"},
		{"10:00", "Morning 2"},
		{"11:59", "Morning 2"},
		{"12:00", "Evening 1"},
		{"16:59", "Evening 1"},
		{"17:00", "Evening 2"},
		{"20:59", "Evening 2"},
		{"21:00", "Night 1"},
		{"23:45", "Night 1"},
		{"00:15", "Night 1"},
		{"00:59", "Night 1"},
		{"01:00", "Night 2"},
		{"02:00", "Night 2"},
		{"05:59", "Night 2"},
	}

	for _, tt := range tests {
		t.Run(tt.openTime, func(t *testing.T) {
			buckets := Classify([]Contact{{Email: "a@example.com", OpenTime: tt.openTime}}, windows)
			if got := buckets[tt.want]; len(got) != 1 {
				t.Errorf("%s not classified into %s: buckets = %v", tt.openTime, tt.want, buckets)
			}
		})
	}
}

func TestClassifyDropsMalformed(t *testing.T) {
	contacts := []Contact{
		{Email: "ok@example.com", OpenTime: "09:30"},
		{Email: "blank@example.com", OpenTime: ""},
		{Email: "garbage@example.com", OpenTime: "nine thirty"},
		{Email: "outofrange@example.com", OpenTime: "25:99"},
		{Email: "", OpenTime: "09:30"},
	}

	buckets := Classify(contacts, DefaultWindows())

	total := 0
	for _, emails := range buckets {
		total += len(emails)
	}
	if total != 1 {
		t.Errorf("classified %d contacts, want 1: %v", total, buckets)
	}
	if buckets["Morning 1"][0] != "ok@example.com" {
		t.Errorf("wrong contact kept: %v", buckets)
	}
}

func TestClassifyUnknownExcluded(t *testing.T) {
	// A window table with a gap sends unmatched times to UnknownWindow,
	// which Plan never schedules.
	windows := []Window{
		{Name: "Early", Start: 0, End: 6 * 60, SendHour: 3, SendMinute: 0},
	}

	buckets := Classify([]Contact{{Email: "late@example.com", OpenTime: "15:00"}}, windows)
	if len(buckets[UnknownWindow]) != 1 {
		t.Fatalf("unmatched contact not in Unknown bucket: %v", buckets)
	}

	batches := Plan(mustTime(t, "2024-05-01T00:00:00Z"), windows, buckets, "s", "h")
	if len(batches) != 0 {
		t.Errorf("Unknown bucket was planned for dispatch: %v", batches)
	}
}

func TestWindowContainsWrapAround(t *testing.T) {
	night := Window{Name: "Night 1", Start: 21 * 60, End: 60}

	for _, minutes := range []int{21 * 60, 23*60 + 59, 0, 59} {
		if !night.Contains(minutes) {
			t.Errorf("minute %d should be inside the wrap-around window", minutes)
		}
	}
	for _, minutes := range []int{60, 12 * 60, 20*60 + 59} {
		if night.Contains(minutes) {
			t.Errorf("minute %d should be outside the wrap-around window", minutes)
		}
	}
}
