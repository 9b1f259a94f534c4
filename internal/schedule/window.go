package schedule

import (
	"time"
)

// UnknownWindow is the bucket for open times matching no window. It is
// never planned for dispatch; with full 24h coverage it only catches
// malformed window tables.
const UnknownWindow = "Unknown"

// Window is a named time-of-day bucket. Start and End are minutes since
// midnight forming a half-open interval [Start, End); a window with
// Start > End wraps past midnight. SendHour/SendMinute is the target
// send time for the whole bucket.
type Window struct {
	Name       string
	Start      int
	End        int
	SendHour   int
	SendMinute int
}

// Contains reports whether a time of day (minutes since midnight) falls
// inside the window.
func (w Window) Contains(minutes int) bool {
	if w.Start <= w.End {
		return minutes >= w.Start && minutes < w.End
	}
	// Wraps past midnight.
	return minutes >= w.Start || minutes < w.End
}

// DefaultWindows returns the standard open-time window table. Callers
// that need a different table pass their own; nothing in the package
// reads this globally.
func DefaultWindows() []Window {
	return []Window{
		{Name: "Morning 1", Start: 6 * 60, End: 10 * 60, SendHour: 8, SendMinute: 0},
		{Name: "Morning 2", Start: 10 * 60, End: 12 * 60, SendHour: 11, SendMinute: 0},
		{Name: "Evening 1", Start: 12 * 60, End: 17 * 60, SendHour: 14, SendMinute: 0},
		{Name: "Evening 2", Start: 17 * 60, End: 21 * 60, SendHour: 19, SendMinute: 0},
		{Name: "Night 1", Start: 21 * 60, End: 1 * 60, SendHour: 0, SendMinute: 30},
		{Name: "Night 2", Start: 1 * 60, End: 6 * 60, SendHour: 4, SendMinute: 45},
	}
}

// Classify groups contacts by open-time window. Contacts with a blank or
// unparseable open time are silently dropped; times matching no window
// land in UnknownWindow, which is never dispatched.
func Classify(contacts []Contact, windows []Window) map[string][]string {
	buckets := make(map[string][]string)

	for _, c := range contacts {
		if c.Email == "" || c.OpenTime == "" {
			continue
		}
		t, err := time.Parse("15:04", c.OpenTime)
		if err != nil {
			continue
		}
		minutes := t.Hour()*60 + t.Minute()

		name := UnknownWindow
		for _, w := range windows {
			if w.Contains(minutes) {
				name = w.Name
				break
			}
		}
		buckets[name] = append(buckets[name], c.Email)
	}

	return buckets
}
