package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Plan turns classified buckets into an ordered list of batches. Each
// non-empty window gets the next occurrence of its target send time: if
// that time of day already passed today it rolls to tomorrow. The result
// is sorted ascending by send time, which is the dispatch order and may
// differ from the window table order.
func Plan(now time.Time, windows []Window, buckets map[string][]string, subject, html string) []Batch {
	var batches []Batch

	for _, w := range windows {
		emails := buckets[w.Name]
		if len(emails) == 0 {
			continue
		}

		sendAt := time.Date(now.Year(), now.Month(), now.Day(), w.SendHour, w.SendMinute, 0, 0, now.Location())
		if sendAt.Before(now) {
			sendAt = sendAt.AddDate(0, 0, 1)
		}

		batches = append(batches, Batch{
			ID:        uuid.New().String(),
			Window:    w.Name,
			Emails:    emails,
			Subject:   subject,
			HTML:      html,
			SendAt:    sendAt,
			Status:    StatusScheduled,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].SendAt.Equal(batches[j].SendAt) {
			return batches[i].SendAt.Before(batches[j].SendAt)
		}
		return batches[i].Window < batches[j].Window
	})

	return batches
}
