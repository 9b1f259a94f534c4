// Package schedule groups recipients into open-time batches, computes
// their send times and dispatches them through the mail gateway.
package schedule

import "time"

// BatchStatus represents the lifecycle of a scheduled batch
type BatchStatus string

const (
	StatusScheduled BatchStatus = "scheduled"
	StatusSending   BatchStatus = "sending"
	StatusDone      BatchStatus = "done"
	StatusFailed    BatchStatus = "failed"
)

// Batch is a group of recipients sharing an open-time window, dispatched
// together at one computed send time.
type Batch struct {
	ID        string      `json:"id"`
	Window    string      `json:"window"`
	Emails    []string    `json:"emails"`
	Subject   string      `json:"subject"`
	HTML      string      `json:"html"`
	SendAt    time.Time   `json:"send_at"`
	Status    BatchStatus `json:"status"`
	Sent      int         `json:"sent"`
	Failed    int         `json:"failed"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// BatchReport summarizes one processed batch
type BatchReport struct {
	Window     string `json:"window"`
	Recipients int    `json:"recipients"`
}

// Contact is a scheduling input row: an address plus its preferred
// open time in 24-hour HH:MM form.
type Contact struct {
	Email    string
	OpenTime string
}
