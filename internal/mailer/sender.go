// Package mailer sends campaign email through an external provider API
// and builds the tracked HTML bodies.
package mailer

import (
	"context"
	"time"
)

// SendRequest contains the data needed to send one email
type SendRequest struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// SendResult contains the provider response for one send
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender is the mail-sending gateway. Implementations must return an
// error with detail on failure; callers record it per recipient and
// keep going.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
