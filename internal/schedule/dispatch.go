package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxzi/splitmail/internal/mailer"
)

// Dispatcher executes batches in order, waiting for each batch's send
// time before sending to its recipients one by one. The wait can span
// hours, so Run must only ever be called from a background worker, never
// from a request handler.
type Dispatcher struct {
	sender mailer.Sender
	logger *slog.Logger
	now    func() time.Time
}

func NewDispatcher(sender mailer.Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		logger: logger.With("component", "dispatcher"),
		now:    time.Now,
	}
}

// Run processes batches sequentially in the given order. For each batch
// it blocks until the send time elapses, then sends one message per
// recipient. Per-recipient failures are logged and do not abort the
// batch or the remaining schedule. Cancellation is checked before each
// wait and before each send; on cancel Run returns the reports collected
// so far together with the context error.
func (d *Dispatcher) Run(ctx context.Context, batches []Batch) ([]BatchReport, error) {
	var reports []BatchReport

	for i := range batches {
		batch := &batches[i]

		if err := d.wait(ctx, batch.SendAt); err != nil {
			return reports, err
		}

		d.logger.Info("dispatching batch",
			"window", batch.Window,
			"recipients", len(batch.Emails),
			"send_at", batch.SendAt,
		)

		for _, email := range batch.Emails {
			if err := ctx.Err(); err != nil {
				return reports, err
			}

			_, err := d.sender.Send(ctx, mailer.SendRequest{
				To:      email,
				Subject: batch.Subject,
				HTML:    batch.HTML,
			})
			if err != nil {
				batch.Failed++
				d.logger.Error("failed to send", "window", batch.Window, "to", email, "error", err)
				continue
			}
			batch.Sent++
		}

		reports = append(reports, BatchReport{
			Window:     batch.Window,
			Recipients: len(batch.Emails),
		})
	}

	return reports, nil
}

// wait blocks until t or until the context is cancelled
func (d *Dispatcher) wait(ctx context.Context, t time.Time) error {
	delay := t.Sub(d.now())
	if delay <= 0 {
		return ctx.Err()
	}

	d.logger.Info("waiting for batch send time", "send_at", t, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
