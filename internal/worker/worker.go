// Package worker runs the background loop that dispatches scheduled
// batches once their send time arrives.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/foxzi/splitmail/internal/mailer"
	"github.com/foxzi/splitmail/internal/metrics"
	"github.com/foxzi/splitmail/internal/schedule"
)

// Worker polls the batch store and dispatches due batches. Batches
// survive restarts: anything still scheduled in the store is picked up
// on the next poll after the process comes back.
type Worker struct {
	store      *schedule.Store
	dispatcher *schedule.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger

	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new worker
func New(store *schedule.Store, sender mailer.Sender, m *metrics.Metrics, logger *slog.Logger, pollInterval time.Duration) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		store:        store,
		dispatcher:   schedule.NewDispatcher(sender, logger),
		metrics:      m,
		logger:       logger.With("component", "worker"),
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start starts the worker
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
	w.logger.Info("worker started", "poll_interval", w.pollInterval)
}

// Stop stops the worker gracefully
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")
	w.cancel()
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Catch up immediately on start, then poll
	w.processDue()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.processDue()
		}
	}
}

// processDue claims all batches whose send time has passed and sends
// them. Claimed batches are already due, so the dispatcher's wait
// returns immediately and the loop is purely a send loop.
func (w *Worker) processDue() {
	claimed, err := w.store.ClaimDue(time.Now())
	if err != nil {
		w.logger.Error("failed to claim due batches", "error", err)
		return
	}
	if len(claimed) == 0 {
		return
	}

	w.logger.Info("claimed due batches", "count", len(claimed))

	for _, batch := range claimed {
		select {
		case <-w.ctx.Done():
			// Leave the batch in sending state; it will be visible
			// via List but never re-claimed. Operators can re-add it.
			return
		default:
		}

		w.dispatch(batch)
	}
}

func (w *Worker) dispatch(batch *schedule.Batch) {
	batches := []schedule.Batch{*batch}

	_, err := w.dispatcher.Run(w.ctx, batches)

	// Run mutates the slice element's Sent/Failed counters
	batch.Sent = batches[0].Sent
	batch.Failed = batches[0].Failed

	switch {
	case err != nil:
		batch.Status = schedule.StatusFailed
	case batch.Sent == 0 && batch.Failed > 0:
		batch.Status = schedule.StatusFailed
	default:
		batch.Status = schedule.StatusDone
	}

	if uerr := w.store.Update(batch); uerr != nil {
		w.logger.Error("failed to update batch", "batch_id", batch.ID, "error", uerr)
	}

	if err != nil {
		w.logger.Error("batch dispatch interrupted", "batch_id", batch.ID, "error", err)
		return
	}

	w.metrics.BatchesDispatchedTotal.WithLabelValues(batch.Window).Inc()
	w.logger.Info("batch dispatched",
		"batch_id", batch.ID,
		"window", batch.Window,
		"sent", batch.Sent,
		"failed", batch.Failed,
	)
}
