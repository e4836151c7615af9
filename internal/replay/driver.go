package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"offlineform/internal/logging"
	"offlineform/internal/queue"
	"offlineform/internal/transport"
)

// Hooks are the optional callbacks invoked during a pass.
type Hooks struct {
	BeforeSync func(total int)
	AfterSync  func(total int)
	OnSync     func(index, total int, resp *transport.Response)
	OnError    func(err error)
}

// EntryError wraps a delivery failure with the entry it belongs to.
type EntryError struct {
	Entry queue.Entry
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("replay %s %s: %v", e.Entry.Method, e.Entry.Action, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Driver runs replay passes.
type Driver struct {
	queue  *queue.Queue
	sender transport.Sender
	hooks  Hooks
	logger *slog.Logger
}

// New constructs a driver.
func New(q *queue.Queue, sender transport.Sender, hooks Hooks, logger *slog.Logger) *Driver {
	return &Driver{
		queue:  q,
		sender: sender,
		hooks:  hooks,
		logger: logging.NewComponentLogger(logger, "replay"),
	}
}

// Sync runs one pass. attempted is false when there was nothing to send.
// Storage failures abort the pass and are returned. When ctx is cancelled the
// pass stops and the entry being sent stays queued.
func (d *Driver) Sync(ctx context.Context) (attempted bool, err error) {
	entries, _, err := d.queue.Load(ctx)
	if err != nil {
		return false, err
	}
	total := len(entries)
	if total == 0 {
		return false, nil
	}

	if d.hooks.BeforeSync != nil {
		d.hooks.BeforeSync(total)
	}
	d.logger.Info("replay started",
		logging.Int(logging.FieldQueueLength, total),
		logging.String(logging.FieldEventType, "replay_started"),
	)

	start := time.Now()
	remaining := append([]queue.Entry(nil), entries...)
	var failed int
	for idx, entry := range entries {
		resp, sendErr := d.sender.Send(ctx, transport.Request{
			Method: entry.Method,
			URL:    entry.Action,
			Body:   entry.URLEncoded,
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			d.logger.Warn("replay interrupted",
				logging.String(logging.FieldEntryID, entry.ID),
				logging.Int(logging.FieldQueueLength, len(remaining)),
				logging.String(logging.FieldEventType, "replay_interrupted"),
				logging.String(logging.FieldImpact, "remaining entries stay queued"),
			)
			return true, ctxErr
		}

		remaining = queue.Remove(remaining, entry.ID)
		if sendErr != nil {
			failed++
			if err := d.drop(ctx, entry.ID); err != nil {
				return true, err
			}
			d.logger.Warn("replay entry failed",
				logging.Error(sendErr),
				logging.String(logging.FieldEntryID, entry.ID),
				logging.String(logging.FieldAction, entry.Action),
				logging.String(logging.FieldMethod, entry.Method),
				logging.String(logging.FieldEventType, "replay_entry_failed"),
				logging.String(logging.FieldImpact, "submission discarded"),
			)
			if d.hooks.OnError != nil {
				d.hooks.OnError(&EntryError{Entry: entry, Err: sendErr})
			}
			continue
		}

		if d.hooks.OnSync != nil {
			d.hooks.OnSync(idx+1, total, resp)
		}
		if err := d.drop(ctx, entry.ID); err != nil {
			return true, err
		}
		d.logger.Debug("replay entry sent",
			logging.String(logging.FieldEntryID, entry.ID),
			logging.String(logging.FieldAction, entry.Action),
			logging.Int("status", resp.StatusCode),
		)
		if len(remaining) == 0 && d.hooks.AfterSync != nil {
			d.hooks.AfterSync(total)
		}
	}

	d.logger.Info("replay finished",
		logging.Int("sent", total-failed),
		logging.Int("failed", failed),
		logging.Duration("duration", time.Since(start)),
		logging.String(logging.FieldEventType, "replay_finished"),
	)
	return true, nil
}

// drop removes one entry from the stored queue in a single atomic update, so
// entries captured while the pass is running are kept.
func (d *Driver) drop(ctx context.Context, id string) error {
	_, err := d.queue.Drop(ctx, id)
	return err
}
