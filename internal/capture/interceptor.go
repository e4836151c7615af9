package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"offlineform/internal/connectivity"
	"offlineform/internal/form"
	"offlineform/internal/logging"
	"offlineform/internal/queue"
	"offlineform/internal/transport"
)

// Outcome describes how a submission was handled.
type Outcome int

const (
	// OutcomePassthrough means the caller should submit the form normally.
	OutcomePassthrough Outcome = iota
	// OutcomeSent means the submission was dispatched directly.
	OutcomeSent
	// OutcomeQueued means the submission was persisted for replay.
	OutcomeQueued
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassthrough:
		return "passthrough"
	case OutcomeSent:
		return "sent"
	case OutcomeQueued:
		return "queued"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Hooks are the optional callbacks invoked while handling a submission.
type Hooks struct {
	BeforeStorage    func(count int, entries []queue.Entry)
	OnStorage        func(count int, entries []queue.Entry)
	BeforeOnlineSend func()
	OnlineResult     func(resp *transport.Response)
	OnError          func(err error)
}

// Config controls one interceptor.
type Config struct {
	DirectSend bool
	Hooks      Hooks
}

// Interceptor handles submissions for one bound form.
type Interceptor struct {
	queue   *queue.Queue
	sender  transport.Sender
	checker connectivity.Checker
	cfg     Config
	logger  *slog.Logger

	inflight sync.WaitGroup
}

// New constructs an interceptor.
func New(q *queue.Queue, sender transport.Sender, checker connectivity.Checker, cfg Config, logger *slog.Logger) *Interceptor {
	return &Interceptor{
		queue:   q,
		sender:  sender,
		checker: checker,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "capture"),
	}
}

// Handle processes one submission of f made from pageURL. The method is
// recorded as the form declares it; senders normalize it.
func (i *Interceptor) Handle(ctx context.Context, f *form.Form, pageURL string) (Outcome, error) {
	if f == nil {
		return OutcomePassthrough, errors.New("capture: nil form")
	}

	online := i.checker.Online(ctx)
	if online && !i.cfg.DirectSend {
		return OutcomePassthrough, nil
	}

	action, err := form.ResolveAction(f.Action, pageURL)
	if err != nil {
		return OutcomePassthrough, fmt.Errorf("capture: %w", err)
	}
	body := f.Serialize()

	if online {
		i.sendOnline(ctx, transport.Request{Method: f.Method, URL: action, Body: body})
		return OutcomeSent, nil
	}
	return OutcomeQueued, i.store(ctx, action, f.Method, body)
}

// Wait blocks until every direct send started by Handle has completed.
func (i *Interceptor) Wait() {
	i.inflight.Wait()
}

func (i *Interceptor) sendOnline(ctx context.Context, req transport.Request) {
	if hook := i.cfg.Hooks.BeforeOnlineSend; hook != nil {
		hook()
	}

	i.inflight.Add(1)
	go func() {
		defer i.inflight.Done()

		resp, err := i.sender.Send(context.WithoutCancel(ctx), req)
		if err != nil {
			i.logger.Warn("direct send failed",
				logging.Error(err),
				logging.String(logging.FieldAction, req.URL),
				logging.String(logging.FieldMethod, req.Method),
				logging.String(logging.FieldEventType, "direct_send_failed"),
				logging.String(logging.FieldImpact, "submission discarded"),
			)
			if hook := i.cfg.Hooks.OnError; hook != nil {
				hook(err)
			}
			return
		}
		i.logger.Info("submission sent",
			logging.String(logging.FieldAction, req.URL),
			logging.String(logging.FieldMethod, req.Method),
			logging.Int("status", resp.StatusCode),
			logging.String(logging.FieldEventType, "direct_send_completed"),
		)
		if hook := i.cfg.Hooks.OnlineResult; hook != nil {
			hook(resp)
		}
	}()
}

// store appends one entry in a single atomic update. The storage hooks run
// after the write commits and see exactly the queue the entry was appended
// to and the queue that resulted.
func (i *Interceptor) store(ctx context.Context, action, method, body string) error {
	entry := queue.NewEntry(action, method, body)
	var before []queue.Entry
	after, err := i.queue.Update(ctx, func(current []queue.Entry) ([]queue.Entry, error) {
		before = cloneEntries(current)
		return append(current, entry), nil
	})
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if hook := i.cfg.Hooks.BeforeStorage; hook != nil {
		hook(len(before), before)
	}
	if hook := i.cfg.Hooks.OnStorage; hook != nil {
		hook(len(after), cloneEntries(after))
	}
	i.logger.Info("submission queued",
		logging.String(logging.FieldEntryID, entry.ID),
		logging.String(logging.FieldAction, action),
		logging.String(logging.FieldMethod, method),
		logging.Int(logging.FieldQueueLength, len(after)),
		logging.String(logging.FieldEventType, "submission_queued"),
	)
	return nil
}

func cloneEntries(entries []queue.Entry) []queue.Entry {
	return append([]queue.Entry(nil), entries...)
}
