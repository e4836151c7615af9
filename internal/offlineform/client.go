package offlineform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"

	"offlineform/internal/capture"
	"offlineform/internal/connectivity"
	"offlineform/internal/form"
	"offlineform/internal/logging"
	"offlineform/internal/queue"
	"offlineform/internal/replay"
	"offlineform/internal/transport"
)

// Client binds forms and runs replay passes against one key/value store.
type Client struct {
	kv      queue.KV
	sender  transport.Sender
	checker connectivity.Checker
	logger  *slog.Logger

	// syncMu is held for a whole pass, including the file lock. A flock.Flock
	// reports success when the same instance already holds the lock, so it
	// alone does not keep two passes of one process apart.
	syncMu   sync.Mutex
	syncLock *flock.Flock

	mu       sync.Mutex
	bound    map[*form.Form]*capture.Interceptor
	classes  map[*form.Form]string
	inflight sync.WaitGroup
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used by the client and its components.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSyncLock serializes replay passes across processes with a lock file.
// A pass that finds the lock held by another process is skipped.
func WithSyncLock(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.syncLock = flock.New(path)
		}
	}
}

// New constructs a client.
func New(kv queue.KV, sender transport.Sender, checker connectivity.Checker, opts ...ClientOption) *Client {
	c := &Client{
		kv:      kv,
		sender:  sender,
		checker: checker,
		bound:   make(map[*form.Form]*capture.Interceptor),
		classes: make(map[*form.Form]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "offlineform")
	return c
}

// Init binds a capture interceptor to every form not yet carrying the marker
// class and returns how many forms were bound. Calling it again for the same
// forms binds nothing.
func (c *Client) Init(opts Options, forms ...*form.Form) int {
	opts = DefaultOptions().Merge(opts)
	q := queue.New(c.kv, opts.Key)

	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	for _, f := range forms {
		if f == nil || f.HasClass(opts.ClassName) {
			continue
		}
		c.bound[f] = capture.New(q, c.sender, c.checker, opts.captureConfig(), c.logger)
		c.classes[f] = opts.ClassName
		f.AddClass(opts.ClassName)
		count++
	}
	if count > 0 {
		c.logger.Debug("forms bound",
			logging.Int("count", count),
			logging.String("key", opts.Key),
		)
	}
	return count
}

// Submit routes a submission of f through its bound interceptor. Forms never
// bound by this client pass through untouched.
func (c *Client) Submit(ctx context.Context, f *form.Form, pageURL string) (capture.Outcome, error) {
	c.mu.Lock()
	interceptor, ok := c.bound[f]
	c.mu.Unlock()
	if !ok {
		return capture.OutcomePassthrough, nil
	}
	outcome, err := interceptor.Handle(ctx, f, pageURL)
	if outcome == capture.OutcomeSent {
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			interceptor.Wait()
		}()
	}
	return outcome, err
}

// Release unbinds forms and removes their marker class. Direct sends already
// in flight still complete and are still covered by Wait.
func (c *Client) Release(forms ...*form.Form) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	for _, f := range forms {
		if _, ok := c.bound[f]; !ok {
			continue
		}
		f.RemoveClass(c.classes[f])
		delete(c.bound, f)
		delete(c.classes, f)
		count++
	}
	return count
}

// Sync runs one replay pass of the queue selected by opts. Passes of one
// client run one at a time; a pass started while another is running waits
// for it. With a sync lock, a pass that finds the lock held by another
// process is skipped.
func (c *Client) Sync(ctx context.Context, opts Options) (bool, error) {
	opts = DefaultOptions().Merge(opts)

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	if c.syncLock != nil {
		locked, err := c.syncLock.TryLock()
		if err != nil {
			return false, fmt.Errorf("acquire sync lock: %w", err)
		}
		if !locked {
			c.logger.Info("replay skipped; another process holds the sync lock",
				logging.String("lock_path", c.syncLock.Path()),
				logging.String(logging.FieldEventType, "replay_skipped"),
			)
			return false, nil
		}
		defer func() {
			_ = c.syncLock.Unlock()
		}()
	}

	driver := replay.New(queue.New(c.kv, opts.Key), c.sender, opts.replayHooks(), c.logger)
	return driver.Sync(ctx)
}

// Pending returns the queued entries for the key selected by opts.
func (c *Client) Pending(ctx context.Context, opts Options) ([]queue.Entry, error) {
	opts = DefaultOptions().Merge(opts)
	entries, _, err := queue.New(c.kv, opts.Key).Load(ctx)
	return entries, err
}

// Wait blocks until all direct sends started through Submit have finished.
func (c *Client) Wait() {
	c.inflight.Wait()
}
