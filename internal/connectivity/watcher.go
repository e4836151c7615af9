package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"offlineform/internal/logging"
)

const defaultPollInterval = 15 * time.Second

// Watcher polls a Checker and calls OnRestore whenever the state moves from
// offline to online. The first observation only records the state.
type Watcher struct {
	checker   Checker
	interval  time.Duration
	onRestore func(ctx context.Context)
	logger    *slog.Logger
	nudge     chan struct{}

	mu     sync.Mutex
	known  bool
	online bool
}

// NewWatcher constructs a watcher. onRestore runs on the watcher goroutine,
// so a slow callback delays the next check.
func NewWatcher(checker Checker, interval time.Duration, onRestore func(ctx context.Context), logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Watcher{
		checker:   checker,
		interval:  interval,
		onRestore: onRestore,
		logger:    logging.NewComponentLogger(logger, "connectivity"),
		nudge:     make(chan struct{}, 1),
	}
}

// Run checks immediately, then on every tick or nudge until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Check(ctx)
		case <-w.nudge:
			w.Check(ctx)
		}
	}
}

// Nudge requests an immediate recheck. Extra nudges coalesce.
func (w *Watcher) Nudge() {
	select {
	case w.nudge <- struct{}{}:
	default:
	}
}

// Online returns the last observed state.
func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Check performs one observation and returns the new state.
func (w *Watcher) Check(ctx context.Context) bool {
	online := w.checker.Online(ctx)

	w.mu.Lock()
	restored := w.known && !w.online && online
	changed := !w.known || w.online != online
	w.known = true
	w.online = online
	w.mu.Unlock()

	if changed {
		w.logger.Info("connectivity changed",
			logging.Bool("online", online),
			logging.String(logging.FieldEventType, "connectivity_changed"),
		)
	}
	if restored && w.onRestore != nil {
		w.onRestore(ctx)
	}
	return online
}
