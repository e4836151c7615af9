package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"offlineform/internal/api"
	"offlineform/internal/capture"
	"offlineform/internal/config"
	"offlineform/internal/connectivity"
	"offlineform/internal/logging"
	"offlineform/internal/notifications"
	"offlineform/internal/offlineform"
	"offlineform/internal/queue"
	"offlineform/internal/storage"
	"offlineform/internal/transport"
)

// Daemon replays the queue on connectivity restoration and serves the API.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.Store
	client   *offlineform.Client
	checker  connectivity.Checker
	sender   transport.Sender
	notifier notifications.Service
	watcher  *connectivity.Watcher
	netlink  *connectivity.NetlinkMonitor
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.Mutex
	lastSync  time.Time
	lastError string
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Online       bool
	Pending      int
	QueueKey     string
	DatabasePath string
	LockFilePath string
	Netlink      bool
	LastSync     time.Time
	LastError    string
}

// Option customizes daemon dependencies.
type Option func(*Daemon)

// WithSender replaces the HTTP sender used for submissions.
func WithSender(sender transport.Sender) Option {
	return func(d *Daemon) {
		d.sender = sender
	}
}

// WithChecker replaces the connectivity checker selected by configuration.
func WithChecker(checker connectivity.Checker) Option {
	return func(d *Daemon) {
		d.checker = checker
	}
}

// WithNotifier replaces the notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(d *Daemon) {
		d.notifier = notifier
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *storage.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.checker == nil {
		d.checker = connectivity.FromConfig(cfg)
	}
	if d.sender == nil {
		d.sender = transport.NewHTTPSender(time.Duration(cfg.Sender.RequestTimeout)*time.Second, cfg.Sender.UserAgent)
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}

	d.client = offlineform.New(store, d.sender, d.checker,
		offlineform.WithLogger(logger),
		offlineform.WithSyncLock(cfg.SyncLockPath()),
	)
	d.watcher = connectivity.NewWatcher(d.checker,
		time.Duration(cfg.Connectivity.PollInterval)*time.Second,
		d.onRestore,
		logger,
	)
	if cfg.Connectivity.Netlink && cfg.Connectivity.Mode == config.ModeAuto {
		d.netlink = connectivity.NewNetlinkMonitor(logger, func(string) {
			d.watcher.Nudge()
		})
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the API server, and begins watching
// connectivity.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another offlineform daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	runCtx := d.ctx
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if d.cfg.Queue.SyncOnStart && d.checker.Online(runCtx) {
			d.syncAndReport(runCtx, "startup")
		}
		_ = d.watcher.Run(runCtx)
	}()
	if d.netlink != nil {
		_ = d.netlink.Start(runCtx)
	}

	d.running.Store(true)
	d.logger.Info("offlineform daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.netlink.Stop()
	d.api.stop()
	d.wg.Wait()
	d.client.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_lock_release_failed"),
			logging.String(logging.FieldImpact, "next start may report a running instance"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("offlineform daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"),
	)
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress returns the address the API server listens on.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Submit captures one submission received through the API.
func (d *Daemon) Submit(ctx context.Context, req api.SubmitRequest) (capture.Outcome, error) {
	f, err := req.Form()
	if err != nil {
		return capture.OutcomePassthrough, err
	}
	opts := d.options()
	if req.DirectSend != nil {
		opts.DirectSend = *req.DirectSend
	}
	opts.OnError = func(err error) {
		d.recordError(err)
		d.notify(func(ctx context.Context) error { return d.notifier.NotifyError(ctx, err, "direct send") })
	}

	d.client.Init(opts, f)
	defer d.client.Release(f)
	return d.client.Submit(ctx, f, req.PageURL)
}

// Sync runs one replay pass and reports the outcome through notifications.
func (d *Daemon) Sync(ctx context.Context) (bool, error) {
	return d.syncAndReport(ctx, "api")
}

// Pending returns the queued entries.
func (d *Daemon) Pending(ctx context.Context) ([]queue.Entry, error) {
	return d.client.Pending(ctx, d.options())
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		QueueKey:     d.cfg.Queue.Key,
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Netlink:      d.netlink.Running(),
	}
	if status.Running {
		status.Online = d.watcher.Online()
	} else {
		status.Online = d.checker.Online(ctx)
	}
	if entries, err := d.Pending(ctx); err == nil {
		status.Pending = len(entries)
	}

	d.mu.Lock()
	status.LastSync = d.lastSync
	status.LastError = d.lastError
	d.mu.Unlock()
	return status
}

// PID returns the daemon process identifier.
func (d *Daemon) PID() int {
	return os.Getpid()
}

func (d *Daemon) options() offlineform.Options {
	return offlineform.Options{
		Key:        d.cfg.Queue.Key,
		ClassName:  d.cfg.Queue.ClassName,
		DirectSend: d.cfg.Sender.DirectSend,
	}
}

func (d *Daemon) onRestore(ctx context.Context) {
	d.syncAndReport(ctx, "connectivity restored")
}

func (d *Daemon) syncAndReport(ctx context.Context, trigger string) (bool, error) {
	var sent, failed int
	opts := d.options()
	opts.OnSync = func(int, int, *transport.Response) { sent++ }
	opts.OnError = func(err error) {
		failed++
		d.recordError(err)
		d.notify(func(ctx context.Context) error { return d.notifier.NotifyError(ctx, err, "replay") })
	}

	start := time.Now()
	attempted, err := d.client.Sync(ctx, opts)
	if err != nil {
		d.recordError(err)
		d.logger.Error("replay pass failed",
			logging.Error(err),
			logging.String("trigger", trigger),
			logging.String(logging.FieldEventType, "replay_failed"),
			logging.String(logging.FieldErrorHint, "run `offlineform queue health` to inspect the database"),
		)
		d.notify(func(ctx context.Context) error { return d.notifier.NotifyError(ctx, err, "sync") })
		return attempted, err
	}
	if !attempted {
		return false, nil
	}

	d.mu.Lock()
	d.lastSync = time.Now()
	d.mu.Unlock()
	d.logger.Info("replay pass complete",
		logging.String("trigger", trigger),
		logging.Int("sent", sent),
		logging.Int("failed", failed),
		logging.String(logging.FieldEventType, "replay_pass_complete"),
	)
	d.notify(func(ctx context.Context) error {
		return d.notifier.NotifySyncCompleted(ctx, sent, failed, time.Since(start))
	})
	return true, nil
}

func (d *Daemon) recordError(err error) {
	d.mu.Lock()
	d.lastError = err.Error()
	d.mu.Unlock()
}

func (d *Daemon) notify(send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		logging.WarnWithImpact(d.logger, "notification failed", "notification_failed",
			"check notifications.ntfy_topic and network reachability",
			"replay outcome not pushed",
			logging.Error(err),
		)
	}
}
