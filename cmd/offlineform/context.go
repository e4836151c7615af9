package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"offlineform/internal/api"
	"offlineform/internal/config"
	"offlineform/internal/connectivity"
	"offlineform/internal/logging"
	"offlineform/internal/offlineform"
	"offlineform/internal/storage"
	"offlineform/internal/transport"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// logger returns a console logger for one-shot commands.
func (c *commandContext) logger() *slog.Logger {
	cfg, _ := c.ensureConfig()
	logger, err := logging.NewFromConfig(cfg, false)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) withStore(fn func(*config.Config, *storage.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// newClient builds a client that shares the daemon's sync lock.
func (c *commandContext) newClient(cfg *config.Config, store *storage.Store) *offlineform.Client {
	sender := transport.NewHTTPSender(time.Duration(cfg.Sender.RequestTimeout)*time.Second, cfg.Sender.UserAgent)
	return offlineform.New(store, sender, connectivity.FromConfig(cfg),
		offlineform.WithLogger(c.logger()),
		offlineform.WithSyncLock(cfg.SyncLockPath()),
	)
}

// withDaemon runs fn against the API of a running daemon.
func (c *commandContext) withDaemon(fn func(*config.Config, *api.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Paths.APIBind == "" {
		return errors.New("paths.api_bind is empty; the daemon API is disabled")
	}
	return fn(cfg, api.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken))
}

// daemonError points the user at the daemon when an API call fails.
func daemonError(cfg *config.Config, err error) error {
	return fmt.Errorf("query daemon at %s (is `offlineform watch` running?): %w", cfg.Paths.APIBind, err)
}

func clientOptions(cfg *config.Config) offlineform.Options {
	return offlineform.Options{
		Key:        cfg.Queue.Key,
		ClassName:  cfg.Queue.ClassName,
		DirectSend: cfg.Sender.DirectSend,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
