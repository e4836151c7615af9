package testsupport

import (
	"path/filepath"
	"testing"

	"offlineform/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with a unique temp data directory per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Connectivity.Mode = config.ModeOffline
	cfg.Connectivity.Netlink = false

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithConnectivityMode forces the reported network state.
func WithConnectivityMode(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Connectivity.Mode = mode
	}
}

// WithDirectSend toggles sending forms directly while online.
func WithDirectSend(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sender.DirectSend = enabled
	}
}
