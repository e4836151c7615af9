package testsupport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"offlineform/internal/config"
	"offlineform/internal/storage"
)

// MustOpenStore opens a storage.Store for tests and registers cleanup. Each
// call opens its own connection, so two stores on one config behave like two
// processes sharing the database.
func MustOpenStore(t testing.TB, cfg *config.Config) *storage.Store {
	t.Helper()

	store, err := storage.Open(cfg)
	require.NoError(t, err, "storage.Open")
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedValue stores raw under key, replacing whatever was there.
func SeedValue(t testing.TB, store *storage.Store, key, raw string) {
	t.Helper()

	err := store.Update(context.Background(), key, func(string, bool) (string, error) {
		return raw, nil
	})
	require.NoError(t, err, "seed %q", key)
}
