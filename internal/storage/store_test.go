package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"offlineform/internal/storage"
	"offlineform/internal/testsupport"
)

func TestGetMissingKeyReportsAbsent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	value, ok, err := store.Get(context.Background(), "offlineForm")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestUpdateReplacesWholeValue(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.SeedValue(t, store, "offlineForm", `[{"action":"a"}]`)
	err := store.Update(ctx, "offlineForm", func(old string, ok bool) (string, error) {
		assert.True(t, ok)
		assert.Equal(t, `[{"action":"a"}]`, old)
		return `[]`, nil
	})
	require.NoError(t, err)

	value, ok, err := store.Get(ctx, "offlineForm")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, value)
}

func TestDeleteAndKeys(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.SeedValue(t, store, "b", "2")
	testsupport.SeedValue(t, store, "a", "1")

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	removed, err := store.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestValuesSurviveReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := storage.Open(cfg)
	require.NoError(t, err)
	testsupport.SeedValue(t, first, "offlineForm", "persisted")
	require.NoError(t, first.Close())

	second := testsupport.MustOpenStore(t, cfg)
	value, ok, err := second.Get(context.Background(), "offlineForm")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", value)
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offlineform.db")
	store, err := storage.OpenPath(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = storage.OpenPath(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrSchemaMismatch))
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedValue(t, store, "offlineForm", "[]")

	health, err := store.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.DatabasePath(), health.DBPath)
	assert.True(t, health.DatabaseExists)
	assert.True(t, health.DatabaseReadable)
	assert.True(t, health.IntegrityCheck)
	assert.Equal(t, 1, health.SchemaVersion)
	assert.Equal(t, 1, health.Keys)
	assert.Empty(t, health.Error)
}

func TestUpdateAbsentKeyAndRollback(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	err := store.Update(ctx, "offlineForm", func(old string, ok bool) (string, error) {
		assert.False(t, ok)
		assert.Empty(t, old)
		return "first", nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.Update(ctx, "offlineForm", func(string, bool) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	value, _, err := store.Get(ctx, "offlineForm")
	require.NoError(t, err)
	assert.Equal(t, "first", value)
}

func TestUpdateBlocksWritersOnOtherConnections(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	daemon := testsupport.MustOpenStore(t, cfg)
	cli := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedValue(t, daemon, "offlineForm", "a")

	cliDone := make(chan error, 1)
	err := daemon.Update(ctx, "offlineForm", func(old string, _ bool) (string, error) {
		go func() {
			cliDone <- cli.Update(ctx, "offlineForm", func(old string, _ bool) (string, error) {
				return old + "b", nil
			})
		}()
		select {
		case err := <-cliDone:
			assert.Failf(t, "writer did not block", "writer on another connection finished inside the transaction: %v", err)
		case <-time.After(100 * time.Millisecond):
		}
		return old + "x", nil
	})
	require.NoError(t, err)
	require.NoError(t, <-cliDone)

	value, _, err := daemon.Get(ctx, "offlineForm")
	require.NoError(t, err)
	assert.Equal(t, "axb", value)
}
