package replay_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offlineform/internal/logging"
	"offlineform/internal/queue"
	"offlineform/internal/replay"
	"offlineform/internal/testsupport"
	"offlineform/internal/transport"
)

type hookLog struct {
	beforeSync []int
	afterSync  []int
	onSync     [][2]int
	errs       []error
}

func (l *hookLog) hooks() replay.Hooks {
	return replay.Hooks{
		BeforeSync: func(total int) { l.beforeSync = append(l.beforeSync, total) },
		AfterSync:  func(total int) { l.afterSync = append(l.afterSync, total) },
		OnSync: func(index, total int, _ *transport.Response) {
			l.onSync = append(l.onSync, [2]int{index, total})
		},
		OnError: func(err error) { l.errs = append(l.errs, err) },
	}
}

func newQueue(t *testing.T) (*queue.Queue, context.Context) {
	t.Helper()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return queue.New(store, "offlineForm"), context.Background()
}

func seed(t *testing.T, q *queue.Queue, baseURL string, n int) []queue.Entry {
	t.Helper()
	entries := make([]queue.Entry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, queue.NewEntry(fmt.Sprintf("%s/form/%d", baseURL, i), "POST", fmt.Sprintf("n=%d", i)))
	}
	for _, entry := range entries {
		_, err := q.Append(context.Background(), entry)
		require.NoError(t, err)
	}
	return entries
}

// sequentialServer records request bodies and fails when two requests overlap.
type sequentialServer struct {
	*httptest.Server
	mu      sync.Mutex
	bodies  []string
	active  atomic.Int32
	overlap atomic.Bool
	failOn  string
}

func newSequentialServer(t *testing.T, failOn string) *sequentialServer {
	t.Helper()
	s := &sequentialServer{failOn: failOn}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.active.Add(1) > 1 {
			s.overlap.Store(true)
		}
		defer s.active.Add(-1)
		time.Sleep(5 * time.Millisecond)

		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bodies = append(s.bodies, string(body))
		s.mu.Unlock()

		if string(body) == s.failOn {
			http.Error(w, "rejected", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *sequentialServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies...)
}

func TestSyncAbsentQueueSendsNothing(t *testing.T) {
	q, ctx := newQueue(t)
	var calls int
	sender := transport.SenderFunc(func(context.Context, transport.Request) (*transport.Response, error) {
		calls++
		return &transport.Response{StatusCode: 200}, nil
	})
	log := &hookLog{}

	attempted, err := replay.New(q, sender, log.hooks(), logging.NewNop()).Sync(ctx)
	require.NoError(t, err)
	assert.False(t, attempted)
	assert.Zero(t, calls)
	assert.Empty(t, log.beforeSync)
}

func TestSyncPlaceholderOnlyQueueSendsNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedValue(t, store, "offlineForm", `[null,null]`)

	attempted, err := replay.New(queue.New(store, "offlineForm"), transport.NewHTTPSender(time.Second, ""), replay.Hooks{}, nil).Sync(ctx)
	require.NoError(t, err)
	assert.False(t, attempted)
}

func TestSyncAllSuccessEmptiesQueue(t *testing.T) {
	q, ctx := newQueue(t)
	srv := newSequentialServer(t, "")
	seed(t, q, srv.URL, 3)
	log := &hookLog{}

	attempted, err := replay.New(q, transport.NewHTTPSender(time.Second, ""), log.hooks(), nil).Sync(ctx)
	require.NoError(t, err)
	assert.True(t, attempted)

	assert.Equal(t, []string{"n=1", "n=2", "n=3"}, srv.received())
	assert.False(t, srv.overlap.Load(), "requests must not overlap")
	assert.Equal(t, []int{3}, log.beforeSync)
	assert.Equal(t, []int{3}, log.afterSync)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, log.onSync)
	assert.Empty(t, log.errs)

	entries, exists, err := q.Load(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Empty(t, entries)
}

func TestSyncFailureDiscardsEntryAndReportsOnce(t *testing.T) {
	q, ctx := newQueue(t)
	srv := newSequentialServer(t, "n=2")
	seeded := seed(t, q, srv.URL, 4)
	log := &hookLog{}

	attempted, err := replay.New(q, transport.NewHTTPSender(time.Second, ""), log.hooks(), nil).Sync(ctx)
	require.NoError(t, err)
	assert.True(t, attempted)

	assert.Len(t, srv.received(), 4)
	require.Len(t, log.errs, 1)
	var statusErr *transport.StatusError
	require.True(t, errors.As(log.errs[0], &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)

	var entryErr *replay.EntryError
	require.True(t, errors.As(log.errs[0], &entryErr))
	assert.Equal(t, seeded[1].ID, entryErr.Entry.ID)

	assert.Equal(t, [][2]int{{1, 4}, {3, 4}, {4, 4}}, log.onSync)
	assert.Equal(t, []int{4}, log.afterSync)

	entries, _, err := q.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "attempted entries leave the queue regardless of outcome")
}

func TestSyncLastEntryFailureSkipsAfterSync(t *testing.T) {
	q, ctx := newQueue(t)
	srv := newSequentialServer(t, "n=2")
	seed(t, q, srv.URL, 2)
	log := &hookLog{}

	_, err := replay.New(q, transport.NewHTTPSender(time.Second, ""), log.hooks(), nil).Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, log.afterSync)
	assert.Len(t, log.errs, 1)
}

func TestSyncRemovesByIdentityWithDuplicates(t *testing.T) {
	q, ctx := newQueue(t)
	var sent []string
	sender := transport.SenderFunc(func(_ context.Context, req transport.Request) (*transport.Response, error) {
		sent = append(sent, req.Body)
		if len(sent) == 1 {
			return nil, errors.New("boom")
		}
		return &transport.Response{StatusCode: 200}, nil
	})
	dup := []queue.Entry{
		queue.NewEntry("https://x.test/f", "POST", "same=1"),
		queue.NewEntry("https://x.test/f", "POST", "same=1"),
	}
	for _, entry := range dup {
		_, err := q.Append(ctx, entry)
		require.NoError(t, err)
	}

	var snapshots [][]queue.Entry
	hooks := replay.Hooks{
		OnError: func(error) {
			current, _, _ := q.Load(ctx)
			snapshots = append(snapshots, current)
		},
	}
	_, err := replay.New(q, sender, hooks, nil).Sync(ctx)
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	require.Len(t, snapshots[0], 1)
	assert.Equal(t, dup[1].ID, snapshots[0][0].ID)
}

func TestSyncKeepsEntriesCapturedDuringPass(t *testing.T) {
	q, ctx := newQueue(t)
	seed(t, q, "https://x.test", 2)
	late := queue.NewEntry("https://x.test/late", "POST", "late=1")

	var calls int
	sender := transport.SenderFunc(func(context.Context, transport.Request) (*transport.Response, error) {
		calls++
		if calls == 1 {
			_, err := q.Append(ctx, late)
			require.NoError(t, err)
		}
		return &transport.Response{StatusCode: 200}, nil
	})

	_, err := replay.New(q, sender, replay.Hooks{}, nil).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	entries, _, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, late.ID, entries[0].ID)
}

func TestSyncCancellationKeepsInFlightEntry(t *testing.T) {
	q, ctx := newQueue(t)
	seeded := seed(t, q, "https://x.test", 3)

	runCtx, cancel := context.WithCancel(ctx)
	var calls int
	sender := transport.SenderFunc(func(c context.Context, _ transport.Request) (*transport.Response, error) {
		calls++
		if calls == 2 {
			cancel()
			return nil, c.Err()
		}
		return &transport.Response{StatusCode: 200}, nil
	})
	log := &hookLog{}

	attempted, err := replay.New(q, sender, log.hooks(), nil).Sync(runCtx)
	assert.True(t, attempted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, log.errs)

	entries, _, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, seeded[1].ID, entries[0].ID)
	assert.Equal(t, seeded[2].ID, entries[1].ID)
}

func TestSyncReturnsStorageErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedValue(t, store, "offlineForm", "{broken")

	attempted, err := replay.New(queue.New(store, "offlineForm"), transport.NewHTTPSender(time.Second, ""), replay.Hooks{}, nil).Sync(ctx)
	assert.False(t, attempted)
	assert.ErrorIs(t, err, queue.ErrCorrupt)
}

func TestSyncDrainsLegacyRecordWithoutIdentities(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	srv := newSequentialServer(t, "")
	legacy := fmt.Sprintf(`[{"action":"%[1]s/a","method":"POST","urlEncoded":"n=1"},null,{"action":"%[1]s/b","method":"POST","urlEncoded":"n=2"}]`, srv.URL)
	testsupport.SeedValue(t, store, "offlineForm", legacy)

	q := queue.New(store, "offlineForm")
	log := &hookLog{}
	attempted, err := replay.New(q, transport.NewHTTPSender(time.Second, ""), log.hooks(), nil).Sync(ctx)
	require.NoError(t, err)
	assert.True(t, attempted)
	assert.Equal(t, []string{"n=1", "n=2"}, srv.received())
	assert.Equal(t, []int{2}, log.afterSync)

	entries, _, err := q.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
