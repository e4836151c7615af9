package capture_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offlineform/internal/capture"
	"offlineform/internal/connectivity"
	"offlineform/internal/form"
	"offlineform/internal/logging"
	"offlineform/internal/queue"
	"offlineform/internal/testsupport"
	"offlineform/internal/transport"
)

type recordingSender struct {
	mu       sync.Mutex
	requests []transport.Request
	err      error
}

func (s *recordingSender) Send(_ context.Context, req transport.Request) (*transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &transport.Response{StatusCode: 200, Body: []byte("ok")}, nil
}

func (s *recordingSender) sent() []transport.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.Request(nil), s.requests...)
}

func newQueue(t *testing.T) *queue.Queue {
	t.Helper()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return queue.New(store, "offlineForm")
}

func postForm(action string) *form.Form {
	return &form.Form{
		Action: action,
		Method: "post",
		Fields: []form.Field{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}},
	}
}

func TestOnlineWithoutDirectSendPassesThrough(t *testing.T) {
	q := newQueue(t)
	sender := &recordingSender{}
	i := capture.New(q, sender, connectivity.Static(true), capture.Config{}, logging.NewNop())

	outcome, err := i.Handle(context.Background(), postForm("/submit"), "https://x.test/page")
	require.NoError(t, err)
	assert.Equal(t, capture.OutcomePassthrough, outcome)
	assert.Empty(t, sender.sent())

	_, exists, err := q.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOnlineDirectSendInvokesResultHook(t *testing.T) {
	q := newQueue(t)
	sender := &recordingSender{}
	var before int
	var result *transport.Response
	i := capture.New(q, sender, connectivity.Static(true), capture.Config{
		DirectSend: true,
		Hooks: capture.Hooks{
			BeforeOnlineSend: func() { before++ },
			OnlineResult:     func(resp *transport.Response) { result = resp },
			OnError:          func(err error) { assert.NoError(t, err, "unexpected error hook") },
		},
	}, nil)

	outcome, err := i.Handle(context.Background(), postForm("/submit"), "https://x.test/page")
	require.NoError(t, err)
	assert.Equal(t, capture.OutcomeSent, outcome)
	i.Wait()

	assert.Equal(t, 1, before)
	require.NotNil(t, result)
	assert.Equal(t, 200, result.StatusCode)
	require.Len(t, sender.sent(), 1)
	assert.Equal(t, transport.Request{Method: "post", URL: "https://x.test/submit", Body: "a=1&b=2"}, sender.sent()[0])
}

func TestOnlineDirectSendFailureIsNotQueued(t *testing.T) {
	q := newQueue(t)
	sendErr := errors.New("connection reset")
	var reported error
	i := capture.New(q, &recordingSender{err: sendErr}, connectivity.Static(true), capture.Config{
		DirectSend: true,
		Hooks: capture.Hooks{
			OnError:      func(err error) { reported = err },
			OnlineResult: func(*transport.Response) { t.Error("unexpected result hook") },
		},
	}, nil)

	outcome, err := i.Handle(context.Background(), postForm("https://x.test/submit"), "")
	require.NoError(t, err)
	assert.Equal(t, capture.OutcomeSent, outcome)
	i.Wait()

	assert.ErrorIs(t, reported, sendErr)
	entries, _, err := q.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOfflineCaptureAppendsOneEntry(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()
	_, err := q.Append(ctx, queue.NewEntry("https://x.test/earlier", "GET", ""))
	require.NoError(t, err)

	var beforeCount, afterCount int
	var afterEntries []queue.Entry
	i := capture.New(q, &recordingSender{}, connectivity.Static(false), capture.Config{
		DirectSend: true,
		Hooks: capture.Hooks{
			BeforeStorage: func(count int, _ []queue.Entry) { beforeCount = count },
			OnStorage: func(count int, entries []queue.Entry) {
				afterCount = count
				afterEntries = entries
			},
		},
	}, nil)

	outcome, err := i.Handle(ctx, postForm(""), "https://x.test/page")
	require.NoError(t, err)
	assert.Equal(t, capture.OutcomeQueued, outcome)

	assert.Equal(t, 1, beforeCount)
	assert.Equal(t, beforeCount+1, afterCount)
	require.Len(t, afterEntries, 2)

	entries, _, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	last := entries[1]
	assert.Equal(t, "https://x.test/page", last.Action)
	assert.Equal(t, "post", last.Method, "method is stored as declared")
	assert.Equal(t, "a=1&b=2", last.URLEncoded)
}

func TestOfflineCapturesKeepSubmissionOrder(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()
	i := capture.New(q, &recordingSender{}, connectivity.Static(false), capture.Config{}, nil)

	for _, value := range []string{"first", "second", "third"} {
		f := &form.Form{Action: "/log", Method: "POST", Fields: []form.Field{{Name: "v", Value: value}}}
		_, err := i.Handle(ctx, f, "https://x.test/")
		require.NoError(t, err)
	}

	entries, _, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "v=first", entries[0].URLEncoded)
	assert.Equal(t, "v=second", entries[1].URLEncoded)
	assert.Equal(t, "v=third", entries[2].URLEncoded)
	assert.Equal(t, "https://x.test/log", entries[0].Action)
}

func TestOfflineCaptureFiltersPlaceholders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedValue(t, store, "offlineForm", `[null,{"action":"https://x.test/a","method":"GET","urlEncoded":""},null]`)
	q := queue.New(store, "offlineForm")

	var beforeCount int
	i := capture.New(q, &recordingSender{}, connectivity.Static(false), capture.Config{
		Hooks: capture.Hooks{BeforeStorage: func(count int, _ []queue.Entry) { beforeCount = count }},
	}, nil)

	_, err := i.Handle(ctx, postForm("/b"), "https://x.test/")
	require.NoError(t, err)
	assert.Equal(t, 1, beforeCount)

	entries, _, err := q.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHandleRejectsNilForm(t *testing.T) {
	i := capture.New(newQueue(t), &recordingSender{}, connectivity.Static(false), capture.Config{}, nil)
	_, err := i.Handle(context.Background(), nil, "")
	require.Error(t, err)
}

func TestOnlinePassthroughIgnoresUnparsablePageURL(t *testing.T) {
	i := capture.New(newQueue(t), &recordingSender{}, connectivity.Static(true), capture.Config{}, nil)

	outcome, err := i.Handle(context.Background(), postForm("/submit"), "://not a url")
	require.NoError(t, err)
	assert.Equal(t, capture.OutcomePassthrough, outcome)
}

func TestOfflineCaptureRejectsUnparsablePageURL(t *testing.T) {
	q := newQueue(t)
	i := capture.New(q, &recordingSender{}, connectivity.Static(false), capture.Config{}, nil)

	_, err := i.Handle(context.Background(), postForm("/submit"), "://not a url")
	require.Error(t, err)

	entries, _, err := q.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOfflineCaptureStoresDeclaredMethod(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()
	i := capture.New(q, &recordingSender{}, connectivity.Static(false), capture.Config{}, nil)

	for _, method := range []string{"", "pOsT"} {
		f := &form.Form{Action: "https://x.test/a", Method: method, Encoded: "x=1"}
		_, err := i.Handle(ctx, f, "")
		require.NoError(t, err)
	}

	entries, _, err := q.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Method)
	assert.Equal(t, "pOsT", entries[1].Method)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "passthrough", capture.OutcomePassthrough.String())
	assert.Equal(t, "sent", capture.OutcomeSent.String())
	assert.Equal(t, "queued", capture.OutcomeQueued.String())
}
