package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offlineform/internal/api"
	"offlineform/internal/connectivity"
	"offlineform/internal/logging"
	"offlineform/internal/queue"
	"offlineform/internal/testsupport"
	"offlineform/internal/transport"
)

func newTestServer(t *testing.T, token string, opts ...Option) (http.Handler, *Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = token
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, logging.NewNop(), opts...)
	require.NoError(t, err)
	return d.api.routes(token), d
}

func serve(handler http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestAPIServerSubmitQueuesWhileOffline(t *testing.T) {
	handler, _ := newTestServer(t, "")

	w := serve(handler, http.MethodPost, "/api/forms",
		`{"action":"/contact","method":"post","body":"a=1&b=2","pageUrl":"https://x.test/page"}`, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp api.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Outcome)
	assert.Equal(t, 1, resp.Pending)

	w = serve(handler, http.MethodGet, "/api/queue", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list api.QueueListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "https://x.test/contact", list.Entries[0].Action)
	assert.Equal(t, "post", list.Entries[0].Method)
	assert.Equal(t, "a=1&b=2", list.Entries[0].Body)
}

func TestAPIServerSubmitRejectsBadRequests(t *testing.T) {
	handler, _ := newTestServer(t, "")

	assert.Equal(t, http.StatusBadRequest, serve(handler, http.MethodPost, "/api/forms", `{`, "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(handler, http.MethodPost, "/api/forms", `{}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(handler, http.MethodPost, "/api/forms", `{"action":"https://x.test","bogus":1}`, "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(handler, http.MethodGet, "/api/forms", "", "").Code)
}

func TestAPIServerSyncDrainsQueue(t *testing.T) {
	var sent []transport.Request
	sender := transport.SenderFunc(func(_ context.Context, req transport.Request) (*transport.Response, error) {
		sent = append(sent, req)
		return &transport.Response{StatusCode: 200}, nil
	})
	handler, d := newTestServer(t, "", WithSender(sender), WithChecker(connectivity.Static(true)))

	_, err := queue.New(d.store, d.cfg.Queue.Key).Append(context.Background(), queue.NewEntry("https://x.test/a", "POST", "a=1"))
	require.NoError(t, err)

	w := serve(handler, http.MethodPost, "/api/sync", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.SyncResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Attempted)
	assert.Zero(t, resp.Pending)
	assert.Len(t, sent, 1)
}

func TestAPIServerSubmitDirectSendWhileOnline(t *testing.T) {
	sent := make(chan transport.Request, 1)
	sender := transport.SenderFunc(func(_ context.Context, req transport.Request) (*transport.Response, error) {
		sent <- req
		return &transport.Response{StatusCode: 200}, nil
	})
	handler, d := newTestServer(t, "", WithSender(sender), WithChecker(connectivity.Static(true)))

	w := serve(handler, http.MethodPost, "/api/forms", `{"action":"https://x.test/a","body":"q=1","directSend":true}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sent", resp.Outcome)

	d.client.Wait()
	req := <-sent
	assert.Empty(t, req.Method, "the sender applies the GET default")
	assert.Equal(t, "q=1", req.Body)
}

func TestAPIServerStatus(t *testing.T) {
	handler, d := newTestServer(t, "")

	w := serve(handler, http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status api.DaemonStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Online)
	assert.Equal(t, d.cfg.DatabasePath(), status.DatabasePath)
	assert.Equal(t, d.cfg.LockPath(), status.LockFilePath)
	assert.Equal(t, "offlineForm", status.QueueKey)
	assert.Positive(t, status.PID)
}

func TestAPIServerRequiresToken(t *testing.T) {
	handler, _ := newTestServer(t, "secret")

	assert.Equal(t, http.StatusUnauthorized, serve(handler, http.MethodGet, "/api/status", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(handler, http.MethodGet, "/api/status", "", "wrong").Code)
	assert.Equal(t, http.StatusOK, serve(handler, http.MethodGet, "/api/status", "", "secret").Code)
}
