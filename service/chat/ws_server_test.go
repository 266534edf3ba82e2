package chat

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWSTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := NewServer(Options{})
	r := gin.New()
	r.GET("/ws", srv.HandleWS)
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?user_id=" + userID
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func wsRecvFrame(t *testing.T, ws *websocket.Conn) *RawFrame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	f, err := ParseFrame(data)
	require.NoError(t, err)
	return f
}

func wsRecvOnline(t *testing.T, ws *websocket.Conn) []string {
	t.Helper()
	f := wsRecvFrame(t, ws)
	require.Equal(t, FrameOnlineUsers, f.Type)
	ids, err := f.OnlineUsers()
	require.NoError(t, err)
	return ids
}

// wsWaitOnline reads frames until the online set equals want.
func wsWaitOnline(t *testing.T, ws *websocket.Conn, want []string) {
	t.Helper()
	for i := 0; i < 10; i++ {
		got := wsRecvOnline(t, ws)
		if assert.ObjectsAreEqual(want, got) {
			return
		}
	}
	t.Fatalf("never observed online set %v", want)
}

func TestWSConnectGetsSnapshotThenOwnPresence(t *testing.T) {
	_, ts := newWSTestServer(t)

	alice := dialWS(t, ts, "alice")

	// Snapshot precedes the self-registration broadcast.
	assert.Empty(t, wsRecvOnline(t, alice))
	assert.Equal(t, []string{"alice"}, wsRecvOnline(t, alice))
}

func TestWSPresencePropagatesAcrossConnections(t *testing.T) {
	_, ts := newWSTestServer(t)

	alice := dialWS(t, ts, "alice")
	wsWaitOnline(t, alice, []string{"alice"})

	bob := dialWS(t, ts, "bob")
	assert.Equal(t, []string{"alice"}, wsRecvOnline(t, bob), "snapshot shows the state before bob")
	assert.Equal(t, []string{"alice", "bob"}, wsRecvOnline(t, bob))
	wsWaitOnline(t, alice, []string{"alice", "bob"})

	require.NoError(t, bob.Close())
	wsWaitOnline(t, alice, []string{"alice"})
}

func TestWSSentinelIdentityInvisibleButInformed(t *testing.T) {
	srv, ts := newWSTestServer(t)

	ghost := dialWS(t, ts, "undefined")
	assert.Empty(t, wsRecvOnline(t, ghost))

	alice := dialWS(t, ts, "alice")
	wsWaitOnline(t, alice, []string{"alice"})

	// The unauthenticated socket still observes presence changes.
	wsWaitOnline(t, ghost, []string{"alice"})
	assert.Equal(t, []string{"alice"}, srv.Registry().Online())
}

func TestWSRelayPushReachesReceiverSocket(t *testing.T) {
	srv, ts := newWSTestServer(t)

	alice := dialWS(t, ts, "alice")
	wsWaitOnline(t, alice, []string{"alice"})

	bob := dialWS(t, ts, "bob")
	wsWaitOnline(t, bob, []string{"alice", "bob"})
	wsWaitOnline(t, alice, []string{"alice", "bob"})

	m := testMessage("alice", "bob", "over the wire")
	require.True(t, srv.Relay().Deliver(m))

	f := wsRecvFrame(t, bob)
	require.Equal(t, FrameNewMessage, f.Type)
	got, err := f.Message()
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, "over the wire", got.Text)
}

func TestWSReconnectKeepsUserOnline(t *testing.T) {
	srv, ts := newWSTestServer(t)

	first := dialWS(t, ts, "bob")
	wsWaitOnline(t, first, []string{"bob"})

	second := dialWS(t, ts, "bob")
	wsWaitOnline(t, second, []string{"bob"})

	// The first socket's teardown must not knock the fresh one offline.
	require.NoError(t, first.Close())

	watcher := dialWS(t, ts, "alice")
	wsWaitOnline(t, watcher, []string{"alice", "bob"})

	require.Eventually(t, func() bool {
		cl, ok := srv.Registry().Resolve("bob")
		return ok && cl != nil
	}, 2*time.Second, 20*time.Millisecond)
}
