package notify

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func (h *Hub) connCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func waitForConns(t *testing.T, h *Hub, userID uuid.UUID, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.connCount(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d connections for %s, have %d", want, userID, h.connCount(userID))
}

func dialHub(t *testing.T, h *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	var up websocket.Upgrader
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := h.add(userID, conn)
		go h.listen(userID, c)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNotifyReachesSubscriber(t *testing.T) {
	h := testHub()
	defer h.Close()
	userID := uuid.New()

	conn := dialHub(t, h, userID)
	waitForConns(t, h, userID, 1)

	h.Notify(userID)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"refresh"}`, string(msg))
}

func TestNotifyOnlyTargetsNamedUsers(t *testing.T) {
	h := testHub()
	defer h.Close()
	target := uuid.New()
	bystander := uuid.New()

	targetConn := dialHub(t, h, target)
	bystanderConn := dialHub(t, h, bystander)
	waitForConns(t, h, target, 1)
	waitForConns(t, h, bystander, 1)

	h.Notify(target)

	require.NoError(t, targetConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := targetConn.ReadMessage()
	require.NoError(t, err)

	require.NoError(t, bystanderConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = bystanderConn.ReadMessage()
	assert.Error(t, err, "bystander received nothing")
}

func TestConcurrentNotifiesShareOneConnection(t *testing.T) {
	h := testHub()
	defer h.Close()
	userID := uuid.New()

	conn := dialHub(t, h, userID)
	waitForConns(t, h, userID, 1)

	received := make(chan struct{}, 128)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.push([]uuid.UUID{userID})
		}()
	}
	wg.Wait()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh delivered")
	}
	assert.Equal(t, 1, h.connCount(userID), "connection survives overlapping pushes")
}

func TestNotifyWithoutSubscribersIsHarmless(t *testing.T) {
	h := testHub()
	defer h.Close()

	h.Notify(uuid.New())
	h.Notify()
}

func TestClosedConnectionIsEvicted(t *testing.T) {
	h := testHub()
	defer h.Close()
	userID := uuid.New()

	conn := dialHub(t, h, userID)
	waitForConns(t, h, userID, 1)

	conn.Close()
	waitForConns(t, h, userID, 0)
}
