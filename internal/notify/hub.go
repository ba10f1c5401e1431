// Package notify is the best-effort "something changed" channel.
// Connected clients get a content-free refresh signal after a mutation
// and re-fetch over HTTP; delivery is at-most-once and a missed signal
// only delays the client until its next manual refresh.
package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/AyanMustafa/Anevo/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const channel = "anevo:refresh"

var refreshMessage = []byte(`{"type":"refresh"}`)

type redisEvent struct {
	UserIDs  []uuid.UUID `json:"userIds"`
	SenderID string      `json:"senderId"` // instance id to avoid echo
}

// client is one registered websocket connection. Refresh signals for
// the same user can arrive from several goroutines at once (each
// Notify call and the redis subscriber), and gorilla allows only one
// concurrent writer per connection, so every write goes through the
// client's write mutex.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) sendRefresh() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, refreshMessage)
}

// Hub fans a refresh signal out to every websocket connection a user
// holds. With a redis client it also bridges instances, so a mutation
// handled by one server reaches subscribers connected to another.
type Hub struct {
	logger      *slog.Logger
	redisClient *redis.Client
	instanceID  string

	ctx    context.Context
	cancel context.CancelFunc

	clients map[uuid.UUID]map[*client]struct{}
	mu      sync.RWMutex
}

func NewHub(logger *slog.Logger, redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		logger:      logger,
		redisClient: redisClient,
		instanceID:  generateInstanceID(),
		ctx:         ctx,
		cancel:      cancel,
		clients:     make(map[uuid.UUID]map[*client]struct{}),
	}
	if redisClient != nil {
		go h.subscribeToRedis()
	}
	return h
}

var upgrader = websocket.Upgrader{
	// Origin is already vetted by the CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades the request and keeps the connection registered
// until the client goes away. Runs behind the auth middleware.
func (h *Hub) ServeWS(ctx *gin.Context) {
	userID, ok := auth.CurrentUser(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "user", userID, "error", err)
		return
	}
	c := h.add(userID, conn)
	h.listen(userID, c)
}

// Notify schedules a refresh signal for each user. It returns
// immediately; a mutation must never block or fail on notification.
func (h *Hub) Notify(userIDs ...uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}
	ids := make([]uuid.UUID, len(userIDs))
	copy(ids, userIDs)
	go func() {
		h.push(ids)
		h.publishToRedis(ids)
	}()
}

func (h *Hub) Close() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for c := range conns {
			_ = c.conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]map[*client]struct{})
}

func (h *Hub) add(userID uuid.UUID, conn *websocket.Conn) *client {
	c := &client{conn: conn}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	return c
}

func (h *Hub) remove(userID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
	_ = c.conn.Close()
}

// listen drains the connection so pings and closes are processed; the
// client never sends application data on this channel.
func (h *Hub) listen(userID uuid.UUID, c *client) {
	defer h.remove(userID, c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Error("websocket error", "user", userID, "error", err)
			}
			return
		}
	}
}

// push delivers the refresh signal to every connection the targeted
// users hold. The registry lock is only held while snapshotting, so a
// slow socket cannot stall registration, and each write is serialized
// on the client's own mutex.
func (h *Hub) push(userIDs []uuid.UUID) {
	type target struct {
		userID uuid.UUID
		c      *client
	}
	var targets []target

	h.mu.RLock()
	for _, userID := range userIDs {
		for c := range h.clients[userID] {
			targets = append(targets, target{userID, c})
		}
	}
	h.mu.RUnlock()

	for _, t := range targets {
		if err := t.c.sendRefresh(); err != nil {
			h.remove(t.userID, t.c)
		}
	}
}

func (h *Hub) publishToRedis(userIDs []uuid.UUID) {
	if h.redisClient == nil {
		return
	}
	msg, err := json.Marshal(redisEvent{UserIDs: userIDs, SenderID: h.instanceID})
	if err != nil {
		h.logger.Error("failed to marshal refresh event", "error", err)
		return
	}
	if err := h.redisClient.Publish(h.ctx, channel, msg).Err(); err != nil {
		h.logger.Error("failed to publish refresh event", "error", err)
	}
}

func (h *Hub) subscribeToRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			var event redisEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("failed to unmarshal refresh event", "error", err)
				continue
			}
			if event.SenderID == h.instanceID {
				continue
			}
			h.push(event.UserIDs)
		case <-h.ctx.Done():
			return
		}
	}
}

func generateInstanceID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
