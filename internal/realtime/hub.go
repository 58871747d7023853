package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Events pushed to board viewers.
const (
	EventTaskCreated     = "task_created"
	EventTaskUpdated     = "task_updated"
	EventTaskDeleted     = "task_deleted"
	EventSectionsChanged = "sections_changed"
)

// Hub maintains board_id -> set of connections and broadcasts board events.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to
// Redis. Events carry the publishing instance's id so the echo of our own
// publish is dropped instead of delivered twice.
type Hub struct {
	// boardID -> map[clientID]*Client
	boards   map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per board
	mu       sync.RWMutex
	id       string
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance
// broadcast). Origin identifies the publishing hub instance.
type RedisPublisher interface {
	PublishBoardEvent(boardID uuid.UUID, event string, payload []byte, origin string) error
}

// RedisSubscriber subscribes to board channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeBoard(boardID uuid.UUID, handler func(event string, payload []byte, origin string)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		boards:   make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		id:       uuid.New().String(),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a board room. Starts the Redis subscription for
// this board when the first client arrives.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.boards[c.BoardID] == nil {
		h.boards[c.BoardID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeBoard(c.BoardID, func(event string, payload []byte, origin string) {
				if origin == h.id {
					return // already broadcast locally
				}
				h.BroadcastToBoard(c.BoardID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.BoardID] = cancel
			}
		}
	}
	h.boards[c.BoardID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined board", zap.String("client_id", c.ID), zap.String("board_id", c.BoardID.String()))
}

// Unregister removes a client from a board room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.boards[c.BoardID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.boards, c.BoardID)
			if cancel, ok := h.subs[c.BoardID]; ok {
				cancel()
				delete(h.subs, c.BoardID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left board", zap.String("client_id", c.ID), zap.String("board_id", c.BoardID.String()))
}

// BroadcastToBoard sends a message to all clients viewing a board (local only).
func (h *Hub) BroadcastToBoard(boardID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.boards[boardID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToBoardAndPublish sends to local clients and publishes to Redis for
// other instances. Errors never propagate to the originating request.
func (h *Hub) BroadcastToBoardAndPublish(boardID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.BroadcastToBoard(boardID, event, json.RawMessage(data))
	if h.redis != nil {
		_ = h.redis.PublishBoardEvent(boardID, event, data, h.id)
	}
}

// ViewerCount returns the number of connected clients viewing a board.
func (h *Hub) ViewerCount(boardID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.boards[boardID])
}
