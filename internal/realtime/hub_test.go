package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(boardID uuid.UUID) *Client {
	return &Client{
		ID:      uuid.New().String(),
		BoardID: boardID,
		UserID:  uuid.New(),
		send:    make(chan WSMessage, 8),
	}
}

func TestHubBroadcastToBoard(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	boardA := uuid.New()
	boardB := uuid.New()

	a1 := testClient(boardA)
	a2 := testClient(boardA)
	b1 := testClient(boardB)
	for _, c := range []*Client{a1, a2, b1} {
		c.hub = hub
		hub.Register(c)
	}
	require.Equal(t, 2, hub.ViewerCount(boardA))
	require.Equal(t, 1, hub.ViewerCount(boardB))

	hub.BroadcastToBoardAndPublish(boardA, EventTaskCreated, map[string]string{"title": "Fix login"})

	for _, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.send:
			assert.Equal(t, EventTaskCreated, msg.Event)
			var payload map[string]string
			require.NoError(t, json.Unmarshal(msg.Data, &payload))
			assert.Equal(t, "Fix login", payload["title"])
		default:
			t.Fatal("expected a message for board A viewer")
		}
	}
	select {
	case <-b1.send:
		t.Fatal("board B viewer must not receive board A events")
	default:
	}
}

// fakeBridge captures publishes and lets the test feed subscribed handlers.
type fakeBridge struct {
	published []struct {
		event   string
		payload []byte
		origin  string
	}
	handlers map[uuid.UUID]func(event string, payload []byte, origin string)
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{handlers: make(map[uuid.UUID]func(string, []byte, string))}
}

func (f *fakeBridge) PublishBoardEvent(boardID uuid.UUID, event string, payload []byte, origin string) error {
	f.published = append(f.published, struct {
		event   string
		payload []byte
		origin  string
	}{event, payload, origin})
	return nil
}

func (f *fakeBridge) SubscribeBoard(boardID uuid.UUID, handler func(string, []byte, string)) (func(), error) {
	f.handlers[boardID] = handler
	return func() {}, nil
}

func TestHubDropsOwnRedisEcho(t *testing.T) {
	bridge := newFakeBridge()
	hub := NewHub(zap.NewNop(), bridge, bridge)
	board := uuid.New()

	c := testClient(board)
	c.hub = hub
	hub.Register(c)
	require.Contains(t, bridge.handlers, board)

	hub.BroadcastToBoardAndPublish(board, EventTaskUpdated, map[string]string{"title": "Fix login"})
	require.Len(t, c.send, 1, "one local delivery")
	require.Len(t, bridge.published, 1)

	// the publish comes back on the channel; same origin must not deliver again
	pub := bridge.published[0]
	bridge.handlers[board](pub.event, pub.payload, pub.origin)
	assert.Len(t, c.send, 1, "own echo must be dropped")

	// an event from another instance does deliver
	bridge.handlers[board](pub.event, pub.payload, "other-instance")
	assert.Len(t, c.send, 2)
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	board := uuid.New()

	c := testClient(board)
	c.hub = hub
	hub.Register(c)
	require.Equal(t, 1, hub.ViewerCount(board))

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ViewerCount(board))

	// broadcast to an empty room is a no-op
	hub.BroadcastToBoard(board, EventTaskDeleted, nil)
}
