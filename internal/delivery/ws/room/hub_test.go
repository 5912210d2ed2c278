package ws_room

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movieparty/core/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(code model.RoomCode, buffer int) *Client {
	return &Client{
		ID:       uuid.New().String(),
		RoomCode: code,
		Send:     make(chan []byte, buffer),
	}
}

func receiveEvent(t *testing.T, client *Client) Event {
	t.Helper()

	select {
	case raw, ok := <-client.Send:
		require.True(t, ok, "send channel closed unexpectedly")
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return event
	default:
		t.Fatal("no event queued")
		return Event{}
	}
}

func TestBroadcastReachesWholeRoom(t *testing.T) {
	hub := NewHub(testLogger())

	first := testClient("ABC234", 4)
	second := testClient("ABC234", 4)
	other := testClient("XYZ789", 4)
	hub.RegisterClient(first)
	hub.RegisterClient(second)
	hub.RegisterClient(other)

	hub.Broadcast("ABC234", "room-update", map[string]string{"phase": "lobby"})

	for _, client := range []*Client{first, second} {
		event := receiveEvent(t, client)
		assert.Equal(t, "room-update", event.Type)
	}
	assert.Empty(t, other.Send, "other rooms must not hear the event")
}

func TestBroadcastDropsSlowConsumer(t *testing.T) {
	hub := NewHub(testLogger())

	healthy := testClient("ABC234", 4)
	stalled := testClient("ABC234", 1)
	hub.RegisterClient(healthy)
	hub.RegisterClient(stalled)

	hub.Broadcast("ABC234", "room-update", nil)
	hub.Broadcast("ABC234", "room-update", nil)

	assert.Len(t, healthy.Send, 2)

	// The stalled client's buffer overflowed: it was dropped and its
	// channel closed after the one queued message.
	<-stalled.Send
	_, open := <-stalled.Send
	assert.False(t, open)

	hub.Broadcast("ABC234", "room-update", nil)
	assert.Len(t, healthy.Send, 3)
}

func TestRemoveClient(t *testing.T) {
	hub := NewHub(testLogger())

	client := testClient("ABC234", 4)
	hub.RegisterClient(client)
	hub.RemoveClient(client)

	_, open := <-client.Send
	assert.False(t, open)

	// Double removal must not panic on the already-closed channel.
	hub.RemoveClient(client)

	hub.Broadcast("ABC234", "room-update", nil)
}

func TestSendToDroppedClient(t *testing.T) {
	hub := NewHub(testLogger())

	stalled := testClient("ABC234", 1)
	hub.RegisterClient(stalled)

	// Second broadcast overflows the buffer: the client is dropped and
	// its Send channel closed.
	hub.Broadcast("ABC234", "room-update", nil)
	hub.Broadcast("ABC234", "room-update", nil)

	// A targeted reply to the dropped client must be a silent no-op,
	// never a send on the closed channel.
	assert.NotPanics(t, func() {
		hub.SendTo(stalled, "room-not-found", nil)
	})

	removed := testClient("ABC234", 4)
	hub.RegisterClient(removed)
	hub.RemoveClient(removed)
	assert.NotPanics(t, func() {
		hub.SendTo(removed, "room-not-found", nil)
	})
}

func TestSendTo(t *testing.T) {
	hub := NewHub(testLogger())

	target := testClient("ABC234", 4)
	bystander := testClient("ABC234", 4)
	hub.RegisterClient(target)
	hub.RegisterClient(bystander)

	hub.SendTo(target, "room-not-found", nil)

	event := receiveEvent(t, target)
	assert.Equal(t, "room-not-found", event.Type)
	assert.Empty(t, bystander.Send)
}
