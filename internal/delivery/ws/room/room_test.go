package ws_room

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movieparty/core/internal/model"
	"github.com/movieparty/core/internal/service/recommender"
	storage_room "github.com/movieparty/core/internal/storage/room"
	usecase_room "github.com/movieparty/core/internal/usecase/room"
)

type gateway struct {
	server  *httptest.Server
	usecase *usecase_room.Usecase
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(testLogger())
	uc := usecase_room.New(storage_room.New(), recommender.NewStatic(), hub)
	controller := NewController(uc, hub, WithLogger(testLogger()))

	engine := gin.New()
	controller.RegisterRoutes(engine.Group(""))

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return &gateway{server: server, usecase: uc}
}

func (g *gateway) dial(t *testing.T, code model.RoomCode) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(g.server.URL, "http") + "/room/" + string(code) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, cmd string, payload any) {
	t.Helper()

	raw, err := json.Marshal(map[string]any{"type": cmd, "payload": payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

// awaitEvent reads until the wanted event type arrives, skipping
// interleaved broadcasts.
func awaitEvent(t *testing.T, conn *websocket.Conn, wanted string) Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", wanted)

		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		if event.Type == wanted {
			return event
		}
	}
}

func TestRoomWSRejectsUnknownRoom(t *testing.T) {
	g := newGateway(t)

	resp, err := http.Get(g.server.URL + "/room/ZZZZZZ/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBindAndCommandFlow(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()

	snap, err := g.usecase.CreateRoom(ctx, "Alice")
	require.NoError(t, err)
	guestID, _, err := g.usecase.JoinRoom(ctx, snap.Code, "Bob")
	require.NoError(t, err)

	host := g.dial(t, snap.Code)
	guest := g.dial(t, snap.Code)

	send(t, host, CmdJoinRoom, map[string]string{"participantId": snap.Host})
	awaitEvent(t, host, usecase_room.EventRoomUpdate)

	send(t, guest, CmdJoinRoom, map[string]string{"participantId": guestID})
	awaitEvent(t, guest, usecase_room.EventRoomUpdate)

	// A host command must reach the guest as a broadcast.
	send(t, host, CmdStartPrefs, nil)
	awaitEvent(t, guest, usecase_room.EventPreferencesStarted)
	// Drain the room-update paired with preferences-started.
	awaitEvent(t, guest, usecase_room.EventRoomUpdate)

	send(t, host, CmdUpdatePrefs, map[string]string{"preferences": "space opera"})
	update := awaitEvent(t, guest, usecase_room.EventRoomUpdate)

	raw, err := json.Marshal(update.Payload)
	require.NoError(t, err)
	var got model.RoomSnapshot
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Participants, 2)
	assert.Equal(t, "space opera", got.Participants[0].Preferences)
}

func TestRoomWSAcceptsLowercaseCode(t *testing.T) {
	g := newGateway(t)

	snap, err := g.usecase.CreateRoom(context.Background(), "Alice")
	require.NoError(t, err)

	conn := g.dial(t, model.RoomCode(strings.ToLower(string(snap.Code))))
	send(t, conn, CmdJoinRoom, map[string]string{"participantId": snap.Host})
	awaitEvent(t, conn, usecase_room.EventRoomUpdate)
}

func TestUnboundCommandsAreRefused(t *testing.T) {
	g := newGateway(t)

	snap, err := g.usecase.CreateRoom(context.Background(), "Alice")
	require.NoError(t, err)

	conn := g.dial(t, snap.Code)

	send(t, conn, CmdSetReady, map[string]bool{"isReady": true})
	awaitEvent(t, conn, EventParticipantNotFound)

	send(t, conn, CmdJoinRoom, map[string]string{"participantId": "nonexistent"})
	awaitEvent(t, conn, EventParticipantNotFound)
}

func TestGracefulLeaveDestroysHostedRoom(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()

	snap, err := g.usecase.CreateRoom(ctx, "Alice")
	require.NoError(t, err)

	conn := g.dial(t, snap.Code)
	send(t, conn, CmdJoinRoom, map[string]string{"participantId": snap.Host})
	awaitEvent(t, conn, usecase_room.EventRoomUpdate)

	send(t, conn, CmdLeaveRoom, nil)

	require.Eventually(t, func() bool {
		_, err := g.usecase.Room(ctx, snap.Code)
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDroppedConnectionCleansUp(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()

	snap, err := g.usecase.CreateRoom(ctx, "Alice")
	require.NoError(t, err)
	guestID, _, err := g.usecase.JoinRoom(ctx, snap.Code, "Bob")
	require.NoError(t, err)

	guest := g.dial(t, snap.Code)
	send(t, guest, CmdJoinRoom, map[string]string{"participantId": guestID})
	awaitEvent(t, guest, usecase_room.EventRoomUpdate)

	// Abrupt close, no leave-room command.
	guest.Close()

	require.Eventually(t, func() bool {
		got, err := g.usecase.Room(ctx, snap.Code)
		return err == nil && len(got.Participants) == 1
	}, 2*time.Second, 20*time.Millisecond)

	got, err := g.usecase.Room(ctx, snap.Code)
	require.NoError(t, err)
	assert.Equal(t, snap.Host, got.Participants[0].ID)
}
