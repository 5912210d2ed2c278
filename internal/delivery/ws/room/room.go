package ws_room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/movieparty/core/internal/model"
	usecase_room "github.com/movieparty/core/internal/usecase/room"
)

// Client-to-server command names.
const (
	CmdJoinRoom        = "join-room"
	CmdUpdatePrefs     = "update-preferences"
	CmdSetReady        = "set-ready"
	CmdKickParticipant = "kick-participant"
	CmdRegenerate      = "regenerate-recommendations"
	CmdRerollMovie     = "reroll-movie"
	CmdStartPrefs      = "start-preferences"
	CmdLeaveRoom       = "leave-room"
	CmdMovieLiked      = "movie-liked"
	CmdSwipesCompleted = "swipes-completed"
	CmdSkipToResults   = "skip-to-results"
)

// Targeted replies for a bind against missing state.
const (
	EventRoomNotFound        = "room-not-found"
	EventParticipantNotFound = "participant-not-found"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live connection. A connection represents at most one
// (room, participant) pair; the participant binding happens on an
// explicit join-room command, not at upgrade time.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	ID       string
	RoomCode model.RoomCode

	// ParticipantID is empty until the join-room bind succeeds.
	ParticipantID string
	left          bool
}

type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Controller struct {
	uc  *usecase_room.Usecase
	hub *Hub

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(uc *usecase_room.Usecase, hub *Hub, opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:     uc,
		hub:    hub,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/room/:code/ws", c.roomWS)
}

func (c *Controller) roomWS(ctx *gin.Context) {
	code := model.RoomCode(strings.ToUpper(strings.TrimSpace(ctx.Param("code"))))

	if _, err := c.uc.Room(ctx.Request.Context(), code); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("failed to upgrade to websocket",
			slog.String("error", err.Error()))
		return
	}

	client := &Client{
		Hub:      c.hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		ID:       uuid.New().String(),
		RoomCode: code,
	}

	c.hub.RegisterClient(client)

	go c.readPump(client)
	go c.writePump(client)
}

// readPump serializes everything one connection does. When it exits,
// cleanup is identical to an explicit leave.
func (c *Controller) readPump(client *Client) {
	defer c.cleanup(client)

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Info("dropping malformed message",
				slog.String("socket_id", client.ID),
				slog.String("error", err.Error()))
			continue
		}

		c.dispatch(client, msg)
		if client.left {
			return
		}
	}
}

func (c *Controller) writePump(client *Client) {
	defer client.Conn.Close()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// cleanup runs exactly once per connection, graceful or not. The room
// must never keep a stale reference to a connection that is gone.
func (c *Controller) cleanup(client *Client) {
	ctx := context.Background()

	c.hub.RemoveClient(client)
	client.Conn.Close()

	if client.ParticipantID == "" || client.left {
		return
	}
	c.uc.UnbindSocket(ctx, client.RoomCode, client.ParticipantID, client.ID)
	c.uc.Leave(ctx, client.RoomCode, client.ParticipantID, "Host disconnected")
}

func (c *Controller) dispatch(client *Client, msg clientMessage) {
	ctx := context.Background()
	code := client.RoomCode

	if msg.Type == CmdJoinRoom {
		c.bind(ctx, client, msg.Payload)
		return
	}

	// Everything else requires a bound participant.
	if client.ParticipantID == "" {
		c.hub.SendTo(client, EventParticipantNotFound, nil)
		return
	}
	actor := client.ParticipantID

	switch msg.Type {
	case CmdUpdatePrefs:
		var p struct {
			Preferences string `json:"preferences"`
		}
		if json.Unmarshal(msg.Payload, &p) == nil {
			c.uc.UpdatePreferences(ctx, code, actor, p.Preferences)
		}

	case CmdSetReady:
		var p struct {
			IsReady bool `json:"isReady"`
		}
		if json.Unmarshal(msg.Payload, &p) == nil {
			c.uc.SetReady(ctx, code, actor, p.IsReady)
		}

	case CmdKickParticipant:
		var p struct {
			ParticipantID string `json:"participantId"`
		}
		if json.Unmarshal(msg.Payload, &p) == nil {
			c.uc.KickParticipant(ctx, code, actor, p.ParticipantID)
		}

	case CmdRegenerate:
		if err := c.uc.Regenerate(ctx, code, actor); err != nil {
			c.logger.Info("regenerate rejected",
				slog.String("room", string(code)),
				slog.String("error", err.Error()))
		}

	case CmdRerollMovie:
		var p struct {
			MovieIndex int `json:"movieIndex"`
		}
		if json.Unmarshal(msg.Payload, &p) == nil {
			if err := c.uc.RerollOne(ctx, code, actor, p.MovieIndex); err != nil {
				c.logger.Info("reroll rejected",
					slog.String("room", string(code)),
					slog.String("error", err.Error()))
			}
		}

	case CmdStartPrefs:
		c.uc.StartPreferences(ctx, code, actor)

	case CmdMovieLiked:
		var p struct {
			MovieIndex int `json:"movieIndex"`
		}
		if json.Unmarshal(msg.Payload, &p) == nil {
			c.uc.SwipeLike(ctx, code, actor, p.MovieIndex)
		}

	case CmdSwipesCompleted:
		c.uc.SwipeComplete(ctx, code, actor)

	case CmdSkipToResults:
		c.uc.SkipToResults(ctx, code, actor)

	case CmdLeaveRoom:
		client.left = true
		c.uc.UnbindSocket(ctx, code, actor, client.ID)
		c.uc.Leave(ctx, code, actor, "Host left the room")

	default:
		c.logger.Info("unknown command",
			slog.String("type", msg.Type),
			slog.String("socket_id", client.ID))
	}
}

// bind attaches this connection to a participant reserved at admission
// time. Replies go to this connection only; a failed bind must not
// disturb the room.
func (c *Controller) bind(ctx context.Context, client *Client, payload json.RawMessage) {
	var p struct {
		ParticipantID string `json:"participantId"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.ParticipantID == "" {
		c.hub.SendTo(client, EventParticipantNotFound, nil)
		return
	}

	err := c.uc.BindSocket(ctx, client.RoomCode, p.ParticipantID, client.ID)
	switch {
	case errors.Is(err, usecase_room.ErrRoomNotFound):
		c.hub.SendTo(client, EventRoomNotFound, nil)
		return
	case errors.Is(err, usecase_room.ErrParticipantNotFound):
		c.hub.SendTo(client, EventParticipantNotFound, nil)
		return
	case err != nil:
		c.logger.Error("bind failed",
			slog.String("room", string(client.RoomCode)),
			slog.String("error", err.Error()))
		return
	}

	client.ParticipantID = p.ParticipantID

	// Sync the joining client immediately instead of making it wait for
	// the next room-wide broadcast.
	if snap, err := c.uc.Room(ctx, client.RoomCode); err == nil {
		c.hub.SendTo(client, usecase_room.EventRoomUpdate, snap)
	}

	c.logger.Info("participant bound",
		slog.String("room", string(client.RoomCode)),
		slog.String("participant_id", p.ParticipantID),
		slog.String("socket_id", client.ID))
}
