package ws_room

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/movieparty/core/internal/model"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans events out to every connection bound to a room. It never
// mutates room state; payloads arrive prebuilt from the state machine.
type Hub struct {
	mu sync.RWMutex

	// Sets of clients within each room
	rooms map[model.RoomCode]map[*Client]bool

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[model.RoomCode]map[*Client]bool),
		logger: logger,
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.RoomCode]; !ok {
		h.rooms[client.RoomCode] = make(map[*Client]bool)
	}
	h.rooms[client.RoomCode][client] = true

	h.logger.Info("client registered",
		slog.String("room", string(client.RoomCode)),
		slog.String("socket_id", client.ID))
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[client.RoomCode]; ok {
		if _, ok := room[client]; ok {
			delete(room, client)
			close(client.Send)
		}
		if len(room) == 0 {
			delete(h.rooms, client.RoomCode)
		}
	}

	h.logger.Info("client unregistered",
		slog.String("room", string(client.RoomCode)),
		slog.String("socket_id", client.ID))
}

// Broadcast delivers an event to every client in a room. Slow consumers
// whose send buffer is full are dropped rather than allowed to stall the
// rest of the room.
func (h *Hub) Broadcast(code model.RoomCode, event string, payload any) {
	messageBytes, err := json.Marshal(Event{Type: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal event",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[code]; ok {
		for client := range clients {
			select {
			case client.Send <- messageBytes:
			default:
				close(client.Send)
				delete(h.rooms[code], client)
			}
		}
	}
}

// SendTo delivers an event to a single client only. Clients already
// dropped by a broadcast have a closed Send channel; membership is
// checked under the lock so the send cannot race the close.
func (h *Hub) SendTo(client *Client, event string, payload any) {
	messageBytes, err := json.Marshal(Event{Type: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal event",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.rooms[client.RoomCode]; !ok || !clients[client] {
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
	}
}
