package storage_room

import (
	"errors"
	"math/rand"
	"strings"
	"sync"

	"github.com/movieparty/core/internal/model"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNoFreeCodes  = errors.New("no free room codes")
)

// Alphabet for room codes. Uppercase alphanumerics minus the characters
// people misread over a shoulder (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLen = 6

// Storage is the process-wide room table. A plain keyed container:
// per-room serialization is the state machine's job, the store only
// guards its own map.
type Storage struct {
	mu    sync.RWMutex
	rooms map[model.RoomCode]*model.Room
}

func New() *Storage {
	return &Storage{
		rooms: make(map[model.RoomCode]*model.Room),
	}
}

// Create allocates a fresh code and registers a room for the given host.
// Codes are random enough that collisions are a curiosity, but they are
// still checked and retried rather than shrugged off.
func (s *Storage) Create(host *model.Participant) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var retries = 5
	for retries > 0 {
		code := s.buildRoomCode()
		if _, exists := s.rooms[code]; exists {
			retries--
			continue
		}
		room := model.NewRoom(code, host)
		s.rooms[code] = room
		return room, nil
	}
	return nil, ErrNoFreeCodes
}

func (s *Storage) Get(code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *Storage) Delete(code model.RoomCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, code)
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rooms)
}

func (s *Storage) buildRoomCode() model.RoomCode {
	var builder strings.Builder
	builder.Grow(codeLen)

	for i := 0; i < codeLen; i++ {
		builder.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}

	return model.RoomCode(builder.String())
}
