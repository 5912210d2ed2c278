package usecase_room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/movieparty/core/internal/model"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomLocked          = errors.New("room is locked")
	ErrRoomFull            = errors.New("room is full")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrExhaustedCandidates = errors.New("no unique movies left")
	ErrProviderFailure     = errors.New("recommendation provider failed")
	ErrGenerationInFlight  = errors.New("generation already in progress")
	ErrInternal            = errors.New("internal error")
)

const (
	MaxParticipants = 10
	MaxRegenerates  = 2
	MaxRerolls      = 2
	MatchThreshold  = 2
	BatchSize       = 5

	defaultGenerateTimeout = 30 * time.Second
)

// Server-to-client event names.
const (
	EventRoomUpdate           = "room-update"
	EventParticipantJoined    = "participant-joined"
	EventParticipantLeft      = "participant-left"
	EventParticipantKicked    = "participant-kicked"
	EventPreferencesStarted   = "preferences-started"
	EventGenerating           = "generating-recommendations"
	EventRecommendationsReady = "recommendations-ready"
	EventRecommendationsError = "recommendations-error"
	EventRoomClosed           = "room-closed"
	EventAllSwipesComplete    = "all-swipes-complete"
)

//go:generate mockery --name=Provider --output=../../../mocks/provider --filename=provider.go
type Provider interface {
	Generate(ctx context.Context, preferences, excludeTitles, participantNames []string) ([]model.Movie, error)
}

type RoomStore interface {
	Create(host *model.Participant) (*model.Room, error)
	Get(code model.RoomCode) (*model.Room, error)
	Delete(code model.RoomCode)
}

// Broadcaster fans an event out to every connection bound to a room.
// It only reads: payloads are prebuilt snapshots and DTOs.
type Broadcaster interface {
	Broadcast(code model.RoomCode, event string, payload any)
}

type Usecase struct {
	store    RoomStore
	provider Provider
	hub      Broadcaster

	logger          *slog.Logger
	generateTimeout time.Duration
}

type UsecaseOption func(*Usecase)

func WithLogger(logger *slog.Logger) UsecaseOption {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithGenerateTimeout(d time.Duration) UsecaseOption {
	return func(u *Usecase) {
		if d > 0 {
			u.generateTimeout = d
		}
	}
}

func New(store RoomStore, provider Provider, hub Broadcaster, opts ...UsecaseOption) *Usecase {
	u := &Usecase{
		store:           store,
		provider:        provider,
		hub:             hub,
		logger:          slog.Default(),
		generateTimeout: defaultGenerateTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CreateRoom bootstraps a room with its host as the only participant.
func (u *Usecase) CreateRoom(ctx context.Context, name string) (model.RoomSnapshot, error) {
	if strings.TrimSpace(name) == "" {
		name = "Host"
	}
	host := &model.Participant{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(name),
	}

	room, err := u.store.Create(host)
	if err != nil {
		return model.RoomSnapshot{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	room.Lock()
	defer room.Unlock()

	u.logger.Info("room created",
		slog.String("room", string(room.Code)),
		slog.String("host_id", host.ID))

	return room.Snapshot(), nil
}

// JoinRoom admits a new participant. Fails on unknown code, a locked
// room, or a full room; never mutates the room on failure.
func (u *Usecase) JoinRoom(ctx context.Context, code model.RoomCode, name string) (string, model.RoomSnapshot, error) {
	room, err := u.store.Get(code)
	if err != nil {
		return "", model.RoomSnapshot{}, ErrRoomNotFound
	}

	room.Lock()
	if room.Locked {
		room.Unlock()
		return "", model.RoomSnapshot{}, ErrRoomLocked
	}
	if len(room.Participants) >= MaxParticipants {
		room.Unlock()
		return "", model.RoomSnapshot{}, ErrRoomFull
	}

	participant := &model.Participant{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(name),
	}
	room.Participants = append(room.Participants, participant)

	joined := *participant
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventParticipantJoined, joined)
	u.hub.Broadcast(code, EventRoomUpdate, snap)

	u.logger.Info("participant joined",
		slog.String("room", string(code)),
		slog.String("participant_id", participant.ID))

	return participant.ID, snap, nil
}

// Room returns the current snapshot.
func (u *Usecase) Room(ctx context.Context, code model.RoomCode) (model.RoomSnapshot, error) {
	room, err := u.store.Get(code)
	if err != nil {
		return model.RoomSnapshot{}, ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()
	return room.Snapshot(), nil
}

// BindSocket records which live connection represents a participant.
// The admission step only reserves the id; the realtime bind happens here.
func (u *Usecase) BindSocket(ctx context.Context, code model.RoomCode, participantID, socketID string) error {
	room, err := u.store.Get(code)
	if err != nil {
		return ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	participant := room.Participant(participantID)
	if participant == nil {
		return ErrParticipantNotFound
	}
	participant.SocketID = socketID
	return nil
}

// StartPreferences is the host-only gate out of the lobby. Idempotent,
// silent no-op for anyone but the host.
func (u *Usecase) StartPreferences(ctx context.Context, code model.RoomCode, actorID string) {
	room, err := u.store.Get(code)
	if err != nil {
		return
	}

	room.Lock()
	if room.HostID != actorID {
		room.Unlock()
		return
	}
	room.PreferencesStarted = true
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventPreferencesStarted, nil)
	u.hub.Broadcast(code, EventRoomUpdate, snap)
}

// UpdatePreferences overwrites a participant's preference text. A stale
// client retrying after being kicked hits the silent no-op path; it must
// not crash the room.
func (u *Usecase) UpdatePreferences(ctx context.Context, code model.RoomCode, participantID, text string) {
	room, err := u.store.Get(code)
	if err != nil {
		return
	}

	room.Lock()
	participant := room.Participant(participantID)
	if participant == nil {
		room.Unlock()
		return
	}
	participant.Preferences = text
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventRoomUpdate, snap)
}

// SetReady flips a participant's readiness. The flip that makes everyone
// ready locks the room and triggers exactly one generation.
func (u *Usecase) SetReady(ctx context.Context, code model.RoomCode, participantID string, ready bool) {
	room, err := u.store.Get(code)
	if err != nil {
		return
	}

	room.Lock()
	participant := room.Participant(participantID)
	if participant == nil {
		room.Unlock()
		return
	}
	participant.IsReady = ready

	trigger := ready && !room.Locked && room.AllReady()
	if trigger {
		// Readiness is checked exactly once, here. Locked stays true
		// afterward even if someone un-readies in a stale client.
		room.Locked = true
		room.Generating = true
	}
	prefs, names := collectPreferences(room)
	exclude := append([]string(nil), room.RecommendationHistory...)
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventRoomUpdate, snap)
	if trigger {
		u.hub.Broadcast(code, EventGenerating, nil)
		go u.generate(code, generateRequest{
			preferences: prefs,
			names:       names,
			exclude:     exclude,
			kind:        generateInitial,
		})
	}
}

// KickParticipant removes a participant. Host-only, and the host cannot
// kick themselves.
func (u *Usecase) KickParticipant(ctx context.Context, code model.RoomCode, actorID, targetID string) {
	room, err := u.store.Get(code)
	if err != nil {
		return
	}

	room.Lock()
	if room.HostID != actorID || targetID == room.HostID {
		room.Unlock()
		return
	}
	if room.Participant(targetID) == nil {
		room.Unlock()
		return
	}
	room.Participants = lo.Reject(room.Participants, func(p *model.Participant, _ int) bool {
		return p.ID == targetID
	})
	delete(room.SwipeData, targetID)
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventParticipantKicked, targetID)
	u.hub.Broadcast(code, EventRoomUpdate, snap)

	u.logger.Info("participant kicked",
		slog.String("room", string(code)),
		slog.String("participant_id", targetID))
}

// Leave removes a participant gracefully or after a dropped connection;
// both paths are identical. The host leaving destroys the room.
func (u *Usecase) Leave(ctx context.Context, code model.RoomCode, participantID, reason string) {
	room, err := u.store.Get(code)
	if err != nil {
		return
	}

	room.Lock()
	participant := room.Participant(participantID)
	if participant == nil {
		room.Unlock()
		return
	}

	if room.HostID == participantID {
		room.Unlock()
		u.store.Delete(code)
		u.hub.Broadcast(code, EventRoomClosed, map[string]string{"reason": reason})
		u.logger.Info("room closed",
			slog.String("room", string(code)),
			slog.String("reason", reason))
		return
	}

	left := *participant
	room.Participants = lo.Reject(room.Participants, func(p *model.Participant, _ int) bool {
		return p.ID == participantID
	})
	delete(room.SwipeData, participantID)
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventParticipantLeft, map[string]string{
		"participantId": left.ID,
		"name":          left.Name,
	})
	u.hub.Broadcast(code, EventRoomUpdate, snap)

	u.logger.Info("participant left",
		slog.String("room", string(code)),
		slog.String("participant_id", participantID))
}

// UnbindSocket clears a participant's connection reference if it still
// points at the given socket. Never removes the participant.
func (u *Usecase) UnbindSocket(ctx context.Context, code model.RoomCode, participantID, socketID string) {
	room, err := u.store.Get(code)
	if err != nil {
		return
	}

	room.Lock()
	defer room.Unlock()

	participant := room.Participant(participantID)
	if participant != nil && participant.SocketID == socketID {
		participant.SocketID = ""
	}
}

func collectPreferences(room *model.Room) (prefs []string, names []string) {
	withText := lo.Filter(room.Participants, func(p *model.Participant, _ int) bool {
		return strings.TrimSpace(p.Preferences) != ""
	})
	prefs = lo.Map(withText, func(p *model.Participant, _ int) string { return p.Preferences })
	names = lo.Map(room.Participants, func(p *model.Participant, _ int) string { return p.Name })
	return prefs, names
}
