package model

import (
	"sync"

	"github.com/samber/lo"
)

type RoomCode string

const EmptyRoomCode RoomCode = ""

// Phase is derived from room fields on every read, never stored.
// Keeping it computed is deliberate: a stored phase and the data it is
// supposed to reflect can disagree, and that disagreement is the bug class
// this design exists to remove.
type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhasePreferences  Phase = "preferences"
	PhaseWaiting      Phase = "waiting"
	PhaseGenerating   Phase = "generating"
	PhaseResults      Phase = "results"
	PhaseSwipeResults Phase = "swipe-results"
)

type Participant struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IsReady         bool   `json:"isReady"`
	Preferences     string `json:"preferences"`
	SwipesCompleted bool   `json:"swipesCompleted"`

	// SocketID is a weak reference to the live connection currently bound
	// to this participant. Lookup aid only: room and participant lifetime
	// is governed by explicit commands, never by this field.
	SocketID string `json:"socketId,omitempty"`
}

// Room is one party. All fields are guarded by the embedded mutex;
// commands for the same room are serialized by locking it for their
// whole synchronous span.
type Room struct {
	mu sync.Mutex

	Code               RoomCode
	HostID             string
	Participants       []*Participant
	Locked             bool
	PreferencesStarted bool

	// Generating is the busy flag for an outstanding provider call.
	// Checked-and-set under the lock so overlapping generate, regenerate
	// and reroll requests are rejected instead of racing.
	Generating bool

	Recommendations       []Movie
	RecommendationHistory []string
	RegenerateCount       int
	RerollCounts          map[int]int

	// SwipeData maps participant id to the indices of liked
	// recommendations. Kept room-level because that is the shape the
	// client consumes and aggregation reads.
	SwipeData    map[string][]int
	SwipeSkipped bool
}

func NewRoom(code RoomCode, host *Participant) *Room {
	return &Room{
		Code:         code,
		HostID:       host.ID,
		Participants: []*Participant{host},
		RerollCounts: make(map[int]int),
		SwipeData:    make(map[string][]int),
	}
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// Participant returns the participant with the given id, or nil.
// Caller must hold the room lock.
func (r *Room) Participant(id string) *Participant {
	p, _ := lo.Find(r.Participants, func(p *Participant) bool {
		return p.ID == id
	})
	return p
}

func (r *Room) AllReady() bool {
	return len(r.Participants) > 0 &&
		lo.EveryBy(r.Participants, func(p *Participant) bool { return p.IsReady })
}

func (r *Room) AllSwiped() bool {
	return len(r.Participants) > 0 &&
		lo.EveryBy(r.Participants, func(p *Participant) bool { return p.SwipesCompleted })
}

// Phase computes the current phase. Priority order, highest first:
// swipe-results > results > generating > waiting > preferences > lobby.
// Caller must hold the room lock.
func (r *Room) Phase() Phase {
	switch {
	case len(r.Recommendations) > 0 && (r.SwipeSkipped || r.AllSwiped()):
		return PhaseSwipeResults
	case len(r.Recommendations) > 0:
		return PhaseResults
	case r.Generating || r.Locked:
		return PhaseGenerating
	case r.AllReady():
		return PhaseWaiting
	case r.PreferencesStarted:
		return PhasePreferences
	default:
		return PhaseLobby
	}
}

// RoomSnapshot is the full-room DTO every room-update broadcast carries.
type RoomSnapshot struct {
	Code                  RoomCode         `json:"code"`
	Host                  string           `json:"host"`
	Participants          []Participant    `json:"participants"`
	Locked                bool             `json:"locked"`
	PreferencesStarted    bool             `json:"preferencesStarted"`
	Phase                 Phase            `json:"phase"`
	Recommendations       []Movie          `json:"recommendations"`
	RecommendationHistory []string         `json:"recommendationHistory"`
	RegenerateCount       int              `json:"regenerateCount"`
	RerollCounts          map[int]int      `json:"rerollCounts"`
	SwipeData             map[string][]int `json:"swipeData"`
}

// Snapshot copies the room into a broadcast-safe DTO.
// Caller must hold the room lock.
func (r *Room) Snapshot() RoomSnapshot {
	return RoomSnapshot{
		Code: r.Code,
		Host: r.HostID,
		Participants: lo.Map(r.Participants, func(p *Participant, _ int) Participant {
			return *p
		}),
		Locked:                r.Locked,
		PreferencesStarted:    r.PreferencesStarted,
		Phase:                 r.Phase(),
		Recommendations:       append([]Movie(nil), r.Recommendations...),
		RecommendationHistory: append([]string(nil), r.RecommendationHistory...),
		RegenerateCount:       r.RegenerateCount,
		RerollCounts:          lo.Assign(map[int]int{}, r.RerollCounts),
		SwipeData: lo.MapValues(r.SwipeData, func(v []int, _ string) []int {
			return append([]int(nil), v...)
		}),
	}
}
