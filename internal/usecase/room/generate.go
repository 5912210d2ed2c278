package usecase_room

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/movieparty/core/internal/model"
)

type generateKind int

const (
	generateInitial generateKind = iota
	generateRegenerate
	generateReroll
)

type generateRequest struct {
	preferences []string
	names       []string
	exclude     []string
	kind        generateKind
	rerollIndex int
}

// Regenerate replaces the whole recommendation list. Host-only,
// capped at MaxRegenerates per room.
func (u *Usecase) Regenerate(ctx context.Context, code model.RoomCode, actorID string) error {
	room, err := u.store.Get(code)
	if err != nil {
		return ErrRoomNotFound
	}

	room.Lock()
	if room.HostID != actorID {
		room.Unlock()
		return nil
	}
	if room.Generating {
		room.Unlock()
		u.hub.Broadcast(code, EventRecommendationsError, "Recommendation generation already in progress")
		return ErrGenerationInFlight
	}
	if room.RegenerateCount >= MaxRegenerates {
		room.Unlock()
		u.hub.Broadcast(code, EventRecommendationsError, "Maximum regenerates reached")
		return ErrQuotaExceeded
	}
	room.Generating = true
	prefs, names := collectPreferences(room)
	exclude := append([]string(nil), room.RecommendationHistory...)
	room.Unlock()

	u.hub.Broadcast(code, EventGenerating, nil)
	go u.generate(code, generateRequest{
		preferences: prefs,
		names:       names,
		exclude:     exclude,
		kind:        generateRegenerate,
	})
	return nil
}

// RerollOne replaces a single recommendation. Host-only, capped at
// MaxRerolls per index; counters reset on a successful full regenerate.
func (u *Usecase) RerollOne(ctx context.Context, code model.RoomCode, actorID string, index int) error {
	room, err := u.store.Get(code)
	if err != nil {
		return ErrRoomNotFound
	}

	room.Lock()
	if room.HostID != actorID {
		room.Unlock()
		return nil
	}
	if index < 0 || index >= len(room.Recommendations) {
		room.Unlock()
		return nil
	}
	if room.Generating {
		room.Unlock()
		u.hub.Broadcast(code, EventRecommendationsError, "Recommendation generation already in progress")
		return ErrGenerationInFlight
	}
	if room.RerollCounts[index] >= MaxRerolls {
		room.Unlock()
		u.hub.Broadcast(code, EventRecommendationsError, "Maximum rerolls reached for this movie")
		return ErrQuotaExceeded
	}
	room.Generating = true
	prefs, names := collectPreferences(room)
	exclude := append([]string(nil), room.RecommendationHistory...)
	room.Unlock()

	go u.generate(code, generateRequest{
		preferences: prefs,
		names:       names,
		exclude:     exclude,
		kind:        generateReroll,
		rerollIndex: index,
	})
	return nil
}

// generate is the only suspension point in the command flow: the room's
// busy flag is held for its whole duration and cleared on every path.
// Runs on its own goroutine; the triggering command has already returned.
func (u *Usecase) generate(code model.RoomCode, req generateRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), u.generateTimeout)
	defer cancel()

	movies, err := u.provider.Generate(ctx, req.preferences, req.exclude, req.names)

	room, gerr := u.store.Get(code)
	if gerr != nil {
		// Room destroyed while the call was outstanding. Discard.
		u.logger.Info("discarding recommendations for closed room",
			slog.String("room", string(code)))
		return
	}

	room.Lock()
	room.Generating = false

	if err != nil || len(movies) == 0 {
		room.Unlock()
		u.logger.Error("recommendation generation failed",
			slog.String("room", string(code)),
			slog.Any("error", err))
		// The room stays locked; the host retries via regenerate,
		// bounded by quota.
		u.hub.Broadcast(code, EventRecommendationsError, failureMessage(req.kind))
		return
	}

	if req.kind == generateReroll {
		u.applyReroll(room, req, movies)
		return
	}

	if len(movies) > BatchSize {
		movies = movies[:BatchSize]
	}
	if req.kind == generateRegenerate {
		room.RegenerateCount++
	}
	room.Recommendations = movies
	room.RecommendationHistory = append(room.RecommendationHistory,
		lo.Map(movies, func(m model.Movie, _ int) string { return m.Title })...)
	room.RerollCounts = make(map[int]int)

	recs := append([]model.Movie(nil), room.Recommendations...)
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventRecommendationsReady, recs)
	u.hub.Broadcast(code, EventRoomUpdate, snap)

	u.logger.Info("recommendations ready",
		slog.String("room", string(code)),
		slog.Int("count", len(recs)))
}

// applyReroll substitutes one item. The replacement must be a title the
// room has never seen; the provider already excludes history, this guards
// against a provider that ignores the exclusion list.
// Called with the room lock held; releases it.
func (u *Usecase) applyReroll(room *model.Room, req generateRequest, movies []model.Movie) {
	code := room.Code

	if req.rerollIndex >= len(room.Recommendations) {
		// Recommendations were replaced underneath the reroll.
		room.Unlock()
		return
	}

	replacement, found := lo.Find(movies, func(m model.Movie) bool {
		return !lo.Contains(room.RecommendationHistory, m.Title)
	})
	if !found {
		room.Unlock()
		u.hub.Broadcast(code, EventRecommendationsError, "Unable to find a unique movie")
		return
	}

	// Immutable replace: clients never observe a half-updated list.
	next := append([]model.Movie(nil), room.Recommendations...)
	next[req.rerollIndex] = replacement
	room.Recommendations = next
	room.RecommendationHistory = append(room.RecommendationHistory, replacement.Title)
	room.RerollCounts[req.rerollIndex]++

	recs := append([]model.Movie(nil), room.Recommendations...)
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventRecommendationsReady, recs)
	u.hub.Broadcast(code, EventRoomUpdate, snap)

	u.logger.Info("recommendation rerolled",
		slog.String("room", string(code)),
		slog.Int("index", req.rerollIndex),
		slog.String("title", replacement.Title))
}

func failureMessage(kind generateKind) string {
	switch kind {
	case generateRegenerate:
		return "Failed to regenerate recommendations"
	case generateReroll:
		return "Failed to reroll movie"
	default:
		return "Failed to generate recommendations"
	}
}
