package usecase_room

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/movieparty/core/internal/model"
)

// SwipeLike records one liked index for a participant. No broadcast:
// the tally only matters at aggregation time.
func (u *Usecase) SwipeLike(ctx context.Context, code model.RoomCode, participantID string, index int) {
	room, err := u.store.Get(code)
	if err != nil {
		return
	}

	room.Lock()
	defer room.Unlock()

	if room.Participant(participantID) == nil {
		return
	}
	if index < 0 || index >= len(room.Recommendations) {
		return
	}
	if !lo.Contains(room.SwipeData[participantID], index) {
		room.SwipeData[participantID] = append(room.SwipeData[participantID], index)
	}
}

// SwipeComplete marks a participant done with the deck. The last one to
// finish flips the room into swipe-results for everyone.
func (u *Usecase) SwipeComplete(ctx context.Context, code model.RoomCode, participantID string) {
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
	participant.SwipesCompleted = true

	allDone := room.AllSwiped()
	var results []model.MatchResult
	if allDone {
		results = aggregateMatches(room)
	}
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventRoomUpdate, snap)
	if allDone {
		u.hub.Broadcast(code, EventAllSwipesComplete, results)
		u.logger.Info("all swipes complete",
			slog.String("room", string(code)),
			slog.Int("matches", len(results)))
	}
}

// SkipToResults is the host override that forces swipe-results
// regardless of who is still swiping.
func (u *Usecase) SkipToResults(ctx context.Context, code model.RoomCode, actorID string) {
	room, err := u.store.Get(code)
	if err != nil {
		return
	}

	room.Lock()
	if room.HostID != actorID {
		room.Unlock()
		return
	}
	room.SwipeSkipped = true
	results := aggregateMatches(room)
	snap := room.Snapshot()
	room.Unlock()

	u.hub.Broadcast(code, EventAllSwipesComplete, results)
	u.hub.Broadcast(code, EventRoomUpdate, snap)
}

// SwipeResults returns the current aggregation without changing state.
func (u *Usecase) SwipeResults(ctx context.Context, code model.RoomCode) ([]model.MatchResult, error) {
	room, err := u.store.Get(code)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()
	return aggregateMatches(room), nil
}

// aggregateMatches counts, per recommendation index, the distinct current
// participants who liked it. An item matches at MatchThreshold likes.
// Matched items are sorted by descending like count, ties kept in
// original recommendation order. Caller must hold the room lock.
func aggregateMatches(room *model.Room) []model.MatchResult {
	likes := make(map[int]int)
	likedBy := make(map[int][]string)

	// Walk participants in join order so likedBy lists are stable.
	for _, p := range room.Participants {
		for _, index := range room.SwipeData[p.ID] {
			likes[index]++
			likedBy[index] = append(likedBy[index], p.Name)
		}
	}

	total := len(room.Participants)
	matched := make([]model.MatchResult, 0, len(likes))
	for index, m := range room.Recommendations {
		count := likes[index]
		if count < MatchThreshold {
			continue
		}
		matched = append(matched, model.MatchResult{
			Movie:      m,
			Likes:      count,
			LikedBy:    likedBy[index],
			Percentage: int(math.Round(float64(count) / float64(total) * 100)),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Likes > matched[j].Likes
	})
	return matched
}
