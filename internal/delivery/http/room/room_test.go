package http_room

import (
	"bytes"
	"encoding/json"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movieparty/core/internal/model"
	"github.com/movieparty/core/internal/service/recommender"
	storage_room "github.com/movieparty/core/internal/storage/room"
	usecase_room "github.com/movieparty/core/internal/usecase/room"
)

type noopHub struct{}

func (noopHub) Broadcast(code model.RoomCode, event string, payload any) {}

func newTestRouter() (*gin.Engine, *usecase_room.Usecase) {
	gin.SetMode(gin.TestMode)

	uc := usecase_room.New(storage_room.New(), recommender.NewStatic(), noopHub{})
	controller := New(uc)

	engine := gin.New()
	controller.RegisterRoutes(engine.Group(""))
	return engine, uc
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func createTestRoom(t *testing.T, engine *gin.Engine) CreateRoomResponseDTO {
	t.Helper()

	rec := doJSON(t, engine, http.MethodPost, "/create-room", CreateRoomRequestDTO{Name: "Alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CreateRoomResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateRoom(t *testing.T) {
	engine, _ := newTestRouter()

	resp := createTestRoom(t, engine)
	assert.Len(t, resp.RoomCode, 6)
	assert.NotEmpty(t, resp.HostID)
}

func TestCreateRoomWithoutBody(t *testing.T) {
	engine, _ := newTestRouter()

	rec := doJSON(t, engine, http.MethodPost, "/create-room", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CreateRoomResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.HostID)
}

func TestJoinRoom(t *testing.T) {
	engine, _ := newTestRouter()
	created := createTestRoom(t, engine)

	// Codes are case-insensitive on the way in.
	rec := doJSON(t, engine, http.MethodPost, "/join-room", JoinRoomRequestDTO{
		RoomCode: strings.ToLower(string(created.RoomCode)),
		Name:     "Bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp JoinRoomResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ParticipantID)
	assert.Len(t, resp.Room.Participants, 2)
	assert.Equal(t, created.RoomCode, resp.Room.Code)
}

func TestJoinRoomErrors(t *testing.T) {
	engine, uc := newTestRouter()
	created := createTestRoom(t, engine)

	t.Run("unknown room", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/join-room", JoinRoomRequestDTO{
			RoomCode: "ZZZZZZ",
			Name:     "Bob",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Room not found")
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/join-room", map[string]string{"roomCode": string(created.RoomCode)})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("full room", func(t *testing.T) {
		for i := 2; i <= usecase_room.MaxParticipants; i++ {
			rec := doJSON(t, engine, http.MethodPost, "/join-room", JoinRoomRequestDTO{
				RoomCode: string(created.RoomCode),
				Name:     fmt.Sprintf("Guest %d", i),
			})
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := doJSON(t, engine, http.MethodPost, "/join-room", JoinRoomRequestDTO{
			RoomCode: string(created.RoomCode),
			Name:     "One Too Many",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Room is full")
	})

	t.Run("locked room", func(t *testing.T) {
		locked := createTestRoom(t, engine)
		_, _, err := uc.JoinRoom(context.Background(), locked.RoomCode, "Bob")
		require.NoError(t, err)

		// Lock through readiness of both participants.
		snapshot, err := uc.Room(context.Background(), locked.RoomCode)
		require.NoError(t, err)
		for _, p := range snapshot.Participants {
			uc.SetReady(context.Background(), locked.RoomCode, p.ID, true)
		}

		rec := doJSON(t, engine, http.MethodPost, "/join-room", JoinRoomRequestDTO{
			RoomCode: string(locked.RoomCode),
			Name:     "Latecomer",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Room is locked")
	})
}

func TestGetRoom(t *testing.T) {
	engine, _ := newTestRouter()
	created := createTestRoom(t, engine)

	rec := doJSON(t, engine, http.MethodGet, "/room/"+string(created.RoomCode), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap model.RoomSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, created.RoomCode, snap.Code)
	assert.Equal(t, model.PhaseLobby, snap.Phase)

	// The path param is normalized just like the join body.
	rec = doJSON(t, engine, http.MethodGet, "/room/"+strings.ToLower(string(created.RoomCode)), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/room/ZZZZZZ", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinQR(t *testing.T) {
	engine, _ := newTestRouter()
	created := createTestRoom(t, engine)

	rec := doJSON(t, engine, http.MethodGet, "/room/"+string(created.RoomCode)+"/qr", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = doJSON(t, engine, http.MethodGet, "/room/"+strings.ToLower(string(created.RoomCode))+"/qr", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/room/ZZZZZZ/qr", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
