package http_room

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	http_common "github.com/movieparty/core/internal/delivery/http/common"
	"github.com/movieparty/core/internal/model"
	usecase_room "github.com/movieparty/core/internal/usecase/room"
)

type Controller struct {
	uc *usecase_room.Usecase

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_room.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:     uc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/create-room", c.createRoom)
	router.POST("/join-room", c.joinRoom)

	room := router.Group("/room/:code")
	room.GET("", c.getRoom)
	room.GET("/qr", c.joinQR)
}

type CreateRoomRequestDTO struct {
	Name string `json:"name"`
}

type CreateRoomResponseDTO struct {
	RoomCode model.RoomCode `json:"roomCode"`
	HostID   string         `json:"hostId"`
}

func (c *Controller) createRoom(ctx *gin.Context) {
	var req CreateRoomRequestDTO
	// Body is optional; an anonymous host is fine.
	_ = ctx.ShouldBindJSON(&req)

	snap, err := c.uc.CreateRoom(ctx.Request.Context(), req.Name)
	if err != nil {
		c.logger.Error("failed to create room", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, CreateRoomResponseDTO{
		RoomCode: snap.Code,
		HostID:   snap.Host,
	})
}

type JoinRoomRequestDTO struct {
	RoomCode string `json:"roomCode" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type JoinRoomResponseDTO struct {
	ParticipantID string             `json:"participantId"`
	Room          model.RoomSnapshot `json:"room"`
}

func (c *Controller) joinRoom(ctx *gin.Context) {
	var req JoinRoomRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	code := normalizeCode(req.RoomCode)
	participantID, snap, err := c.uc.JoinRoom(ctx.Request.Context(), code, req.Name)
	if err != nil {
		c.logger.Info("join rejected",
			slog.String("room", string(code)),
			slog.String("error", err.Error()))
		switch {
		case errors.Is(err, usecase_room.ErrRoomNotFound):
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "Room not found",
			})
		case errors.Is(err, usecase_room.ErrRoomLocked):
			ctx.JSON(http.StatusForbidden, http_common.ErrorResponse{
				Message: "Room is locked",
			})
		case errors.Is(err, usecase_room.ErrRoomFull):
			ctx.JSON(http.StatusForbidden, http_common.ErrorResponse{
				Message: "Room is full",
			})
		default:
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
				Message: "internal error",
			})
		}
		return
	}

	ctx.JSON(http.StatusOK, JoinRoomResponseDTO{
		ParticipantID: participantID,
		Room:          snap,
	})
}

// Codes are case-insensitive on every inbound surface.
func normalizeCode(raw string) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

func (c *Controller) getRoom(ctx *gin.Context) {
	code := normalizeCode(ctx.Param("code"))

	snap, err := c.uc.Room(ctx.Request.Context(), code)
	if err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "Room not found",
		})
		return
	}

	ctx.JSON(http.StatusOK, snap)
}

const qrSize = 320

// joinQR renders the join link for a room as a PNG QR code, so the host
// can put their phone screen in front of the group instead of spelling
// the code out.
func (c *Controller) joinQR(ctx *gin.Context) {
	code := normalizeCode(ctx.Param("code"))

	if _, err := c.uc.Room(ctx.Request.Context(), code); err != nil {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "Room not found",
		})
		return
	}

	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if proto := ctx.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	joinURL := scheme + "://" + ctx.Request.Host + "/join/" + string(code)

	png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
	if err != nil {
		c.logger.Error("failed to encode qr",
			slog.String("room", string(code)),
			slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}
