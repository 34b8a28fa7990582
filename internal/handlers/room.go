package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"room-service/internal/cleanup"
	"room-service/internal/models"
	"room-service/internal/notifier"
	"room-service/internal/repositories"
	"room-service/internal/telemetry"
	"room-service/internal/ws"
)

// RoomHandler manages room directory endpoints.
type RoomHandler struct {
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	notifier    notifier.Notifier
	hub         *ws.Hub
	emitter     *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(roomRepo repositories.RoomRepository, messageRepo repositories.MessageRepository, n notifier.Notifier, hub *ws.Hub, emitter *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		notifier:    n,
		hub:         hub,
		emitter:     emitter,
	}
}

// ListRooms returns the room directory annotated with last activity and the
// time remaining before each room expires.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomRepo.ListRooms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	type roomResponse struct {
		ID           string    `json:"id"`
		Title        string    `json:"title"`
		Description  string    `json:"description"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
		LastActivity time.Time `json:"last_activity"`
		ExpiresIn    string    `json:"expires_in"`
	}

	now := time.Now()
	responses := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		responses = append(responses, roomResponse{
			ID:           room.ID,
			Title:        room.Title,
			Description:  room.Description,
			CreatedAt:    room.CreatedAt,
			UpdatedAt:    room.UpdatedAt,
			LastActivity: room.LastActivity(),
			ExpiresIn:    cleanup.ExpiryCountdown(room.UpdatedAt, now),
		})
	}

	c.JSON(http.StatusOK, gin.H{"rooms": responses})
}

// CreateRoom stores a new room.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomRepo.CreateRoom(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	c.JSON(http.StatusCreated, room)
}

// GetRoom returns room metadata.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := c.Param("room_id")

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// DeleteRoom removes a room and its messages (moderators only; the role
// gate sits in middleware). Messages go first so a failure mid-way leaves
// an orphaned room, not orphaned messages.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID := c.Param("room_id")

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}

	msgs, err := h.messageRepo.ListRoomMessages(c.Request.Context(), roomID, repositories.CleanupMessagePageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room messages"})
		return
	}
	for _, msg := range msgs {
		if err := h.messageRepo.DeleteMessage(c.Request.Context(), msg.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete room messages"})
			return
		}
		if err := h.notifier.Publish(c.Request.Context(), models.ChangeEvent{
			Collection: "messages",
			Event:      models.ChangeDeleted,
			ChatRoomID: roomID,
			DocumentID: msg.ID,
			OccurredAt: time.Now(),
		}); err != nil {
			log.Printf("change notification publish failed message=%s: %v", msg.ID, err)
		}
	}

	if err := h.roomRepo.DeleteRoom(c.Request.Context(), roomID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete room"})
		return
	}

	h.hub.BroadcastRoomDeleted(roomID)
	h.emitter.Emit(c.Request.Context(), "INFO", "room deleted by moderator: "+room.Title,
		requestIDFromContext(c), userIDFromContext(c))

	c.Status(http.StatusNoContent)
}
