package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"room-service/internal/middleware"
	"room-service/internal/models"
	"room-service/internal/notifier"
	"room-service/internal/repositories"
	"room-service/internal/ws"
)

// MessageHandler manages the per-room message feed.
type MessageHandler struct {
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	notifier    notifier.Notifier
	hub         *ws.Hub
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(roomRepo repositories.RoomRepository, messageRepo repositories.MessageRepository, n notifier.Notifier, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		notifier:    n,
		hub:         hub,
	}
}

// ListMessages returns the first page of a room's messages, ascending by
// creation time. There is no pagination past the first page.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	roomID := c.Param("room_id")

	if _, err := h.roomRepo.GetRoom(c.Request.Context(), roomID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}

	msgs, err := h.messageRepo.ListRoomMessages(c.Request.Context(), roomID, repositories.MessagePageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message, bumps the room's activity timestamp,
// publishes a change notification, and broadcasts to the room. Whitespace-
// only content is rejected before any write.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	roomID := c.Param("room_id")

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
		return
	}

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}

	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	newMsg := repositories.NewMessage{
		ChatRoomID:  room.ID,
		SenderID:    user.ID,
		SenderName:  user.Name,
		SenderPhoto: user.AvatarURL,
		Content:     req.Content,
	}
	if email := user.PrimaryEmail(); email != "" {
		newMsg.SenderEmail = &email
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), newMsg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	// Touch-on-send keeps the room out of the cleanup sweep's reach. The
	// message is already stored; a failed touch is logged and swallowed.
	if err := h.roomRepo.TouchRoom(c.Request.Context(), room.ID, time.Now()); err != nil {
		log.Printf("failed to touch room id=%s: %v", room.ID, err)
	}

	if err := h.notifier.Publish(c.Request.Context(), models.ChangeEvent{
		Collection: "messages",
		Event:      models.ChangeCreated,
		ChatRoomID: room.ID,
		DocumentID: msg.ID,
		OccurredAt: time.Now(),
		Message:    &msg,
	}); err != nil {
		log.Printf("change notification publish failed message=%s: %v", msg.ID, err)
	}

	h.hub.BroadcastMessage(room.ID, msg)
	c.JSON(http.StatusCreated, msg)
}

// DeleteMessage permanently removes a single message (moderators only; the
// role gate sits in middleware).
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	roomID := c.Param("room_id")
	messageID := c.Param("message_id")

	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.ChatRoomID != roomID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message does not belong to room"})
		return
	}

	if err := h.messageRepo.DeleteMessage(c.Request.Context(), messageID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	if err := h.notifier.Publish(c.Request.Context(), models.ChangeEvent{
		Collection: "messages",
		Event:      models.ChangeDeleted,
		ChatRoomID: roomID,
		DocumentID: messageID,
		OccurredAt: time.Now(),
	}); err != nil {
		log.Printf("change notification publish failed message=%s: %v", messageID, err)
	}

	h.hub.BroadcastDeletion(roomID, messageID)
	c.Status(http.StatusNoContent)
}
