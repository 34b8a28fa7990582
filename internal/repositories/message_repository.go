package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"room-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const (
	// MessagePageSize is the fixed first-page cap of the message feed.
	// Ordering is ascending, so rooms past the cap show their oldest
	// MessagePageSize messages.
	MessagePageSize = 100

	// CleanupMessagePageSize caps how many messages a sweep loads per room.
	CleanupMessagePageSize = 1000
)

// NewMessage carries the fields of a message to be created.
type NewMessage struct {
	ChatRoomID  string
	SenderID    string
	SenderName  string
	SenderPhoto string
	SenderEmail *string
	Content     string
}

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg NewMessage) (models.Message, error)
	ListRoomMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message with a service-assigned id.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg NewMessage) (models.Message, error) {
	var stored models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, chat_room_id, sender_id, sender_name, sender_photo, sender_email, content)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, chat_room_id, sender_id, sender_name, sender_photo, sender_email, content, created_at`,
		uuid.NewString(), msg.ChatRoomID, msg.SenderID, msg.SenderName, msg.SenderPhoto, msg.SenderEmail, msg.Content).
		Scan(&stored.ID, &stored.ChatRoomID, &stored.SenderID, &stored.SenderName,
			&stored.SenderPhoto, &stored.SenderEmail, &stored.Content, &stored.CreatedAt)
	return stored, err
}

// ListRoomMessages returns up to limit messages of a room, ascending by
// creation time.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, chat_room_id, sender_id, sender_name, sender_photo, sender_email, content, created_at
         FROM messages WHERE chat_room_id=$1 ORDER BY created_at ASC LIMIT $2`, roomID, limit)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, chat_room_id, sender_id, sender_name, sender_photo, sender_email, content, created_at
         FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// DeleteMessage permanently removes a message.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
