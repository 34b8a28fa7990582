package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"room-service/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomPageSize caps how many rooms a single listing returns.
const RoomPageSize = 100

// RoomRepository abstracts chat room persistence.
type RoomRepository interface {
	CreateRoom(ctx context.Context, title, description string) (models.ChatRoom, error)
	GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error)
	ListRooms(ctx context.Context) ([]models.RoomSummary, error)
	ListRoomsUpdatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ChatRoom, error)
	TouchRoom(ctx context.Context, roomID string, at time.Time) error
	DeleteRoom(ctx context.Context, roomID string) error
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// CreateRoom stores a new room with a service-assigned id.
func (r *RoomRepo) CreateRoom(ctx context.Context, title, description string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chatrooms (id, title, description) VALUES ($1, $2, $3)
         RETURNING id, title, description, created_at, updated_at`,
		uuid.NewString(), title, description).
		Scan(&room.ID, &room.Title, &room.Description, &room.CreatedAt, &room.UpdatedAt)
	return room, err
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`SELECT id, title, description, created_at, updated_at FROM chatrooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrRoomNotFound
	}
	return room, err
}

// ListRooms returns the directory view: rooms newest-activity first, each
// annotated with the creation time of its latest message.
func (r *RoomRepo) ListRooms(ctx context.Context) ([]models.RoomSummary, error) {
	query := `SELECT c.id, c.title, c.description, c.created_at, c.updated_at,
            (SELECT MAX(m.created_at) FROM messages m WHERE m.chat_room_id = c.id) AS last_message_at
        FROM chatrooms c
        ORDER BY c.updated_at DESC
        LIMIT $1`
	var rooms []models.RoomSummary
	err := r.db.SelectContext(ctx, &rooms, query, RoomPageSize)
	return rooms, err
}

// ListRoomsUpdatedBefore returns rooms whose updated_at is strictly older
// than cutoff, up to limit. This is the staleness query of the cleanup sweep.
func (r *RoomRepo) ListRoomsUpdatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT id, title, description, created_at, updated_at FROM chatrooms
         WHERE updated_at < $1 ORDER BY updated_at ASC LIMIT $2`, cutoff, limit)
	return rooms, err
}

// TouchRoom bumps the room's activity timestamp.
func (r *RoomRepo) TouchRoom(ctx context.Context, roomID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chatrooms SET updated_at=$2 WHERE id=$1`, roomID, at)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes the room document. Messages are not cascaded here; the
// caller deletes them first so an interrupted delete leaves an orphaned room
// rather than orphaned messages.
func (r *RoomRepo) DeleteRoom(ctx context.Context, roomID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chatrooms WHERE id=$1`, roomID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRoomNotFound
	}
	return nil
}
