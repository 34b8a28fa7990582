package models

import "time"

// ChatRoom is a named, described chat channel container. UpdatedAt is the
// activity signal: it is touched on every message send and drives the
// inactive-room cleanup sweep.
type ChatRoom struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RoomSummary is the directory view of a room: the room plus the creation
// time of its most recent message, when one exists.
type RoomSummary struct {
	ChatRoom
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}

// LastActivity is the activity timestamp used for directory annotations.
func (s RoomSummary) LastActivity() time.Time {
	if s.LastMessageAt != nil && s.LastMessageAt.After(s.UpdatedAt) {
		return *s.LastMessageAt
	}
	return s.UpdatedAt
}
