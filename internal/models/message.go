package models

import "time"

// Message is a single authored text entry belonging to one room. Messages
// are immutable once created, except for deletion.
type Message struct {
	ID          string    `db:"id" json:"id"`
	ChatRoomID  string    `db:"chat_room_id" json:"chat_room_id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	SenderName  string    `db:"sender_name" json:"sender_name"`
	SenderPhoto string    `db:"sender_photo" json:"sender_photo"`
	SenderEmail *string   `db:"sender_email" json:"sender_email,omitempty"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RoomEvent is broadcast through websockets to clients of a room.
type RoomEvent struct {
	Type      string    `json:"type"`
	Message   *Message  `json:"message,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
}
