package models

import "time"

// Change event kinds carried on the notification channel.
const (
	ChangeCreated = "create"
	ChangeDeleted = "delete"
)

// ChangeEvent is a document-change notification pushed on the messages
// channel. Every subscriber receives every event; scoping to a room is a
// field-equality test on ChatRoomID at the consumer.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Event      string    `json:"event"`
	ChatRoomID string    `json:"chat_room_id"`
	DocumentID string    `json:"document_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Message    *Message  `json:"message,omitempty"`
}
