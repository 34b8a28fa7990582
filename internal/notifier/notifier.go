package notifier

import (
	"context"

	"room-service/internal/models"
)

// MessagesChannel is the named resource path carrying document-change events
// for the messages collection. All subscribers receive all events on it;
// room scoping happens at the consumer.
const MessagesChannel = "collections.messages.documents"

// Notifier is the change-notification channel: publish a document-change
// event, or subscribe to the full stream. Subscribe returns a receive
// channel and a disposer releasing the subscription.
type Notifier interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
	Subscribe(ctx context.Context) (<-chan models.ChangeEvent, func(), error)
	Close() error
}
