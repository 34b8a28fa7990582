package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"room-service/internal/models"
)

// RedisNotifier implements Notifier on Redis pub/sub.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier connects to Redis and verifies the connection.
func NewRedisNotifier(addr, password string, db int) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RedisNotifier{client: client}, nil
}

// Publish marshals the event and publishes it on the messages channel.
func (n *RedisNotifier) Publish(ctx context.Context, event models.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return n.client.Publish(ctx, MessagesChannel, payload).Err()
}

// Subscribe opens a subscription on the messages channel. The returned
// disposer closes the subscription; the event channel is closed after it.
func (n *RedisNotifier) Subscribe(ctx context.Context) (<-chan models.ChangeEvent, func(), error) {
	sub := n.client.Subscribe(ctx, MessagesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", MessagesChannel, err)
	}

	events := make(chan models.ChangeEvent, 64)
	go func() {
		defer close(events)
		for msg := range sub.Channel() {
			var event models.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("notifier: dropping malformed event: %v", err)
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	dispose := func() {
		_ = sub.Close()
	}
	return events, dispose, nil
}

// Close releases the Redis client.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
