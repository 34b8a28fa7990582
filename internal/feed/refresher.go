package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"room-service/internal/models"
	"room-service/internal/notifier"
	"room-service/internal/observability"
	"room-service/internal/repositories"
)

// DefaultDebounce is the window in which change events for one room are
// collapsed into a single re-fetch.
const DefaultDebounce = 200 * time.Millisecond

// Broadcaster is the hub surface the refresher pushes snapshots through.
type Broadcaster interface {
	HasClients(roomID string) bool
	BroadcastSnapshot(roomID string, msgs []models.Message)
}

// Refresher keeps per-room message views live. It consumes the
// change-notification channel, filters events by room id (the channel
// carries every document event; scoping is a field-equality test here),
// debounces bursts, and re-runs the full first-page fetch. The re-fetched
// page is pushed as a snapshot; there is no incremental merge.
type Refresher struct {
	notifier    notifier.Notifier
	messageRepo repositories.MessageRepository
	broadcaster Broadcaster
	debounce    time.Duration

	group  singleflight.Group
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewRefresher constructs a Refresher with the default debounce window.
func NewRefresher(n notifier.Notifier, messageRepo repositories.MessageRepository, broadcaster Broadcaster) *Refresher {
	return &Refresher{
		notifier:    n,
		messageRepo: messageRepo,
		broadcaster: broadcaster,
		debounce:    DefaultDebounce,
		timers:      make(map[string]*time.Timer),
	}
}

// SetDebounce overrides the debounce window. Zero disables debouncing.
func (r *Refresher) SetDebounce(d time.Duration) {
	r.debounce = d
}

// Run subscribes to the change channel and consumes events until ctx is
// done. The subscription's disposer is released on exit. Failures inside a
// refresh are logged and counted, never propagated.
func (r *Refresher) Run(ctx context.Context) error {
	events, dispose, err := r.notifier.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer dispose()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			r.handleEvent(ctx, event)
		}
	}
}

func (r *Refresher) handleEvent(ctx context.Context, event models.ChangeEvent) {
	if event.Collection != "messages" || event.ChatRoomID == "" {
		return
	}
	roomID := event.ChatRoomID
	if !r.broadcaster.HasClients(roomID) {
		return
	}

	if r.debounce <= 0 {
		r.Refresh(ctx, roomID)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if timer, ok := r.timers[roomID]; ok {
		timer.Reset(r.debounce)
		return
	}
	r.timers[roomID] = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		delete(r.timers, roomID)
		r.mu.Unlock()
		r.Refresh(ctx, roomID)
	})
}

// Refresh re-fetches the room's first page and broadcasts it. Concurrent
// refreshes of the same room are collapsed into one fetch.
func (r *Refresher) Refresh(ctx context.Context, roomID string) {
	_, err, _ := r.group.Do(roomID, func() (interface{}, error) {
		msgs, err := r.messageRepo.ListRoomMessages(ctx, roomID, repositories.MessagePageSize)
		if err != nil {
			return nil, err
		}
		r.broadcaster.BroadcastSnapshot(roomID, msgs)
		return nil, nil
	})
	if err != nil {
		log.Printf("feed refresh failed room=%s: %v", roomID, err)
		observability.IncFeedRefresh("error")
		return
	}
	observability.IncFeedRefresh("ok")
}
