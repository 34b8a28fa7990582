package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"room-service/internal/mocks"
	"room-service/internal/models"
	"room-service/internal/notifier"
	"room-service/internal/repositories"
)

type stubBroadcaster struct {
	mu        sync.Mutex
	clients   map[string]bool
	snapshots map[string][][]models.Message
}

func newStubBroadcaster(openRooms ...string) *stubBroadcaster {
	clients := make(map[string]bool, len(openRooms))
	for _, id := range openRooms {
		clients[id] = true
	}
	return &stubBroadcaster{clients: clients, snapshots: make(map[string][][]models.Message)}
}

func (s *stubBroadcaster) HasClients(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients[roomID]
}

func (s *stubBroadcaster) BroadcastSnapshot(roomID string, msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[roomID] = append(s.snapshots[roomID], msgs)
}

func (s *stubBroadcaster) snapshotCount(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots[roomID])
}

func createEvent(roomID string) models.ChangeEvent {
	return models.ChangeEvent{
		Collection: "messages",
		Event:      models.ChangeCreated,
		ChatRoomID: roomID,
		OccurredAt: time.Now(),
	}
}

func TestRefresherCollapsesBurstIntoOneFetch(t *testing.T) {
	memNotifier := notifier.NewMemoryNotifier()
	defer memNotifier.Close()
	messageRepo := new(mocks.MessageRepositoryMock)
	broadcaster := newStubBroadcaster("r1")

	page := []models.Message{{ID: "m1", ChatRoomID: "r1"}, {ID: "m2", ChatRoomID: "r1"}}
	messageRepo.On("ListRoomMessages", mock.Anything, "r1", repositories.MessagePageSize).
		Return(page, nil).Once()

	refresher := NewRefresher(memNotifier, messageRepo, broadcaster)
	refresher.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)

	// Three events inside one debounce window collapse into one re-fetch.
	for i := 0; i < 3; i++ {
		require.NoError(t, memNotifier.Publish(ctx, createEvent("r1")))
	}

	require.Eventually(t, func() bool {
		return broadcaster.snapshotCount("r1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, broadcaster.snapshotCount("r1"))
	messageRepo.AssertExpectations(t)
}

func TestRefresherFiltersEventsByRoom(t *testing.T) {
	memNotifier := notifier.NewMemoryNotifier()
	defer memNotifier.Close()
	messageRepo := new(mocks.MessageRepositoryMock)
	broadcaster := newStubBroadcaster("r2")

	messageRepo.On("ListRoomMessages", mock.Anything, "r2", repositories.MessagePageSize).
		Return([]models.Message{{ID: "m1", ChatRoomID: "r2"}}, nil).Once()

	refresher := NewRefresher(memNotifier, messageRepo, broadcaster)
	refresher.SetDebounce(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)

	// Events from other collections or without a room id are dropped before
	// any fetch.
	require.NoError(t, memNotifier.Publish(ctx, models.ChangeEvent{Collection: "rooms", Event: models.ChangeDeleted, ChatRoomID: "r2"}))
	require.NoError(t, memNotifier.Publish(ctx, models.ChangeEvent{Collection: "messages", Event: models.ChangeCreated}))
	require.NoError(t, memNotifier.Publish(ctx, createEvent("r2")))

	require.Eventually(t, func() bool {
		return broadcaster.snapshotCount("r2") == 1
	}, 2*time.Second, 10*time.Millisecond)
	messageRepo.AssertExpectations(t)
}

func TestRefresherSkipsRoomsWithoutClients(t *testing.T) {
	memNotifier := notifier.NewMemoryNotifier()
	defer memNotifier.Close()
	messageRepo := new(mocks.MessageRepositoryMock)
	broadcaster := newStubBroadcaster()

	refresher := NewRefresher(memNotifier, messageRepo, broadcaster)
	refresher.SetDebounce(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)

	require.NoError(t, memNotifier.Publish(ctx, createEvent("r1")))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, broadcaster.snapshotCount("r1"))
	messageRepo.AssertNotCalled(t, "ListRoomMessages", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresherSurvivesFetchFailure(t *testing.T) {
	memNotifier := notifier.NewMemoryNotifier()
	defer memNotifier.Close()
	messageRepo := new(mocks.MessageRepositoryMock)
	broadcaster := newStubBroadcaster("r1")

	var fetches atomic.Int32
	messageRepo.On("ListRoomMessages", mock.Anything, "r1", repositories.MessagePageSize).
		Run(func(mock.Arguments) { fetches.Add(1) }).
		Return(nil, assert.AnError).Once()
	messageRepo.On("ListRoomMessages", mock.Anything, "r1", repositories.MessagePageSize).
		Run(func(mock.Arguments) { fetches.Add(1) }).
		Return([]models.Message{{ID: "m1", ChatRoomID: "r1"}}, nil).Once()

	refresher := NewRefresher(memNotifier, messageRepo, broadcaster)
	refresher.SetDebounce(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)

	require.NoError(t, memNotifier.Publish(ctx, createEvent("r1")))
	require.Eventually(t, func() bool {
		return fetches.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The failed fetch is logged and counted; the next event still works.
	require.NoError(t, memNotifier.Publish(ctx, createEvent("r1")))
	require.Eventually(t, func() bool {
		return broadcaster.snapshotCount("r1") == 1
	}, 2*time.Second, 10*time.Millisecond)
	messageRepo.AssertExpectations(t)
}

func TestRefresherStopsOnContextCancel(t *testing.T) {
	memNotifier := notifier.NewMemoryNotifier()
	defer memNotifier.Close()
	refresher := NewRefresher(memNotifier, new(mocks.MessageRepositoryMock), newStubBroadcaster())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- refresher.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop after cancel")
	}
}
