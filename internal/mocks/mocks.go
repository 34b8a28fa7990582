package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"room-service/internal/identity"
	"room-service/internal/models"
	"room-service/internal/notifier"
	"room-service/internal/repositories"
)

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) CreateRoom(ctx context.Context, title, description string) (models.ChatRoom, error) {
	args := m.Called(ctx, title, description)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListRooms(ctx context.Context) ([]models.RoomSummary, error) {
	args := m.Called(ctx)
	var list []models.RoomSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.RoomSummary)
	}
	return list, args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomsUpdatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ChatRoom, error) {
	args := m.Called(ctx, cutoff, limit)
	var list []models.ChatRoom
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatRoom)
	}
	return list, args.Error(1)
}

func (m *RoomRepositoryMock) TouchRoom(ctx context.Context, roomID string, at time.Time) error {
	args := m.Called(ctx, roomID, at)
	return args.Error(0)
}

func (m *RoomRepositoryMock) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg repositories.NewMessage) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) ListRoomMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

type IdentityProviderMock struct {
	mock.Mock
}

func (m *IdentityProviderMock) ValidateToken(ctx context.Context, token string) (identity.User, error) {
	args := m.Called(ctx, token)
	var user identity.User
	if val := args.Get(0); val != nil {
		user = val.(identity.User)
	}
	return user, args.Error(1)
}

func (m *IdentityProviderMock) ListPasskeys(ctx context.Context, token string) ([]identity.Passkey, error) {
	args := m.Called(ctx, token)
	var keys []identity.Passkey
	if val := args.Get(0); val != nil {
		keys = val.([]identity.Passkey)
	}
	return keys, args.Error(1)
}

func (m *IdentityProviderMock) DeletePasskey(ctx context.Context, token, passkeyID string) error {
	args := m.Called(ctx, token, passkeyID)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Publish(ctx context.Context, event models.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *NotifierMock) Subscribe(ctx context.Context) (<-chan models.ChangeEvent, func(), error) {
	args := m.Called(ctx)
	var events <-chan models.ChangeEvent
	if val := args.Get(0); val != nil {
		events = val.(<-chan models.ChangeEvent)
	}
	var dispose func()
	if val := args.Get(1); val != nil {
		dispose = val.(func())
	}
	return events, dispose, args.Error(2)
}

func (m *NotifierMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ identity.Provider = (*IdentityProviderMock)(nil)
var _ notifier.Notifier = (*NotifierMock)(nil)
