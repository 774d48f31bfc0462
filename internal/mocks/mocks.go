package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"peoplesync-client/internal/models"
	"peoplesync-client/internal/subscription"
)

type DirectoryMock struct {
	mock.Mock
}

func (m *DirectoryMock) FetchCurrentUser(ctx context.Context) (models.CurrentUser, error) {
	args := m.Called(ctx)
	var user models.CurrentUser
	if val := args.Get(0); val != nil {
		user = val.(models.CurrentUser)
	}
	return user, args.Error(1)
}

type HistoryFetcherMock struct {
	mock.Mock
}

func (m *HistoryFetcherMock) FetchDirectHistory(ctx context.Context, chatID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *HistoryFetcherMock) FetchGroupHistory(ctx context.Context, groupID string) ([]models.Message, error) {
	args := m.Called(ctx, groupID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type MessageSenderMock struct {
	mock.Mock
}

func (m *MessageSenderMock) SendMessage(ctx context.Context, out models.OutgoingMessage) (models.Message, error) {
	args := m.Called(ctx, out)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type RosterAPIMock struct {
	mock.Mock
}

func (m *RosterAPIMock) AddFriend(ctx context.Context, username string) (models.FriendRequest, error) {
	args := m.Called(ctx, username)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *RosterAPIMock) RemoveFriend(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *RosterAPIMock) AcceptFriendRequest(ctx context.Context, username string) (models.FriendRequest, error) {
	args := m.Called(ctx, username)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *RosterAPIMock) RejectFriendRequest(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *RosterAPIMock) CreateChat(ctx context.Context, participants []string) (string, error) {
	args := m.Called(ctx, participants)
	return args.String(0), args.Error(1)
}

func (m *RosterAPIMock) CreateGroup(ctx context.Context, name string, participantIDs []string) (string, error) {
	args := m.Called(ctx, name, participantIDs)
	return args.String(0), args.Error(1)
}

func (m *RosterAPIMock) AddUserToGroup(ctx context.Context, groupID, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *RosterAPIMock) RemoveUserFromGroup(ctx context.Context, groupID, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

type ConnectionMock struct {
	mock.Mock
}

func (m *ConnectionMock) Join(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *ConnectionMock) Leave(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *ConnectionMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type DialerMock struct {
	mock.Mock
}

func (m *DialerMock) Dial(ctx context.Context, endpoint string) (subscription.Connection, error) {
	args := m.Called(ctx, endpoint)
	var conn subscription.Connection
	if val := args.Get(0); val != nil {
		conn = val.(subscription.Connection)
	}
	return conn, args.Error(1)
}
