package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"peoplesync-client/internal/convlog"
	"peoplesync-client/internal/dedup"
	"peoplesync-client/internal/models"
	"peoplesync-client/internal/observability"
	"peoplesync-client/internal/roster"
	"peoplesync-client/internal/subscription"
	"peoplesync-client/internal/unread"
)

var ErrNoOpenConversation = errors.New("no open conversation")

// Directory loads the authenticated user's roster at bootstrap.
type Directory interface {
	FetchCurrentUser(ctx context.Context) (models.CurrentUser, error)
}

// MessageSender posts a message to a chat or group.
type MessageSender interface {
	SendMessage(ctx context.Context, out models.OutgoingMessage) (models.Message, error)
}

// RosterAPI covers the friend and group management calls the session
// drives against the backend.
type RosterAPI interface {
	AddFriend(ctx context.Context, username string) (models.FriendRequest, error)
	RemoveFriend(ctx context.Context, username string) error
	AcceptFriendRequest(ctx context.Context, username string) (models.FriendRequest, error)
	RejectFriendRequest(ctx context.Context, username string) error
	CreateChat(ctx context.Context, participants []string) (string, error)
	CreateGroup(ctx context.Context, name string, participantIDs []string) (string, error)
	AddUserToGroup(ctx context.Context, groupID, userID string) error
	RemoveUserFromGroup(ctx context.Context, groupID, userID string) error
}

// Session is the lifecycle-scoped context of one authenticated user:
// roster, seen-message index, unread counters, the open conversation
// and the live-channel subscriptions. Teardown clears it entirely, so
// a session can be rebuilt after reauthentication.
//
// Event handling and conversation lifecycle changes serialize on one
// mutex: the shared seen index couples the log and the unread engine,
// so an event interleaving with a half-applied open or close could
// mark a fingerprint seen in one component and then be skipped by the
// other. The mutex is not held across the blocking history fetch; the
// log's epoch guards that window instead.
type Session struct {
	mu sync.Mutex

	directory Directory
	rosterAPI RosterAPI
	sender    MessageSender

	roster *roster.Store
	seen   *dedup.SeenIndex
	unread *unread.Engine
	log    *convlog.Log
	subs   *subscription.Manager
}

// New wires a session from its collaborators. The seen index is shared
// between unread accounting and the conversation log, so a message
// counted while a room was closed cannot render twice once it opens.
func New(directory Directory, rosterAPI RosterAPI, sender MessageSender, history convlog.HistoryFetcher, subs *subscription.Manager) *Session {
	seen := dedup.NewSeenIndex()
	return &Session{
		directory: directory,
		rosterAPI: rosterAPI,
		sender:    sender,
		roster:    roster.NewStore(),
		seen:      seen,
		unread:    unread.NewEngine(seen),
		log:       convlog.New(history, seen),
		subs:      subs,
	}
}

// Bootstrap loads the roster and joins the live channel for every room
// derivable from it.
func (s *Session) Bootstrap(ctx context.Context) error {
	user, err := s.directory.FetchCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("fetch current user: %w", err)
	}
	s.mu.Lock()
	s.roster.Bootstrap(user)
	s.unread.SetSelf(user.ID)
	s.mu.Unlock()
	return s.resubscribe(ctx)
}

// HandleEvent applies one live-channel message. Malformed events are
// dropped; the rest route to the conversation log when their room is
// open and to unread accounting otherwise.
func (s *Session) HandleEvent(msg models.Message) {
	if !msg.Valid() {
		observability.IncMalformedEvent()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Append(msg)
	s.unread.Record(msg)
}

// OpenDirect focuses a friend chat: its unread counter resets and the
// REST history replaces the conversation log.
func (s *Session) OpenDirect(ctx context.Context, chatID string) error {
	return s.openRoom(ctx, models.Room{Kind: models.RoomDirect, ID: chatID})
}

// OpenGroup focuses a group room.
func (s *Session) OpenGroup(ctx context.Context, groupID string) error {
	return s.openRoom(ctx, models.Room{Kind: models.RoomGroup, ID: groupID})
}

func (s *Session) openRoom(ctx context.Context, room models.Room) error {
	s.mu.Lock()
	s.unread.Open(room)
	epoch := s.log.Focus(room)
	s.mu.Unlock()
	return s.log.Load(ctx, room, epoch)
}

// CloseConversation drops the open-room focus; arriving messages count
// as unread again.
func (s *Session) CloseConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread.Close()
	s.log.Close()
}

// Messages returns the open conversation's sequence in arrival order.
func (s *Session) Messages() []models.Message {
	return s.log.Messages()
}

// Send posts content to the open conversation. The message is not
// inserted locally; the live-channel echo materializes it.
func (s *Session) Send(ctx context.Context, content string) error {
	room, ok := s.log.Room()
	if !ok {
		return ErrNoOpenConversation
	}
	out := models.OutgoingMessage{Content: content}
	switch room.Kind {
	case models.RoomDirect:
		out.ChatID = room.ID
	case models.RoomGroup:
		out.GroupID = room.ID
	}
	if _, err := s.sender.SendMessage(ctx, out); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendFriendRequest asks the backend to create a pending request; the
// local roster is unaffected until the peer accepts.
func (s *Session) SendFriendRequest(ctx context.Context, username string) error {
	if _, err := s.rosterAPI.AddFriend(ctx, username); err != nil {
		return fmt.Errorf("add friend: %w", err)
	}
	return nil
}

// AcceptFriendRequest promotes a pending request to a friend with a
// freshly created backing chat room, then resubscribes.
func (s *Session) AcceptFriendRequest(ctx context.Context, username string) error {
	accepted, err := s.rosterAPI.AcceptFriendRequest(ctx, username)
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	chatID, err := s.rosterAPI.CreateChat(ctx, []string{s.roster.Me().ID, accepted.ID})
	if err != nil {
		return fmt.Errorf("create chat for %s: %w", accepted.Username, err)
	}
	s.roster.PromoteRequest(username, models.Friend{ID: accepted.ID, Username: accepted.Username, ChatID: chatID})
	return s.resubscribe(ctx)
}

// RejectFriendRequest discards a pending request.
func (s *Session) RejectFriendRequest(ctx context.Context, username string) error {
	if err := s.rosterAPI.RejectFriendRequest(ctx, username); err != nil {
		return fmt.Errorf("reject friend request: %w", err)
	}
	s.roster.RemoveRequest(username)
	return nil
}

// RemoveFriend unfriends and leaves the backing room.
func (s *Session) RemoveFriend(ctx context.Context, username string) error {
	if err := s.rosterAPI.RemoveFriend(ctx, username); err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}
	s.roster.RemoveFriend(username)
	return s.resubscribe(ctx)
}

// CreateGroup creates a group with the given friends and joins its
// room.
func (s *Session) CreateGroup(ctx context.Context, name string, participants []models.FriendRequest) error {
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	groupID, err := s.rosterAPI.CreateGroup(ctx, name, ids)
	if err != nil {
		return fmt.Errorf("create group %s: %w", name, err)
	}
	s.roster.AddGroup(models.Group{ID: groupID, Name: name, Participants: participants})
	return s.resubscribe(ctx)
}

// AddGroupMember adds a friend to a group and updates the roster.
func (s *Session) AddGroupMember(ctx context.Context, groupID string, member models.FriendRequest) error {
	if err := s.rosterAPI.AddUserToGroup(ctx, groupID, member.ID); err != nil {
		return fmt.Errorf("add user to group: %w", err)
	}
	for _, g := range s.roster.Groups() {
		if g.ID == groupID {
			s.roster.SetGroupParticipants(groupID, append(g.Participants, member))
			break
		}
	}
	return nil
}

// RemoveGroupMember removes a member from a group and updates the
// roster.
func (s *Session) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	if err := s.rosterAPI.RemoveUserFromGroup(ctx, groupID, userID); err != nil {
		return fmt.Errorf("remove user from group: %w", err)
	}
	for _, g := range s.roster.Groups() {
		if g.ID != groupID {
			continue
		}
		kept := make([]models.FriendRequest, 0, len(g.Participants))
		for _, p := range g.Participants {
			if p.ID != userID {
				kept = append(kept, p)
			}
		}
		s.roster.SetGroupParticipants(groupID, kept)
		break
	}
	return nil
}

func (s *Session) resubscribe(ctx context.Context) error {
	return s.subs.Subscribe(ctx, s.roster.Rooms())
}

// Teardown leaves every room, closes the live channel and clears all
// session state. A fresh Bootstrap rebuilds the session afterwards.
func (s *Session) Teardown() {
	s.subs.Unsubscribe()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Close()
	s.unread.Reset()
	s.seen.Reset()
	s.roster.Reset()
}
