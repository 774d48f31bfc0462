package roster

import (
	"sync"

	"peoplesync-client/internal/models"
)

// Store holds the authenticated user's roster: identity, friends,
// pending requests and groups. All mutations run under one lock; the
// generation counter increments with each so callers can detect change.
type Store struct {
	mu         sync.RWMutex
	me         models.User
	friends    []models.Friend
	requests   []models.FriendRequest
	groups     []models.Group
	generation uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Bootstrap installs the roster fetched at session start. The identity
// is immutable for the rest of the session.
func (s *Store) Bootstrap(user models.CurrentUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.me = models.User{ID: user.ID, Username: user.Username}
	s.friends = append([]models.Friend(nil), user.Friends...)
	s.requests = append([]models.FriendRequest(nil), user.FriendRequests...)
	s.groups = append([]models.Group(nil), user.Groups...)
	s.generation++
}

// Me returns the authenticated identity.
func (s *Store) Me() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.me
}

// Friends returns a sorted copy of the friend list.
func (s *Store) Friends() []models.Friend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Friend(nil), s.friends...)
	models.SortFriends(out)
	return out
}

// FriendRequests returns a sorted copy of the pending requests.
func (s *Store) FriendRequests() []models.FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.FriendRequest(nil), s.requests...)
	models.SortFriendRequests(out)
	return out
}

// Groups returns a sorted copy of the group list.
func (s *Store) Groups() []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Group(nil), s.groups...)
	models.SortGroups(out)
	return out
}

// Generation returns the mutation counter.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// AddFriendRequest records an incoming pending request.
func (s *Store) AddFriendRequest(req models.FriendRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.ID == req.ID {
			return
		}
	}
	s.requests = append(s.requests, req)
	s.generation++
}

// PromoteRequest turns a pending request into a friend with its freshly
// assigned chat room.
func (s *Store) PromoteRequest(username string, friend models.Friend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeRequest(username)
	s.friends = append(s.friends, friend)
	s.generation++
}

// RemoveRequest discards a pending request after rejection.
func (s *Store) RemoveRequest(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeRequest(username)
	s.generation++
}

func (s *Store) removeRequest(username string) {
	kept := s.requests[:0]
	for _, r := range s.requests {
		if r.Username != username {
			kept = append(kept, r)
		}
	}
	s.requests = kept
}

// RemoveFriend drops a friend and its room from the roster.
func (s *Store) RemoveFriend(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.friends[:0]
	for _, f := range s.friends {
		if f.Username != username {
			kept = append(kept, f)
		}
	}
	s.friends = kept
	s.generation++
}

// AddGroup records a newly created group.
func (s *Store) AddGroup(group models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID == group.ID {
			return
		}
	}
	s.groups = append(s.groups, group)
	s.generation++
}

// SetGroupParticipants replaces a group's membership after an add or
// remove against the backend.
func (s *Store) SetGroupParticipants(groupID string, participants []models.FriendRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].ID == groupID {
			s.groups[i].Participants = append([]models.FriendRequest(nil), participants...)
			s.generation++
			return
		}
	}
}

// FindFriendByChat looks a friend up by its room id.
func (s *Store) FindFriendByChat(chatID string) (models.Friend, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.friends {
		if f.ChatID == chatID {
			return f, true
		}
	}
	return models.Friend{}, false
}

// Rooms derives the subscription set from the roster: one direct room
// per friend chat plus one room per group, duplicates collapsed.
func (s *Store) Rooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(s.friends)+len(s.groups))
	rooms := make([]models.Room, 0, len(s.friends)+len(s.groups))
	for _, f := range s.friends {
		if f.ChatID == "" {
			continue
		}
		if _, ok := seen[f.ChatID]; ok {
			continue
		}
		seen[f.ChatID] = struct{}{}
		rooms = append(rooms, models.Room{Kind: models.RoomDirect, ID: f.ChatID})
	}
	for _, g := range s.groups {
		if _, ok := seen[g.ID]; ok {
			continue
		}
		seen[g.ID] = struct{}{}
		rooms = append(rooms, models.Room{Kind: models.RoomGroup, ID: g.ID})
	}
	return rooms
}

// Reset clears the whole roster on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.me = models.User{}
	s.friends = nil
	s.requests = nil
	s.groups = nil
	s.generation++
}
