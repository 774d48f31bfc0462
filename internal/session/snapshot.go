package session

import "peoplesync-client/internal/models"

// FriendView joins a friend with its unread counter for the read side.
type FriendView struct {
	models.Friend
	UnreadMessageCount int `json:"unreadMessageCount"`
}

// GroupView joins a group with its unread counter for the read side.
type GroupView struct {
	models.Group
	UnreadMessageCount int `json:"unreadMessageCount"`
}

// Snapshot is a point-in-time view of the session for rendering and
// debugging.
type Snapshot struct {
	Username       string                 `json:"username"`
	Friends        []FriendView           `json:"friends"`
	FriendRequests []models.FriendRequest `json:"friendRequests"`
	Groups         []GroupView            `json:"groups"`
	OpenRoom       *models.Room           `json:"openRoom,omitempty"`
	Generation     uint64                 `json:"generation"`
}

// Snapshot assembles the current roster joined with unread counters.
func (s *Session) Snapshot() Snapshot {
	counts := s.unread.Counts()

	friends := s.roster.Friends()
	friendViews := make([]FriendView, 0, len(friends))
	for _, f := range friends {
		friendViews = append(friendViews, FriendView{Friend: f, UnreadMessageCount: counts[f.ChatID]})
	}

	groups := s.roster.Groups()
	groupViews := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		groupViews = append(groupViews, GroupView{Group: g, UnreadMessageCount: counts[g.ID]})
	}

	snap := Snapshot{
		Username:       s.roster.Me().Username,
		Friends:        friendViews,
		FriendRequests: s.roster.FriendRequests(),
		Groups:         groupViews,
		Generation:     s.roster.Generation(),
	}
	if room, ok := s.unread.OpenRoom(); ok {
		snap.OpenRoom = &room
	}
	return snap
}

// UnreadCount returns the unread counter for one room.
func (s *Session) UnreadCount(roomID string) int {
	return s.unread.Count(roomID)
}
