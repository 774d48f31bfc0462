package models

import "sort"

// User is the authenticated identity, set once after session bootstrap.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserRef identifies the author of a message.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// FriendRequest is a pending relationship. Accepting promotes it to a
// Friend; rejecting discards it.
type FriendRequest struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Friend is a direct-message peer. ChatID addresses the two-party room.
type Friend struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ChatID   string `json:"chatId"`
}

// CurrentUser is the session bootstrap payload returned by the backend.
type CurrentUser struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Friends        []Friend        `json:"friends"`
	FriendRequests []FriendRequest `json:"friendRequests"`
	Groups         []Group         `json:"groups"`
}

// SortFriends orders friends alphabetically by username in place.
func SortFriends(friends []Friend) {
	sort.Slice(friends, func(i, j int) bool { return friends[i].Username < friends[j].Username })
}

// SortFriendRequests orders requests alphabetically by username in place.
func SortFriendRequests(requests []FriendRequest) {
	sort.Slice(requests, func(i, j int) bool { return requests[i].Username < requests[j].Username })
}

// SortGroups orders groups alphabetically by display name in place.
func SortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
}
