package models

// Group is a multi-party room. Participants excludes the local user.
// The backend serializes the display name in the username field.
type Group struct {
	ID           string          `json:"id"`
	Name         string          `json:"username"`
	Participants []FriendRequest `json:"participants"`
}
