package models

import "time"

// RoomKind distinguishes direct chats from group rooms.
type RoomKind string

const (
	RoomDirect RoomKind = "direct"
	RoomGroup  RoomKind = "group"
)

// Room addresses one conversation: a friend chat or a group.
type Room struct {
	Kind RoomKind `json:"kind"`
	ID   string   `json:"id"`
}

// Message is one chat message. Exactly one of ChatID or GroupID is set,
// identifying the owning room.
type Message struct {
	ID        string    `json:"_id"`
	Sender    UserRef   `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ChatID    string    `json:"chat,omitempty"`
	GroupID   string    `json:"group,omitempty"`
	IsRead    bool      `json:"isRead"`
}

// Room returns the owning room descriptor, if the message carries one.
func (m Message) Room() (Room, bool) {
	switch {
	case m.ChatID != "" && m.GroupID == "":
		return Room{Kind: RoomDirect, ID: m.ChatID}, true
	case m.GroupID != "" && m.ChatID == "":
		return Room{Kind: RoomGroup, ID: m.GroupID}, true
	}
	return Room{}, false
}

// Valid reports whether a live event can be attributed to a room and a
// sender. Events failing this check are dropped.
func (m Message) Valid() bool {
	if m.Sender.ID == "" {
		return false
	}
	_, ok := m.Room()
	return ok
}

// OutgoingMessage is the send-message request body. Exactly one of
// ChatID or GroupID should be set.
type OutgoingMessage struct {
	Content string `json:"content"`
	ChatID  string `json:"chat,omitempty"`
	GroupID string `json:"group,omitempty"`
}

// ChatEvent is the live-channel frame.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}

// EventNewMessage is the live-channel frame type carrying a message.
const EventNewMessage = "newMessage"
