package dedup

import "sync"

// fingerprint keys a message by its author and content. The backend
// exposes no client-visible dedup token at stream-delivery time, so
// content equality per sender is the contract; two distinct messages
// with identical text from the same sender collapse to one fingerprint.
type fingerprint struct {
	senderID string
	content  string
}

// SeenIndex records which (fingerprint, room) pairs have already been
// counted or displayed during this session. It only grows; Reset clears
// it on teardown.
type SeenIndex struct {
	mu    sync.RWMutex
	rooms map[fingerprint]map[string]struct{}
}

// NewSeenIndex creates an empty index.
func NewSeenIndex() *SeenIndex {
	return &SeenIndex{rooms: make(map[fingerprint]map[string]struct{})}
}

// HasSeen reports whether the message has been seen in the room.
func (s *SeenIndex) HasSeen(content, senderID, roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms, ok := s.rooms[fingerprint{senderID: senderID, content: content}]
	if !ok {
		return false
	}
	_, seen := rooms[roomID]
	return seen
}

// MarkSeen records the message as seen in the room. Idempotent.
func (s *SeenIndex) MarkSeen(content, senderID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mark(content, senderID, roomID)
}

// Seen marks the message as seen in the room and reports whether it
// already was.
func (s *SeenIndex) Seen(content, senderID, roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp := fingerprint{senderID: senderID, content: content}
	if rooms, ok := s.rooms[fp]; ok {
		if _, seen := rooms[roomID]; seen {
			return true
		}
	}
	s.mark(content, senderID, roomID)
	return false
}

func (s *SeenIndex) mark(content, senderID, roomID string) {
	fp := fingerprint{senderID: senderID, content: content}
	rooms, ok := s.rooms[fp]
	if !ok {
		rooms = make(map[string]struct{})
		s.rooms[fp] = rooms
	}
	rooms[roomID] = struct{}{}
}

// Len returns the number of distinct fingerprints tracked.
func (s *SeenIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Reset drops every tracked fingerprint.
func (s *SeenIndex) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[fingerprint]map[string]struct{})
}
