package unread

import (
	"sync"

	"peoplesync-client/internal/dedup"
	"peoplesync-client/internal/models"
	"peoplesync-client/internal/observability"
)

// Engine tracks per-room unread counters and the single open-room
// pointer. At most one room is open at a time; messages targeting the
// open room never count. Counters are plain non-negative integers and
// reset to zero when a room is opened, never decremented on read.
type Engine struct {
	mu     sync.RWMutex
	selfID string
	seen   *dedup.SeenIndex
	counts map[string]int
	open   models.Room
	isOpen bool
}

// NewEngine creates an engine sharing the session-wide seen index.
func NewEngine(seen *dedup.SeenIndex) *Engine {
	return &Engine{seen: seen, counts: make(map[string]int)}
}

// SetSelf records the local user's id. Self-authored messages never
// increment the local counters.
func (e *Engine) SetSelf(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selfID = userID
}

// Open marks the room as displayed and zeroes its counter. Idempotent.
func (e *Engine) Open(room models.Room) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = room
	e.isOpen = true
	delete(e.counts, room.ID)
}

// Close clears the open-room pointer. Counters are untouched.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = models.Room{}
	e.isOpen = false
}

// OpenRoom returns the room currently in focus, if any.
func (e *Engine) OpenRoom() (models.Room, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open, e.isOpen
}

// Count returns the unread counter for a room.
func (e *Engine) Count(roomID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.counts[roomID]
}

// Counts returns a copy of every non-zero counter keyed by room id.
func (e *Engine) Counts() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]int, len(e.counts))
	for id, n := range e.counts {
		out[id] = n
	}
	return out
}

// Record applies the arrival policy for one live message. Self-authored
// messages and messages targeting the open room are ignored. Direct
// chats count every delivery; only one delivery path exists there.
// Group rooms count each fingerprint once, consulting the shared seen
// index so a duplicate delivery cannot produce a second increment.
func (e *Engine) Record(msg models.Message) {
	room, ok := msg.Room()
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if msg.Sender.ID == e.selfID {
		return
	}
	if e.isOpen && e.open.ID == room.ID {
		return
	}
	if room.Kind == models.RoomGroup {
		if e.seen.Seen(msg.Content, msg.Sender.ID, room.ID) {
			observability.IncDedupDrop()
			return
		}
	}
	e.counts[room.ID]++
	observability.IncUnread(string(room.Kind))
}

// Reset clears every counter and the open-room pointer.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counts = make(map[string]int)
	e.open = models.Room{}
	e.isOpen = false
}
