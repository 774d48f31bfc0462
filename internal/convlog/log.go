package convlog

import (
	"context"
	"fmt"
	"sync"

	"peoplesync-client/internal/dedup"
	"peoplesync-client/internal/models"
	"peoplesync-client/internal/observability"
)

// HistoryFetcher loads a room's message history from the backend.
type HistoryFetcher interface {
	FetchDirectHistory(ctx context.Context, chatID string) ([]models.Message, error)
	FetchGroupHistory(ctx context.Context, groupID string) ([]models.Message, error)
}

// Log holds the ordered message sequence of the currently open
// conversation. Opening a room replaces the sequence with its REST
// history; live events append in arrival order afterwards. Group
// appends pass the shared seen index, so duplicate deliveries,
// including echoes of the user's own messages, render once.
type Log struct {
	mu      sync.Mutex
	history HistoryFetcher
	seen    *dedup.SeenIndex

	room    models.Room
	open    bool
	loading bool
	epoch   uint64
	msgs    []models.Message
	pending []models.Message
}

// New creates a closed log sharing the session-wide seen index.
func New(history HistoryFetcher, seen *dedup.SeenIndex) *Log {
	return &Log{history: history, seen: seen}
}

// Open focuses the room and replaces the sequence with its history.
// Live events arriving while the fetch is in flight are buffered and
// applied after the history lands, in arrival order. A fetch resolving
// after the open room has moved on is discarded.
func (l *Log) Open(ctx context.Context, room models.Room) error {
	return l.Load(ctx, room, l.Focus(room))
}

// Focus marks the room open and loading, clearing the sequence. It
// returns the epoch token that guards the subsequent Load, so callers
// can drop their own locks during the blocking fetch.
func (l *Log) Focus(room models.Room) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.room = room
	l.open = true
	l.loading = true
	l.msgs = nil
	l.pending = nil
	return l.epoch
}

// Load fetches the room's history and installs it, unless the focus
// has moved on since the epoch was taken. On a fetch failure the
// buffered live events still land, giving a best-effort view of the
// room until it is reopened.
func (l *Log) Load(ctx context.Context, room models.Room, epoch uint64) error {
	var history []models.Message
	var err error
	switch room.Kind {
	case models.RoomDirect:
		history, err = l.history.FetchDirectHistory(ctx, room.ID)
	case models.RoomGroup:
		history, err = l.history.FetchGroupHistory(ctx, room.ID)
	default:
		err = fmt.Errorf("unknown room kind %q", room.Kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if epoch != l.epoch {
		// The user switched rooms while the fetch was in flight.
		return nil
	}
	l.loading = false

	if err == nil {
		l.msgs = append([]models.Message(nil), history...)
		if room.Kind == models.RoomGroup {
			// History is the authoritative log; mark its fingerprints so a
			// later duplicate delivery of the same message is suppressed.
			for _, m := range l.msgs {
				l.seen.MarkSeen(m.Content, m.Sender.ID, room.ID)
			}
		}
	}
	for _, m := range l.pending {
		l.append(m)
	}
	l.pending = nil
	if err != nil {
		return fmt.Errorf("load history for room %s: %w", room.ID, err)
	}
	return nil
}

// Append applies one live event. Events for other rooms, or arriving
// while the log is closed, are ignored here; unread accounting owns
// them.
func (l *Log) Append(msg models.Message) {
	room, ok := msg.Room()
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open || room != l.room {
		return
	}
	if l.loading {
		l.pending = append(l.pending, msg)
		return
	}
	l.append(msg)
}

func (l *Log) append(msg models.Message) {
	if l.room.Kind == models.RoomGroup {
		if l.seen.Seen(msg.Content, msg.Sender.ID, l.room.ID) {
			observability.IncDedupDrop()
			return
		}
	}
	l.msgs = append(l.msgs, msg)
}

// Close stops appending without discarding unread accounting duties;
// those move back to the unread engine. Any in-flight fetch becomes
// stale.
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.room = models.Room{}
	l.open = false
	l.loading = false
	l.msgs = nil
	l.pending = nil
}

// Room returns the room currently in focus, if any.
func (l *Log) Room() (models.Room, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.room, l.open
}

// Loading reports whether a history fetch is in flight.
func (l *Log) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Messages returns a copy of the current sequence in arrival order.
func (l *Log) Messages() []models.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Message(nil), l.msgs...)
}
