package subscription

import (
	"context"
	"fmt"
	"log"
	"sync"

	"peoplesync-client/internal/models"
)

// Connection is one live event-channel connection. Implementations
// deliver newMessage events and reconnect notifications out of band,
// through handlers installed on their dialer.
type Connection interface {
	Join(roomID string) error
	Leave(roomID string) error
	Close() error
}

// Dialer opens live connections.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Connection, error)
}

// Manager keeps one live connection joined to every room derived from
// the current roster. Subscribing with an unchanged room set is a
// no-op; any real change tears the previous connection down before the
// new one is joined, so a connection never leaks across resubscribes.
type Manager struct {
	mu       sync.Mutex
	dialer   Dialer
	endpoint string
	conn     Connection
	joined   map[string]struct{}
}

// NewManager creates a manager with no connection.
func NewManager(dialer Dialer, endpoint string) *Manager {
	return &Manager{dialer: dialer, endpoint: endpoint}
}

// Subscribe reconciles the live connection against the given rooms,
// joining each exactly once. Dial and join failures are returned, not
// retried; reconnection policy belongs to the transport.
func (m *Manager) Subscribe(ctx context.Context, rooms []models.Room) error {
	want := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		want[r.ID] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && equalSets(m.joined, want) {
		return nil
	}

	m.teardownLocked()

	conn, err := m.dialer.Dial(ctx, m.endpoint)
	if err != nil {
		return fmt.Errorf("dial live channel: %w", err)
	}
	joined := make(map[string]struct{}, len(want))
	for id := range want {
		if err := conn.Join(id); err != nil {
			_ = conn.Close()
			return fmt.Errorf("join room %s: %w", id, err)
		}
		joined[id] = struct{}{}
	}
	m.conn = conn
	m.joined = joined
	return nil
}

// Rejoin re-issues join directives for every current room. The
// transport calls this after it reestablishes a dropped connection.
func (m *Manager) Rejoin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return
	}
	for id := range m.joined {
		if err := m.conn.Join(id); err != nil {
			log.Printf("rejoin room %s: %v", id, err)
		}
	}
}

// Unsubscribe leaves every joined room and closes the connection.
func (m *Manager) Unsubscribe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// Joined returns the ids of the currently joined rooms.
func (m *Manager) Joined() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.joined))
	for id := range m.joined {
		out = append(out, id)
	}
	return out
}

func (m *Manager) teardownLocked() {
	if m.conn == nil {
		return
	}
	for id := range m.joined {
		if err := m.conn.Leave(id); err != nil {
			log.Printf("leave room %s: %v", id, err)
		}
	}
	if err := m.conn.Close(); err != nil {
		log.Printf("close live channel: %v", err)
	}
	m.conn = nil
	m.joined = nil
}

func equalSets(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
