package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"peoplesync-client/internal/models"
	"peoplesync-client/internal/observability"
	"peoplesync-client/internal/subscription"
)

// Directive is a join/leave control frame sent to the backend.
type Directive struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// reconnectBackoff is the redial schedule after a dropped connection.
var reconnectBackoff = []time.Duration{0, time.Second, 5 * time.Second, 15 * time.Second}

// Dialer opens live-channel connections over websocket. Message and
// reconnect handlers are installed once, before the first dial.
type Dialer struct {
	token       string
	onMessage   func(models.Message)
	onReconnect func()
}

// NewDialer creates a dialer authenticating with the given token.
func NewDialer(token string) *Dialer {
	return &Dialer{token: token}
}

// OnMessage installs the handler for inbound newMessage events.
func (d *Dialer) OnMessage(handler func(models.Message)) {
	d.onMessage = handler
}

// OnReconnect installs the handler fired after a successful redial.
func (d *Dialer) OnReconnect(handler func()) {
	d.onReconnect = handler
}

// Dial opens a connection and starts its read pump. The transport owns
// reconnection: a dropped connection is redialed on a backoff schedule
// and the reconnect handler is fired so joins can be re-issued.
func (d *Dialer) Dial(ctx context.Context, endpoint string) (subscription.Connection, error) {
	ctx, span := otel.Tracer("peoplesync-client/ws").Start(ctx, "ws.handshake")
	defer span.End()

	ws, err := d.dial(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	conn := &Conn{
		id:       uuid.NewString(),
		endpoint: endpoint,
		dialer:   d,
		ws:       ws,
		closed:   make(chan struct{}),
	}
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	go conn.readPump()
	go conn.pingLoop()
	return conn, nil
}

func (d *Dialer) dial(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	header := http.Header{}
	if d.token != "" {
		header.Set("Authorization", "Bearer "+d.token)
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return ws, err
}

// Conn wraps one websocket connection.
type Conn struct {
	id       string
	endpoint string
	dialer   *Dialer

	mu sync.Mutex // guards ws writes and the ws pointer swap on redial
	ws *websocket.Conn

	closed    chan struct{}
	closeOnce sync.Once
}

// Join subscribes the connection to a room.
func (c *Conn) Join(roomID string) error {
	return c.writeDirective(Directive{Action: "join", Room: roomID})
}

// Leave unsubscribes the connection from a room.
func (c *Conn) Leave(roomID string) error {
	return c.writeDirective(Directive{Action: "leave", Room: roomID})
}

func (c *Conn) writeDirective(d Directive) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(d); err != nil {
		return fmt.Errorf("%s room %s: %w", d.Action, d.Room, err)
	}
	return nil
}

// Close shuts the connection down for good; no redial follows.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		err = c.ws.Close()
		c.mu.Unlock()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
	})
	return err
}

func (c *Conn) readPump() {
	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()

		_, data, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				return
			default:
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				log.Printf("websocket %s read error: %v", c.id, err)
			}
			if !c.redial() {
				c.Close()
				return
			}
			continue
		}

		var event models.ChatEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("websocket decode error: %v", err)
			continue
		}
		if event.Type != models.EventNewMessage || event.Message == nil {
			continue
		}
		observability.IncWSEvent("new_message")
		if c.dialer.onMessage != nil {
			c.dialer.onMessage(*event.Message)
		}
	}
}

// redial walks the backoff schedule until the endpoint answers again.
// It reports false when the connection was closed deliberately or the
// schedule is exhausted.
func (c *Conn) redial() bool {
	for _, wait := range reconnectBackoff {
		select {
		case <-c.closed:
			return false
		case <-time.After(wait):
		}

		ws, err := c.dialer.dial(context.Background(), c.endpoint)
		if err != nil {
			log.Printf("websocket redial: %v", err)
			continue
		}

		c.mu.Lock()
		c.ws = ws
		c.mu.Unlock()
		observability.IncWSEvent("ws_reconnect")
		if c.dialer.onReconnect != nil {
			c.dialer.onReconnect()
		}
		return true
	}
	log.Printf("websocket %s redial: giving up on %s", c.id, c.endpoint)
	return false
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.ws.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				log.Printf("websocket ping: %v", err)
			}
		}
	}
}
