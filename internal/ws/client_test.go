package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peoplesync-client/internal/models"
)

type wsTestServer struct {
	srv        *httptest.Server
	directives chan Directive
	conns      chan *websocket.Conn
	authHeader chan string
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	s := &wsTestServer{
		directives: make(chan Directive, 8),
		conns:      make(chan *websocket.Conn, 2),
		authHeader: make(chan string, 2),
	}
	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.authHeader <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
		for {
			var d Directive
			if err := conn.ReadJSON(&d); err != nil {
				return
			}
			s.directives <- d
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsTestServer) endpoint() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func waitDirective(t *testing.T, s *wsTestServer) Directive {
	t.Helper()
	select {
	case d := <-s.directives:
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for directive")
		return Directive{}
	}
}

func TestDialSendsBearerTokenAndJoinDirectives(t *testing.T) {
	s := newWSTestServer(t)

	d := NewDialer("tok")
	conn, err := d.Dial(context.Background(), s.endpoint())
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "Bearer tok", <-s.authHeader)

	require.NoError(t, conn.Join("r1"))
	assert.Equal(t, Directive{Action: "join", Room: "r1"}, waitDirective(t, s))

	require.NoError(t, conn.Leave("r1"))
	assert.Equal(t, Directive{Action: "leave", Room: "r1"}, waitDirective(t, s))
}

func TestNewMessageEventsReachHandler(t *testing.T) {
	s := newWSTestServer(t)

	received := make(chan models.Message, 2)
	d := NewDialer("")
	d.OnMessage(func(m models.Message) { received <- m })

	conn, err := d.Dial(context.Background(), s.endpoint())
	require.NoError(t, err)
	defer conn.Close()

	server := <-s.conns
	<-s.authHeader

	// Frames of other types are ignored.
	require.NoError(t, server.WriteJSON(models.ChatEvent{Type: "presence"}))
	msg := models.Message{ID: "m1", Sender: models.UserRef{ID: "u2"}, Content: "hi", ChatID: "r1"}
	require.NoError(t, server.WriteJSON(models.ChatEvent{Type: models.EventNewMessage, Message: &msg}))

	select {
	case got := <-received:
		assert.Equal(t, "hi", got.Content)
		assert.Equal(t, "r1", got.ChatID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	assert.Empty(t, received)
}

func TestReconnectFiresHandlerAfterServerDrop(t *testing.T) {
	s := newWSTestServer(t)

	reconnected := make(chan struct{}, 1)
	d := NewDialer("")
	d.OnReconnect(func() { reconnected <- struct{}{} })

	conn, err := d.Dial(context.Background(), s.endpoint())
	require.NoError(t, err)
	defer conn.Close()

	server := <-s.conns
	<-s.authHeader
	server.Close()

	select {
	case <-reconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reconnect")
	}
}
