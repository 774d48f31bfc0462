package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"peoplesync-client/internal/models"
	"peoplesync-client/internal/observability"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// DefaultTimeout bounds every REST call; failed calls are surfaced to
// the caller and never retried here.
const DefaultTimeout = time.Second

// Client talks to the PeopleSync REST backend. It implements the
// collaborator interfaces the session core consumes: bootstrap,
// history fetches, message send, and friend/group management.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the given base URL. A zero timeout
// falls back to DefaultTimeout.
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	status, _, err := c.do(ctx, "register", http.MethodPost, "/users/register", body)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("register %s: %w", username, ErrConflict)
	default:
		return fmt.Errorf("register %s: unexpected status %d", username, status)
	}
}

// Login authenticates and installs the returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	status, data, err := c.do(ctx, "login", http.MethodPost, "/users/login", body)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return "", fmt.Errorf("decode login response: %w", err)
		}
		c.SetToken(resp.Token)
		return resp.Token, nil
	case http.StatusNotFound:
		return "", fmt.Errorf("login %s: %w", username, ErrNotFound)
	default:
		return "", fmt.Errorf("login %s: %w", username, ErrUnauthorized)
	}
}

// FetchCurrentUser loads the session bootstrap payload: identity,
// friends, pending requests and groups.
func (c *Client) FetchCurrentUser(ctx context.Context) (models.CurrentUser, error) {
	var user models.CurrentUser
	status, data, err := c.do(ctx, "current_user", http.MethodGet, "/users/me", nil)
	if err != nil {
		return user, err
	}
	if err := c.checkStatus("fetch current user", status); err != nil {
		return user, err
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return user, fmt.Errorf("decode current user: %w", err)
	}
	return user, nil
}

// FetchFriends loads the friend list on its own, without the rest of
// the bootstrap payload.
func (c *Client) FetchFriends(ctx context.Context) ([]models.Friend, error) {
	status, data, err := c.do(ctx, "fetch_friends", http.MethodGet, "/users/friends", nil)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus("fetch friends", status); err != nil {
		return nil, err
	}
	var friends []models.Friend
	if err := json.Unmarshal(data, &friends); err != nil {
		return nil, fmt.Errorf("decode friends: %w", err)
	}
	return friends, nil
}

// AddFriend sends a friend request by username.
func (c *Client) AddFriend(ctx context.Context, username string) (models.FriendRequest, error) {
	return c.friendCall(ctx, "add_friend", http.MethodPost, "/users/friends", map[string]string{"username": username})
}

// RemoveFriend unfriends by username.
func (c *Client) RemoveFriend(ctx context.Context, username string) error {
	_, err := c.friendCall(ctx, "remove_friend", http.MethodDelete, "/users/friends/"+username, nil)
	return err
}

// AcceptFriendRequest accepts a pending request and returns the new
// friend's identity. The backing chat room is created separately.
func (c *Client) AcceptFriendRequest(ctx context.Context, username string) (models.FriendRequest, error) {
	return c.friendCall(ctx, "accept_friend", http.MethodPut, "/users/friends/accept", map[string]string{"username": username})
}

// RejectFriendRequest discards a pending request.
func (c *Client) RejectFriendRequest(ctx context.Context, username string) error {
	_, err := c.friendCall(ctx, "reject_friend", http.MethodPut, "/users/friends/reject", map[string]string{"username": username})
	return err
}

func (c *Client) friendCall(ctx context.Context, operation, method, path string, body any) (models.FriendRequest, error) {
	var friend models.FriendRequest
	status, data, err := c.do(ctx, operation, method, path, body)
	if err != nil {
		return friend, err
	}
	switch status {
	case http.StatusOK:
		if err := json.Unmarshal(data, &friend); err != nil {
			return friend, fmt.Errorf("decode %s response: %w", operation, err)
		}
		return friend, nil
	case http.StatusNotFound:
		return friend, fmt.Errorf("%s: %w", operation, ErrNotFound)
	case http.StatusConflict:
		return friend, fmt.Errorf("%s: %w", operation, ErrConflict)
	case http.StatusUnauthorized:
		return friend, fmt.Errorf("%s: %w", operation, ErrUnauthorized)
	default:
		return friend, fmt.Errorf("%s: unexpected status %d", operation, status)
	}
}

// CreateChat creates the two-party room backing a friendship and
// returns its id.
func (c *Client) CreateChat(ctx context.Context, participants []string) (string, error) {
	body := map[string][]string{"participants": participants}
	status, data, err := c.do(ctx, "create_chat", http.MethodPost, "/chats", body)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("create chat: unexpected status %d", status)
	}
	var resp struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode create chat response: %w", err)
	}
	return resp.ID, nil
}

// FetchDirectHistory loads a friend chat's message log.
func (c *Client) FetchDirectHistory(ctx context.Context, chatID string) ([]models.Message, error) {
	return c.fetchHistory(ctx, "direct_history", "/chats/"+chatID+"/messages")
}

// FetchGroupHistory loads a group's message log.
func (c *Client) FetchGroupHistory(ctx context.Context, groupID string) ([]models.Message, error) {
	return c.fetchHistory(ctx, "group_history", "/groups/"+groupID+"/messages")
}

func (c *Client) fetchHistory(ctx context.Context, operation, path string) ([]models.Message, error) {
	status, data, err := c.do(ctx, operation, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(operation, status); err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", operation, err)
	}
	return msgs, nil
}

// CreateGroup creates a multi-party room and returns its id.
func (c *Client) CreateGroup(ctx context.Context, name string, participantIDs []string) (string, error) {
	body := map[string]any{"name": name, "participants": participantIDs}
	status, data, err := c.do(ctx, "create_group", http.MethodPost, "/groups", body)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("create group: unexpected status %d", status)
	}
	var resp struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode create group response: %w", err)
	}
	return resp.ID, nil
}

// AddUserToGroup adds a member to an existing group.
func (c *Client) AddUserToGroup(ctx context.Context, groupID, userID string) error {
	body := map[string]string{"userId": userID}
	status, _, err := c.do(ctx, "add_group_user", http.MethodPost, "/groups/"+groupID+"/users", body)
	if err != nil {
		return err
	}
	return c.checkStatus("add user to group", status)
}

// RemoveUserFromGroup removes a member from an existing group.
func (c *Client) RemoveUserFromGroup(ctx context.Context, groupID, userID string) error {
	status, _, err := c.do(ctx, "remove_group_user", http.MethodDelete, "/groups/"+groupID+"/users/"+userID, nil)
	if err != nil {
		return err
	}
	return c.checkStatus("remove user from group", status)
}

// SendMessage posts a message to a chat or group. The caller relies on
// the live channel echo to materialize it; nothing is inserted locally.
func (c *Client) SendMessage(ctx context.Context, out models.OutgoingMessage) (models.Message, error) {
	var msg models.Message
	status, data, err := c.do(ctx, "send_message", http.MethodPost, "/messages", out)
	if err != nil {
		return msg, err
	}
	if status != http.StatusCreated {
		return msg, fmt.Errorf("send message: unexpected status %d", status)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode send message response: %w", err)
	}
	return msg, nil
}

// GetMessage retrieves a single message by id.
func (c *Client) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	return c.messageCall(ctx, "get_message", http.MethodGet, "/messages/"+messageID, nil)
}

// UpdateMessage marks a message read or unread and returns the updated
// message.
func (c *Client) UpdateMessage(ctx context.Context, messageID string, isRead bool) (models.Message, error) {
	return c.messageCall(ctx, "update_message", http.MethodPut, "/messages/"+messageID, map[string]bool{"isRead": isRead})
}

func (c *Client) messageCall(ctx context.Context, operation, method, path string, body any) (models.Message, error) {
	var msg models.Message
	status, data, err := c.do(ctx, operation, method, path, body)
	if err != nil {
		return msg, err
	}
	if err := c.checkStatus(operation, status); err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode %s response: %w", operation, err)
	}
	return msg, nil
}

func (c *Client) checkStatus(operation string, status int) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", operation, ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", operation, ErrConflict)
	default:
		return fmt.Errorf("%s: unexpected status %d", operation, status)
	}
}

func (c *Client) do(ctx context.Context, operation, method, path string, body any) (int, []byte, error) {
	started := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveAPIRequest(operation, 0, started)
		return 0, nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	observability.ObserveAPIRequest(operation, resp.StatusCode, started)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	return resp.StatusCode, data, nil
}
