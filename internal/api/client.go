// Package api is the REST client for the remote Vestigio game server.
//
// Every call is JSON over HTTPS with bearer-token auth and a bounded
// per-request timeout; the server never sees client state beyond the token.
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
	"time"

	"github.com/rs/zerolog"

	"github.com/vestigio/webclient/internal/game"
)

var (
	// ErrUnauthorized means the token was rejected; callers should clear the
	// stored credential and send the user back through login.
	ErrUnauthorized = errors.New("authentication rejected")
)

// User is the authenticated player profile.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ConfigParams carries game-specific creation options. Unknown keys pass
// through untouched so new server-side options need no client change.
type ConfigParams map[string]any

// Client talks to one server. The zero token is valid for the auth endpoints;
// everything else requires WithToken.
type Client struct {
	logger  zerolog.Logger
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the given base URL. The timeout bounds every
// request end to end, including a hung server.
func New(logger zerolog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		logger:  logger.With().Str("component", "api").Logger(),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of the client that authenticates as the given
// bearer token. The receiver is not modified.
func (c *Client) WithToken(token string) *Client {
	out := *c
	out.token = token
	return &out
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/authenticate", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var resp tokenResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Me returns the profile behind the client's token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Stories lists the approved mystery stories.
func (c *Client) Stories(ctx context.Context) ([]game.Story, error) {
	var stories []game.Story
	if err := c.do(ctx, http.MethodGet, "/player/stories", nil, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// RandomStories fetches count random stories for the creation picker.
func (c *Client) RandomStories(ctx context.Context, count int) ([]game.Story, error) {
	var stories []game.Story
	path := fmt.Sprintf("/player/stories/random?count=%d", count)
	if err := c.do(ctx, http.MethodGet, path, nil, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// CreateSession opens a new room and returns its initial snapshot.
func (c *Client) CreateSession(ctx context.Context, gameType game.Type, params ConfigParams) (*game.Session, error) {
	body := map[string]any{"gameType": gameType, "configParams": params}
	var session game.Session
	if err := c.do(ctx, http.MethodPost, "/player/game-sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// JoinSession adds the authenticated player to a room.
func (c *Client) JoinSession(ctx context.Context, roomCode string) (*game.Session, error) {
	var session game.Session
	path := "/player/game-sessions/" + roomCode + "/join"
	if err := c.do(ctx, http.MethodPost, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession is the plain read, used as the fallback when joining fails.
func (c *Client) GetSession(ctx context.Context, roomCode string) (*game.Session, error) {
	var session game.Session
	path := "/player/game-sessions/" + roomCode
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// StartSession asks the server to begin play.
func (c *Client) StartSession(ctx context.Context, roomCode string) (*game.Session, error) {
	var session game.Session
	path := "/player/game-sessions/" + roomCode + "/start"
	if err := c.do(ctx, http.MethodPost, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// FinishSession asks the server to end the game.
func (c *Client) FinishSession(ctx context.Context, roomCode string) (*game.Session, error) {
	var session game.Session
	path := "/player/game-sessions/" + roomCode + "/finish"
	if err := c.do(ctx, http.MethodPost, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SendAction posts a generic typed action to the room. The server answers
// with a bare ack; the resulting state arrives on the game topic.
func (c *Client) SendAction(ctx context.Context, roomCode string, actionType game.ActionType, payload any) error {
	body := map[string]any{"actionType": actionType, "payload": payload}
	path := "/player/game-sessions/" + roomCode + "/action"
	return c.do(ctx, http.MethodPost, path, body, nil)
}

type apiError struct {
	Message string `json:"message"`
	Error_  string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API: request")

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		msg := http.StatusText(resp.StatusCode)
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
			if json.Unmarshal(data, &apiErr) == nil {
				if apiErr.Message != "" {
					msg = apiErr.Message
				} else if apiErr.Error_ != "" {
					msg = apiErr.Error_
				}
			}
		}
		return fmt.Errorf("%s %s: server returned %d: %s", method, path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}
