// Package api is the HTTP client for the quiz backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// DefaultGameID is the game the original client always addresses.
const DefaultGameID = "default"

// Header names.
const (
	HeaderAdminToken = "X-Admin-Token"
	HeaderRequestID  = "X-Request-ID"
)

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL  string
	gameID   string
	client   *http.Client
	limiter  *rate.Limiter
	validate bool

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithGameID sets the game addressed by game endpoints.
func WithGameID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.gameID = id
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithToken sets the operator token sent on privileged requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithoutSchema skips CUE validation of read payloads. Go invariant checks
// still run.
func WithoutSchema() Option {
	return func(c *Client) {
		c.validate = false
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		gameID:   DefaultGameID,
		client:   &http.Client{Timeout: 10 * time.Second},
		validate: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GameID returns the addressed game.
func (c *Client) GameID() string {
	return c.gameID
}

// SetToken replaces the operator token. An empty token sends none.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current operator token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// request describes one call.
type request struct {
	method string
	path   string
	game   bool // add ?gameId=
	admin  bool // add the operator token
	body   any
}

// do performs a request and returns the response body of a 2xx response.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	u := c.baseURL + r.path
	if r.game {
		u += "?" + url.Values{"gameId": {c.gameID}}.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.admin {
		if token := c.Token(); token != "" {
			req.Header.Set(HeaderAdminToken, token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, path string, game bool, body any) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: path, game: game, admin: true, body: body})
	return err
}

// Game fetches the game state.
func (c *Client) Game(ctx context.Context) (*model.GameState, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: "/api/game", game: true})
	if err != nil {
		return nil, err
	}
	if c.validate {
		return model.DecodeGame(data)
	}
	return model.DecodeGameWith(nil, data)
}

// Bracket fetches the bracket state.
func (c *Client) Bracket(ctx context.Context) (*model.BracketState, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: "/api/bracket"})
	if err != nil {
		return nil, err
	}
	if c.validate {
		return model.DecodeBracket(data)
	}
	return model.DecodeBracketWith(nil, data)
}

// AwardTossup awards a tossup to a side.
func (c *Client) AwardTossup(ctx context.Context, side model.Side) error {
	return c.post(ctx, "/api/game/award-tossup", true, map[string]string{"team": string(side)})
}

// AwardBonus awards the bonus to the last tossup winner.
func (c *Client) AwardBonus(ctx context.Context) error {
	return c.post(ctx, "/api/game/award-bonus", true, map[string]int{"points": model.TossupPoints})
}

// NextTossup advances the question.
func (c *Client) NextTossup(ctx context.Context) error {
	return c.post(ctx, "/api/game/next-tossup", true, nil)
}

// ResetGame resets the game.
func (c *Client) ResetGame(ctx context.Context) error {
	return c.post(ctx, "/api/game/reset", true, nil)
}

// SetTeamNames renames both teams.
func (c *Client) SetTeamNames(ctx context.Context, a, b string) error {
	return c.post(ctx, "/api/game/team-names", true, map[string]string{
		"teamAName": a,
		"teamBName": b,
	})
}

// InitBracket creates a bracket from team names.
func (c *Client) InitBracket(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	return c.post(ctx, "/api/bracket/init", false, map[string][]string{"teamNames": names})
}

// ResetBracket clears the bracket.
func (c *Client) ResetBracket(ctx context.Context) error {
	return c.post(ctx, "/api/bracket/reset", false, nil)
}

// SetCurrent pushes a pairing into the current game.
func (c *Client) SetCurrent(ctx context.Context, a, b model.ID) error {
	return c.post(ctx, "/api/bracket/set-current", true, map[string]model.ID{
		"teamAId": a,
		"teamBId": b,
	})
}

// FinalizeCurrent records the current game as a completed match.
func (c *Client) FinalizeCurrent(ctx context.Context) error {
	return c.post(ctx, "/api/bracket/finalize-current", true, nil)
}

// Login exchanges a username and password for credentials.
func (c *Client) Login(ctx context.Context, username, password string) (model.Credentials, error) {
	return c.credentials(ctx, "/api/auth/login", false, map[string]string{
		"username": username,
		"password": password,
	})
}

// Register creates an account and returns its credentials.
func (c *Client) Register(ctx context.Context, username, password string) (model.Credentials, error) {
	return c.credentials(ctx, "/api/auth/register", false, map[string]string{
		"username": username,
		"password": password,
	})
}

// UpdateProfile changes the username and password of the current account.
func (c *Client) UpdateProfile(ctx context.Context, newUsername, newPassword string) (model.Credentials, error) {
	return c.credentials(ctx, "/api/auth/update-profile", true, map[string]string{
		"newUsername": newUsername,
		"newPassword": newPassword,
	})
}

func (c *Client) credentials(ctx context.Context, path string, admin bool, body any) (model.Credentials, error) {
	data, err := c.do(ctx, request{method: http.MethodPost, path: path, admin: admin, body: body})
	if err != nil {
		return model.Credentials{}, err
	}
	var creds model.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return model.Credentials{}, fmt.Errorf("decode %s response: %w", path, err)
	}
	return creds, nil
}
