// Package testutil provides an in-process fake of the quiz backend for
// tests that exercise the client over real HTTP.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// AdminToken is the operator token accepted by the fake backend.
const AdminToken = "admin-token"

// AdminPassword is the password of the seeded operator account "admin".
const AdminPassword = "hunter2"

// Request is one recorded call.
type Request struct {
	Method     string
	Path       string
	GameID     string
	AdminToken string
	RequestID  string
	Body       map[string]any
}

// Backend is a fake HTTP backend with in-memory game and bracket state.
//
// Mutating endpoints require X-Admin-Token == AdminToken and answer 403
// otherwise. Reads are open.
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	game        *model.GameState
	bracket     *model.BracketState
	rawGame     []byte // overrides game when set
	rawBracket  []byte
	failGame    int // status to fail game reads with, 0 = succeed
	failBracket int
	failWrites  int
	users       map[string]user
	requests    []Request
	streams     map[chan streamMsg]struct{}
	nextTeamID  int

	gameHits    atomic.Int64
	bracketHits atomic.Int64
}

type user struct {
	password string
	role     string
	token    string
}

type streamMsg struct {
	event string
	data  []byte
	close bool
}

// NewBackend starts a fake backend. It is closed by t.Cleanup.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		game:    model.DefaultGame(),
		bracket: &model.BracketState{},
		users: map[string]user{
			"admin": {password: AdminPassword, role: model.RoleAdmin, token: AdminToken},
		},
		streams: make(map[chan streamMsg]struct{}),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(func() {
		b.CloseStreams()
		b.Server.Close()
	})
	return b
}

// URL returns the backend root.
func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Route("/api/game", func(r chi.Router) {
		r.Get("/", b.getGame)
		r.Group(func(r chi.Router) {
			r.Use(b.requireAdmin)
			r.Post("/award-tossup", b.awardTossup)
			r.Post("/award-bonus", b.awardBonus)
			r.Post("/next-tossup", b.nextTossup)
			r.Post("/reset", b.resetGame)
			r.Post("/team-names", b.teamNames)
		})
	})

	r.Route("/api/bracket", func(r chi.Router) {
		r.Get("/", b.getBracket)
		r.Get("/stream", b.stream)
		r.Group(func(r chi.Router) {
			r.Use(b.requireAdmin)
			r.Post("/init", b.initBracket)
			r.Post("/reset", b.resetBracket)
			r.Post("/set-current", b.setCurrent)
			r.Post("/finalize-current", b.finalizeCurrent)
		})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", b.login)
		r.Post("/register", b.register)
		r.With(b.requireToken).Post("/update-profile", b.updateProfile)
	})

	return r
}

// --- state control -------------------------------------------------------

// SetGame replaces the served game.
func (b *Backend) SetGame(g *model.GameState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.game = g.Clone()
	b.rawGame = nil
}

// SetGameJSON serves a raw game payload verbatim.
func (b *Backend) SetGameJSON(raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rawGame = []byte(raw)
}

// SetBracket replaces the served bracket.
func (b *Backend) SetBracket(s *model.BracketState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bracket = s.Clone()
	b.rawBracket = nil
}

// SetBracketJSON serves a raw bracket payload verbatim.
func (b *Backend) SetBracketJSON(raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rawBracket = []byte(raw)
}

// Game returns a copy of the server-side game.
func (b *Backend) Game() *model.GameState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.game.Clone()
}

// Bracket returns a copy of the server-side bracket.
func (b *Backend) Bracket() *model.BracketState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bracket.Clone()
}

// FailGame makes game reads answer with status. Zero restores success.
func (b *Backend) FailGame(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failGame = status
}

// FailBracket makes bracket reads answer with status.
func (b *Backend) FailBracket(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failBracket = status
}

// FailWrites makes every mutating endpoint answer with status.
func (b *Backend) FailWrites(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites = status
}

// GameHits counts game reads.
func (b *Backend) GameHits() int64 { return b.gameHits.Load() }

// BracketHits counts bracket reads.
func (b *Backend) BracketHits() int64 { return b.bracketHits.Load() }

// Requests returns the recorded calls, oldest first.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// RequestsTo returns the recorded calls to one path.
func (b *Backend) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range b.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// --- push stream ---------------------------------------------------------

// Subscribers returns the number of open stream connections.
func (b *Backend) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.streams)
}

// PushBracket sends the bracket to every subscriber as a "bracket" event.
func (b *Backend) PushBracket(s *model.BracketState) {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	b.PushEvent("bracket", string(data))
}

// PushEvent sends a raw event to every subscriber. data must be one line.
func (b *Backend) PushEvent(event, data string) {
	b.broadcast(streamMsg{event: event, data: []byte(data)})
}

// CloseStreams ends every open stream response.
func (b *Backend) CloseStreams() {
	b.broadcast(streamMsg{close: true})
}

func (b *Backend) broadcast(msg streamMsg) {
	b.mu.Lock()
	subs := make([]chan streamMsg, 0, len(b.streams))
	for ch := range b.streams {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (b *Backend) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan streamMsg, 16)
	b.mu.Lock()
	b.streams[ch] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.streams, ch)
		b.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			if msg.close {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.event, msg.data)
			flusher.Flush()
		}
	}
}

// --- middleware ----------------------------------------------------------

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method:     r.Method,
			Path:       r.URL.Path,
			GameID:     r.URL.Query().Get("gameId"),
			AdminToken: r.Header.Get("X-Admin-Token"),
			RequestID:  r.Header.Get("X-Request-ID"),
		}
		if r.Body != nil && r.Method == http.MethodPost {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				req.Body = body
			}
		}

		b.mu.Lock()
		b.requests = append(b.requests, req)
		b.mu.Unlock()

		next.ServeHTTP(w, r.WithContext(withBody(r.Context(), req.Body)))
	})
}

func (b *Backend) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.isAdminToken(r.Header.Get("X-Admin-Token")) {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		b.mu.Lock()
		fail := b.failWrites
		b.mu.Unlock()
		if fail != 0 {
			writeMessage(w, fail, "Write failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.userByToken(r.Header.Get("X-Admin-Token")); !ok {
			writeMessage(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) isAdminToken(token string) bool {
	u, ok := b.userByToken(token)
	return ok && u.role == model.RoleAdmin
}

func (b *Backend) userByToken(token string) (user, bool) {
	if token == "" {
		return user{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.token == token {
			return u, true
		}
	}
	return user{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func itoa(n int) string { return strconv.Itoa(n) }
