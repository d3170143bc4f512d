// Package auth manages the operator credentials of a client installation.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// Fallback messages shown when the server sends none.
const (
	MsgLoginFailed    = "Invalid username or password"
	MsgRegisterFailed = "Registration failed"
	MsgUpdateFailed   = "Update failed"
	MsgProfileUpdated = "Profile updated"
)

// Backend is the part of the API the manager needs. *api.Client
// implements it.
type Backend interface {
	Login(ctx context.Context, username, password string) (model.Credentials, error)
	Register(ctx context.Context, username, password string) (model.Credentials, error)
	UpdateProfile(ctx context.Context, newUsername, newPassword string) (model.Credentials, error)
	SetToken(token string)
}

// Persister stores credentials. *store.Store implements it.
type Persister interface {
	LoadCredentials(ctx context.Context) (model.Credentials, error)
	SaveCredentials(ctx context.Context, creds model.Credentials) error
	ClearCredentials(ctx context.Context) error
}

// Error is an auth failure with the message to show the user.
type Error struct {
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error {
	return e.Err
}

// MessageFunc extracts a user-facing message from an API error, falling
// back to the given text.
type MessageFunc func(err error, fallback string) string

// Manager performs auth calls and keeps the persisted credentials and the
// API client's token in step.
type Manager struct {
	backend Backend
	persist Persister
	message MessageFunc
	logger  *slog.Logger
}

// NewManager creates a Manager. message may be nil, which always uses the
// fallback texts.
func NewManager(backend Backend, persist Persister, message MessageFunc, logger *slog.Logger) *Manager {
	if message == nil {
		message = func(_ error, fallback string) string { return fallback }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{backend: backend, persist: persist, message: message, logger: logger}
}

// Current loads the persisted credentials and installs the token on the
// backend client.
func (m *Manager) Current(ctx context.Context) (model.Credentials, error) {
	creds, err := m.persist.LoadCredentials(ctx)
	if err != nil {
		return model.Credentials{}, err
	}
	m.backend.SetToken(creds.Token)
	return creds, nil
}

// Login signs in and persists the returned credentials.
func (m *Manager) Login(ctx context.Context, username, password string) (model.Credentials, error) {
	creds, err := m.backend.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return model.Credentials{}, &Error{Op: "login", Message: m.message(err, MsgLoginFailed), Err: err}
	}
	return creds, m.install(ctx, creds)
}

// Register creates an account and persists the returned credentials.
func (m *Manager) Register(ctx context.Context, username, password string) (model.Credentials, error) {
	creds, err := m.backend.Register(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return model.Credentials{}, &Error{Op: "register", Message: m.message(err, MsgRegisterFailed), Err: err}
	}
	return creds, m.install(ctx, creds)
}

// UpdateProfile changes username and password. The stored token is kept;
// username and role are replaced by the server's answer.
func (m *Manager) UpdateProfile(ctx context.Context, newUsername, newPassword string) (model.Credentials, error) {
	cur, err := m.Current(ctx)
	if err != nil {
		return model.Credentials{}, err
	}

	resp, err := m.backend.UpdateProfile(ctx, strings.TrimSpace(newUsername), newPassword)
	if err != nil {
		return model.Credentials{}, &Error{Op: "update profile", Message: m.message(err, MsgUpdateFailed), Err: err}
	}

	next := model.Credentials{Token: cur.Token, Role: resp.Role, Username: resp.Username}
	return next, m.install(ctx, next)
}

// Logout deletes the persisted credentials and drops the client token.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.persist.ClearCredentials(ctx); err != nil {
		return err
	}
	m.backend.SetToken("")
	m.logger.Info("logged out")
	return nil
}

func (m *Manager) install(ctx context.Context, creds model.Credentials) error {
	if err := m.persist.SaveCredentials(ctx, creds); err != nil {
		return err
	}
	m.backend.SetToken(creds.Token)
	m.logger.Info("credentials stored", "username", creds.Username, "role", creds.Role)
	return nil
}
