package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// Credential keys.
const (
	KeyAuthToken    = "authToken"
	KeyAuthRole     = "authRole"
	KeyAuthUsername = "authUsername"
)

// LoadCredentials returns the stored credentials. Missing keys read as
// empty, so a fresh store yields a viewer.
func (s *Store) LoadCredentials(ctx context.Context) (model.Credentials, error) {
	var creds model.Credentials
	for key, dst := range map[string]*string{
		KeyAuthToken:    &creds.Token,
		KeyAuthRole:     &creds.Role,
		KeyAuthUsername: &creds.Username,
	} {
		v, err := s.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return model.Credentials{}, fmt.Errorf("load credentials: %w", err)
		}
		*dst = v
	}
	return creds, nil
}

// SaveCredentials replaces the stored credentials.
func (s *Store) SaveCredentials(ctx context.Context, creds model.Credentials) error {
	if err := s.SetMany(ctx, map[string]string{
		KeyAuthToken:    creds.Token,
		KeyAuthRole:     creds.Role,
		KeyAuthUsername: creds.Username,
	}); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// ClearCredentials deletes the stored credentials.
func (s *Store) ClearCredentials(ctx context.Context) error {
	if err := s.Delete(ctx, KeyAuthToken, KeyAuthRole, KeyAuthUsername); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
