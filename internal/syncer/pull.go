package syncer

import (
	"context"
	"errors"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
)

// PullGame fetches the game once and offers it to the engine.
//
// The payload replaces the mirror iff the session is privileged or no game
// has been loaded yet. For a viewer with a loaded game the fetch still
// happens and the syncing flag still toggles, but the payload is discarded.
// The decision is taken inside the engine transaction, so it cannot race
// with a local award.
//
// A fetch failure leaves the mirror untouched and is returned.
func (s *Synchronizer) PullGame(ctx context.Context) error {
	if err := s.engine.Apply(ctx, engine.SourcePull, "game-syncing", func(tx *engine.Tx) error {
		tx.SetGameSyncing(true)
		return nil
	}); err != nil {
		return err
	}

	g, fetchErr := s.fetch.Game(ctx)

	err := s.engine.Apply(context.WithoutCancel(ctx), engine.SourcePull, "game", func(tx *engine.Tx) error {
		tx.SetGameSyncing(false)
		if fetchErr != nil {
			return nil
		}
		if tx.Privileged() || !tx.GameLoaded() {
			tx.SetGame(g)
		}
		return nil
	})
	return errors.Join(fetchErr, ignoreStopped(err))
}

// PullBracket fetches the bracket once. A successful fetch always replaces
// the mirror.
func (s *Synchronizer) PullBracket(ctx context.Context) error {
	if err := s.engine.Apply(ctx, engine.SourcePull, "bracket-syncing", func(tx *engine.Tx) error {
		tx.SetBracketSyncing(true)
		return nil
	}); err != nil {
		return err
	}

	b, fetchErr := s.fetch.Bracket(ctx)

	err := s.engine.Apply(context.WithoutCancel(ctx), engine.SourcePull, "bracket", func(tx *engine.Tx) error {
		tx.SetBracketSyncing(false)
		if fetchErr == nil {
			tx.SetBracket(b)
		}
		return nil
	})
	return errors.Join(fetchErr, ignoreStopped(err))
}

func ignoreStopped(err error) error {
	if errors.Is(err, engine.ErrStopped) {
		return nil
	}
	return err
}
