package syncer

import (
	"context"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/stream"
)

// runPush holds one subscription for the lifetime of ctx. Each "bracket"
// event replaces the bracket mirror; other events are ignored and malformed
// payloads dropped. When the stream ends or fails it stays closed; pulls
// keep the bracket fresh from then on.
func (s *Synchronizer) runPush(ctx context.Context) {
	err := s.push.Subscribe(ctx, func(msg stream.Message) {
		if msg.Event != stream.EventBracket {
			return
		}
		b, err := model.DecodeBracket(msg.Data)
		if err != nil {
			s.logger.Debug("dropping malformed bracket push", "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.engine.Enqueue(engine.Event{
			Source: engine.SourcePush,
			Name:   "bracket",
			Apply: func(tx *engine.Tx) error {
				tx.SetBracket(b)
				return nil
			},
		})
	})

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Warn("bracket stream closed", "error", err)
		return
	}
	s.logger.Warn("bracket stream closed by server")
}
