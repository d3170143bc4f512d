package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/render"
)

// StatusResult is the JSON payload of the status command.
type StatusResult struct {
	Session    string              `json:"session"`
	Privileged bool                `json:"privileged"`
	Game       *model.GameState    `json:"game"`
	Bracket    *model.BracketState `json:"bracket"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Pull the game and bracket once and print them",
		Long: `Pull the game and the bracket once and print the scoreboard, the
scoring history and the bracket overview.

Exit codes:
  0 - At least one of the game or bracket was read
  1 - Both reads failed
  2 - Command error (bad config, unreadable state store)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := commandContext(cmd)
			rt := s.start(ctx, runtimeOptions{})
			defer rt.stop()

			if err := rt.pull(ctx); err != nil {
				return s.out.Fail(ExitFailure, ErrCodeRequest, "backend unreachable", err.Error())
			}
			snap := rt.engine.Snapshot()

			if s.out.JSON() {
				return s.out.Success(StatusResult{
					Session:    s.id,
					Privileged: snap.Privileged,
					Game:       snap.Game,
					Bracket:    snap.Bracket,
				})
			}

			w := s.out.Writer
			if snap.Game == nil {
				fmt.Fprintln(w, "No game loaded")
			} else {
				if err := render.Scoreboard(w, snap.Game, false); err != nil {
					return err
				}
				if err := render.History(w, snap.Game, nil); err != nil {
					return err
				}
			}
			if snap.Bracket != nil {
				fmt.Fprintln(w)
				return render.Overview(w, snap.Bracket)
			}
			return nil
		},
	}
}
