package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/console"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/cue"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/render"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Follow bool // print the scoreboard on every change instead of reading commands
	Bell   bool // ring the terminal bell for cues
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Mirror the live match and control it from a console",
		Long: `Start a live session: the game and bracket are pulled on a cadence
(faster for operators) and the bracket is also pushed over the server's
event stream.

Commands are read from stdin one per line; type "help" for the list.
With --follow no commands are read and the scoreboard is printed whenever
the game changes.

Example:
  quizctl watch
  quizctl watch --follow --game-id finals`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Follow, "follow", false, "print the scoreboard on every change instead of reading commands")
	cmd.Flags().BoolVar(&opts.Bell, "bell", false, "ring the terminal bell for cues")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var player cue.Player = cue.Discard{}
	if opts.Bell {
		player = cue.NewBell(cmd.OutOrStdout())
	}
	rt := s.start(ctx, runtimeOptions{push: true, player: player})
	defer rt.stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		_ = rt.sync.Run(ctx)
	}()

	w := cmd.OutOrStdout()
	s.logger.Info("watch started", "game_id", s.cfg.GameID, "privileged", s.creds.Privileged())
	fmt.Fprintf(w, "Watching game %q as %s.\n", s.cfg.GameID, identityOf(s.creds))

	if opts.Follow {
		fmt.Fprintln(w, "Press Ctrl-C to stop.")
		follow(ctx, rt.engine, w)
	} else {
		fmt.Fprintln(w, `Type "help" for commands, "quit" to stop.`)
		if err := console.New(rt.ctrl, rt.engine, w).Run(ctx, cmd.InOrStdin()); err != nil {
			cancel()
			<-syncDone
			return WrapExitError(ExitCommandError, "failed to read commands", err)
		}
	}

	cancel()
	<-syncDone
	s.logger.Info("watch stopped")
	return nil
}

// follow prints the scoreboard whenever the published game changes, until
// ctx is done.
func follow(ctx context.Context, e *engine.Engine, w io.Writer) {
	var last *model.GameState
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.Updates():
			snap := e.Snapshot()
			if snap.Game == nil || snap.Game == last {
				continue
			}
			last = snap.Game
			_ = render.Scoreboard(w, snap.Game, snap.GameSyncing)
			fmt.Fprintln(w)
		}
	}
}
