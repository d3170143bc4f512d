package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/bracket"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/control"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/render"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// Help lists the console commands.
const Help = `Commands:
  a | b                     award a tossup to team A or B
  bonus                     award a bonus to the last tossup winner
  next                      advance to the next tossup
  reset                     reset the game
  names "<A>" "<B>"         rename the teams
  timer start [tossup|bonus]
  timer pause | reset | mode <tossup|bonus>
  show                      print scoreboard, timer and history
  bracket                   print the bracket overview and trees
  standings                 print the standings
  focus <team>              show the next match of a team
  init "<team>"...          start a bracket (operator)
  pair <team> <team>        select the pairing to push (operator)
  push                      make the pairing the current match (operator)
  finalize                  finalize the current match (operator)
  bracket-reset             reset the bracket (operator)
  help | quit`

// Console executes commands against a controller.
type Console struct {
	ctrl   *control.Controller
	engine *engine.Engine
	out    io.Writer
}

// New creates a Console writing its output to out.
func New(ctrl *control.Controller, e *engine.Engine, out io.Writer) *Console {
	return &Console{ctrl: ctrl, engine: e, out: out}
}

// Run reads commands from in until EOF, quit or ctx is done. Command
// failures are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			err := c.Exec(ctx, line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(c.out, "error: %s\n", describe(err))
			}
		}
	}
}

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	cmd, err := Parse(line)
	if err != nil {
		return err
	}

	switch cmd.Name {
	case "":
		return nil
	case "quit", "exit", "q":
		return ErrQuit
	case "help", "?":
		_, err := fmt.Fprintln(c.out, Help)
		return err

	case "a", "b":
		return c.ctrl.AwardTossup(ctx, model.Side(strings.ToUpper(cmd.Name)))
	case "tossup":
		if err := wantArgs(cmd, 1); err != nil {
			return err
		}
		return c.ctrl.AwardTossup(ctx, model.Side(strings.ToUpper(cmd.Args[0])))
	case "bonus":
		return c.ctrl.AwardBonus(ctx)
	case "next":
		return c.ctrl.NextTossup(ctx)
	case "reset":
		return c.ctrl.ResetGame(ctx)
	case "names":
		if err := wantArgs(cmd, 2); err != nil {
			return err
		}
		return c.ctrl.SaveTeamNames(ctx, cmd.Args[0], cmd.Args[1])

	case "timer":
		return c.timerCommand(cmd)

	case "show":
		snap := c.engine.Snapshot()
		if err := render.Scoreboard(c.out, snap.Game, snap.GameSyncing); err != nil {
			return err
		}
		if err := render.Timer(c.out, c.ctrl.Timer()); err != nil {
			return err
		}
		return render.History(c.out, snap.Game, nil)
	case "bracket":
		b := c.engine.Snapshot().Bracket
		if err := render.Overview(c.out, b); err != nil {
			return err
		}
		if err := render.Tree(c.out, b, model.BracketWinners); err != nil {
			return err
		}
		return render.Tree(c.out, b, model.BracketLosers)
	case "standings":
		return render.Standings(c.out, c.engine.Snapshot().Bracket)
	case "focus":
		if err := wantArgs(cmd, 1); err != nil {
			return err
		}
		t, err := c.team(cmd.Args[0])
		if err != nil {
			return err
		}
		c.ctrl.Focus(t.ID)
		return render.NextMatch(c.out, t.Name, c.ctrl.NextMatch())

	case "init":
		if len(cmd.Args) == 0 {
			return fmt.Errorf("init: want team names")
		}
		return c.ctrl.InitBracket(ctx, strings.Join(cmd.Args, "\n"))
	case "pair":
		if err := wantArgs(cmd, 2); err != nil {
			return err
		}
		a, err := c.team(cmd.Args[0])
		if err != nil {
			return err
		}
		b, err := c.team(cmd.Args[1])
		if err != nil {
			return err
		}
		c.ctrl.SelectPair(a.ID, b.ID)
		_, err = fmt.Fprintf(c.out, "pairing: %s vs %s\n", a.Name, b.Name)
		return err
	case "push":
		return c.ctrl.PushPairing(ctx)
	case "finalize":
		return c.ctrl.FinalizeCurrent(ctx)
	case "bracket-reset":
		return c.ctrl.ResetBracket(ctx)
	}
	return fmt.Errorf("unknown command %q (try help)", cmd.Name)
}

func (c *Console) timerCommand(cmd Command) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("timer: want start, pause, reset or mode")
	}
	switch cmd.Args[0] {
	case "start":
		mode := timer.ModeTossup
		if len(cmd.Args) > 1 {
			mode = timer.Mode(cmd.Args[1])
			if !mode.Valid() {
				return fmt.Errorf("timer: unknown mode %q", cmd.Args[1])
			}
		}
		c.ctrl.StartTimer(mode)
	case "pause":
		c.ctrl.PauseTimer()
	case "reset":
		c.ctrl.ResetTimer()
	case "mode":
		if len(cmd.Args) != 2 || !timer.Mode(cmd.Args[1]).Valid() {
			return fmt.Errorf("timer mode: want tossup or bonus")
		}
		c.ctrl.SwitchTimer(timer.Mode(cmd.Args[1]))
	default:
		return fmt.Errorf("timer: unknown subcommand %q", cmd.Args[0])
	}
	return nil
}

func (c *Console) team(query string) (model.Team, error) {
	return bracket.FindTeam(c.engine.Snapshot().Bracket, query)
}

func wantArgs(cmd Command, n int) error {
	if len(cmd.Args) != n {
		return fmt.Errorf("%s: want %d argument(s), got %d", cmd.Name, n, len(cmd.Args))
	}
	return nil
}

func describe(err error) string {
	var uerr *control.UserError
	if errors.As(err, &uerr) {
		if uerr.Demoted {
			return uerr.Message + " (now viewing only)"
		}
		return uerr.Message
	}
	return err.Error()
}
