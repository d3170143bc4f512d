package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/bracket"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/render"
)

// NewBracketCommand creates the bracket command group.
func NewBracketCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bracket",
		Short: "Show or administer the double-elimination bracket",
		Long: `Show the bracket or, as an operator, administer it.

Team arguments accept an id, an exact name or a fuzzy name ("liquid"
finds "Team Liquid").`,
	}

	cmd.AddCommand(newBracketShowCommand(rootOpts))
	cmd.AddCommand(newBracketStandingsCommand(rootOpts))
	cmd.AddCommand(newBracketNextMatchCommand(rootOpts))
	cmd.AddCommand(newBracketInitCommand(rootOpts))
	cmd.AddCommand(newBracketResetCommand(rootOpts))
	cmd.AddCommand(newBracketSetCurrentCommand(rootOpts))
	cmd.AddCommand(newBracketFinalizeCommand(rootOpts))
	return cmd
}

// bracketAction runs fn against a started runtime whose bracket has been
// pulled once.
func bracketAction(cmd *cobra.Command, opts *RootOptions, fn func(s *session, rt *runtime, b *model.BracketState) error) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := commandContext(cmd)
	rt := s.start(ctx, runtimeOptions{})
	defer rt.stop()

	if err := rt.sync.PullBracket(ctx); err != nil {
		return s.out.Fail(ExitFailure, ErrCodeRequest, "failed to read bracket", err.Error())
	}
	return fn(s, rt, rt.engine.Snapshot().Bracket)
}

func newBracketShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the overview and both round trees",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bracketAction(cmd, opts, func(s *session, _ *runtime, b *model.BracketState) error {
				if s.out.JSON() {
					return s.out.Success(b)
				}
				w := s.out.Writer
				if err := render.Overview(w, b); err != nil {
					return err
				}
				for _, name := range []model.BracketName{model.BracketWinners, model.BracketLosers} {
					fmt.Fprintln(w)
					if err := render.Tree(w, b, name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newBracketStandingsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "standings",
		Short:         "Print every team with its losses and status",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bracketAction(cmd, opts, func(s *session, _ *runtime, b *model.BracketState) error {
				if s.out.JSON() {
					return s.out.Success(bracket.Standings(b))
				}
				return render.Standings(s.out.Writer, b)
			})
		},
	}
}

func newBracketNextMatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "next-match <team>",
		Short:         "Print what a team plays next",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bracketAction(cmd, opts, func(s *session, _ *runtime, b *model.BracketState) error {
				team, err := bracket.FindTeam(b, args[0])
				if err != nil {
					return s.out.Fail(ExitFailure, ErrCodeRequest, err.Error(), nil)
				}
				nm := bracket.NextMatchForTeam(b, team.ID)
				if s.out.JSON() {
					return s.out.Success(nm)
				}
				return render.NextMatch(s.out.Writer, team.Name, nm)
			})
		},
	}
}

func newBracketInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [names-file]",
		Short: "Start a new bracket from team names, one per line",
		Long: `Start a new bracket. Team names are read one per line from the file,
or from stdin when no file is given. Blank lines are ignored.

Example:
  quizctl bracket init teams.txt
  printf 'Faze Clan\nTeam Liquid\n' | quizctl bracket init`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read team names", err)
			}

			return bracketAction(cmd, opts, func(s *session, rt *runtime, _ *model.BracketState) error {
				if err := rt.ctrl.InitBracket(commandContext(cmd), string(data)); err != nil {
					return failAction(s.out, err)
				}
				return reportBracket(s, rt, fmt.Sprintf("Bracket started with %d teams", len(model.ParseTeamNames(string(data)))))
			})
		},
	}
}

func newBracketResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reset",
		Short:         "Clear the bracket",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bracketAction(cmd, opts, func(s *session, rt *runtime, _ *model.BracketState) error {
				if err := rt.ctrl.ResetBracket(commandContext(cmd)); err != nil {
					return failAction(s.out, err)
				}
				return reportBracket(s, rt, "Bracket reset")
			})
		},
	}
}

func newBracketSetCurrentCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-current <team-a> <team-b>",
		Short: "Make two teams the current match",
		Long: `Make two teams the current match. The game is reset and renamed to
the two teams by the server.

Example:
  quizctl bracket set-current "Faze Clan" liquid`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bracketAction(cmd, opts, func(s *session, rt *runtime, b *model.BracketState) error {
				a, err := bracket.FindTeam(b, args[0])
				if err != nil {
					return s.out.Fail(ExitFailure, ErrCodeRequest, err.Error(), nil)
				}
				c, err := bracket.FindTeam(b, args[1])
				if err != nil {
					return s.out.Fail(ExitFailure, ErrCodeRequest, err.Error(), nil)
				}
				if a.ID == c.ID {
					return s.out.Fail(ExitFailure, ErrCodeRequest, fmt.Sprintf("%s cannot play itself", a.Name), nil)
				}

				rt.ctrl.SelectPair(a.ID, c.ID)
				if err := rt.ctrl.PushPairing(commandContext(cmd)); err != nil {
					return failAction(s.out, err)
				}
				return reportBracket(s, rt, fmt.Sprintf("Current match: %s vs %s", a.Name, c.Name))
			})
		},
	}
}

func newBracketFinalizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "finalize",
		Short:         "Record the result of the current match",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bracketAction(cmd, opts, func(s *session, rt *runtime, _ *model.BracketState) error {
				if err := rt.ctrl.FinalizeCurrent(commandContext(cmd)); err != nil {
					return failAction(s.out, err)
				}
				return reportBracket(s, rt, "Match finalized")
			})
		},
	}
}

// reportBracket prints msg and the refreshed overview, or the refreshed
// bracket as JSON.
func reportBracket(s *session, rt *runtime, msg string) error {
	b := rt.engine.Snapshot().Bracket
	if s.out.JSON() {
		return s.out.Success(b)
	}
	fmt.Fprintln(s.out.Writer, msg)
	if b == nil {
		return nil
	}
	return render.Overview(s.out.Writer, b)
}
