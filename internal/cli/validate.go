package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Kind string // model.KindGame | model.KindBracket
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Kind  string `json:"kind"`
	File  string `json:"file"`
	Field string `json:"field,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a game or bracket payload",
		Long: `Validate a JSON game or bracket payload the way the client does when
it receives one: against the payload schema, then against the snapshot
invariants (non-negative scores, unique ids, eliminated iff two losses,
completed matches won by a participant).

Use "-" to read the payload from stdin.

Exit codes:
  0 - Payload valid
  1 - Payload invalid
  2 - Command error (unreadable file, unknown kind)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", model.KindGame, "payload kind (game|bracket)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	var decode func([]byte) error
	switch opts.Kind {
	case model.KindGame:
		decode = func(data []byte) error {
			_, err := model.DecodeGame(data)
			return err
		}
	case model.KindBracket:
		decode = func(data []byte) error {
			_, err := model.DecodeBracket(data)
			return err
		}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q: must be game or bracket", opts.Kind))
	}

	data, err := readPayload(cmd.InOrStdin(), path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read payload", err)
	}
	formatter.VerboseLog("Validating %d bytes as %s", len(data), opts.Kind)

	result := ValidationResult{Valid: true, Kind: opts.Kind, File: path}
	if err := decode(data); err != nil {
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			return WrapExitError(ExitCommandError, "failed to load payload schema", err)
		}
		result.Valid = false
		result.Field = verr.Field
		result.Error = verr.Error()
	}

	if !result.Valid {
		return formatter.Fail(ExitFailure, ErrCodeInvalid, result.Error, result)
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ %s is a valid %s payload", path, opts.Kind))
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
