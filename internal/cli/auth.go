package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/auth"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// identity is the JSON view of stored credentials. The token is never
// printed.
type identity struct {
	Username   string `json:"username,omitempty"`
	Role       string `json:"role,omitempty"`
	Privileged bool   `json:"privileged"`
}

func identityOf(c model.Credentials) identity {
	return identity{Username: c.Username, Role: c.Role, Privileged: c.Privileged()}
}

func (i identity) String() string {
	if i.Username == "" {
		return "Not logged in (viewer)"
	}
	mode := "viewer"
	if i.Privileged {
		mode = "operator"
	}
	return fmt.Sprintf("%s (%s, %s)", i.Username, i.Role, mode)
}

type credentialOptions struct {
	*RootOptions
	Password string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store the session token",
		Long: `Log in to the backend. The returned token, role and username are stored
in the local state database and used by every later command.

Without --password the password is read from the first line of stdin.

Example:
  quizctl login admin --password hunter2
  echo hunter2 | quizctl login admin`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd, opts, args[0], (*auth.Manager).Login)
		},
	}
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (default: read from stdin)")
	return cmd
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "register <username>",
		Short:         "Create an account and log in",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd, opts, args[0], (*auth.Manager).Register)
		},
	}
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (default: read from stdin)")
	return cmd
}

type credentialCall func(m *auth.Manager, ctx context.Context, username, password string) (model.Credentials, error)

func runCredentials(cmd *cobra.Command, opts *credentialOptions, username string, call credentialCall) error {
	password, err := passwordFrom(cmd.InOrStdin(), opts.Password)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	creds, err := call(s.auth, commandContext(cmd), username, password)
	if err != nil {
		return failAuth(s.out, err)
	}

	id := identityOf(creds)
	if s.out.JSON() {
		return s.out.Success(id)
	}
	fmt.Fprintf(s.out.Writer, "Logged in as %s\n", id)
	return nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Delete the stored session token",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.auth.Logout(commandContext(cmd)); err != nil {
				return WrapExitError(ExitCommandError, "failed to clear credentials", err)
			}
			if s.out.JSON() {
				return s.out.Success(identityOf(model.Credentials{}))
			}
			return s.out.Success("Logged out")
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the stored identity",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.out.Success(identityOf(s.creds))
		},
	}
}

type profileOptions struct {
	*RootOptions
	Username string
	Password string
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &profileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change the username or password of the logged-in account",
		Long: `Change the username and/or password of the logged-in account.

The stored token is kept; the username and role are replaced by the
server's answer.

Example:
  quizctl profile --username quizmaster
  quizctl profile --password s3cret`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Username == "" && opts.Password == "" {
				return NewExitError(ExitCommandError, "nothing to change: pass --username or --password")
			}

			s, err := openSession(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.creds.Token == "" {
				return s.out.Fail(ExitFailure, ErrCodeAuth, "Not logged in", nil)
			}
			creds, err := s.auth.UpdateProfile(commandContext(cmd), opts.Username, opts.Password)
			if err != nil {
				return failAuth(s.out, err)
			}
			if s.out.JSON() {
				return s.out.Success(identityOf(creds))
			}
			fmt.Fprintf(s.out.Writer, "%s: %s\n", auth.MsgProfileUpdated, identityOf(creds))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Username, "username", "", "new username")
	cmd.Flags().StringVar(&opts.Password, "password", "", "new password")
	return cmd
}

// passwordFrom returns flag, or the first line of in when flag is empty.
func passwordFrom(in io.Reader, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", WrapExitError(ExitCommandError, "failed to read password", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", NewExitError(ExitCommandError, "password is required")
	}
	return password, nil
}

func failAuth(out *OutputFormatter, err error) error {
	var aerr *auth.Error
	if errors.As(err, &aerr) {
		return out.Fail(ExitFailure, ErrCodeAuth, aerr.Message, map[string]string{"op": aerr.Op})
	}
	return WrapExitError(ExitCommandError, "failed to store credentials", err)
}
