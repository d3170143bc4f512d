package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/api"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/auth"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/config"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/control"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/cue"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/optimistic"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/store"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/stream"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/syncer"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

// session holds what every networked command needs: the resolved config,
// a logger tagged with the session id, the credential store and an API
// client carrying the stored token.
type session struct {
	cfg    config.Config
	id     string
	logger *slog.Logger
	store  *store.Store
	client *api.Client
	auth   *auth.Manager
	creds  model.Credentials
	out    *OutputFormatter
}

// openSession resolves configuration and opens the credential store.
// Config problems and store failures are command errors.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	out := newFormatter(cmd, opts)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	gen := opts.SessionIDs
	if gen == nil {
		gen = engine.UUIDv7Generator{}
	}
	id := gen.Generate()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})).With("session", id)

	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create state directory", err)
	}
	st, err := store.Open(cfg.StatePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open state store", err)
	}

	clientOpts := []api.Option{
		api.WithGameID(cfg.GameID),
		api.WithTimeout(cfg.RequestTimeout),
	}
	if cfg.RequestsPerSecond > 0 {
		clientOpts = append(clientOpts, api.WithRateLimit(cfg.RequestsPerSecond))
	}
	client := api.New(cfg.BaseURL, clientOpts...)
	mgr := auth.NewManager(client, st, api.MessageOr, logger)

	creds, err := mgr.Current(commandContext(cmd))
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load credentials", err)
	}
	logger.Debug("session opened",
		"base_url", cfg.BaseURL,
		"game_id", cfg.GameID,
		"privileged", creds.Privileged(),
	)

	return &session{
		cfg:    cfg,
		id:     id,
		logger: logger,
		store:  st,
		client: client,
		auth:   mgr,
		creds:  creds,
		out:    out,
	}, nil
}

// loadConfig applies the flag overrides on top of the loaded file and
// environment.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Loader{Path: opts.ConfigPath}.Load()
	if err != nil {
		return config.Config{}, err
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.GameID != "" {
		cfg.GameID = opts.GameID
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing state store", "error", err)
	}
}

// runtime is a running engine with the components wired around it.
type runtime struct {
	engine    *engine.Engine
	countdown *timer.Countdown
	sync      *syncer.Synchronizer
	ctrl      *control.Controller

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// runtimeOptions select the optional parts of a runtime.
type runtimeOptions struct {
	push   bool       // subscribe to the bracket stream
	player cue.Player // nil discards cues
}

// start launches the engine and the countdown. The synchronizer is built
// but not run; commands pull explicitly or call runtime.sync.Run.
func (s *session) start(ctx context.Context, ro runtimeOptions) *runtime {
	ctx, cancel := context.WithCancel(ctx)

	eng := engine.New(
		engine.WithPrivileged(s.creds.Privileged()),
		engine.WithLogger(s.logger),
	)
	countdown := timer.New(nil)

	syncOpts := []syncer.Option{syncer.WithLogger(s.logger)}
	if ro.push {
		syncOpts = append(syncOpts, syncer.WithPush(
			stream.NewSSE(s.cfg.BaseURL, s.cfg.StreamPath, stream.WithLogger(s.logger)),
		))
	}
	puller := syncer.New(eng, s.client, syncer.Config{
		OperatorInterval: s.cfg.OperatorInterval,
		ViewerInterval:   s.cfg.ViewerInterval,
	}, syncOpts...)

	ctrl := control.New(control.Deps{
		Engine:  eng,
		Backend: s.client,
		Puller:  puller,
		Local: optimistic.New(eng,
			optimistic.WithTimer(countdown),
			optimistic.WithLogger(s.logger),
		),
		Timer:  countdown,
		Cue:    ro.player,
		Logger: s.logger,
	})

	rt := &runtime{
		engine:    eng,
		countdown: countdown,
		sync:      puller,
		ctrl:      ctrl,
		cancel:    cancel,
	}
	rt.wg.Add(2)
	go func() {
		defer rt.wg.Done()
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("engine stopped", "error", err)
		}
	}()
	go func() {
		defer rt.wg.Done()
		_ = countdown.Run(ctx)
	}()
	return rt
}

// stop cancels the runtime and waits for its goroutines.
func (rt *runtime) stop() {
	rt.cancel()
	rt.wg.Wait()
	<-rt.engine.Done()
}

// pull loads the game and the bracket once. It fails only if both reads
// fail.
func (rt *runtime) pull(ctx context.Context) error {
	gameErr := rt.sync.PullGame(ctx)
	bracketErr := rt.sync.PullBracket(ctx)
	if gameErr != nil && bracketErr != nil {
		return fmt.Errorf("pull: %w", errors.Join(gameErr, bracketErr))
	}
	return nil
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or Background when the
// command is executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// failAction maps a controller error onto output and an exit code.
func failAction(out *OutputFormatter, err error) error {
	var ue *control.UserError
	switch {
	case errors.Is(err, control.ErrNotPermitted):
		return out.Fail(ExitFailure, ErrCodeNotPermitted, "operator login required", nil)
	case errors.As(err, &ue):
		return out.Fail(ExitFailure, ErrCodeRequest, ue.Message, map[string]any{"op": ue.Op, "demoted": ue.Demoted})
	default:
		return out.Fail(ExitFailure, ErrCodeRequest, err.Error(), nil)
	}
}
