package control

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/api"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/bracket"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/cue"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/engine"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/optimistic"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/syncer"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/testutil"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

type fixture struct {
	backend *testutil.Backend
	engine  *engine.Engine
	client  *api.Client
	timer   *timer.Countdown
	cues    *cue.Recorder
	ctrl    *Controller
}

func newFixture(t *testing.T, privileged bool) *fixture {
	t.Helper()

	backend := testutil.NewBackend(t)
	e := engine.New(engine.WithPrivileged(privileged))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})

	token := ""
	if privileged {
		token = testutil.AdminToken
	}
	client := api.New(backend.URL(), api.WithToken(token))
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	countdown := timer.New(clock)
	cues := &cue.Recorder{}

	ctrl := New(Deps{
		Engine:  e,
		Backend: client,
		Puller:  syncer.New(e, client, syncer.Config{}),
		Local:   optimistic.New(e, optimistic.WithClock(clock), optimistic.WithTimer(countdown)),
		Timer:   countdown,
		Cue:     cues,
	})
	return &fixture{backend: backend, engine: e, client: client, timer: countdown, cues: cues, ctrl: ctrl}
}

func (f *fixture) game(t *testing.T) *model.GameState {
	t.Helper()
	g := f.engine.Snapshot().Game
	require.NotNil(t, g)
	return g
}

func initTeams(t *testing.T, f *fixture, names string) {
	t.Helper()
	require.NoError(t, f.ctrl.InitBracket(context.Background(), names))
}

// --- operator ------------------------------------------------------------

func TestOperator_AwardTossupCallsBackendAndPulls(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.ctrl.AwardTossup(ctx, model.SideB))

	reqs := f.backend.RequestsTo("/api/game/award-tossup")
	require.Len(t, reqs, 1)
	assert.Equal(t, "B", reqs[0].Body["team"])
	assert.Equal(t, testutil.AdminToken, reqs[0].AdminToken)

	g := f.game(t)
	assert.Equal(t, 10, g.TeamBScore)
	assert.Equal(t, model.SideB, g.LastTossupWinner)
	assert.Equal(t, []cue.Kind{cue.Correct}, f.cues.Played())
}

func TestOperator_AwardBonusPlaysBonusCue(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.ctrl.AwardTossup(ctx, model.SideA))
	require.NoError(t, f.ctrl.AwardBonus(ctx))

	assert.Equal(t, 20, f.game(t).TeamAScore)
	assert.Equal(t, []cue.Kind{cue.Correct, cue.Bonus}, f.cues.Played())
}

func TestOperator_NextTossupResetsTimer(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.ctrl.StartTimer(timer.ModeBonus)
	require.NoError(t, f.ctrl.NextTossup(ctx))

	st := f.ctrl.Timer()
	assert.Equal(t, timer.ModeTossup, st.Mode)
	assert.Equal(t, timer.TossupSeconds, st.Remaining)
	assert.False(t, st.Running())
	assert.Equal(t, 2, f.game(t).QuestionNumber)
}

func TestOperator_ResetGameResetsBracketAndSelections(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	initTeams(t, f, "Faze\nLiquid\nNavi")
	f.ctrl.SelectPair("1", "3")
	f.ctrl.Focus("3")
	require.NoError(t, f.ctrl.AwardTossup(ctx, model.SideA))

	require.NoError(t, f.ctrl.ResetGame(ctx))

	assert.Len(t, f.backend.RequestsTo("/api/game/reset"), 1)
	assert.Len(t, f.backend.RequestsTo("/api/bracket/reset"), 1)
	assert.Equal(t, model.DefaultGame(), f.game(t))
	assert.Empty(t, f.engine.Snapshot().Bracket.Teams)
	assert.Nil(t, f.ctrl.NextMatch())

	a, b := f.ctrl.Pairing()
	assert.Empty(t, a)
	assert.Empty(t, b)
}

func TestOperator_SaveTeamNames(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.ctrl.SaveTeamNames(context.Background(), " Faze ", "Liquid"))

	reqs := f.backend.RequestsTo("/api/game/team-names")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Faze", reqs[0].Body["teamAName"])
	assert.Equal(t, "Liquid", f.game(t).TeamBName)
}

func TestOperator_InitBracketSplitsLines(t *testing.T) {
	f := newFixture(t, true)

	initTeams(t, f, "  Faze \n\nLiquid\n   \nNavi\n")

	reqs := f.backend.RequestsTo("/api/bracket/init")
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{"Faze", "Liquid", "Navi"}, reqs[0].Body["teamNames"])
	assert.Len(t, f.engine.Snapshot().Bracket.Teams, 3)
}

func TestOperator_PushPairingDefaultsToFirstTwoAvailable(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	initTeams(t, f, "Faze\nLiquid\nNavi")

	require.NoError(t, f.ctrl.PushPairing(ctx))

	reqs := f.backend.RequestsTo("/api/bracket/set-current")
	require.Len(t, reqs, 1)
	assert.Equal(t, "1", reqs[0].Body["teamAId"])
	assert.Equal(t, "2", reqs[0].Body["teamBId"])
	assert.Equal(t, "default", reqs[0].GameID)

	g := f.game(t)
	assert.Equal(t, "Faze", g.TeamAName)
	assert.Equal(t, "Liquid", g.TeamBName)
	assert.Len(t, f.engine.Snapshot().Bracket.Matches, 1)
}

func TestOperator_PushPairingNeedsTwoTeams(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.ctrl.PushPairing(context.Background()))
	assert.Empty(t, f.backend.RequestsTo("/api/bracket/set-current"))
}

func TestOperator_FinalizeCurrentRefreshesBracket(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	initTeams(t, f, "Faze\nLiquid")
	f.ctrl.SelectPair("1", "2")
	require.NoError(t, f.ctrl.PushPairing(ctx))
	require.NoError(t, f.ctrl.AwardTossup(ctx, model.SideB))

	require.NoError(t, f.ctrl.FinalizeCurrent(ctx))

	b := f.engine.Snapshot().Bracket
	require.Len(t, b.Matches, 1)
	assert.True(t, b.Matches[0].Completed)
	require.NotNil(t, b.Matches[0].WinnerID)
	assert.Equal(t, model.ID("2"), *b.Matches[0].WinnerID)

	f.ctrl.Focus("1")
	next := f.ctrl.NextMatch()
	require.NotNil(t, next)
	assert.Equal(t, bracket.StatusWaitingSchedule, next.Status)
}

func TestOperator_ForbiddenDemotesSession(t *testing.T) {
	f := newFixture(t, true)
	f.client.SetToken("stale-token")

	err := f.ctrl.ResetGame(context.Background())

	var uerr *UserError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Admin access required", uerr.Message)
	assert.True(t, uerr.Demoted)
	assert.True(t, api.IsUnauthorized(err))
	assert.False(t, f.ctrl.Privileged())
}

func TestOperator_WriteFailureUsesFallbackMessage(t *testing.T) {
	f := newFixture(t, true)
	f.backend.FailWrites(http.StatusInternalServerError)
	f.backend.SetGame(model.DefaultGame())

	err := f.ctrl.AwardTossup(context.Background(), model.SideA)

	var uerr *UserError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Write failed", uerr.Message)
	assert.False(t, uerr.Demoted)
	assert.True(t, f.ctrl.Privileged())
	assert.Empty(t, f.cues.Played(), "no cue for a failed write")
}

// --- viewer --------------------------------------------------------------

func TestViewer_ScoringIsLocal(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.ctrl.AwardTossup(ctx, model.SideA))
	require.NoError(t, f.ctrl.AwardBonus(ctx))
	require.NoError(t, f.ctrl.NextTossup(ctx))

	g := f.game(t)
	assert.Equal(t, 20, g.TeamAScore)
	assert.Equal(t, 2, g.QuestionNumber)
	assert.Equal(t, model.SideNone, g.LastTossupWinner)
	require.Len(t, g.History, 2)
	assert.Equal(t, "Bonus +10 → Team A", g.History[1].Description)

	assert.Equal(t, []cue.Kind{cue.Correct, cue.Bonus}, f.cues.Played())
	for _, r := range f.backend.Requests() {
		assert.Equal(t, http.MethodGet, r.Method, "viewer must not write: %s", r.Path)
	}
}

func TestViewer_NextTossupResetsTimer(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.ctrl.AwardTossup(ctx, model.SideA))
	f.ctrl.StartTimer(timer.ModeBonus)

	require.NoError(t, f.ctrl.NextTossup(ctx))

	st := f.ctrl.Timer()
	assert.Equal(t, timer.ModeTossup, st.Mode)
	assert.False(t, st.Running())
}

func TestViewer_RenameAndReset(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.ctrl.SaveTeamNames(ctx, "Faze", "Liquid"))
	assert.Equal(t, "Faze", f.game(t).TeamAName)

	require.NoError(t, f.ctrl.ResetGame(ctx))
	assert.Equal(t, model.DefaultGame(), f.game(t))
	assert.Empty(t, f.backend.RequestsTo("/api/game/reset"))
}

func TestViewer_InvalidSide(t *testing.T) {
	f := newFixture(t, false)
	err := f.ctrl.AwardTossup(context.Background(), "C")
	assert.ErrorIs(t, err, optimistic.ErrInvalidSide)
}

func TestViewer_BracketAdminNotPermitted(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for name, call := range map[string]func() error{
		"init":     func() error { return f.ctrl.InitBracket(ctx, "A\nB") },
		"reset":    func() error { return f.ctrl.ResetBracket(ctx) },
		"push":     func() error { return f.ctrl.PushPairing(ctx) },
		"finalize": func() error { return f.ctrl.FinalizeCurrent(ctx) },
	} {
		err := call()
		assert.True(t, errors.Is(err, ErrNotPermitted), name)
	}
	assert.Empty(t, f.backend.Requests())
}

// --- timer ---------------------------------------------------------------

func TestTimerExpirationPlaysCue(t *testing.T) {
	f := newFixture(t, false)

	f.ctrl.StartTimer(timer.ModeTossup)
	for i := 0; i < timer.TossupSeconds; i++ {
		f.timer.Tick()
	}

	assert.Equal(t, timer.StatusExpired, f.ctrl.Timer().Status)
	assert.Equal(t, []cue.Kind{cue.TimerEnd}, f.cues.Played())
}

func TestTimerPauseAndReset(t *testing.T) {
	f := newFixture(t, false)

	f.ctrl.StartTimer(timer.ModeBonus)
	f.timer.Tick()
	f.ctrl.PauseTimer()
	assert.Equal(t, timer.BonusSeconds-1, f.ctrl.Timer().Remaining)
	assert.False(t, f.ctrl.Timer().Running())

	f.ctrl.ResetTimer()
	assert.Equal(t, timer.BonusSeconds, f.ctrl.Timer().Remaining)

	f.ctrl.SwitchTimer(timer.ModeTossup)
	assert.Equal(t, timer.TossupSeconds, f.ctrl.Timer().Remaining)
}
