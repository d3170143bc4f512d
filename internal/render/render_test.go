package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/bracket"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

const baseMillis = 1_700_000_000_000 // 2023-11-14T22:13:20Z

func sampleGame() *model.GameState {
	return &model.GameState{
		TeamAName:        "Faze Clan",
		TeamBName:        "Liquid",
		TeamAScore:       20,
		TeamBScore:       10,
		QuestionNumber:   4,
		LastTossupWinner: model.SideA,
		History: []model.HistoryEvent{
			{Type: model.EventTossup, Description: "Tossup +10 → Liquid", Timestamp: baseMillis, Team: model.SideB, Points: 10},
			{Type: model.EventTossup, Description: "Tossup +10 → Faze Clan", Timestamp: baseMillis + 65_000, Team: model.SideA, Points: 10},
			{Type: model.EventBonus, Description: "Bonus +10 → Faze Clan", Timestamp: baseMillis + 90_000, Team: model.SideA, Points: 10},
		},
	}
}

func sampleBracket() *model.BracketState {
	return &model.BracketState{
		Teams: []model.Team{
			{ID: "1", Name: "Faze"},
			{ID: "2", Name: "Liquid", Losses: 1},
			{ID: "3", Name: "Navi"},
			{ID: "4", Name: "G2", Losses: 2, Eliminated: true},
		},
		Matches: []model.Match{
			{ID: "m1", Bracket: model.BracketWinners, Round: 1, TeamAID: "1", TeamBID: "2",
				ScoreA: model.IntPtr(30), ScoreB: model.IntPtr(10), WinnerID: model.IDPtr("1"), Completed: true},
			{ID: "m2", Bracket: model.BracketWinners, Round: 1, TeamAID: "3", TeamBID: "4",
				ScoreA: model.IntPtr(20), ScoreB: model.IntPtr(0), WinnerID: model.IDPtr("3"), Completed: true},
			{ID: "m3", Bracket: model.BracketLosers, Round: 1, TeamAID: "2", TeamBID: "4",
				ScoreA: model.IntPtr(40), ScoreB: model.IntPtr(20), WinnerID: model.IDPtr("2"), Completed: true},
			{ID: "m4", Bracket: model.BracketWinners, Round: 2, TeamAID: "1", TeamBID: "3"},
		},
		SuggestedWinnersPairs:   []model.Pair{{TeamAID: "1", TeamBID: "3"}},
		SuggestedWinnersTeamAID: model.IDPtr("1"),
		SuggestedWinnersTeamBID: model.IDPtr("3"),
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestScoreboard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Scoreboard(&buf, sampleGame(), true))
	newGoldie(t).Assert(t, "scoreboard", buf.Bytes())
}

func TestScoreboard_NoGameAndNoBonus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Scoreboard(&buf, nil, false))
	assert.Equal(t, "No game loaded\n", buf.String())

	buf.Reset()
	require.NoError(t, Scoreboard(&buf, model.DefaultGame(), false))
	assert.Equal(t, "Question 1\n  Team A    0\n  Team B    0\nBonus: -\n", buf.String())
}

func TestHistory_NewestFirst(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, History(&buf, sampleGame(), time.UTC))
	newGoldie(t).Assert(t, "history", buf.Bytes())
}

func TestHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, History(&buf, model.DefaultGame(), time.UTC))
	assert.Equal(t, "No history\n", buf.String())
}

func TestTimer(t *testing.T) {
	tests := []struct {
		name  string
		state timer.State
		want  string
	}{
		{
			name:  "full tossup",
			state: timer.State{Mode: timer.ModeTossup, Remaining: 7, Full: 7, Status: timer.StatusIdle},
			want:  "TOSSUP  7s [####################] green idle\n",
		},
		{
			name:  "yellow band",
			state: timer.State{Mode: timer.ModeTossup, Remaining: 3, Full: 7, Status: timer.StatusRunning},
			want:  "TOSSUP  3s [#########...........] yellow running\n",
		},
		{
			name:  "expired bonus",
			state: timer.State{Mode: timer.ModeBonus, Remaining: 0, Full: 20, Status: timer.StatusExpired},
			want:  "BONUS   0s [....................] orange expired\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Timer(&buf, tt.state))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOverview(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Overview(&buf, sampleBracket()))
	newGoldie(t).Assert(t, "overview", buf.Bytes())
}

func TestTree(t *testing.T) {
	var buf bytes.Buffer
	b := sampleBracket()
	require.NoError(t, Tree(&buf, b, model.BracketWinners))
	require.NoError(t, Tree(&buf, b, model.BracketLosers))
	newGoldie(t).Assert(t, "tree", buf.Bytes())
}

func TestTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, &model.BracketState{}, model.BracketLosers))
	assert.Equal(t, "LOSERS\n  No matches\n", buf.String())
}

func TestStandings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Standings(&buf, sampleBracket()))
	newGoldie(t).Assert(t, "standings", buf.Bytes())
}

func TestNextMatch(t *testing.T) {
	b := sampleBracket()
	tests := []struct {
		team string
		id   model.ID
		want string
	}{
		{"Faze", "1", "Faze next: WINNERS round 2 vs Navi\n"},
		{"Liquid", "2", "Liquid next: Waiting for scheduling\n"},
		{"G2", "4", "G2 next: Eliminated\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, NextMatch(&buf, tt.team, bracket.NextMatchForTeam(b, tt.id)))
		assert.Equal(t, tt.want, buf.String())
	}

	b.Matches = b.Matches[:3]
	var buf bytes.Buffer
	require.NoError(t, NextMatch(&buf, "Navi", bracket.NextMatchForTeam(b, "3")))
	assert.Equal(t, "Navi next: WINNERS vs Faze (Awaiting winners pairing)\n", buf.String())

	buf.Reset()
	require.NoError(t, NextMatch(&buf, "", nil))
	assert.Equal(t, "No team selected\n", buf.String())
}
