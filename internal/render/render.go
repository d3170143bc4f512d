// Package render draws plain-text views of the session state.
//
// Every view writes to an io.Writer and depends only on its arguments, so
// the output is stable for golden tests.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/bracket"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/timer"
)

// BarWidth is the number of cells of the timer bar.
const BarWidth = 20

const none = "-"

// Scoreboard writes the question number, both teams and the bonus holder.
func Scoreboard(w io.Writer, g *model.GameState, syncing bool) error {
	ew := &errWriter{w: w}
	if g == nil {
		ew.printf("No game loaded\n")
		return ew.err
	}

	ew.printf("Question %d", g.QuestionNumber)
	if syncing {
		ew.printf(" (syncing)")
	}
	ew.printf("\n")

	a, b := g.Name(model.SideA), g.Name(model.SideB)
	width := maxWidth(a, b)
	ew.printf("  %-*s %4d\n", width, a, g.TeamAScore)
	ew.printf("  %-*s %4d\n", width, b, g.TeamBScore)

	bonus := none
	if g.LastTossupWinner.Valid() {
		bonus = g.Name(g.LastTossupWinner)
	}
	ew.printf("Bonus: %s\n", bonus)
	return ew.err
}

// History writes the awards newest first with their local time of day.
func History(w io.Writer, g *model.GameState, loc *time.Location) error {
	ew := &errWriter{w: w}
	if g == nil || len(g.History) == 0 {
		ew.printf("No history\n")
		return ew.err
	}
	if loc == nil {
		loc = time.Local
	}
	for i := len(g.History) - 1; i >= 0; i-- {
		ev := g.History[i]
		ts := time.UnixMilli(ev.Timestamp).In(loc).Format("15:04:05")
		ew.printf("%s  %s\n", ts, ev.Description)
	}
	return ew.err
}

// Timer writes the countdown with a progress bar and its color band.
func Timer(w io.Writer, st timer.State) error {
	filled := int(math.Round(st.Progress() * BarWidth))
	bar := strings.Repeat("#", filled) + strings.Repeat(".", BarWidth-filled)

	_, err := fmt.Fprintf(w, "%-6s %2ds [%s] %s %s\n",
		strings.ToUpper(string(st.Mode)), st.Remaining, bar, st.Band(), st.Status)
	return err
}

// Overview writes the partitions, next suggested matches and suggestion
// lists of a bracket.
func Overview(w io.Writer, b *model.BracketState) error {
	ew := &errWriter{w: w}
	if b == nil {
		ew.printf("No bracket loaded\n")
		return ew.err
	}

	p := bracket.Partition(b)
	ew.printf("Winners:    %s\n", teamList(p.Winners))
	ew.printf("Losers:     %s\n", teamList(p.Losers))
	ew.printf("Eliminated: %s\n", teamList(p.Eliminated))

	for _, name := range []model.BracketName{model.BracketWinners, model.BracketLosers} {
		next := none
		if pair, ok := bracket.SuggestedNext(b, name); ok {
			next = pairLabel(b, pair)
		}
		ew.printf("Next %s: %s\n", strings.ToLower(string(name)), next)
	}

	ew.printf("Suggested winners: %s\n", pairList(b, b.SuggestedWinnersPairs))
	ew.printf("Suggested losers:  %s\n", pairList(b, b.SuggestedLosersPairs))
	if b.Finished {
		ew.printf("Bracket finished\n")
	}
	return ew.err
}

// Tree writes the matches of one bracket grouped by round.
func Tree(w io.Writer, b *model.BracketState, name model.BracketName) error {
	ew := &errWriter{w: w}
	ew.printf("%s\n", name)

	rounds := bracket.GroupByRound(b, name)
	if len(rounds) == 0 {
		ew.printf("  No matches\n")
		return ew.err
	}

	for _, r := range rounds {
		ew.printf("  Round %d\n", r.Number)
		for _, m := range r.Matches {
			a, c := bracket.TeamName(b, m.TeamAID), bracket.TeamName(b, m.TeamBID)
			width := maxWidth(a, c)
			ew.printf("    %-*s %4s\n", width, a, score(m.ScoreA))
			ew.printf("    %-*s %4s\n", width, c, score(m.ScoreB))
			if m.WinnerID != nil {
				ew.printf("    Winner: %s\n", bracket.TeamName(b, *m.WinnerID))
			}
		}
	}
	return ew.err
}

// Standings writes the teams ordered by losses.
func Standings(w io.Writer, b *model.BracketState) error {
	ew := &errWriter{w: w}
	rows := bracket.Standings(b)
	if len(rows) == 0 {
		ew.printf("No teams\n")
		return ew.err
	}

	width := utf8.RuneCountInString("Team")
	for _, r := range rows {
		width = max(width, utf8.RuneCountInString(r.Team.Name))
	}
	ew.printf("%-*s  Losses  Status\n", width, "Team")
	for _, r := range rows {
		ew.printf("%-*s  %6d  %s\n", width, r.Team.Name, r.Team.Losses, r.Status)
	}
	return ew.err
}

// NextMatch writes the next match of a team. A nil match means no team is
// selected.
func NextMatch(w io.Writer, team string, nm *bracket.NextMatch) error {
	if nm == nil {
		_, err := fmt.Fprintln(w, "No team selected")
		return err
	}

	var line string
	switch {
	case nm.Scheduled():
		line = fmt.Sprintf("%s round %d vs %s", nm.Bracket, *nm.Round, nm.Opponent)
	case nm.Opponent != "":
		line = fmt.Sprintf("%s vs %s (%s)", nm.Bracket, nm.Opponent, nm.Status)
	default:
		line = nm.Status
	}
	_, err := fmt.Fprintf(w, "%s next: %s\n", team, line)
	return err
}

func teamList(teams []model.Team) string {
	if len(teams) == 0 {
		return none
	}
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func pairLabel(b *model.BracketState, p model.Pair) string {
	return bracket.TeamName(b, p.TeamAID) + " vs " + bracket.TeamName(b, p.TeamBID)
}

func pairList(b *model.BracketState, pairs []model.Pair) string {
	if len(pairs) == 0 {
		return none
	}
	labels := make([]string, len(pairs))
	for i, p := range pairs {
		labels[i] = "[" + pairLabel(b, p) + "]"
	}
	return strings.Join(labels, " ")
}

func score(p *int) string {
	if p == nil {
		return none
	}
	return strconv.Itoa(*p)
}

func maxWidth(names ...string) int {
	n := 0
	for _, s := range names {
		n = max(n, utf8.RuneCountInString(s))
	}
	return n
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
