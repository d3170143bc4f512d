package bracket

import "github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"

// Status strings reported by NextMatchForTeam.
const (
	StatusScheduled       = ""
	StatusAwaitingWinners = "Awaiting winners pairing"
	StatusAwaitingLosers  = "Awaiting losers pairing"
	StatusEliminated      = "Eliminated"
	StatusBracketFinished = "Bracket finished"
	StatusWaitingSchedule = "Waiting for scheduling"
)

// NextMatch describes what a team plays next.
//
// Round is nil when the matchup is only a suggestion. Bracket and Opponent
// are empty for the terminal statuses.
type NextMatch struct {
	Bracket  model.BracketName `json:"bracket,omitempty"`
	Round    *int              `json:"round,omitempty"`
	Opponent string            `json:"opponent,omitempty"`
	Status   string            `json:"status"`
}

// Scheduled reports whether the team has a committed, incomplete match.
func (n NextMatch) Scheduled() bool {
	return n.Status == StatusScheduled
}

// NextMatchForTeam resolves a team's next match. Rules are evaluated in
// priority order and the first one that applies wins:
//
//  1. an incomplete match referencing the team
//  2. a suggested winners pairing referencing the team
//  3. a suggested losers pairing referencing the team
//  4. the team is eliminated
//  5. the bracket is finished
//  6. otherwise, waiting for scheduling
//
// Returns nil for a nil state or an empty id.
func NextMatchForTeam(state *model.BracketState, id model.ID) *NextMatch {
	if state == nil || id == "" {
		return nil
	}

	for _, m := range state.Matches {
		if m.Completed || !m.Involves(id) {
			continue
		}
		round := m.Round
		return &NextMatch{
			Bracket:  m.Bracket,
			Round:    &round,
			Opponent: TeamName(state, m.Opponent(id)),
			Status:   StatusScheduled,
		}
	}

	for _, p := range state.SuggestedWinnersPairs {
		if p.Involves(id) {
			return &NextMatch{
				Bracket:  model.BracketWinners,
				Opponent: TeamName(state, p.Opponent(id)),
				Status:   StatusAwaitingWinners,
			}
		}
	}

	for _, p := range state.SuggestedLosersPairs {
		if p.Involves(id) {
			return &NextMatch{
				Bracket:  model.BracketLosers,
				Opponent: TeamName(state, p.Opponent(id)),
				Status:   StatusAwaitingLosers,
			}
		}
	}

	if t, ok := state.Team(id); ok && t.Eliminated {
		return &NextMatch{Status: StatusEliminated}
	}
	if state.Finished {
		return &NextMatch{Status: StatusBracketFinished}
	}
	return &NextMatch{Status: StatusWaitingSchedule}
}
