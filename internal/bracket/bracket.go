// Package bracket derives double-elimination views from a bracket snapshot.
//
// Every function here is pure: it reads a *model.BracketState and never
// mutates it. A nil state behaves like an empty bracket.
package bracket

import (
	"sort"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// Partitions splits teams by bracket position.
type Partitions struct {
	Winners    []model.Team
	Losers     []model.Team
	Eliminated []model.Team
}

// Partition classifies every team: no losses go to Winners, one loss to
// Losers, and eliminated teams to Eliminated. Order follows the snapshot.
func Partition(state *model.BracketState) Partitions {
	var p Partitions
	if state == nil {
		return p
	}
	for _, t := range state.Teams {
		switch {
		case t.Eliminated:
			p.Eliminated = append(p.Eliminated, t)
		case t.Losses == 0:
			p.Winners = append(p.Winners, t)
		case t.Losses == 1:
			p.Losers = append(p.Losers, t)
		}
	}
	return p
}

// Round is one column of a bracket tree.
type Round struct {
	Number  int
	Matches []model.Match
}

// GroupByRound returns the matches of one bracket grouped by round, rounds
// ascending, matches within a round in server order.
func GroupByRound(state *model.BracketState, name model.BracketName) []Round {
	if state == nil {
		return nil
	}

	byRound := make(map[int][]model.Match)
	for _, m := range state.Matches {
		if m.Bracket != name {
			continue
		}
		byRound[m.Round] = append(byRound[m.Round], m)
	}

	numbers := make([]int, 0, len(byRound))
	for n := range byRound {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	rounds := make([]Round, 0, len(numbers))
	for _, n := range numbers {
		rounds = append(rounds, Round{Number: n, Matches: byRound[n]})
	}
	return rounds
}

// TeamName returns the name of a team, or "" if the id is unknown.
func TeamName(state *model.BracketState, id model.ID) string {
	t, ok := state.Team(id)
	if !ok {
		return ""
	}
	return t.Name
}

// Available returns the teams that can still be paired.
func Available(state *model.BracketState) []model.Team {
	if state == nil {
		return nil
	}
	var out []model.Team
	for _, t := range state.Teams {
		if !t.Eliminated {
			out = append(out, t)
		}
	}
	return out
}

// DefaultPairing fills empty selections with the first and second available
// teams. Non-empty selections are kept as they are.
func DefaultPairing(state *model.BracketState, a, b model.ID) (model.ID, model.ID) {
	available := Available(state)
	if a == "" && len(available) > 0 {
		a = available[0].ID
	}
	if b == "" && len(available) > 1 {
		b = available[1].ID
	}
	return a, b
}

// SuggestedNext returns the singled-out next suggestion for a bracket. When
// the server did not single one out, the first suggested pair is used.
func SuggestedNext(state *model.BracketState, name model.BracketName) (model.Pair, bool) {
	if state == nil {
		return model.Pair{}, false
	}

	var a, b *model.ID
	var pairs []model.Pair
	switch name {
	case model.BracketWinners:
		a, b, pairs = state.SuggestedWinnersTeamAID, state.SuggestedWinnersTeamBID, state.SuggestedWinnersPairs
	case model.BracketLosers:
		a, b, pairs = state.SuggestedLosersTeamAID, state.SuggestedLosersTeamBID, state.SuggestedLosersPairs
	default:
		return model.Pair{}, false
	}

	if a != nil && b != nil && *a != "" && *b != "" {
		return model.Pair{TeamAID: *a, TeamBID: *b}, true
	}
	if len(pairs) > 0 {
		return pairs[0], true
	}
	return model.Pair{}, false
}
