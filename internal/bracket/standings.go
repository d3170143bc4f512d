package bracket

import (
	"sort"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// Standing labels.
const (
	LabelWinners    = "Winners bracket"
	LabelLosers     = "Losers bracket"
	LabelEliminated = "Eliminated"
)

// Standing is one row of the standings table.
type Standing struct {
	Team   model.Team `json:"team"`
	Status string     `json:"status"`
}

// Standings orders teams by losses ascending. Teams with equal losses keep
// their snapshot order.
func Standings(state *model.BracketState) []Standing {
	if state == nil {
		return nil
	}

	teams := append([]model.Team(nil), state.Teams...)
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Losses < teams[j].Losses
	})

	rows := make([]Standing, len(teams))
	for i, t := range teams {
		rows[i] = Standing{Team: t, Status: standingLabel(t)}
	}
	return rows
}

func standingLabel(t model.Team) string {
	switch {
	case t.Eliminated:
		return LabelEliminated
	case t.Losses == 0:
		return LabelWinners
	default:
		return LabelLosers
	}
}
