package bracket

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

// FindTeam resolves a user-typed team reference. An exact id or a
// case-insensitive exact name wins; otherwise the best fuzzy match is used.
func FindTeam(state *model.BracketState, query string) (model.Team, error) {
	query = strings.TrimSpace(query)
	if state == nil || len(state.Teams) == 0 {
		return model.Team{}, fmt.Errorf("no teams in bracket")
	}
	if query == "" {
		return model.Team{}, fmt.Errorf("empty team name")
	}

	if t, ok := state.Team(model.ID(query)); ok {
		return t, nil
	}

	lowerQuery := strings.ToLower(model.NormalizeName(query))
	names := make([]string, len(state.Teams))
	for i, t := range state.Teams {
		names[i] = strings.ToLower(model.NormalizeName(t.Name))
		if names[i] == lowerQuery {
			return t, nil
		}
	}

	ranks := fuzzy.RankFind(lowerQuery, names)
	if len(ranks) == 0 {
		return model.Team{}, fmt.Errorf("no team matches %q", query)
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return state.Teams[best.OriginalIndex], nil
}
