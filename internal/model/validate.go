package model

import "fmt"

// Validate checks the invariants of a game snapshot.
func (g *GameState) Validate() error {
	if g.TeamAScore < 0 {
		return gameFieldError("teamAScore", "must be non-negative, got %d", g.TeamAScore)
	}
	if g.TeamBScore < 0 {
		return gameFieldError("teamBScore", "must be non-negative, got %d", g.TeamBScore)
	}
	if g.QuestionNumber < 1 {
		return gameFieldError("questionNumber", "must be positive, got %d", g.QuestionNumber)
	}
	if g.LastTossupWinner != SideNone && !g.LastTossupWinner.Valid() {
		return gameFieldError("lastTossupWinner", "unknown side %q", g.LastTossupWinner)
	}
	for i, ev := range g.History {
		field := fmt.Sprintf("history[%d]", i)
		if ev.Type != EventTossup && ev.Type != EventBonus {
			return gameFieldError(field+".type", "unknown event type %q", ev.Type)
		}
		if ev.Team != SideNone && !ev.Team.Valid() {
			return gameFieldError(field+".team", "unknown side %q", ev.Team)
		}
	}
	return nil
}

// Validate checks the invariants of a bracket snapshot:
// unique team and match ids, losses within 0..2, eliminated iff two losses,
// and completed matches carrying one of their own teams as winner.
func (b *BracketState) Validate() error {
	teams := make(map[ID]bool, len(b.Teams))
	for i, t := range b.Teams {
		field := fmt.Sprintf("teams[%d]", i)
		if t.ID == "" {
			return bracketFieldError(field+".id", "is required")
		}
		if teams[t.ID] {
			return bracketFieldError(field+".id", "duplicate team id %q", t.ID)
		}
		teams[t.ID] = true
		if t.Losses < 0 || t.Losses > 2 {
			return bracketFieldError(field+".losses", "must be 0, 1 or 2, got %d", t.Losses)
		}
		if t.Eliminated != (t.Losses == 2) {
			return bracketFieldError(field+".eliminated", "is %t with %d losses", t.Eliminated, t.Losses)
		}
	}

	matches := make(map[ID]bool, len(b.Matches))
	for i, m := range b.Matches {
		field := fmt.Sprintf("matches[%d]", i)
		if m.ID == "" {
			return bracketFieldError(field+".id", "is required")
		}
		if matches[m.ID] {
			return bracketFieldError(field+".id", "duplicate match id %q", m.ID)
		}
		matches[m.ID] = true
		if !m.Bracket.Valid() {
			return bracketFieldError(field+".bracket", "unknown bracket %q", m.Bracket)
		}
		if m.Round < 1 {
			return bracketFieldError(field+".round", "must be positive, got %d", m.Round)
		}
		if m.Completed {
			if m.WinnerID == nil {
				return bracketFieldError(field+".winnerId", "completed match has no winner")
			}
			if *m.WinnerID != m.TeamAID && *m.WinnerID != m.TeamBID {
				return bracketFieldError(field+".winnerId", "winner %q is not a participant", *m.WinnerID)
			}
		}
	}
	return nil
}
