package testutil

import (
	"context"
	"net/http"
	"time"

	"github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"
)

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyString(r *http.Request, key string) string {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	s, _ := body[key].(string)
	return s
}

func bodyStrings(r *http.Request, key string) []string {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	items, _ := body[key].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func now() int64 { return time.Now().UnixMilli() }

// --- game ----------------------------------------------------------------

func (b *Backend) getGame(w http.ResponseWriter, r *http.Request) {
	b.gameHits.Add(1)
	b.mu.Lock()
	fail, raw, g := b.failGame, b.rawGame, b.game.Clone()
	b.mu.Unlock()

	switch {
	case fail != 0:
		writeMessage(w, fail, "game unavailable")
	case raw != nil:
		writeRaw(w, raw)
	default:
		writeJSON(w, http.StatusOK, g)
	}
}

func (b *Backend) awardTossup(w http.ResponseWriter, r *http.Request) {
	side := model.Side(bodyString(r, "team"))
	if !side.Valid() {
		writeMessage(w, http.StatusBadRequest, "team must be A or B")
		return
	}

	b.mu.Lock()
	g := b.game
	g.AddPoints(side, model.TossupPoints)
	g.LastTossupWinner = side
	g.History = append(g.History, model.HistoryEvent{
		Type:        model.EventTossup,
		Description: "Tossup +10 → " + g.Name(side),
		Timestamp:   now(),
		Team:        side,
		Points:      model.TossupPoints,
	})
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) awardBonus(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := b.game
	side := g.LastTossupWinner
	if !side.Valid() {
		writeMessage(w, http.StatusConflict, "No tossup winner to award a bonus to")
		return
	}
	g.AddPoints(side, model.TossupPoints)
	g.History = append(g.History, model.HistoryEvent{
		Type:        model.EventBonus,
		Description: "Bonus +10 → " + g.Name(side),
		Timestamp:   now(),
		Team:        side,
		Points:      model.TossupPoints,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) nextTossup(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.game.QuestionNumber++
	b.game.LastTossupWinner = model.SideNone
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) resetGame(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.game = model.DefaultGame()
	b.rawGame = nil
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) teamNames(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.game.TeamAName = bodyString(r, "teamAName")
	b.game.TeamBName = bodyString(r, "teamBName")
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// --- bracket -------------------------------------------------------------

func (b *Backend) getBracket(w http.ResponseWriter, r *http.Request) {
	b.bracketHits.Add(1)
	b.mu.Lock()
	fail, raw, s := b.failBracket, b.rawBracket, b.bracket.Clone()
	b.mu.Unlock()

	switch {
	case fail != 0:
		writeMessage(w, fail, "bracket unavailable")
	case raw != nil:
		writeRaw(w, raw)
	default:
		writeJSON(w, http.StatusOK, s)
	}
}

func (b *Backend) initBracket(w http.ResponseWriter, r *http.Request) {
	names := bodyStrings(r, "teamNames")
	if len(names) < 2 {
		writeMessage(w, http.StatusBadRequest, "At least two teams are required")
		return
	}

	b.mu.Lock()
	s := &model.BracketState{}
	for _, name := range names {
		b.nextTeamID++
		s.Teams = append(s.Teams, model.Team{ID: model.ID(itoa(b.nextTeamID)), Name: name})
	}
	for i := 0; i+1 < len(s.Teams); i += 2 {
		s.SuggestedWinnersPairs = append(s.SuggestedWinnersPairs, model.Pair{
			TeamAID: s.Teams[i].ID,
			TeamBID: s.Teams[i+1].ID,
		})
	}
	b.bracket = s
	b.rawBracket = nil
	snapshot := s.Clone()
	b.mu.Unlock()

	b.PushBracket(snapshot)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) resetBracket(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.bracket = &model.BracketState{}
	b.rawBracket = nil
	b.mu.Unlock()

	b.PushBracket(&model.BracketState{})
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) setCurrent(w http.ResponseWriter, r *http.Request) {
	a, c := model.ID(bodyString(r, "teamAId")), model.ID(bodyString(r, "teamBId"))

	b.mu.Lock()
	ta, okA := b.bracket.Team(a)
	tb, okB := b.bracket.Team(c)
	if !okA || !okB || a == c {
		b.mu.Unlock()
		writeMessage(w, http.StatusBadRequest, "Unknown pairing")
		return
	}

	bracket := model.BracketWinners
	if ta.Losses > 0 || tb.Losses > 0 {
		bracket = model.BracketLosers
	}
	round := 1
	for _, m := range b.bracket.Matches {
		if m.Bracket == bracket && m.Round >= round {
			round = m.Round + 1
		}
	}
	b.bracket.Matches = append(b.bracket.Matches, model.Match{
		ID:      model.ID("m" + itoa(len(b.bracket.Matches)+1)),
		Bracket: bracket,
		Round:   round,
		TeamAID: a,
		TeamBID: c,
	})
	b.bracket.SuggestedWinnersPairs = removePair(b.bracket.SuggestedWinnersPairs, a, c)
	b.bracket.SuggestedLosersPairs = removePair(b.bracket.SuggestedLosersPairs, a, c)

	b.game = model.DefaultGame()
	b.game.TeamAName = ta.Name
	b.game.TeamBName = tb.Name
	snapshot := b.bracket.Clone()
	b.mu.Unlock()

	b.PushBracket(snapshot)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) finalizeCurrent(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	idx := -1
	for i, m := range b.bracket.Matches {
		if !m.Completed {
			idx = i
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		writeMessage(w, http.StatusConflict, "No match in progress")
		return
	}

	m := &b.bracket.Matches[idx]
	m.ScoreA = model.IntPtr(b.game.TeamAScore)
	m.ScoreB = model.IntPtr(b.game.TeamBScore)
	winner, loser := m.TeamAID, m.TeamBID
	if b.game.TeamBScore > b.game.TeamAScore {
		winner, loser = loser, winner
	}
	m.WinnerID = model.IDPtr(winner)
	m.Completed = true

	for i := range b.bracket.Teams {
		t := &b.bracket.Teams[i]
		if t.ID == loser {
			t.Losses++
			t.Eliminated = t.Losses >= 2
		}
	}
	if len(bracketAvailable(b.bracket)) <= 1 {
		b.bracket.Finished = true
	}
	snapshot := b.bracket.Clone()
	b.mu.Unlock()

	b.PushBracket(snapshot)
	w.WriteHeader(http.StatusNoContent)
}

func bracketAvailable(s *model.BracketState) []model.Team {
	var out []model.Team
	for _, t := range s.Teams {
		if !t.Eliminated {
			out = append(out, t)
		}
	}
	return out
}

func removePair(pairs []model.Pair, a, b model.ID) []model.Pair {
	out := pairs[:0:0]
	for _, p := range pairs {
		if p.Involves(a) && p.Involves(b) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// --- auth ----------------------------------------------------------------

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	name, password := bodyString(r, "username"), bodyString(r, "password")

	b.mu.Lock()
	u, ok := b.users[name]
	b.mu.Unlock()
	if !ok || u.password != password {
		writeMessage(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	writeJSON(w, http.StatusOK, model.Credentials{Token: u.token, Role: u.role, Username: name})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	name, password := bodyString(r, "username"), bodyString(r, "password")
	if name == "" || password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[name]; exists {
		writeMessage(w, http.StatusConflict, "Username already taken")
		return
	}
	u := user{password: password, role: "USER", token: "token-" + name}
	b.users[name] = u
	writeJSON(w, http.StatusOK, model.Credentials{Token: u.token, Role: u.role, Username: name})
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Admin-Token")
	newName, newPassword := bodyString(r, "newUsername"), bodyString(r, "newPassword")

	b.mu.Lock()
	defer b.mu.Unlock()
	for name, u := range b.users {
		if u.token != token {
			continue
		}
		if newName == "" {
			newName = name
		}
		if newPassword != "" {
			u.password = newPassword
		}
		delete(b.users, name)
		b.users[newName] = u
		writeJSON(w, http.StatusOK, model.Credentials{Token: u.token, Role: u.role, Username: newName})
		return
	}
	writeMessage(w, http.StatusUnauthorized, "Not logged in")
}
