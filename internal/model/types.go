package model

// TossupPoints is the value of every tossup and bonus award.
const TossupPoints = 10

// Default team names used when a game has to be synthesized locally.
const (
	DefaultTeamAName = "Team A"
	DefaultTeamBName = "Team B"
)

// Side identifies one of the two teams of a game.
type Side string

const (
	SideNone Side = ""
	SideA    Side = "A"
	SideB    Side = "B"
)

// Valid reports whether s names a team.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// EventKind distinguishes history entries.
type EventKind string

const (
	EventTossup EventKind = "TOSSUP"
	EventBonus  EventKind = "BONUS"
)

// BracketName identifies one half of a double-elimination bracket.
type BracketName string

const (
	BracketWinners BracketName = "WINNERS"
	BracketLosers  BracketName = "LOSERS"
)

// Valid reports whether b is a known bracket.
func (b BracketName) Valid() bool {
	return b == BracketWinners || b == BracketLosers
}

// Role values issued by the auth endpoints.
const RoleAdmin = "ADMIN"

// GameState is the snapshot of one match.
type GameState struct {
	TeamAName        string         `json:"teamAName"`
	TeamBName        string         `json:"teamBName"`
	TeamAScore       int            `json:"teamAScore"`
	TeamBScore       int            `json:"teamBScore"`
	QuestionNumber   int            `json:"questionNumber"`
	LastTossupWinner Side           `json:"lastTossupWinner,omitempty"`
	History          []HistoryEvent `json:"history"`
}

// HistoryEvent records one scoring award.
type HistoryEvent struct {
	Type        EventKind `json:"type"`
	Description string    `json:"description"`
	Timestamp   int64     `json:"timestamp"` // unix millis
	Team        Side      `json:"team"`
	Points      int       `json:"points"`
}

// DefaultGame returns the state of a freshly reset game.
func DefaultGame() *GameState {
	return &GameState{
		TeamAName:      DefaultTeamAName,
		TeamBName:      DefaultTeamBName,
		QuestionNumber: 1,
		History:        []HistoryEvent{},
	}
}

// Clone returns a deep copy of g. Clone of nil is nil.
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	c := *g
	c.History = make([]HistoryEvent, len(g.History))
	copy(c.History, g.History)
	return &c
}

// Name returns the display name of a side, falling back to the default name
// when the server left it blank.
func (g *GameState) Name(s Side) string {
	switch s {
	case SideA:
		if g != nil && g.TeamAName != "" {
			return g.TeamAName
		}
		return DefaultTeamAName
	case SideB:
		if g != nil && g.TeamBName != "" {
			return g.TeamBName
		}
		return DefaultTeamBName
	}
	return ""
}

// Score returns the score of a side.
func (g *GameState) Score(s Side) int {
	if g == nil {
		return 0
	}
	switch s {
	case SideA:
		return g.TeamAScore
	case SideB:
		return g.TeamBScore
	}
	return 0
}

// AddPoints adds points to the given side.
func (g *GameState) AddPoints(s Side, points int) {
	switch s {
	case SideA:
		g.TeamAScore += points
	case SideB:
		g.TeamBScore += points
	}
}

// LastTimestamp returns the timestamp of the newest history event, or 0.
func (g *GameState) LastTimestamp() int64 {
	if g == nil || len(g.History) == 0 {
		return 0
	}
	return g.History[len(g.History)-1].Timestamp
}

// Team is one bracket entrant.
type Team struct {
	ID         ID     `json:"id"`
	Name       string `json:"name"`
	Losses     int    `json:"losses"`
	Eliminated bool   `json:"eliminated"`
}

// Match is a scheduled or completed bracket match.
type Match struct {
	ID        ID          `json:"id"`
	Bracket   BracketName `json:"bracket"`
	Round     int         `json:"round"`
	TeamAID   ID          `json:"teamAId"`
	TeamBID   ID          `json:"teamBId"`
	ScoreA    *int        `json:"scoreA"`
	ScoreB    *int        `json:"scoreB"`
	WinnerID  *ID         `json:"winnerId"`
	Completed bool        `json:"completed"`
}

// Involves reports whether the match references the team.
func (m Match) Involves(id ID) bool {
	return m.TeamAID == id || m.TeamBID == id
}

// Opponent returns the other team of the match.
func (m Match) Opponent(id ID) ID {
	if m.TeamAID == id {
		return m.TeamBID
	}
	return m.TeamAID
}

// Pair is a server-suggested matchup not yet committed as a Match.
type Pair struct {
	TeamAID ID `json:"teamAId"`
	TeamBID ID `json:"teamBId"`
}

// Involves reports whether the pair references the team.
func (p Pair) Involves(id ID) bool {
	return p.TeamAID == id || p.TeamBID == id
}

// Opponent returns the other team of the pair.
func (p Pair) Opponent(id ID) ID {
	if p.TeamAID == id {
		return p.TeamBID
	}
	return p.TeamAID
}

// BracketState is the snapshot of the whole tournament.
type BracketState struct {
	Teams                   []Team  `json:"teams"`
	Matches                 []Match `json:"matches"`
	SuggestedWinnersPairs   []Pair  `json:"suggestedWinnersPairs"`
	SuggestedLosersPairs    []Pair  `json:"suggestedLosersPairs"`
	SuggestedWinnersTeamAID *ID     `json:"suggestedWinnersTeamAId"`
	SuggestedWinnersTeamBID *ID     `json:"suggestedWinnersTeamBId"`
	SuggestedLosersTeamAID  *ID     `json:"suggestedLosersTeamAId"`
	SuggestedLosersTeamBID  *ID     `json:"suggestedLosersTeamBId"`
	Finished                bool    `json:"finished"`
}

// Clone returns a deep copy of b. Clone of nil is nil.
func (b *BracketState) Clone() *BracketState {
	if b == nil {
		return nil
	}
	c := *b
	c.Teams = append([]Team(nil), b.Teams...)
	c.Matches = make([]Match, len(b.Matches))
	for i, m := range b.Matches {
		m.ScoreA = cloneInt(m.ScoreA)
		m.ScoreB = cloneInt(m.ScoreB)
		m.WinnerID = cloneID(m.WinnerID)
		c.Matches[i] = m
	}
	c.SuggestedWinnersPairs = append([]Pair(nil), b.SuggestedWinnersPairs...)
	c.SuggestedLosersPairs = append([]Pair(nil), b.SuggestedLosersPairs...)
	c.SuggestedWinnersTeamAID = cloneID(b.SuggestedWinnersTeamAID)
	c.SuggestedWinnersTeamBID = cloneID(b.SuggestedWinnersTeamBID)
	c.SuggestedLosersTeamAID = cloneID(b.SuggestedLosersTeamAID)
	c.SuggestedLosersTeamBID = cloneID(b.SuggestedLosersTeamBID)
	return &c
}

// Team looks up a team by id.
func (b *BracketState) Team(id ID) (Team, bool) {
	if b == nil {
		return Team{}, false
	}
	for _, t := range b.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

// Credentials is the response of the login, register and profile endpoints.
type Credentials struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// Privileged reports whether the credentials belong to an operator.
func (c Credentials) Privileged() bool {
	return c.Token != "" && c.Role == RoleAdmin
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneID(p *ID) *ID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr returns a pointer to v. Convenience for building matches.
func IntPtr(v int) *int { return &v }

// IDPtr returns a pointer to id.
func IDPtr(id ID) *ID { return &id }
