package engine

import "github.com/Trishul-creator/quizbowl-game-manager-frontend/internal/model"

// Snapshot is an immutable view of the session state.
//
// Game and Bracket are nil until the first accepted load. Values reachable
// from a Snapshot are shared between readers and must not be modified.
type Snapshot struct {
	Game           *model.GameState    `json:"game"`
	Bracket        *model.BracketState `json:"bracket"`
	GameSyncing    bool                `json:"gameSyncing"`
	BracketSyncing bool                `json:"bracketSyncing"`
	Privileged     bool                `json:"privileged"`
	Revision       int64               `json:"revision"`
}

// GameLoaded reports whether a game mirror exists.
func (s Snapshot) GameLoaded() bool {
	return s.Game != nil
}

// Tx is the working copy a Transition operates on. It is only valid for
// the duration of the transition.
type Tx struct {
	next    Snapshot
	changed bool
}

func newTx(cur Snapshot) *Tx {
	return &Tx{next: cur}
}

// Game returns the current game mirror (nil before the first load).
func (tx *Tx) Game() *model.GameState { return tx.next.Game }

// Bracket returns the current bracket mirror (nil before the first load).
func (tx *Tx) Bracket() *model.BracketState { return tx.next.Bracket }

// Privileged reports whether the session currently acts as the operator.
func (tx *Tx) Privileged() bool { return tx.next.Privileged }

// GameLoaded reports whether a game mirror exists.
func (tx *Tx) GameLoaded() bool { return tx.next.Game != nil }

// SetGame replaces the game mirror.
func (tx *Tx) SetGame(g *model.GameState) {
	tx.next.Game = g
	tx.changed = true
}

// SetBracket replaces the bracket mirror.
func (tx *Tx) SetBracket(b *model.BracketState) {
	tx.next.Bracket = b
	tx.changed = true
}

// SetGameSyncing toggles the game syncing indicator.
func (tx *Tx) SetGameSyncing(v bool) {
	if tx.next.GameSyncing != v {
		tx.next.GameSyncing = v
		tx.changed = true
	}
}

// SetBracketSyncing toggles the bracket syncing indicator.
func (tx *Tx) SetBracketSyncing(v bool) {
	if tx.next.BracketSyncing != v {
		tx.next.BracketSyncing = v
		tx.changed = true
	}
}

// SetPrivileged switches the session between operator and viewer.
func (tx *Tx) SetPrivileged(v bool) {
	if tx.next.Privileged != v {
		tx.next.Privileged = v
		tx.changed = true
	}
}
