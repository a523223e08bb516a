// Package match implements the turn-based state machine for a single game.
package match

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/tictactoe/internal/game/board"
)

var (
	// ErrWrongTurn is returned when the moving mark is not the mark to play.
	ErrWrongTurn = errors.New("not your turn")
	// ErrIllegalMove is returned for an occupied or out-of-range cell, or a decided game.
	ErrIllegalMove = errors.New("invalid move")
)

// Outcome describes how a decided game ended. Exactly one of Winner or Draw is set.
type Outcome struct {
	Winner board.Mark  `json:"winner,omitempty"`
	Line   *board.Line `json:"line,omitempty"`
	Draw   bool        `json:"draw"`
}

// Snapshot is an immutable copy of a game's state.
type Snapshot struct {
	Board    board.Board `json:"board"`
	NextMark board.Mark  `json:"nextMark"`
	// Outcome is nil while the game is ongoing.
	Outcome *Outcome `json:"outcome"`
	// Seq counts accepted moves and resets; a larger Seq is a newer state.
	Seq uint64 `json:"seq"`
}

// Decided reports whether the game has a winner or ended in a draw.
func (s Snapshot) Decided() bool {
	return s.Outcome != nil
}

// Game holds the mutable state of one game. It is not safe for concurrent use;
// callers serialize access per session.
type Game struct {
	board   board.Board
	next    board.Mark
	outcome *Outcome
	seq     uint64
}

// New returns an ongoing game with an empty board and X to move.
func New() *Game {
	return &Game{next: board.X}
}

// Apply places mark at cell.
//
// Precondition: mark must be X or O.
// Postcondition: On success the cell holds mark, the turn passes to the opponent,
// and the outcome is set if the move completed a line or filled the board.
// On error the game is unchanged.
func (g *Game) Apply(mark board.Mark, cell int) error {
	if g.outcome != nil {
		return fmt.Errorf("game already decided: %w", ErrIllegalMove)
	}
	if mark != g.next {
		return ErrWrongTurn
	}
	if !board.InRange(cell) {
		return fmt.Errorf("cell %d out of range: %w", cell, ErrIllegalMove)
	}
	if g.board[cell] != board.Empty {
		return fmt.Errorf("cell %d occupied: %w", cell, ErrIllegalMove)
	}

	g.board[cell] = mark
	g.next = mark.Opponent()
	g.seq++

	if win, ok := board.Evaluate(g.board); ok {
		line := win.Line
		g.outcome = &Outcome{Winner: win.Mark, Line: &line}
	} else if g.board.Full() {
		g.outcome = &Outcome{Draw: true}
	}
	return nil
}

// Reset clears the board and outcome and gives X the first move.
func (g *Game) Reset() {
	g.board = board.Board{}
	g.next = board.X
	g.outcome = nil
	g.seq++
}

// Snapshot returns a copy of the current state that shares nothing with g.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Board:    g.board,
		NextMark: g.next,
		Seq:      g.seq,
	}
	if g.outcome != nil {
		o := *g.outcome
		if o.Line != nil {
			line := *o.Line
			o.Line = &line
		}
		s.Outcome = &o
	}
	return s
}
