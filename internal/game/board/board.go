// Package board provides the 3x3 board, player marks, and win evaluation.
package board

import (
	"encoding/json"
	"fmt"
)

// Size is the number of cells on the board.
const Size = 9

// Mark is the content of a cell and the symbol a player places.
type Mark uint8

const (
	// Empty is an unoccupied cell. It is never a player's mark.
	Empty Mark = iota
	// X always moves first.
	X
	// O moves second.
	O
)

// String returns "X", "O", or "" for Empty.
func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player's mark.
//
// Postcondition: Returns O for X, X for O, and Empty for Empty.
func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// MarshalJSON encodes Empty as null and players as "X" or "O".
func (m Mark) MarshalJSON() ([]byte, error) {
	if m == Empty {
		return []byte("null"), nil
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts null, "", "X", or "O".
func (m *Mark) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Empty
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding mark: %w", err)
	}
	parsed, err := ParseMark(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMark converts "X", "O", or "" into a Mark.
func ParseMark(s string) (Mark, error) {
	switch s {
	case "X", "x":
		return X, nil
	case "O", "o":
		return O, nil
	case "":
		return Empty, nil
	}
	return Empty, fmt.Errorf("unknown mark %q", s)
}

// Board is the fixed sequence of cells, indexed 0-8 in row-major order.
type Board [Size]Mark

// InRange reports whether i addresses a cell.
func InRange(i int) bool {
	return i >= 0 && i < Size
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Line is a triple of cell indices.
type Line [3]int

// Contains reports whether cell i is part of the line.
func (l Line) Contains(i int) bool {
	return l[0] == i || l[1] == i || l[2] == i
}

// Lines are the winning triples in scan order: rows, then columns, then diagonals.
// The order decides which line Evaluate reports when several are complete.
var Lines = [8]Line{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Win is a completed line and the mark occupying it.
type Win struct {
	Mark Mark
	Line Line
}

// Evaluate scans Lines in order and returns the first one whose three cells
// hold the same non-empty mark.
//
// Postcondition: Returns (win, true) for the first uniform non-empty line, or (Win{}, false).
func Evaluate(b Board) (Win, bool) {
	for _, l := range Lines {
		m := b[l[0]]
		if m != Empty && m == b[l[1]] && m == b[l[2]] {
			return Win{Mark: m, Line: l}, true
		}
	}
	return Win{}, false
}
