package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/tictactoe/internal/game/board"
)

// ErrBadCell is returned by ParseCell for anything other than 0-8.
var ErrBadCell = errors.New("cell must be a number from 0 to 8")

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command, preserving inner spacing for say.
	RawArgs string
}

// Parse splits a text line into a command and arguments. A leading quote is
// shorthand for say, so "'hi" parses as say with RawArgs "hi".
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}
	if strings.HasPrefix(line, "'") && len(line) > 1 {
		line = "' " + line[1:]
	}

	cmd, rest, found := strings.Cut(line, " ")
	if !found {
		return ParseResult{Command: strings.ToLower(cmd)}
	}

	rest = strings.TrimSpace(rest)
	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}

	return ParseResult{
		Command: strings.ToLower(cmd),
		Args:    args,
		RawArgs: rest,
	}
}

// ParseCell converts a move argument to a board cell index.
//
// Postcondition: Returns a value in [0, 8] or an error wrapping ErrBadCell.
func ParseCell(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || !board.InRange(n) {
		return 0, fmt.Errorf("%q: %w", arg, ErrBadCell)
	}
	return n, nil
}
