// Package telnet serves the game to line-oriented terminal clients, with
// ANSI styling for boards and chat.
package telnet

import (
	"fmt"
	"regexp"
)

// ANSI escape codes used by the text renderer.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"

	BrightBlack = "\033[90m"
	BrightRed   = "\033[91m"
	BrightBlue  = "\033[94m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns text wrapped with the color code and Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf wraps a formatted string with the given ANSI color code.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

var sgrPattern = regexp.MustCompile("\033\\[[0-9;]*m")

// StripANSI removes SGR escape sequences, leaving the printable text.
//
// Postcondition: Returns s with all \033[...m sequences removed.
func StripANSI(s string) string {
	return sgrPattern.ReplaceAllString(s, "")
}
