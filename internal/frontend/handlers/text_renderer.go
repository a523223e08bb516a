package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/tictactoe/internal/frontend/telnet"
	"github.com/cory-johannsen/tictactoe/internal/game/board"
	"github.com/cory-johannsen/tictactoe/internal/game/command"
	"github.com/cory-johannsen/tictactoe/internal/game/match"
	"github.com/cory-johannsen/tictactoe/internal/game/session"
	"github.com/cory-johannsen/tictactoe/internal/gameserver"
)

const rowDivider = "---+---+---"

func markColor(m board.Mark) string {
	if m == board.O {
		return telnet.BrightBlue
	}
	return telnet.Red
}

// RenderBoard draws the 3x3 grid. Free cells show their index so players
// know what to type; a winning line is highlighted.
func RenderBoard(game match.Snapshot) string {
	var win *board.Line
	if game.Outcome != nil {
		win = game.Outcome.Line
	}

	rows := make([]string, 0, 5)
	for r := 0; r < 3; r++ {
		cells := make([]string, 3)
		for c := 0; c < 3; c++ {
			i := r*3 + c
			m := game.Board[i]
			switch {
			case m == board.Empty:
				cells[c] = telnet.Colorize(telnet.BrightBlack, strconv.Itoa(i))
			case win != nil && win.Contains(i):
				cells[c] = telnet.Colorize(telnet.Bold+telnet.Green, m.String())
			default:
				cells[c] = telnet.Colorize(markColor(m), m.String())
			}
		}
		if r > 0 {
			rows = append(rows, rowDivider)
		}
		rows = append(rows, " "+strings.Join(cells, " | "))
	}
	return strings.Join(rows, "\n")
}

// RenderGame draws the board followed by a status line from the point of
// view of the player holding you. Pass board.Empty for a neutral view.
func RenderGame(game match.Snapshot, you board.Mark) string {
	return RenderBoard(game) + "\n" + gameStatus(game, you)
}

func gameStatus(game match.Snapshot, you board.Mark) string {
	switch {
	case game.Outcome != nil && game.Outcome.Draw:
		return telnet.Colorize(telnet.Yellow, "Draw. Type reset to play again.")
	case game.Outcome != nil && game.Outcome.Winner == you:
		return telnet.Colorize(telnet.Green, "You win! Type reset to play again.")
	case game.Outcome != nil && you != board.Empty:
		return telnet.Colorize(telnet.Red, "You lose. Type reset to play again.")
	case game.Outcome != nil:
		return telnet.Colorf(telnet.Yellow, "%s wins.", game.Outcome.Winner)
	case game.NextMark == you:
		return telnet.Colorf(telnet.Cyan, "Your move (%s).", you)
	default:
		return telnet.Colorf(telnet.Dim, "Waiting for %s to move.", game.NextMark)
	}
}

// RenderSession describes a session and its seats, marking the caller's own.
func RenderSession(snap session.Snapshot, selfID string) string {
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.Bold, "Session %s", snap.ID))
	if snap.Status == session.StatusActive {
		b.WriteString(telnet.Colorize(telnet.Green, " (game on)"))
	} else {
		b.WriteString(telnet.Colorize(telnet.Yellow, " (waiting for an opponent)"))
	}
	for _, m := range snap.Members {
		line := fmt.Sprintf("\n  %s  %s", telnet.Colorize(markColor(m.Mark), m.Mark.String()), m.DisplayName)
		if m.ConnectionID == selfID {
			line += telnet.Colorize(telnet.Dim, " (you)")
		}
		b.WriteString(line)
	}
	return b.String()
}

// RenderChat formats a chat line or a system notice.
func RenderChat(msg gameserver.ChatMessage) string {
	if msg.Kind == gameserver.ChatSystem {
		return telnet.Colorf(telnet.Yellow, "* %s", msg.Text)
	}
	return telnet.Colorf(telnet.Cyan, "%s: ", msg.DisplayName) + msg.Text
}

// RenderError formats a rejected request.
func RenderError(notice gameserver.ErrorNotice) string {
	return telnet.Colorize(telnet.BrightRed, notice.Message)
}

// RenderWho lists the players seated in the caller's session.
func RenderWho(names []string) string {
	if len(names) == 0 {
		return telnet.Colorize(telnet.Dim, "Nobody is seated.")
	}
	return telnet.Colorf(telnet.Green, "Players: %s", strings.Join(names, ", "))
}

var helpCategories = []struct {
	name  string
	label string
}{
	{command.CategoryGame, "Game"},
	{command.CategoryCommunication, "Communication"},
	{command.CategorySystem, "System"},
}

// RenderHelp lists every command grouped by category.
func RenderHelp(registry *command.Registry) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.Bold, "Available commands:"))

	byCategory := registry.CommandsByCategory()
	for _, cat := range helpCategories {
		cmds := byCategory[cat.name]
		if len(cmds) == 0 {
			continue
		}
		b.WriteString("\n" + telnet.Colorf(telnet.Yellow, "  %s:", cat.label))
		for _, cmd := range cmds {
			line := "\n" + telnet.Colorf(telnet.Green, "    %-26s", cmd.Usage) + " " + cmd.Help
			if len(cmd.Aliases) > 0 {
				line += telnet.Colorf(telnet.Dim, " (%s)", strings.Join(cmd.Aliases, ", "))
			}
			b.WriteString(line)
		}
	}
	return b.String()
}
