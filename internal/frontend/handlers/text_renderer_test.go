package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tictactoe/internal/frontend/telnet"
	"github.com/cory-johannsen/tictactoe/internal/game/board"
	"github.com/cory-johannsen/tictactoe/internal/game/command"
	"github.com/cory-johannsen/tictactoe/internal/game/match"
	"github.com/cory-johannsen/tictactoe/internal/game/session"
	"github.com/cory-johannsen/tictactoe/internal/gameserver"
)

func TestRenderBoard_EmptyShowsIndices(t *testing.T) {
	got := telnet.StripANSI(RenderBoard(match.Snapshot{NextMark: board.X}))
	assert.Equal(t, " 0 | 1 | 2\n---+---+---\n 3 | 4 | 5\n---+---+---\n 6 | 7 | 8", got)
}

func TestRenderBoard_HighlightsWinningLine(t *testing.T) {
	line := board.Line{0, 4, 8}
	game := match.Snapshot{
		Board:   board.Board{board.X, board.O, board.Empty, board.Empty, board.X, board.O, board.Empty, board.Empty, board.X},
		Outcome: &match.Outcome{Winner: board.X, Line: &line},
	}

	rendered := RenderBoard(game)
	assert.Equal(t, " X | O | 2\n---+---+---\n 3 | X | O\n---+---+---\n 6 | 7 | X", telnet.StripANSI(rendered))
	assert.Equal(t, 3, strings.Count(rendered, telnet.Bold+telnet.Green+"X"))
	assert.Contains(t, rendered, telnet.BrightBlue+"O")
}

func TestRenderGame_Status(t *testing.T) {
	ongoing := match.Snapshot{NextMark: board.O}
	won := match.Snapshot{Outcome: &match.Outcome{Winner: board.X}}
	drawn := match.Snapshot{Outcome: &match.Outcome{Draw: true}}

	tests := []struct {
		name string
		game match.Snapshot
		you  board.Mark
		want string
	}{
		{"my turn", ongoing, board.O, "Your move (O)."},
		{"their turn", ongoing, board.X, "Waiting for O to move."},
		{"winner", won, board.X, "You win!"},
		{"loser", won, board.O, "You lose."},
		{"spectator", won, board.Empty, "X wins."},
		{"draw", drawn, board.X, "Draw."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, telnet.StripANSI(RenderGame(tt.game, tt.you)), tt.want)
		})
	}
}

func TestRenderSession(t *testing.T) {
	snap := session.Snapshot{
		ID:     "AB12CD",
		Status: session.StatusActive,
		Members: []session.Member{
			{ConnectionID: "c1", DisplayName: "alice", Mark: board.X},
			{ConnectionID: "c2", DisplayName: "bob", Mark: board.O},
		},
	}
	got := telnet.StripANSI(RenderSession(snap, "c2"))
	assert.Equal(t, "Session AB12CD (game on)\n  X  alice\n  O  bob (you)", got)

	snap.Status = session.StatusAwaitingOpponent
	snap.Members = snap.Members[:1]
	assert.Contains(t, telnet.StripANSI(RenderSession(snap, "c1")), "(waiting for an opponent)")
}

func TestRenderChat(t *testing.T) {
	user := gameserver.ChatMessage{Kind: gameserver.ChatUser, DisplayName: "bob", Text: "gg"}
	assert.Equal(t, "bob: gg", telnet.StripANSI(RenderChat(user)))

	system := gameserver.ChatMessage{Kind: gameserver.ChatSystem, Text: "It's a draw!"}
	assert.Equal(t, "* It's a draw!", telnet.StripANSI(RenderChat(system)))
}

func TestRenderErrorAndWho(t *testing.T) {
	notice := gameserver.ErrorNotice{Kind: gameserver.KindWrongTurn, Message: "Not your turn"}
	assert.Equal(t, "Not your turn", telnet.StripANSI(RenderError(notice)))

	assert.Equal(t, "Players: alice (X)", telnet.StripANSI(RenderWho([]string{"alice (X)"})))
	assert.Equal(t, "Nobody is seated.", telnet.StripANSI(RenderWho(nil)))
}

func TestRenderHelp_ListsEveryCommand(t *testing.T) {
	registry := command.DefaultRegistry()
	help := telnet.StripANSI(RenderHelp(registry))
	for _, cmd := range registry.Commands() {
		assert.Contains(t, help, cmd.Usage)
	}
	assert.Less(t, strings.Index(help, "Game:"), strings.Index(help, "System:"))
}

// Property: every rendered board has five rows and shows each occupied cell's mark.
func TestPropertyRenderBoard_Shape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var b board.Board
		for i := range b {
			b[i] = board.Mark(rapid.IntRange(0, 2).Draw(t, "cell"))
		}
		rows := strings.Split(telnet.StripANSI(RenderBoard(match.Snapshot{Board: b})), "\n")
		if len(rows) != 5 {
			t.Fatalf("got %d rows", len(rows))
		}
		for i, m := range b {
			row := rows[(i/3)*2]
			cells := strings.Split(strings.TrimSpace(row), " | ")
			want := m.String()
			if m == board.Empty {
				want = string(rune('0' + i))
			}
			if cells[i%3] != want {
				t.Fatalf("cell %d: got %q want %q", i, cells[i%3], want)
			}
		}
	})
}
