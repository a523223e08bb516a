// Package handlers runs the line-oriented game client behind the Telnet
// acceptor, translating typed commands into Dispatcher calls and rendering
// the resulting events as text.
package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tictactoe/internal/frontend/telnet"
	"github.com/cory-johannsen/tictactoe/internal/game/board"
	"github.com/cory-johannsen/tictactoe/internal/game/command"
	"github.com/cory-johannsen/tictactoe/internal/game/match"
	"github.com/cory-johannsen/tictactoe/internal/game/session"
	"github.com/cory-johannsen/tictactoe/internal/gameserver"
	"github.com/cory-johannsen/tictactoe/internal/observability"
)

const welcome = "Welcome to tic-tac-toe. Type help for commands."

// TextHandler implements telnet.SessionHandler. Each connection becomes a
// Dispatcher peer exactly like a WebSocket client.
type TextHandler struct {
	dispatcher *gameserver.Dispatcher
	commands   *command.Registry
	sendBuffer int
	logger     *zap.Logger
}

// NewTextHandler creates a handler bound to d.
//
// Precondition: d and logger must be non-nil.
// Postcondition: Returns a TextHandler using the built-in command set.
func NewTextHandler(d *gameserver.Dispatcher, sendBuffer int, logger *zap.Logger) *TextHandler {
	return &TextHandler{
		dispatcher: d,
		commands:   command.DefaultRegistry(),
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// textSession is the per-connection state shared by the command loop and the
// event forwarder.
type textSession struct {
	dispatcher *gameserver.Dispatcher
	commands   *command.Registry
	connID     string
	conn       *telnet.Conn
	outbox     *gameserver.Outbox
	logger     *zap.Logger

	mu   sync.Mutex
	name string
	mark board.Mark
	// game is the newest state rendered; older snapshots are ignored.
	game *match.Snapshot
}

// HandleSession registers the connection with the Dispatcher, then runs the
// command loop until quit, EOF, or ctx cancellation.
//
// Postcondition: The connection is disconnected from the Dispatcher exactly once.
func (h *TextHandler) HandleSession(ctx context.Context, connID string, conn *telnet.Conn) error {
	outbox := gameserver.NewOutbox(connID, h.sendBuffer)
	if err := h.dispatcher.Connect(outbox); err != nil {
		return fmt.Errorf("registering connection: %w", err)
	}

	s := &textSession{
		dispatcher: h.dispatcher,
		commands:   h.commands,
		connID:     connID,
		conn:       conn,
		outbox:     outbox,
		logger:     observability.ForConnection(h.logger, "telnet", connID),
	}

	_ = conn.WriteLine(telnet.Colorize(telnet.Bold, welcome))
	_ = s.prompt()

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		s.forwardEvents()
	}()

	err := s.commandLoop(ctx)

	h.dispatcher.Disconnect(connID)
	_ = outbox.Close()
	<-forwarded
	return err
}

func (s *textSession) prompt() error {
	s.mu.Lock()
	name := s.name
	s.mu.Unlock()

	id, ok := s.dispatcher.SessionOf(s.connID)
	if !ok {
		return s.conn.WritePrompt(telnet.Colorize(telnet.Cyan, "> "))
	}
	return s.conn.WritePrompt(telnet.Colorf(telnet.Cyan, "[%s@%s]> ", name, id))
}

// reply writes a local response and re-prompts.
func (s *textSession) reply(text string) {
	_ = s.conn.WriteLine(text)
	_ = s.prompt()
}

// commandLoop reads lines and dispatches them. Commands that reach the
// Dispatcher are answered through the forwarder; local commands reply inline.
//
// Postcondition: Returns nil on quit, ctx.Err() on cancellation, or a wrapped read error.
func (s *textSession) commandLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading input: %w", err)
		}

		parsed := command.Parse(line)
		if parsed.Command == "" {
			_ = s.prompt()
			continue
		}

		cmd, ok := s.commands.Resolve(parsed.Command)
		if !ok {
			s.reply(telnet.Colorf(telnet.Dim, "Unknown command %q. Type help for a list.", parsed.Command))
			continue
		}

		sessionID, seated := s.dispatcher.SessionOf(s.connID)
		if command.RequiresSession(cmd.Handler) && !seated {
			s.reply(telnet.Colorize(telnet.Yellow, "You are not in a session. Use create or join first."))
			continue
		}

		switch cmd.Handler {
		case command.HandlerCreate:
			if len(parsed.Args) == 0 || len(parsed.Args) > 2 {
				s.reply(usage(cmd))
				continue
			}
			c := gameserver.CreateSession{DisplayName: parsed.Args[0]}
			if len(parsed.Args) == 2 {
				c.SessionID = parsed.Args[1]
			}
			s.dispatcher.CreateSession(s.connID, c)

		case command.HandlerJoin:
			if len(parsed.Args) < 2 {
				s.reply(usage(cmd))
				continue
			}
			s.dispatcher.JoinSession(s.connID, gameserver.JoinSession{
				SessionID:   parsed.Args[0],
				DisplayName: strings.Join(parsed.Args[1:], " "),
			})

		case command.HandlerMove:
			if len(parsed.Args) != 1 {
				s.reply(usage(cmd))
				continue
			}
			cell, err := command.ParseCell(parsed.Args[0])
			if err != nil {
				s.reply(telnet.Colorize(telnet.BrightRed, err.Error()))
				continue
			}
			s.dispatcher.MakeMove(s.connID, gameserver.MakeMove{SessionID: sessionID, CellIndex: cell})

		case command.HandlerReset:
			s.dispatcher.ResetGame(s.connID, gameserver.ResetGame{SessionID: sessionID})

		case command.HandlerSay:
			if parsed.RawArgs == "" {
				s.reply(telnet.Colorize(telnet.Yellow, "Say what?"))
				continue
			}
			s.mu.Lock()
			name := s.name
			s.mu.Unlock()
			s.dispatcher.SendChat(s.connID, gameserver.SendChat{
				SessionID:   sessionID,
				DisplayName: name,
				Text:        parsed.RawArgs,
			})

		case command.HandlerBoard:
			game, err := s.dispatcher.Game(s.connID)
			if err != nil {
				s.reply(telnet.Colorize(telnet.Dim, "The game starts when an opponent joins."))
				continue
			}
			s.mu.Lock()
			mark := s.mark
			s.mu.Unlock()
			s.reply(RenderGame(game, mark))

		case command.HandlerWho:
			names, err := s.dispatcher.Who(s.connID)
			if err != nil {
				s.reply(telnet.Colorize(telnet.Yellow, "You are not in a session."))
				continue
			}
			s.reply(RenderWho(names))

		case command.HandlerHelp:
			s.reply(RenderHelp(s.commands))

		case command.HandlerQuit:
			_ = s.conn.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye."))
			return nil
		}
	}
}

func usage(cmd *command.Command) string {
	return telnet.Colorf(telnet.Yellow, "Usage: %s", cmd.Usage)
}

// forwardEvents renders every event sent to this connection until the
// outbox closes. A closed outbox also means the Dispatcher dropped the
// peer for falling behind, so the socket is closed to end the command loop.
func (s *textSession) forwardEvents() {
	defer func() { _ = s.conn.Close() }()

	for ev := range s.outbox.Events() {
		text := s.render(ev)
		if text == "" {
			continue
		}
		if err := s.conn.WriteLine(text); err != nil {
			s.logger.Debug("writing event", zap.String("event", string(ev.Type)), zap.Error(err))
			return
		}
		_ = s.prompt()
	}
}

// render updates the session view from ev and returns its text form.
func (s *textSession) render(ev gameserver.Event) string {
	switch p := ev.Payload.(type) {
	case session.Snapshot:
		s.mu.Lock()
		if m, ok := p.Member(s.connID); ok {
			s.name, s.mark = m.DisplayName, m.Mark
		}
		// A new pairing is followed by its own game state.
		if ev.Type == gameserver.EventSessionCreated || ev.Type == gameserver.EventSessionJoined {
			s.game = nil
		}
		s.mu.Unlock()
		if ev.Type == gameserver.EventSessionCreated {
			return RenderSession(p, s.connID) + "\n" +
				telnet.Colorf(telnet.Dim, "Share the id %s with your opponent.", p.ID)
		}
		return RenderSession(p, s.connID)

	case match.Snapshot:
		s.mu.Lock()
		if s.game != nil && p.Seq < s.game.Seq {
			s.mu.Unlock()
			s.logger.Debug("ignoring stale game state",
				zap.Uint64("seq", p.Seq),
				zap.Uint64("current_seq", s.game.Seq),
			)
			return ""
		}
		s.game = &p
		mark := s.mark
		s.mu.Unlock()
		return RenderGame(p, mark)

	case gameserver.ChatMessage:
		return RenderChat(p)

	case gameserver.ErrorNotice:
		return RenderError(p)

	default:
		s.logger.Warn("unrenderable event", zap.String("event", string(ev.Type)))
		return ""
	}
}
