// Package command provides the text command registry, parser, and built-in
// command definitions for line-oriented clients.
package command

// Categories for organizing commands in help output.
const (
	CategoryGame          = "game"
	CategoryCommunication = "communication"
	CategorySystem        = "system"
)

// Handler identifiers mapping commands to session operations or local handlers.
const (
	HandlerCreate = "create"
	HandlerJoin   = "join"
	HandlerMove   = "move"
	HandlerReset  = "reset"
	HandlerBoard  = "board"
	HandlerSay    = "say"
	HandlerWho    = "who"
	HandlerHelp   = "help"
	HandlerQuit   = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument shape, e.g. "move <0-8>".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command (game, communication, system).
	Category string
	// Handler names the operation the command triggers.
	Handler string
}

// BuiltinCommands returns all built-in commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "create", Aliases: []string{"new", "host"}, Usage: "create <name> [session-id]", Help: "Open a new session and wait for an opponent", Category: CategoryGame, Handler: HandlerCreate},
		{Name: "join", Aliases: []string{"j"}, Usage: "join <session-id> <name>", Help: "Join an open session", Category: CategoryGame, Handler: HandlerJoin},
		{Name: "move", Aliases: []string{"m", "play"}, Usage: "move <0-8>", Help: "Place your mark; cells are numbered 0-8 left to right, top to bottom", Category: CategoryGame, Handler: HandlerMove},
		{Name: "reset", Aliases: []string{"again", "rematch"}, Usage: "reset", Help: "Clear the board and start a new game", Category: CategoryGame, Handler: HandlerReset},
		{Name: "board", Aliases: []string{"b", "look", "l"}, Usage: "board", Help: "Show the current board", Category: CategoryGame, Handler: HandlerBoard},

		{Name: "say", Aliases: []string{"'"}, Usage: "say <text>", Help: "Send a chat message to your session", Category: CategoryCommunication, Handler: HandlerSay},

		{Name: "who", Aliases: nil, Usage: "who", Help: "List the players in your session", Category: CategorySystem, Handler: HandlerWho},
		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Usage: "quit", Help: "Disconnect", Category: CategorySystem, Handler: HandlerQuit},
	}
}

// RequiresSession reports whether the handler only makes sense once the
// connection belongs to a session.
func RequiresSession(handler string) bool {
	switch handler {
	case HandlerMove, HandlerReset, HandlerBoard, HandlerSay, HandlerWho:
		return true
	default:
		return false
	}
}
