package input

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Command is a browser action bound to keys.
type Command string

const (
	CmdUp           Command = "up"
	CmdDown         Command = "down"
	CmdPageUp       Command = "page-up"
	CmdPageDown     Command = "page-down"
	CmdTop          Command = "top"
	CmdBottom       Command = "bottom"
	CmdOpen         Command = "open"
	CmdParent       Command = "parent"
	CmdBack         Command = "back"
	CmdForward      Command = "forward"
	CmdMark         Command = "mark"
	CmdClearMarks   Command = "clear-marks"
	CmdCopy         Command = "copy"
	CmdCut          Command = "cut"
	CmdPaste        Command = "paste"
	CmdDelete       Command = "delete"
	CmdRefresh      Command = "refresh"
	CmdToggleHidden Command = "toggle-hidden"
	CmdSortCycle    Command = "sort-cycle"
	CmdSortReverse  Command = "sort-reverse"
	CmdSearch       Command = "search"
	CmdFilter       Command = "filter"
	CmdClose        Command = "close"
	CmdYankPath     Command = "yank-path"
	CmdHomeDir      Command = "home-dir"
	CmdRespawnShell Command = "respawn-shell"
	CmdCancelOps    Command = "cancel-ops"
	CmdQuit         Command = "quit"

	CmdToggleTerminal Command = "toggle-terminal"
	CmdClearTerminal  Command = "clear-terminal"
	// CmdScrollUp and CmdScrollDown page through the shell's scrollback.
	// They work in both panes.
	CmdScrollUp   Command = "scroll-up"
	CmdScrollDown Command = "scroll-down"
)

// MaxBookmarks is the number of bookmark-N commands.
const MaxBookmarks = 9

const bookmarkPrefix = "bookmark-"

// BookmarkCommand returns the command that jumps to bookmark n, counted
// from 1.
func BookmarkCommand(n int) Command {
	return Command(bookmarkPrefix + strconv.Itoa(n))
}

// Bookmark returns the bookmark number of a bookmark-N command.
func (c Command) Bookmark() (int, bool) {
	rest, ok := strings.CutPrefix(string(c), bookmarkPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > MaxBookmarks {
		return 0, false
	}
	return n, true
}

// Terminal reports whether c is routed while the terminal has focus
// instead of its key being sent to the shell.
func (c Command) Terminal() bool {
	return c == CmdScrollUp || c == CmdScrollDown
}

var commands = []Command{
	CmdUp, CmdDown, CmdPageUp, CmdPageDown, CmdTop, CmdBottom,
	CmdOpen, CmdParent, CmdBack, CmdForward,
	CmdMark, CmdClearMarks, CmdCopy, CmdCut, CmdPaste, CmdDelete,
	CmdRefresh, CmdToggleHidden, CmdSortCycle, CmdSortReverse,
	CmdSearch, CmdFilter, CmdClose, CmdYankPath, CmdHomeDir,
	CmdRespawnShell, CmdCancelOps, CmdQuit,
	CmdToggleTerminal, CmdClearTerminal, CmdScrollUp, CmdScrollDown,
}

func init() {
	for n := 1; n <= MaxBookmarks; n++ {
		commands = append(commands, BookmarkCommand(n))
	}
}

// Commands returns every known command.
func Commands() []Command {
	return slices.Clone(commands)
}

// ParseCommand validates a command name.
func ParseCommand(name string) (Command, error) {
	c := Command(name)
	if !slices.Contains(commands, c) {
		return "", fmt.Errorf("unknown command %q", name)
	}
	return c, nil
}
