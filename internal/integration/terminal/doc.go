// Package terminal implements the VT100/xterm emulation behind the shell
// pane.
//
// Bytes from the shell are fed to an Emulator, which runs them through a
// four-state Parser (ground, escape, CSI, OSC) and applies the result to a
// Screen: a fixed grid of cells plus a cursor, pen, scroll region and an
// alternate buffer. Renderers never touch the Screen directly; they take a
// Snapshot, which is an immutable copy safe to read from any goroutine.
//
//	emu := terminal.New(24, 80)
//	emu.Feed([]byte("\x1b[2J\x1b[Hhello"))
//	snap := emu.Snapshot()
//	fmt.Println(snap.Line(0)) // "hello"
//
// Parsing is chunk independent: feeding a stream in one call or split at any
// byte boundary yields the same screen. Unsupported sequences are consumed
// without touching the grid.
package terminal
