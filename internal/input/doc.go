// Package input routes key presses to the pane that owns them.
//
// The Router owns the focus. A reserved toggle chord (ctrl+t unless
// configured otherwise) switches focus and is never delivered to a pane.
// With the browser focused, keys are looked up in a Keymap and become
// commands; with the terminal focused, keys are encoded into the byte
// sequences a terminal application expects and written to the shell.
//
// A pending Prompt takes precedence over both panes. Confirmation prompts
// only answer yes or no; input prompts collect a line of text.
package input
