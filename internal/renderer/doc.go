// Package renderer draws shellpane's panes onto a backend.
//
// A Canvas is a clipped window onto the backend; all drawing goes through
// one so panes cannot paint over each other. ComputeLayout splits the host
// screen into the browser pane, the terminal pane and the status line,
// and Theme holds the styles they are drawn with.
//
// Usage:
//
//	b, _ := backend.NewTerminal()
//	_ = b.Init()
//	w, h := b.Size()
//	l := renderer.ComputeLayout(w, h, renderer.Horizontal, 0.4)
//	c := renderer.NewCanvas(b).Sub(l.Browser)
//	c.Text(0, 0, "hello", theme.Normal)
package renderer
