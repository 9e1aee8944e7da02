package terminal

// History stores lines scrolled off the top of the primary screen. A
// History with a zero budget keeps nothing.
type History struct {
	lines    []Line
	maxLines int
}

// NewHistory creates a history buffer holding at most maxLines lines.
func NewHistory(maxLines int) *History {
	if maxLines < 0 {
		maxLines = 0
	}
	return &History{maxLines: maxLines}
}

// Add appends a copy of line, dropping the oldest line when full.
func (h *History) Add(line *Line) {
	if h.maxLines == 0 || line == nil {
		return
	}
	h.lines = append(h.lines, line.clone())
	if len(h.lines) > h.maxLines {
		// shift in place so the backing array does not grow without bound
		n := copy(h.lines, h.lines[len(h.lines)-h.maxLines:])
		h.lines = h.lines[:n]
	}
}

// Len returns the number of stored lines.
func (h *History) Len() int {
	return len(h.lines)
}

// Lines returns copies of the stored lines, oldest first.
func (h *History) Lines() []Line {
	out := make([]Line, len(h.lines))
	for i := range h.lines {
		out[i] = h.lines[i].clone()
	}
	return out
}

// Clear drops all stored lines.
func (h *History) Clear() {
	h.lines = h.lines[:0]
}
