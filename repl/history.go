package repl

import (
	"strings"

	"github.com/edwingeng/deque"
)

// History records input lines in the order they were entered. A line that
// matches the line before it, ignoring case, is recorded only once.
type History struct {
	lines deque.Deque
	// max is the number of lines kept, or 0 for no limit.
	max int
}

// NewHistory creates an empty history that keeps at most max lines. If max is
// 0 or less, the history is unbounded.
func NewHistory(max int) *History {
	if max < 0 {
		max = 0
	}
	return &History{lines: deque.NewDeque(), max: max}
}

// Add records a line. It returns false if the line was suppressed as a
// duplicate of the previous one.
func (h *History) Add(line string) bool {
	if !h.lines.Empty() && strings.EqualFold(h.lines.Back().(string), line) {
		return false
	}
	h.lines.PushBack(line)
	if h.max > 0 && h.lines.Len() > h.max {
		h.lines.PopFront()
	}
	return true
}

// Len returns the number of recorded lines.
func (h *History) Len() int {
	return h.lines.Len()
}

// Lines returns the recorded lines, oldest first.
func (h *History) Lines() []string {
	r := make([]string, 0, h.lines.Len())
	h.lines.Range(func(i int, v deque.Elem) bool {
		r = append(r, v.(string))
		return true
	})
	return r
}

// Clear discards all recorded lines.
func (h *History) Clear() {
	h.lines = deque.NewDeque()
}
