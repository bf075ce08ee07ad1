// Package screen reconstructs the visually final content of one terminal row.
//
// A [Line] is a single row of display cells plus a cursor. Actions are applied
// with overwrite semantics, as a real terminal renders a fixed-width row:
// nothing ever shifts. All position arithmetic clamps, so no action sequence
// can make a Line panic.
//
// Cells are indexed by display column. A double-width rune occupies its cell
// and a continuation cell to its right; a zero-width rune (combining mark,
// joiner, variation selector) is attached to the cell left of the cursor.
package screen

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	blank = " "
	// continuation marks the right half of a double-width character.
	continuation = ""
	// TabMarker is written for a horizontal tab when tab expansion is off.
	TabMarker = "\t"
)

// Line is a single-row text model with a cursor.
//
// Invariants: len(cells) >= width, and 0 <= cursor <= len(cells).
// A Line is not safe for concurrent use.
type Line struct {
	cells    []string
	cursor   int
	width    int
	tabWidth int
}

// Option configures a Line.
type Option func(*Line)

// WithTabWidth expands horizontal tabs to the next multiple of n columns
// instead of writing a tab marker. Values below 1 keep the marker.
func WithTabWidth(n int) Option {
	return func(l *Line) {
		if n > 0 {
			l.tabWidth = n
		}
	}
}

// NewLine creates a blank Line sized for width columns.
func NewLine(width int, opts ...Option) *Line {
	l := &Line{}
	for _, opt := range opts {
		opt(l)
	}
	l.Reset(width)
	return l
}

// Width returns the nominal width the Line was last reset to.
func (l *Line) Width() int {
	return l.width
}

// Len returns the current number of cells, which may exceed Width.
func (l *Line) Len() int {
	return len(l.cells)
}

// Cursor returns the current cursor column.
func (l *Line) Cursor() int {
	return l.cursor
}

// Reset blanks the row, sizes it to width cells and moves the cursor home.
func (l *Line) Reset(width int) {
	if width < 0 {
		width = 0
	}
	if cap(l.cells) >= width {
		l.cells = l.cells[:width]
	} else {
		l.cells = make([]string, width)
	}
	for i := range l.cells {
		l.cells[i] = blank
	}
	l.width = width
	l.cursor = 0
}

// WriteAt overwrites cells starting at pos with text and returns the column
// just past the last cell written. Subsequent cells are never shifted. The
// row grows with blanks when text reaches past its end.
func (l *Line) WriteAt(pos int, text string) int {
	if pos < 0 {
		pos = 0
	}
	for _, r := range text {
		pos = l.put(pos, r)
	}
	return pos
}

// BlankRange blanks the cells in [start, end), clamped to the row.
func (l *Line) BlankRange(start, end int) {
	start = clamp(start, 0, len(l.cells))
	end = clamp(end, start, len(l.cells))
	if start == end {
		return
	}

	// Don't leave half of a wide character behind at either edge.
	if l.cells[start] == continuation && start > 0 {
		l.cells[start-1] = blank
	}
	if end < len(l.cells) && l.cells[end] == continuation {
		l.cells[end] = blank
	}

	for i := start; i < end; i++ {
		l.cells[i] = blank
	}
}

// String renders the row with trailing blank cells removed.
func (l *Line) String() string {
	last := len(l.cells) - 1
	for last >= 0 && (l.cells[last] == blank || l.cells[last] == continuation) {
		last--
	}

	var sb strings.Builder
	for _, c := range l.cells[:last+1] {
		sb.WriteString(c)
	}
	return sb.String()
}

// put writes a single rune at pos and returns the next column.
func (l *Line) put(pos int, r rune) int {
	text := string(r)
	w := runeWidth(r)
	if w == 0 {
		l.attach(pos, text)
		return pos
	}

	l.grow(pos + w)
	l.splitWide(pos)
	if w == 2 {
		l.splitWide(pos + 1)
	}
	l.cells[pos] = text
	if w == 2 {
		l.cells[pos+1] = continuation
	}
	return pos + w
}

// attach appends a zero-width rune to the character left of pos.
func (l *Line) attach(pos int, text string) {
	target := pos - 1
	if target >= len(l.cells) {
		target = len(l.cells) - 1
	}
	if target > 0 && l.cells[target] == continuation {
		target--
	}
	if target < 0 {
		return
	}
	l.cells[target] += text
}

// splitWide blanks the other half of a wide character about to be partly
// overwritten at pos.
func (l *Line) splitWide(pos int) {
	if l.cells[pos] == continuation && pos > 0 {
		l.cells[pos-1] = blank
	}
	if pos+1 < len(l.cells) && l.cells[pos+1] == continuation {
		l.cells[pos+1] = blank
	}
}

// grow appends blanks until the row has at least n cells.
func (l *Line) grow(n int) {
	for len(l.cells) < n {
		l.cells = append(l.cells, blank)
	}
}

func runeWidth(r rune) int {
	if r == '\t' {
		return 1
	}
	w := runewidth.RuneWidth(r)
	if w > 2 {
		w = 2
	}
	return w
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
