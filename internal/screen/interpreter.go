package screen

import "github.com/Iron-Ham/ttylog/internal/action"

// Apply applies a single action to the row. Actions without an effect on a
// single row are no-ops.
func (l *Line) Apply(a action.Action) {
	switch a.Kind {
	case action.KindPrint:
		l.cursor = l.WriteAt(l.cursor, string(a.Rune))
	case action.KindControl:
		l.control(a.Control)
	case action.KindCursorMove:
		l.move(a.Direction, a.Count)
	case action.KindEraseDisplay:
		// Only one row exists, so ED behaves like EL, except that
		// clearing scrollback has nothing to act on.
		if a.Scope != action.EraseScrollback {
			l.erase(a.Scope)
		}
	case action.KindEraseLine:
		l.erase(a.Scope)
	case action.KindIgnored:
	}
}

// ApplyAll applies actions in order and returns how many of them had no
// modeled effect (ignored kinds and unmodeled control codes).
func (l *Line) ApplyAll(actions []action.Action) int {
	var ignored int
	for _, a := range actions {
		if a.Kind == action.KindIgnored ||
			(a.Kind == action.KindControl && a.Control == action.ControlOther) {
			ignored++
		}
		l.Apply(a)
	}
	return ignored
}

// Reconstruct builds a fresh Line of the given width and applies actions to it.
func Reconstruct(width int, actions []action.Action, opts ...Option) *Line {
	l := NewLine(width, opts...)
	l.ApplyAll(actions)
	return l
}

func (l *Line) control(code action.ControlCode) {
	switch code {
	case action.ControlBackspace:
		// At column 0 there is nothing to the left to erase.
		if l.cursor > 0 {
			l.cursor--
			l.BlankRange(l.cursor, l.cursor+1)
		}
	case action.ControlHorizontalTab:
		l.tab()
	case action.ControlCarriageReturn:
		l.cursor = 0
	case action.ControlLineFeed:
		// Raw lines are split on LF, so it only ever terminates the row.
	case action.ControlOther:
	}
}

func (l *Line) tab() {
	if l.tabWidth <= 0 {
		l.cursor = l.WriteAt(l.cursor, TabMarker)
		return
	}
	next := (l.cursor/l.tabWidth + 1) * l.tabWidth
	l.grow(next)
	l.BlankRange(l.cursor, next)
	l.cursor = next
}

func (l *Line) move(d action.Direction, n int) {
	if n < 1 {
		n = 1
	}
	switch d {
	case action.Left:
		if n >= l.cursor {
			l.cursor = 0
		} else {
			l.cursor -= n
		}
	case action.Right:
		if n >= len(l.cells)-l.cursor {
			l.cursor = len(l.cells)
		} else {
			l.cursor += n
		}
	}
}

func (l *Line) erase(scope action.EraseScope) {
	switch scope {
	case action.EraseToEnd:
		l.BlankRange(l.cursor, len(l.cells))
	case action.EraseToStart:
		l.BlankRange(0, l.cursor+1)
		l.cursor = 0
	case action.EraseAll:
		l.Reset(l.width)
	case action.EraseScrollback:
	}
}
