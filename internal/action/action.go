// Package action defines the decoded terminal actions consumed by the line
// reconstruction engine, and the decoder that produces them from raw bytes.
//
// An [Action] is a closed tagged value: its [Kind] selects which of the other
// fields are meaningful. Everything the decoder recognizes but ttylog does not
// model (SGR, OSC, cursor up/down, ...) is reported as [KindIgnored] so that
// consumers have a single no-op branch for it.
package action

import "fmt"

// Kind identifies the variant of an Action.
type Kind int

const (
	// KindIgnored is any decoded action with no effect on a single row.
	KindIgnored Kind = iota
	// KindPrint writes one character at the cursor.
	KindPrint
	// KindControl is a C0/C1 control code.
	KindControl
	// KindCursorMove moves the cursor horizontally.
	KindCursorMove
	// KindEraseDisplay is an ED (CSI J) command.
	KindEraseDisplay
	// KindEraseLine is an EL (CSI K) command.
	KindEraseLine
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIgnored:
		return "ignored"
	case KindPrint:
		return "print"
	case KindControl:
		return "control"
	case KindCursorMove:
		return "cursor_move"
	case KindEraseDisplay:
		return "erase_display"
	case KindEraseLine:
		return "erase_line"
	default:
		return "unknown"
	}
}

// ControlCode is a control code carried by a KindControl action.
type ControlCode int

const (
	// ControlOther covers every control code without a modeled effect.
	ControlOther ControlCode = iota
	ControlBackspace
	ControlHorizontalTab
	ControlCarriageReturn
	ControlLineFeed
)

// String returns the name of the control code.
func (c ControlCode) String() string {
	switch c {
	case ControlBackspace:
		return "BS"
	case ControlHorizontalTab:
		return "HT"
	case ControlCarriageReturn:
		return "CR"
	case ControlLineFeed:
		return "LF"
	default:
		return "other"
	}
}

// Direction is the direction of a horizontal cursor movement.
type Direction int

const (
	Left Direction = iota
	Right
)

// String returns the name of the direction.
func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// EraseScope selects which part of the row an erase action clears.
type EraseScope int

const (
	// EraseToEnd clears from the cursor to the end of the row.
	EraseToEnd EraseScope = iota
	// EraseToStart clears from the start of the row through the cursor.
	EraseToStart
	// EraseAll clears the whole row.
	EraseAll
	// EraseScrollback clears scrollback only (ED 3); it never touches the row.
	EraseScrollback
)

// String returns the name of the scope.
func (s EraseScope) String() string {
	switch s {
	case EraseToEnd:
		return "to_end"
	case EraseToStart:
		return "to_start"
	case EraseAll:
		return "all"
	case EraseScrollback:
		return "scrollback"
	default:
		return "unknown"
	}
}

// Action is one decoded terminal action.
type Action struct {
	Kind Kind

	// Rune is set for KindPrint.
	Rune rune
	// Control is set for KindControl.
	Control ControlCode
	// Direction and Count are set for KindCursorMove. Count is at least 1.
	Direction Direction
	Count     int
	// Scope is set for KindEraseDisplay and KindEraseLine.
	Scope EraseScope

	// Raw describes an ignored action for debug logging (e.g. "CSI m").
	Raw string
}

// Print returns a KindPrint action.
func Print(r rune) Action {
	return Action{Kind: KindPrint, Rune: r}
}

// Control returns a KindControl action.
func Control(c ControlCode) Action {
	return Action{Kind: KindControl, Control: c}
}

// CursorMove returns a KindCursorMove action. Counts below 1 are treated as 1,
// as terminals do for CUB/CUF.
func CursorMove(d Direction, n int) Action {
	if n < 1 {
		n = 1
	}
	return Action{Kind: KindCursorMove, Direction: d, Count: n}
}

// EraseDisplay returns a KindEraseDisplay action.
func EraseDisplay(s EraseScope) Action {
	return Action{Kind: KindEraseDisplay, Scope: s}
}

// EraseLine returns a KindEraseLine action.
func EraseLine(s EraseScope) Action {
	return Action{Kind: KindEraseLine, Scope: s}
}

// Ignored returns a KindIgnored action described by raw.
func Ignored(raw string) Action {
	return Action{Kind: KindIgnored, Raw: raw}
}

// String returns a compact, human-readable form of the action.
func (a Action) String() string {
	switch a.Kind {
	case KindPrint:
		return fmt.Sprintf("print(%q)", a.Rune)
	case KindControl:
		return fmt.Sprintf("control(%s)", a.Control)
	case KindCursorMove:
		return fmt.Sprintf("cursor_move(%s,%d)", a.Direction, a.Count)
	case KindEraseDisplay, KindEraseLine:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Scope)
	default:
		return fmt.Sprintf("ignored(%s)", a.Raw)
	}
}
