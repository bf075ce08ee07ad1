package action

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
)

// Decoder turns raw terminal output into Actions using the ansi parser's
// state machine. It is meant to be used one raw line at a time: call Reset
// before each Decode so an escape sequence cut off at the end of a line is
// dropped instead of swallowing the start of the next one. Without Reset,
// parser state carries over to the next Decode call.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	parser  *ansi.Parser
	pending []Action
}

// NewDecoder creates a Decoder with a fresh parser.
func NewDecoder() *Decoder {
	d := &Decoder{parser: ansi.NewParser()}
	d.parser.SetHandler(ansi.Handler{
		Print:     d.print,
		Execute:   d.execute,
		HandleCsi: d.csi,
		HandleEsc: func(cmd ansi.Cmd) {
			d.emit(Ignored(fmt.Sprintf("ESC %c", cmd.Final())))
		},
		HandleOsc: func(cmd int, _ []byte) {
			d.emit(Ignored(fmt.Sprintf("OSC %d", cmd)))
		},
		HandleDcs: func(cmd ansi.Cmd, _ ansi.Params, _ []byte) {
			d.emit(Ignored(fmt.Sprintf("DCS %c", cmd.Final())))
		},
		HandleApc: func([]byte) { d.emit(Ignored("APC")) },
		HandlePm:  func([]byte) { d.emit(Ignored("PM")) },
		HandleSos: func([]byte) { d.emit(Ignored("SOS")) },
	})
	return d
}

// Decode feeds one raw line to the parser and returns the actions it
// produced, in input order. The returned slice is owned by the caller.
func (d *Decoder) Decode(line []byte) []Action {
	d.pending = make([]Action, 0, len(line))
	for _, b := range line {
		d.parser.Advance(b)
	}
	out := d.pending
	d.pending = nil
	return out
}

// Reset drops any partially parsed sequence.
func (d *Decoder) Reset() {
	d.parser.Reset()
	d.pending = nil
}

func (d *Decoder) emit(a Action) {
	d.pending = append(d.pending, a)
}

func (d *Decoder) print(r rune) {
	d.emit(Print(r))
}

func (d *Decoder) execute(b byte) {
	switch b {
	case ansi.BS:
		d.emit(Control(ControlBackspace))
	case ansi.HT:
		d.emit(Control(ControlHorizontalTab))
	case ansi.CR:
		d.emit(Control(ControlCarriageReturn))
	case ansi.LF:
		d.emit(Control(ControlLineFeed))
	default:
		d.emit(Action{Kind: KindControl, Control: ControlOther, Raw: fmt.Sprintf("0x%02x", b)})
	}
}

func (d *Decoder) csi(cmd ansi.Cmd, params ansi.Params) {
	d.emit(decodeCsi(cmd, params))
}

// decodeCsi maps a CSI command onto the modeled subset. Private (prefixed)
// and intermediate-carrying sequences are never modeled.
func decodeCsi(cmd ansi.Cmd, params ansi.Params) Action {
	raw := fmt.Sprintf("CSI %c", cmd.Final())
	if cmd.Prefix() != 0 || cmd.Intermediate() != 0 {
		return Ignored(raw)
	}

	switch cmd.Final() {
	case 'D': // CUB
		n, _, _ := params.Param(0, 1)
		return CursorMove(Left, n)
	case 'C': // CUF
		n, _, _ := params.Param(0, 1)
		return CursorMove(Right, n)
	case 'J': // ED
		n, _, _ := params.Param(0, 0)
		switch n {
		case 0:
			return EraseDisplay(EraseToEnd)
		case 1:
			return EraseDisplay(EraseToStart)
		case 2:
			return EraseDisplay(EraseAll)
		case 3:
			return EraseDisplay(EraseScrollback)
		}
	case 'K': // EL
		n, _, _ := params.Param(0, 0)
		switch n {
		case 0:
			return EraseLine(EraseToEnd)
		case 1:
			return EraseLine(EraseToStart)
		case 2:
			return EraseLine(EraseAll)
		}
	}
	return Ignored(raw)
}
