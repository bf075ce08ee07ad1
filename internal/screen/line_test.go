package screen

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/ttylog/internal/action"
)

func prints(s string) []action.Action {
	var out []action.Action
	for _, r := range s {
		out = append(out, action.Print(r))
	}
	return out
}

func concat(parts ...[]action.Action) []action.Action {
	var out []action.Action
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var (
	bs = action.Control(action.ControlBackspace)
	ht = action.Control(action.ControlHorizontalTab)
	cr = action.Control(action.ControlCarriageReturn)
	lf = action.Control(action.ControlLineFeed)
)

func TestNewLine(t *testing.T) {
	l := NewLine(10)

	if l.Width() != 10 {
		t.Errorf("Width() = %d, want 10", l.Width())
	}
	if l.Len() != 10 {
		t.Errorf("Len() = %d, want 10", l.Len())
	}
	if l.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", l.Cursor())
	}
	if l.String() != "" {
		t.Errorf("String() = %q, want empty", l.String())
	}
}

func TestNewLine_NegativeWidth(t *testing.T) {
	l := NewLine(-3)
	if l.Width() != 0 || l.Len() != 0 {
		t.Errorf("NewLine(-3) has width %d len %d, want 0 and 0", l.Width(), l.Len())
	}
}

func TestReconstruct_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		actions []action.Action
		want    string
	}{
		{
			name:    "backspace then overwrite",
			width:   10,
			actions: concat(prints("abc"), []action.Action{bs}, prints("x")),
			want:    "abx",
		},
		{
			name:    "carriage return then overwrite",
			width:   10,
			actions: concat(prints("abcde"), []action.Action{cr}, prints("Z")),
			want:    "Zbcde",
		},
		{
			name:    "erase line all",
			width:   10,
			actions: concat(prints("hi"), []action.Action{action.EraseLine(action.EraseAll)}),
			want:    "",
		},
		{
			name:    "empty sequence",
			width:   10,
			actions: nil,
			want:    "",
		},
		{
			name:    "trailing line feed is a no-op",
			width:   10,
			actions: concat(prints("ok"), []action.Action{cr, lf}),
			want:    "ok",
		},
		{
			name:  "cursor left then overwrite",
			width: 10,
			actions: concat(prints("hello"),
				[]action.Action{action.CursorMove(action.Left, 3)}, prints("EL")),
			want: "heELo",
		},
		{
			name:  "cursor right leaves a gap",
			width: 10,
			actions: concat(prints("a"),
				[]action.Action{action.CursorMove(action.Right, 2)}, prints("b")),
			want: "a  b",
		},
		{
			name:  "erase to end of line",
			width: 10,
			actions: concat(prints("abcdef"),
				[]action.Action{action.CursorMove(action.Left, 3), action.EraseLine(action.EraseToEnd)}),
			want: "abc",
		},
		{
			name:  "erase to start of line includes cursor cell",
			width: 10,
			actions: concat(prints("abcdef"),
				[]action.Action{action.CursorMove(action.Left, 3), action.EraseLine(action.EraseToStart)}),
			want: "    ef",
		},
		{
			name:  "erase display mirrors erase line",
			width: 10,
			actions: concat(prints("abcdef"),
				[]action.Action{action.CursorMove(action.Left, 2), action.EraseDisplay(action.EraseToEnd)}),
			want: "abcd",
		},
		{
			name:    "erase scrollback is a no-op",
			width:   10,
			actions: concat(prints("keep"), []action.Action{action.EraseDisplay(action.EraseScrollback)}),
			want:    "keep",
		},
		{
			name:    "tab writes a marker",
			width:   10,
			actions: concat(prints("a"), []action.Action{ht}, prints("b")),
			want:    "a\tb",
		},
		{
			name:    "ignored actions have no effect",
			width:   10,
			actions: concat(prints("a"), []action.Action{action.Ignored("CSI m")}, prints("b")),
			want:    "ab",
		},
		{
			name:    "readline style redraw",
			width:   20,
			actions: concat(prints("$ lsx"), []action.Action{bs, bs}, prints("s")),
			want:    "$ ls",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconstruct(tt.width, tt.actions).String()
			if got != tt.want {
				t.Errorf("Reconstruct() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrints_ConcatenateWithinWidth(t *testing.T) {
	for _, s := range []string{"", "a", "hello", "0123456789"} {
		got := Reconstruct(10, prints(s)).String()
		if got != s {
			t.Errorf("prints(%q) reconstructs to %q", s, got)
		}
	}
}

func TestBackspace_AtColumnZero(t *testing.T) {
	l := NewLine(10)
	l.ApplyAll(concat(prints("abc"), []action.Action{cr, bs}))

	if l.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", l.Cursor())
	}
	if got := l.String(); got != "abc" {
		t.Errorf("String() = %q, want %q", got, "abc")
	}
}

func TestEraseAll_ThenPrintsStartFresh(t *testing.T) {
	prior := [][]action.Action{
		prints("garbage"),
		concat(prints("xyz"), []action.Action{action.CursorMove(action.Right, 40)}),
		{bs, bs, ht, ht},
	}
	for i, p := range prior {
		l := NewLine(10)
		l.ApplyAll(concat(p, []action.Action{action.EraseLine(action.EraseAll)}, prints("fresh")))
		if got := l.String(); got != "fresh" {
			t.Errorf("case %d: String() = %q, want %q", i, got, "fresh")
		}
	}
}

func TestCursorRight_ClampsToLen(t *testing.T) {
	l := NewLine(10)
	l.Apply(action.CursorMove(action.Right, 1000))
	if l.Cursor() != 10 {
		t.Errorf("Cursor() = %d, want 10", l.Cursor())
	}

	l.Apply(action.CursorMove(action.Right, int(^uint(0)>>1)))
	if l.Cursor() != l.Len() {
		t.Errorf("Cursor() = %d, want %d", l.Cursor(), l.Len())
	}
}

func TestCursorLeft_NeverNegative(t *testing.T) {
	l := NewLine(10)
	l.ApplyAll(prints("ab"))
	l.Apply(action.CursorMove(action.Left, 50))
	if l.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", l.Cursor())
	}
}

func TestWriteAt_GrowsPastWidth(t *testing.T) {
	l := NewLine(3)
	next := l.WriteAt(2, "xyz")

	if next != 5 {
		t.Errorf("WriteAt returned %d, want 5", next)
	}
	if l.Len() != 5 {
		t.Errorf("Len() = %d, want 5", l.Len())
	}
	if got := l.String(); got != "  xyz" {
		t.Errorf("String() = %q, want %q", got, "  xyz")
	}
}

func TestWriteAt_FarBeyondCapacity(t *testing.T) {
	l := NewLine(0)
	l.WriteAt(7, "z")

	if l.Len() != 8 {
		t.Errorf("Len() = %d, want 8", l.Len())
	}
	if got := l.String(); got != "       z" {
		t.Errorf("String() = %q", got)
	}
}

func TestWriteAt_Overwrites(t *testing.T) {
	l := NewLine(10)
	l.WriteAt(0, "abcdef")
	l.WriteAt(2, "XY")

	if got := l.String(); got != "abXYef" {
		t.Errorf("String() = %q, want %q", got, "abXYef")
	}
}

func TestBlankRange_Clamps(t *testing.T) {
	l := NewLine(5)
	l.WriteAt(0, "abcde")

	l.BlankRange(-10, 2)
	l.BlankRange(4, 99)
	l.BlankRange(3, 1)

	if got := l.String(); got != "  cd" {
		t.Errorf("String() = %q, want %q", got, "  cd")
	}
}

func TestReset(t *testing.T) {
	l := NewLine(4)
	l.ApplyAll(prints("overflowing"))
	l.Reset(6)

	if l.Len() != 6 || l.Width() != 6 || l.Cursor() != 0 {
		t.Errorf("after Reset(6): len=%d width=%d cursor=%d", l.Len(), l.Width(), l.Cursor())
	}
	if l.String() != "" {
		t.Errorf("String() = %q, want empty", l.String())
	}
}

func TestTabExpansion(t *testing.T) {
	l := NewLine(20, WithTabWidth(8))
	l.ApplyAll(concat(prints("ab"), []action.Action{ht}, prints("c")))

	if got := l.String(); got != "ab      c" {
		t.Errorf("String() = %q, want %q", got, "ab      c")
	}
	if l.Cursor() != 9 {
		t.Errorf("Cursor() = %d, want 9", l.Cursor())
	}
}

func TestTabExpansion_GrowsRow(t *testing.T) {
	l := NewLine(2, WithTabWidth(4))
	l.ApplyAll(concat(prints("a"), []action.Action{ht}, prints("b")))

	if got := l.String(); got != "a   b" {
		t.Errorf("String() = %q, want %q", got, "a   b")
	}
}

func TestWideCharacters(t *testing.T) {
	t.Run("wide rune takes two columns", func(t *testing.T) {
		l := NewLine(10)
		l.ApplyAll(prints("世a"))
		if l.Cursor() != 3 {
			t.Errorf("Cursor() = %d, want 3", l.Cursor())
		}
		if got := l.String(); got != "世a" {
			t.Errorf("String() = %q, want %q", got, "世a")
		}
	})

	t.Run("overwriting right half blanks left half", func(t *testing.T) {
		l := NewLine(10)
		l.ApplyAll(concat(prints("世界"), []action.Action{action.CursorMove(action.Left, 3)}, prints("x")))
		if got := l.String(); got != " x界" {
			t.Errorf("String() = %q, want %q", got, " x界")
		}
	})

	t.Run("overwriting left half blanks right half", func(t *testing.T) {
		l := NewLine(10)
		l.ApplyAll(concat(prints("世"), []action.Action{cr}, prints("x")))
		if got := l.String(); got != "x" {
			t.Errorf("String() = %q, want %q", got, "x")
		}
	})

	t.Run("backspace over wide rune clears both halves", func(t *testing.T) {
		l := NewLine(10)
		l.ApplyAll(concat(prints("a世"), []action.Action{bs}))
		if got := l.String(); got != "a" {
			t.Errorf("String() = %q, want %q", got, "a")
		}
	})

	t.Run("wide rune past the edge grows the row", func(t *testing.T) {
		l := NewLine(1)
		l.ApplyAll(prints("世"))
		if l.Len() != 2 {
			t.Errorf("Len() = %d, want 2", l.Len())
		}
	})
}

func TestZeroWidthRunes(t *testing.T) {
	t.Run("combining mark attaches to previous cell", func(t *testing.T) {
		l := NewLine(10)
		l.ApplyAll(prints("e\u0301x"))
		if got := l.String(); got != "e\u0301x" {
			t.Errorf("String() = %q, want %q", got, "e\u0301x")
		}
		if l.Cursor() != 2 {
			t.Errorf("Cursor() = %d, want 2", l.Cursor())
		}
	})

	t.Run("combining mark at column zero is dropped", func(t *testing.T) {
		l := NewLine(10)
		l.ApplyAll(prints("\u0301a"))
		if got := l.String(); got != "a" {
			t.Errorf("String() = %q, want %q", got, "a")
		}
	})

	t.Run("combining mark after wide rune joins the wide rune", func(t *testing.T) {
		l := NewLine(10)
		l.ApplyAll(prints("\u4e16\u0301"))
		if got := l.String(); got != "\u4e16\u0301" {
			t.Errorf("String() = %q, want %q", got, "\u4e16\u0301")
		}
	})
}

func TestApplyAll_CountsIgnored(t *testing.T) {
	l := NewLine(10)
	n := l.ApplyAll([]action.Action{
		action.Print('a'),
		action.Ignored("CSI m"),
		{Kind: action.KindControl, Control: action.ControlOther},
		action.EraseLine(action.EraseAll),
	})
	if n != 2 {
		t.Errorf("ApplyAll ignored = %d, want 2", n)
	}
}

// Boundary-pushing sequences must never panic and must keep the cursor in range.
func TestApply_NeverPanics(t *testing.T) {
	all := []action.Action{
		action.Print('a'), action.Print('\u4e16'), action.Print('\u0301'),
		bs, ht, cr, lf,
		{Kind: action.KindControl, Control: action.ControlOther},
		action.CursorMove(action.Left, 1), action.CursorMove(action.Right, 3),
		action.CursorMove(action.Right, 1<<30), action.CursorMove(action.Left, 1<<30),
		action.EraseLine(action.EraseToEnd), action.EraseLine(action.EraseToStart), action.EraseLine(action.EraseAll),
		action.EraseDisplay(action.EraseToEnd), action.EraseDisplay(action.EraseToStart),
		action.EraseDisplay(action.EraseAll), action.EraseDisplay(action.EraseScrollback),
		{Kind: action.Kind(99)}, {Kind: action.KindEraseLine, Scope: action.EraseScope(42)},
		{Kind: action.KindCursorMove, Direction: action.Direction(7), Count: 2},
		{Kind: action.KindCursorMove, Direction: action.Left, Count: -5},
	}

	for _, width := range []int{0, 1, 3, 80} {
		for _, tabWidth := range []int{0, 4} {
			l := NewLine(width, WithTabWidth(tabWidth))
			// Deterministic pseudo-random walk over the action set.
			seed := uint32(width*31 + tabWidth + 7)
			for i := 0; i < 2000; i++ {
				seed = seed*1664525 + 1013904223
				l.Apply(all[int(seed>>16)%len(all)])
				if l.Cursor() < 0 || l.Cursor() > l.Len() {
					t.Fatalf("width=%d step %d: cursor %d outside [0, %d]", width, i, l.Cursor(), l.Len())
				}
				if l.Len() < l.Width() {
					t.Fatalf("width=%d step %d: len %d below width %d", width, i, l.Len(), l.Width())
				}
			}
			_ = l.String()
		}
	}
}

func TestString_KeepsLeadingBlanks(t *testing.T) {
	l := NewLine(10)
	l.Apply(action.CursorMove(action.Right, 3))
	l.ApplyAll(prints("x"))

	if got := l.String(); got != "   x" {
		t.Errorf("String() = %q, want %q", got, "   x")
	}
	if strings.HasSuffix(l.String(), " ") {
		t.Error("String() must not end with a blank")
	}
}
