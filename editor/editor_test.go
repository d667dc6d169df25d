//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clack "github.com/timburks/clack/types"
)

// typeText applies text as a run of matured reveals.
func typeText(e *Editor, text string) {
	seq := e.Document().Sequence()
	for _, c := range text {
		seq++
		ev := clack.RevealEvent{Sequence: seq, Glyph: c}
		if c == '\n' {
			ev.Control = clack.ControlLineBreak
		}
		e.Apply(ev)
	}
}

func struck(e *Editor) []bool {
	snap := e.Snapshot()
	var flags []bool
	for _, c := range snap.Lines[snap.Tail()] {
		flags = append(flags, c.Struck)
	}
	return flags
}

func TestTypeAndBreak(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "ab\ncd")
	doc := e.Document()
	assert.Equal(t, 2, doc.LineCount())
	assert.Equal(t, 5, doc.Len())
	assert.Equal(t, uint64(5), doc.Sequence())
	assert.Equal(t, "ab\ncd", string(doc.Bytes()))
	assert.True(t, doc.Modified())
}

func TestMarkOutStrikesNewest(t *testing.T) {
	for depth := 1; depth <= 5; depth++ {
		e := NewEditor(nil)
		typeText(e, "typewriter")
		for i := 0; i < depth; i++ {
			require.NoError(t, e.Backspace())
		}
		assert.Equal(t, clack.ModeMarkOut, e.Mode())
		assert.Equal(t, depth, e.Depth())
		for i := 0; i < depth; i++ {
			require.NoError(t, e.Handle(clack.Character('x')))
		}
		assert.Equal(t, clack.ModeNormal, e.Mode())
		assert.Equal(t, 10, e.Document().Len(), "mark-out never changes length")
		flags := struck(e)
		for i, f := range flags {
			assert.Equal(t, i >= 10-depth, f, "depth %d cell %d", depth, i)
		}
		assert.Equal(t, "typewriter"[:10-depth], string(e.Document().PlainBytes()))
	}
}

func TestBackspaceStopsAtLineStart(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "one\nab")
	require.NoError(t, e.Backspace())
	require.NoError(t, e.Backspace())
	assert.ErrorIs(t, e.Backspace(), ErrInvalidTransition)
	assert.Equal(t, 2, e.Depth())

	empty := NewEditor(nil)
	assert.ErrorIs(t, empty.Backspace(), ErrInvalidTransition)
	assert.Equal(t, clack.ModeNormal, empty.Mode())
}

func TestForwardLeavesCellsUnstruck(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "abc")
	require.NoError(t, e.Backspace())
	require.NoError(t, e.Backspace())
	require.NoError(t, e.Handle(clack.Navigate(clack.NavigateForward)))
	require.NoError(t, e.Strike())
	assert.Equal(t, []bool{false, false, true}, struck(e))
	assert.Equal(t, clack.ModeNormal, e.Mode())
}

func TestInvalidTransitions(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "abc")
	assert.ErrorIs(t, e.Strike(), ErrInvalidTransition)
	assert.ErrorIs(t, e.Forward(), ErrInvalidTransition)
	assert.ErrorIs(t, e.Handle(clack.Navigate(clack.NavigateBack)), ErrInvalidTransition)

	require.NoError(t, e.Handle(clack.Backspace))
	assert.True(t, e.Consumes(clack.Character('q')))
	assert.ErrorIs(t, e.Handle(clack.Character('q')), ErrInvalidTransition)
	assert.Equal(t, 1, e.Depth())
	require.NoError(t, e.Handle(clack.Navigate(clack.NavigateBack)))
	assert.Equal(t, 2, e.Depth())
	require.NoError(t, e.Handle(clack.MarkOutStrike))
	assert.Equal(t, []bool{false, true, false}, struck(e))
}

func TestStruckNeverReverts(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "ab")
	require.NoError(t, e.Backspace())
	require.NoError(t, e.Strike())
	require.NoError(t, e.Backspace())
	require.NoError(t, e.Strike())
	assert.Equal(t, []bool{false, true}, struck(e))
}

func TestLineBreakHeldDuringMarkOut(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "ab")
	require.NoError(t, e.Backspace())
	br := clack.RevealEvent{Sequence: 3, Glyph: '\n', Control: clack.ControlLineBreak}
	assert.False(t, e.Apply(br))
	assert.Equal(t, 1, e.Document().LineCount())
	e.Cancel()
	assert.True(t, e.Apply(br))
	assert.Equal(t, 2, e.Document().LineCount())
}

func TestGlyphDuringMarkOutKeepsCursorCell(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "ab")
	require.NoError(t, e.Backspace())
	typeText(e, "c")
	assert.Equal(t, 2, e.Depth())
	require.NoError(t, e.Strike())
	assert.Equal(t, []bool{false, true, false}, struck(e))
}

func TestSnapshotIsolation(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "first\nsec")
	snap := e.Snapshot()
	typeText(e, "ond")
	require.NoError(t, e.Backspace())
	require.NoError(t, e.Strike())
	assert.Len(t, snap.Lines[1], 3)
	assert.Equal(t, clack.ModeNormal, snap.Mode)
	for _, c := range snap.Lines[1] {
		assert.False(t, c.Struck)
	}
	assert.Equal(t, "first", string(glyphs(snap.Lines[0])))
}

func glyphs(cells []clack.Cell) []rune {
	var r []rune
	for _, c := range cells {
		r = append(r, c.Glyph)
	}
	return r
}

func TestRoundTrip(t *testing.T) {
	e := NewEditor(nil)
	typeText(e, "Four score and seven\nyears ago\n\nour fathers")
	require.NoError(t, e.Backspace())
	require.NoError(t, e.Backspace())
	require.NoError(t, e.Strike())
	data := e.Document().Bytes()

	doc := NewDocument()
	doc.LoadBytes(data)
	assert.Equal(t, string(data), string(doc.Bytes()))
	assert.Equal(t, e.Document().Len(), doc.Len())
	assert.Equal(t, e.Snapshot().Lines, NewEditor(doc).Snapshot().Lines)
	assert.False(t, doc.Modified())
	assert.Equal(t, "Four score and seven\nyears ago\n\nour fathes", string(doc.PlainBytes()))
}

func TestNewLine(t *testing.T) {
	l := NewLine("a\tb")
	assert.Equal(t, 10, l.Length())
	l = NewLine("ab" + string(StrikeMark) + "c")
	assert.Equal(t, 3, l.Length())
	assert.True(t, l.Cell(1).Struck)
	assert.Equal(t, "ac", l.PlainText())
	assert.Equal(t, clack.Cell{}, l.Cell(7))
}
