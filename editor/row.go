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
	"strings"

	clack "github.com/timburks/clack/types"
)

// StrikeMark is the combining overlay that follows a struck glyph in
// linearized text.
const StrikeMark = '\u0336'

// A Line of cells in the document. Lines only grow at their tail.
type Line struct {
	cells []clack.Cell
}

// We replace any tabs with spaces
func NewLine(text string) *Line {
	l := &Line{}
	for _, c := range strings.Replace(text, "\t", "        ", -1) {
		if c == StrikeMark && len(l.cells) > 0 {
			l.cells[len(l.cells)-1].Struck = true
			continue
		}
		l.cells = append(l.cells, clack.Cell{Glyph: c})
	}
	return l
}

func (l *Line) Length() int {
	return len(l.cells)
}

func (l *Line) Cell(col int) clack.Cell {
	if col < 0 || col >= len(l.cells) {
		return clack.Cell{}
	}
	return l.cells[col]
}

func (l *Line) append(c rune) {
	l.cells = append(l.cells, clack.Cell{Glyph: c})
}

// strike flags the cell at col and reports whether it changed.
func (l *Line) strike(col int) bool {
	if col < 0 || col >= len(l.cells) || l.cells[col].Struck {
		return false
	}
	l.cells[col].Struck = true
	return true
}

// DisplayText renders struck cells as overstrike composites.
func (l *Line) DisplayText() string {
	var b strings.Builder
	for _, c := range l.cells {
		b.WriteRune(c.Glyph)
		if c.Struck {
			b.WriteRune(StrikeMark)
		}
	}
	return b.String()
}

// PlainText omits struck cells.
func (l *Line) PlainText() string {
	var b strings.Builder
	for _, c := range l.cells {
		if !c.Struck {
			b.WriteRune(c.Glyph)
		}
	}
	return b.String()
}
