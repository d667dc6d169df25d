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

// A Document holds everything typed in a session. Only the last line
// accepts appends, and nothing is ever removed.
type Document struct {
	lines    []*Line
	sequence uint64 // last applied reveal
	length   int    // cells plus line breaks
	modified bool
}

func NewDocument() *Document {
	return &Document{lines: []*Line{NewLine("")}}
}

// LoadBytes replaces the contents with linearized text. Struck cells are
// restored from their overstrike marks.
func (d *Document) LoadBytes(bytes []byte) {
	d.lines = make([]*Line, 0)
	d.length = 0
	for i, text := range strings.Split(string(bytes), "\n") {
		line := NewLine(text)
		d.lines = append(d.lines, line)
		d.length += line.Length()
		if i > 0 {
			d.length++
		}
	}
	d.modified = false
}

// Bytes linearizes the document so that LoadBytes restores it exactly.
func (d *Document) Bytes() []byte {
	var b strings.Builder
	for i, line := range d.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.DisplayText())
	}
	return []byte(b.String())
}

// PlainBytes returns the text without struck cells.
func (d *Document) PlainBytes() []byte {
	var b strings.Builder
	for i, line := range d.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.PlainText())
	}
	return []byte(b.String())
}

func (d *Document) LineCount() int {
	return len(d.lines)
}

func (d *Document) LineLength(i int) int {
	if i < 0 || i >= len(d.lines) {
		return 0
	}
	return d.lines[i].Length()
}

// Len counts cells and line breaks.
func (d *Document) Len() int {
	return d.length
}

// Sequence returns the sequence number of the last applied reveal.
func (d *Document) Sequence() uint64 {
	return d.sequence
}

func (d *Document) Modified() bool {
	return d.modified
}

func (d *Document) MarkSaved() {
	d.modified = false
}

func (d *Document) tail() *Line {
	return d.lines[len(d.lines)-1]
}

func (d *Document) appendGlyph(sequence uint64, c rune) {
	d.tail().append(c)
	d.applied(sequence)
}

func (d *Document) breakLine(sequence uint64) {
	d.lines = append(d.lines, NewLine(""))
	d.applied(sequence)
}

func (d *Document) applied(sequence uint64) {
	d.sequence = sequence
	d.length++
	d.modified = true
}

// strikeBack flags the cell depth positions back from the append point.
func (d *Document) strikeBack(depth int) bool {
	line := d.tail()
	if line.strike(line.Length() - depth) {
		d.modified = true
		return true
	}
	return false
}

// snapshot copies the tail line and shares the rest, which can no longer
// change once a line break has been applied.
func (d *Document) snapshot() [][]clack.Cell {
	lines := make([][]clack.Cell, len(d.lines))
	last := len(d.lines) - 1
	for i, line := range d.lines[:last] {
		lines[i] = line.cells[:len(line.cells):len(line.cells)]
	}
	tail := d.lines[last].cells
	lines[last] = append(make([]clack.Cell, 0, len(tail)), tail...)
	return lines
}
