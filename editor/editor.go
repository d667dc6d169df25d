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
	"errors"

	clack "github.com/timburks/clack/types"
)

// ErrInvalidTransition reports input that has no meaning in the current
// mode. The editor state is unchanged when it is returned.
var ErrInvalidTransition = errors.New("invalid transition")

// The Editor is the single writer of a Document. Reveals arrive through
// Apply; backspace, strike and navigation drive the mark-out machine.
type Editor struct {
	doc   *Document
	mode  clack.Mode
	depth int // cells back from the append point, 0 in normal mode
}

func NewEditor(doc *Document) *Editor {
	if doc == nil {
		doc = NewDocument()
	}
	return &Editor{doc: doc, mode: clack.ModeNormal}
}

func (e *Editor) Document() *Document {
	return e.doc
}

func (e *Editor) Mode() clack.Mode {
	return e.mode
}

func (e *Editor) Depth() int {
	return e.depth
}

// window is the number of cells the cursor may retreat over.
func (e *Editor) window() int {
	return e.doc.tail().Length()
}

// Apply writes a matured reveal into the document. A line break is held
// (Apply returns false) while a mark-out is in progress. Glyphs are
// appended in either mode; during a mark-out the cursor follows its cell.
func (e *Editor) Apply(ev clack.RevealEvent) bool {
	if ev.IsLineBreak() {
		if e.mode == clack.ModeMarkOut {
			return false
		}
		e.doc.breakLine(ev.Sequence)
		return true
	}
	e.doc.appendGlyph(ev.Sequence, ev.Glyph)
	if e.mode == clack.ModeMarkOut {
		e.depth++
	}
	return true
}

// Handle runs one edit input through the mark-out machine.
func (e *Editor) Handle(ev clack.InputEvent) error {
	switch ev.Kind {
	case clack.InputBackspace:
		return e.Backspace()
	case clack.InputMarkOutStrike:
		return e.Strike()
	case clack.InputNavigate:
		if ev.Direction == clack.NavigateBack {
			if e.mode == clack.ModeNormal {
				return ErrInvalidTransition
			}
			return e.Backspace()
		}
		return e.Forward()
	case clack.InputCharacter:
		if e.mode == clack.ModeMarkOut && ev.Ch == 'x' {
			return e.Strike()
		}
		return ErrInvalidTransition
	default:
		return ErrInvalidTransition
	}
}

// Consumes reports whether a character belongs to the mark-out machine
// rather than the reveal queue.
func (e *Editor) Consumes(ev clack.InputEvent) bool {
	return e.mode == clack.ModeMarkOut && ev.Kind == clack.InputCharacter
}

// Backspace retreats the cursor one cell, stopping at the line start.
func (e *Editor) Backspace() error {
	if e.depth >= e.window() {
		return ErrInvalidTransition
	}
	e.depth++
	e.mode = clack.ModeMarkOut
	return nil
}

// Strike marks out the cell under the cursor and advances toward the
// append point.
func (e *Editor) Strike() error {
	if e.mode != clack.ModeMarkOut {
		return ErrInvalidTransition
	}
	e.doc.strikeBack(e.depth)
	e.advance()
	return nil
}

// Forward advances the cursor without striking.
func (e *Editor) Forward() error {
	if e.mode != clack.ModeMarkOut {
		return ErrInvalidTransition
	}
	e.advance()
	return nil
}

// Cancel leaves a mark-out without striking anything.
func (e *Editor) Cancel() {
	e.depth = 0
	e.mode = clack.ModeNormal
}

func (e *Editor) advance() {
	e.depth--
	if e.depth <= 0 {
		e.Cancel()
	}
}

// Snapshot returns a copy that readers may hold while the editor keeps
// writing.
func (e *Editor) Snapshot() *clack.Snapshot {
	return &clack.Snapshot{
		Lines:    e.doc.snapshot(),
		Mode:     e.mode,
		Depth:    e.depth,
		Sequence: e.doc.Sequence(),
		Modified: e.doc.Modified(),
	}
}
