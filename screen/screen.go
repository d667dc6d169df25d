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
package screen

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"

	clack "github.com/timburks/clack/types"
)

const (
	colorClear   = termbox.Attribute(256) // gray 255
	colorDimmest = 234                    // darkest gray still worth drawing
	colorStruck  = termbox.ColorRed
	colorBar     = termbox.ColorBlack
)

// The Screen draws frames published by a Commander.
type Screen struct {
	size clack.Size // screen size
}

func NewScreen() (*Screen, error) {
	// Open the terminal.
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.SetOutputMode(termbox.Output256)
	return &Screen{}, nil
}

func (s *Screen) Close() {
	termbox.Close()
}

// Interrupt wakes a pending GetNextEvent.
func (s *Screen) Interrupt() {
	termbox.Interrupt()
}

func (s *Screen) Render(f *clack.Frame) {
	termbox.Clear(termbox.ColorWhite, termbox.ColorBlack)
	s.size.Cols, s.size.Rows = termbox.Size()
	s.RenderInfoBar(f)

	rows := s.size.Rows - 1
	snap := f.Snapshot
	if rows <= 0 || snap == nil {
		termbox.Flush()
		return
	}
	// The tail line is anchored to the bottom of the page.
	first := len(snap.Lines) - rows
	if first < 0 {
		first = 0
	}
	cursor := clack.Point{Row: -1}
	for i := first; i < len(snap.Lines); i++ {
		row := i - first
		visibility := clack.Hidden
		if i < len(f.Visibility) {
			visibility = f.Visibility[i]
		}
		markFrom := -1
		if i == snap.Tail() && snap.Mode == clack.ModeMarkOut {
			markFrom = len(snap.Lines[i]) - snap.Depth
		}
		col := s.renderLine(row, snap.Lines[i], visibility, markFrom)
		if i == snap.Tail() {
			cursor = clack.Point{Row: row, Col: col}
			if markFrom >= 0 {
				cursor.Col = columnOf(snap.Lines[i], markFrom)
			}
		}
	}
	if f.Overlay || cursor.Row < 0 {
		termbox.HideCursor()
	} else {
		termbox.SetCursor(cursor.Col, cursor.Row)
	}
	termbox.Flush()
}

// renderLine draws one line and returns the column after its last cell.
// Cells at or beyond markFrom are inside the mark-out window.
func (s *Screen) renderLine(row int, cells []clack.Cell, v clack.Visibility, markFrom int) int {
	x := 0
	for j, c := range cells {
		w := runewidth.RuneWidth(c.Glyph)
		if w == 0 {
			w = 1
		}
		if v != clack.Hidden && x+w <= s.size.Cols {
			fg := visibilityColor(v)
			if c.Struck {
				fg = colorStruck | termbox.AttrUnderline
			}
			if markFrom >= 0 && j >= markFrom {
				fg |= termbox.AttrReverse
			}
			termbox.SetCell(x, row, printable(c.Glyph), fg, termbox.ColorBlack)
		}
		x += w
	}
	return x
}

func columnOf(cells []clack.Cell, n int) int {
	x := 0
	for _, c := range cells[:n] {
		w := runewidth.RuneWidth(c.Glyph)
		if w == 0 {
			w = 1
		}
		x += w
	}
	return x
}

func printable(c rune) rune {
	if c < ' ' {
		return ' '
	}
	return c
}

// visibilityColor maps an aged level onto the 256-color gray ramp.
func visibilityColor(v clack.Visibility) termbox.Attribute {
	if v <= clack.Clear {
		return colorClear
	}
	gray := 255 - 5*int(v)
	if gray < colorDimmest {
		gray = colorDimmest
	}
	return termbox.Attribute(gray + 1)
}

func (s *Screen) RenderInfoBar(f *clack.Frame) {
	mode := clack.ModeNormal
	lines := 0
	modified := ""
	if f.Snapshot != nil {
		mode = f.Snapshot.Mode
		lines = len(f.Snapshot.Lines)
		if f.Snapshot.Modified {
			modified = "*"
		}
	}
	finalText := fmt.Sprintf(" %s %d/%d ", mode, f.Pending, lines)
	text := " clack - " + f.FileName + modified + " " + f.Message
	for runewidth.StringWidth(text) < s.size.Cols-len(finalText) {
		text = text + " "
	}
	text += finalText
	x := 0
	for _, ch := range text {
		if x >= s.size.Cols {
			break
		}
		termbox.SetCell(x, s.size.Rows-1, ch, colorBar, termbox.ColorWhite)
		x += runewidth.RuneWidth(ch)
	}
}

func (s *Screen) GetNextEvent() *clack.Event {
	event := termbox.PollEvent()
	if event.Type == termbox.EventResize {
		termbox.Flush()
	}
	return &clack.Event{
		Type: int(event.Type),
		Key:  key(event.Key),
		Ch:   event.Ch,
	}
}

func key(k termbox.Key) clack.Key {
	switch k {
	case termbox.KeyArrowDown:
		return clack.KeyArrowDown
	case termbox.KeyArrowLeft:
		return clack.KeyArrowLeft
	case termbox.KeyArrowRight:
		return clack.KeyArrowRight
	case termbox.KeyArrowUp:
		return clack.KeyArrowUp
	case termbox.KeyBackspace:
		return clack.KeyBackspace
	case termbox.KeyBackspace2:
		return clack.KeyBackspace2
	case termbox.KeyCtrlC:
		return clack.KeyCtrlC
	case termbox.KeyCtrlS:
		return clack.KeyCtrlS
	case termbox.KeyCtrlX:
		return clack.KeyCtrlX
	case termbox.KeyDelete:
		return clack.KeyDelete
	case termbox.KeyEnd:
		return clack.KeyEnd
	case termbox.KeyEnter:
		return clack.KeyEnter
	case termbox.KeyEsc:
		return clack.KeyEsc
	case termbox.KeyHome:
		return clack.KeyHome
	case termbox.KeySpace:
		return clack.KeySpace
	case termbox.KeyTab:
		return clack.KeyTab
	default:
		return clack.KeyUnsupported
	}
}
