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
package types

import (
	"fmt"
	"time"
)

type Point struct {
	Row int
	Col int
}

type Size struct {
	Rows int
	Cols int
}

// InputKind distinguishes the events delivered by input capture.
type InputKind int

const (
	InputCharacter InputKind = iota
	InputBackspace
	InputMarkOutStrike
	InputNavigate
	InputLineBreak
	InputSave
	InputQuit
)

// Navigation directions
const (
	NavigateForward = 0
	NavigateBack    = 1
)

// An InputEvent is one discrete keystroke after key mapping.
type InputEvent struct {
	Kind      InputKind
	Ch        rune // set for InputCharacter
	Direction int  // set for InputNavigate
}

func Character(c rune) InputEvent {
	return InputEvent{Kind: InputCharacter, Ch: c}
}

func Navigate(direction int) InputEvent {
	return InputEvent{Kind: InputNavigate, Direction: direction}
}

var (
	Backspace     = InputEvent{Kind: InputBackspace}
	MarkOutStrike = InputEvent{Kind: InputMarkOutStrike}
	LineBreak     = InputEvent{Kind: InputLineBreak}
	Save          = InputEvent{Kind: InputSave}
	Quit          = InputEvent{Kind: InputQuit}
)

func (ev InputEvent) String() string {
	switch ev.Kind {
	case InputCharacter:
		return fmt.Sprintf("character(%q)", ev.Ch)
	case InputBackspace:
		return "backspace"
	case InputMarkOutStrike:
		return "strike"
	case InputNavigate:
		if ev.Direction == NavigateForward {
			return "navigate(forward)"
		}
		return "navigate(back)"
	case InputLineBreak:
		return "line-break"
	case InputSave:
		return "save"
	case InputQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// A Cell is one position in the document. The glyph never changes once
// written; Struck only goes from false to true.
type Cell struct {
	Glyph  rune
	Struck bool
}

// Reveal controls
type Control int

const (
	ControlNone Control = iota
	ControlLineBreak
)

// A RevealEvent is a keystroke waiting in the reveal queue.
type RevealEvent struct {
	Sequence      uint64
	Glyph         rune
	Control       Control
	EnqueueTime   time.Time
	ScheduledTime time.Time
}

func (ev RevealEvent) IsLineBreak() bool {
	return ev.Control == ControlLineBreak
}

// SoundClass selects a sample group in the sound bank.
type SoundClass int

// Six click groups for ordinary keys plus the carriage return.
const (
	SoundKey1 SoundClass = iota
	SoundKey2
	SoundKey3
	SoundKey4
	SoundKey5
	SoundKey6
	SoundReturn
)

const KeySoundGroups = 6

func (c SoundClass) String() string {
	if c == SoundReturn {
		return "return"
	}
	return fmt.Sprintf("click%d", int(c)+1)
}

// An AudioEvent is a click scheduled to play ahead of its reveal.
// Jitters are fractional offsets, so 0.03 plays 3% higher or louder.
type AudioEvent struct {
	Sequence      uint64
	Class         SoundClass
	ScheduledTime time.Time
	PitchJitter   float64
	VolumeJitter  float64
	Priority      uint64
}

// Edit modes
type Mode int

const (
	ModeNormal Mode = iota
	ModeMarkOut
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeMarkOut:
		return "mark-out"
	default:
		return "unknown"
	}
}

type IdleState struct {
	LastInput     time.Time
	OverlayActive bool
}

// Visibility is Clear, an aged level 1..N, or Hidden.
type Visibility int

const (
	Clear  Visibility = 0
	Hidden Visibility = -1
)

func Aged(level int) Visibility {
	return Visibility(level)
}

func (v Visibility) String() string {
	switch {
	case v == Clear:
		return "clear"
	case v == Hidden:
		return "hidden"
	default:
		return fmt.Sprintf("aged%d", int(v))
	}
}

// A Snapshot is a read-only copy of the document and edit state.
type Snapshot struct {
	Lines    [][]Cell
	Mode     Mode
	Depth    int
	Sequence uint64 // last applied reveal
	Modified bool
}

func (s *Snapshot) Tail() int {
	return len(s.Lines) - 1
}

// A Frame is everything the renderer needs to draw one screen.
type Frame struct {
	Snapshot   *Snapshot
	Visibility []Visibility
	Overlay    bool
	Pending    int
	FileName   string
	Message    string
}

// Terminal events
const (
	EventKey = iota
	EventResize
	EventMouse
	EventError
	EventInterrupt
	EventRaw
	EventNone
)

type Key int

const (
	KeyUnsupported Key = iota
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyArrowUp
	KeyBackspace
	KeyBackspace2
	KeyCtrlC
	KeyCtrlS
	KeyCtrlX
	KeyDelete
	KeyEnd
	KeyEnter
	KeyEsc
	KeyHome
	KeySpace
	KeyTab
)

type Event struct {
	Type int
	Key  Key
	Ch   rune
}

type Color uint16
