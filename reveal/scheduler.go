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
package reveal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	clack "github.com/timburks/clack/types"
)

var (
	// ErrBackpressure is returned by Submit when too many reveals are
	// pending. The input is rejected; the caller decides whether to drop it.
	ErrBackpressure = errors.New("reveal queue full")

	// ErrNotRevealable is returned for input that has no glyph or control.
	ErrNotRevealable = errors.New("input is not revealable")
)

// A Writer applies matured reveals. Apply returns false to hold an event
// at the head of the queue; it must not call back into the Scheduler.
type Writer interface {
	Apply(ev clack.RevealEvent) bool
}

// Matured is a reveal that has been applied.
type Matured struct {
	Event     clack.RevealEvent
	AppliedAt time.Time
}

type Config struct {
	Delay      time.Duration // per character
	MaxPending int
}

// The Scheduler turns keystrokes into reveals spaced at least Delay apart,
// in the order they were typed, following a cadence clock.
type Scheduler struct {
	mu       sync.Mutex
	config   Config
	pending  []clack.RevealEvent
	sequence uint64    // last assigned
	last     time.Time // scheduled time of the last submission
}

func NewScheduler(config Config) *Scheduler {
	if config.MaxPending <= 0 {
		config.MaxPending = 1
	}
	return &Scheduler{config: config}
}

func (s *Scheduler) Delay() time.Duration {
	return s.config.Delay
}

// Submit enqueues a character or line break typed at now. A key typed a
// full delay after the previous reveal is due at once, so after a pause
// neither the reveal delay nor the click's lead remain.
func (s *Scheduler) Submit(input clack.InputEvent, now time.Time) (clack.RevealEvent, error) {
	ev := clack.RevealEvent{EnqueueTime: now}
	switch input.Kind {
	case clack.InputCharacter:
		ev.Glyph = input.Ch
	case clack.InputLineBreak:
		ev.Glyph = '\n'
		ev.Control = clack.ControlLineBreak
	default:
		return clack.RevealEvent{}, fmt.Errorf("%v: %w", input, ErrNotRevealable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) >= s.config.MaxPending {
		return clack.RevealEvent{}, ErrBackpressure
	}
	// The first reveal waits one delay; later ones wait for the cadence
	// slot after the previous reveal but are never shown before typed.
	slot := now.Add(s.config.Delay)
	if !s.last.IsZero() {
		slot = s.last.Add(s.config.Delay)
		if now.After(slot) {
			slot = now
		}
	}
	s.sequence++
	ev.Sequence = s.sequence
	ev.ScheduledTime = slot
	s.last = ev.ScheduledTime
	s.pending = append(s.pending, ev)
	return ev, nil
}

// Advance applies every pending reveal scheduled at or before now, in
// sequence order, and returns them. It stops early at an event the
// writer holds.
func (s *Scheduler) Advance(now time.Time, w Writer) []Matured {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drain(w, func(ev clack.RevealEvent) bool {
		return !ev.ScheduledTime.After(now)
	}, now)
}

// Flush applies every pending reveal regardless of its schedule.
func (s *Scheduler) Flush(now time.Time, w Writer) []Matured {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drain(w, func(clack.RevealEvent) bool { return true }, now)
}

func (s *Scheduler) drain(w Writer, due func(clack.RevealEvent) bool, now time.Time) []Matured {
	var matured []Matured
	n := 0
	for _, ev := range s.pending {
		if !due(ev) || !w.Apply(ev) {
			break
		}
		matured = append(matured, Matured{Event: ev, AppliedAt: now})
		n++
	}
	if n > 0 {
		s.pending = append(s.pending[:0], s.pending[n:]...)
	}
	return matured
}

// Discard drops everything pending and returns how many were dropped.
func (s *Scheduler) Discard() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	s.pending = s.pending[:0]
	return n
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Next returns the scheduled time of the head of the queue.
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return time.Time{}, false
	}
	return s.pending[0].ScheduledTime, true
}
