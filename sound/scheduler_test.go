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
package sound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	clack "github.com/timburks/clack/types"
)

func reveal(seq uint64, glyph rune, ms int) clack.RevealEvent {
	ev := clack.RevealEvent{Sequence: seq, Glyph: glyph, ScheduledTime: at(ms)}
	if glyph == '\n' {
		ev.Control = clack.ControlLineBreak
	}
	return ev
}

func newTestScheduler(seed uint64) *Scheduler {
	cfg := DefaultConfig()
	cfg.Seed = seed
	return NewScheduler(cfg, nil)
}

func TestScheduleLeadsReveal(t *testing.T) {
	s := newTestScheduler(1)
	ev := s.Schedule(reveal(1, 'a', 900), at(0))
	assert.Equal(t, at(800), ev.ScheduledTime)
	assert.Equal(t, uint64(1), ev.Priority)
	assert.Equal(t, clack.SoundKey1, ev.Class)

	// never before the time it was scheduled
	ev = s.Schedule(reveal(2, 'b', 50), at(0))
	assert.Equal(t, at(0), ev.ScheduledTime)
	assert.Equal(t, 2, s.Ring().Len())
}

func TestScheduleJitter(t *testing.T) {
	s := newTestScheduler(7)
	for i := 0; i < 200; i++ {
		ev := s.Schedule(reveal(uint64(i), 'q', 300), at(0))
		assert.LessOrEqual(t, ev.PitchJitter, 0.05)
		assert.GreaterOrEqual(t, ev.PitchJitter, -0.05)
		assert.LessOrEqual(t, ev.VolumeJitter, 0.10)
		assert.GreaterOrEqual(t, ev.VolumeJitter, -0.10)
	}
	assert.Equal(t, 16, s.Ring().Len())
	assert.Equal(t, uint64(184), s.Ring().Dropped())

	a, b := newTestScheduler(42), newTestScheduler(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Schedule(reveal(1, 'k', 300), at(0)), b.Schedule(reveal(1, 'k', 300), at(0)))
	}
}

func TestReturnHasNoJitter(t *testing.T) {
	s := newTestScheduler(3)
	ev := s.Schedule(reveal(1, '\n', 300), at(0))
	assert.Equal(t, clack.SoundReturn, ev.Class)
	assert.Zero(t, ev.PitchJitter)
	assert.Zero(t, ev.VolumeJitter)
}

func TestClassOf(t *testing.T) {
	for c, class := range map[rune]clack.SoundClass{
		'a':  clack.SoundKey1,
		'f':  clack.SoundKey1,
		'F':  clack.SoundKey6,
		'g':  clack.SoundKey2,
		'm':  clack.SoundKey3,
		's':  clack.SoundKey4,
		'x':  clack.SoundKey4,
		'X':  clack.SoundKey6,
		'z':  clack.SoundKey5,
		'7':  clack.SoundKey6,
		' ':  clack.SoundKey6,
		'é':  clack.SoundKey6,
		'\n': clack.SoundReturn,
	} {
		assert.Equal(t, class, ClassOf(c), "class of %q", c)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100*time.Millisecond, cfg.LeadOffset)
	assert.Equal(t, 16, cfg.Capacity)
	assert.Equal(t, 0.20, cfg.ReturnGain)
}
