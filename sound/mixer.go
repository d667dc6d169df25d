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
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"time"

	clack "github.com/timburks/clack/types"
)

// Output format: 16-bit little-endian stereo.
const (
	Channels      = 2
	BytesPerFrame = Channels * 2
	maxVoices     = 32
)

type voice struct {
	sample Sample
	pos    float64
	step   float64
	gain   float32
}

func (v *voice) done() bool {
	return int(v.pos) >= v.sample.Len()
}

// The Mixer is the audio consumer. Each Read pulls the events that are due,
// starts a voice for each, and sums all active voices into the buffer, so
// clicks that fall in the same buffer overlap rather than queue.
type Mixer struct {
	mu         sync.Mutex
	bank       *Bank
	ring       *Ring
	clock      func() time.Time
	latency    time.Duration
	returnGain float32
	voices     []*voice
	due        []clack.AudioEvent
	scratch    []float32
	played     atomic.Uint64
}

func NewMixer(bank *Bank, ring *Ring, returnGain float64, clock func() time.Time) *Mixer {
	if clock == nil {
		clock = time.Now
	}
	return &Mixer{
		bank:       bank,
		ring:       ring,
		clock:      clock,
		returnGain: float32(returnGain),
	}
}

// SetLatency makes the mixer start events this much early to cover the
// device buffer.
func (m *Mixer) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// Played counts events that started a voice.
func (m *Mixer) Played() uint64 {
	return m.played.Load()
}

// Read fills p with whole frames. It never blocks and never fails.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / BytesPerFrame
	m.mu.Lock()
	defer m.mu.Unlock()
	if cap(m.scratch) < frames {
		m.scratch = make([]float32, frames)
	}
	mono := m.scratch[:frames]
	m.mix(mono)
	for i, v := range mono {
		s := int16(clamp(v) * math.MaxInt16)
		for ch := 0; ch < Channels; ch++ {
			binary.LittleEndian.PutUint16(p[i*BytesPerFrame+ch*2:], uint16(s))
		}
	}
	return frames * BytesPerFrame, nil
}

// Mix renders len(out) mono frames.
func (m *Mixer) Mix(out []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mix(out)
}

func (m *Mixer) mix(out []float32) {
	m.due = m.ring.PopDue(m.clock().Add(m.latency), m.due[:0])
	for _, ev := range m.due {
		m.start(ev)
	}
	for i := range out {
		out[i] = 0
	}
	live := m.voices[:0]
	for _, v := range m.voices {
		for i := range out {
			if v.done() {
				break
			}
			out[i] += v.sample.At(v.pos) * v.gain
			v.pos += v.step
		}
		if !v.done() {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = live
}

func (m *Mixer) start(ev clack.AudioEvent) {
	sample := m.bank.Lookup(ev.Class)
	if sample.Len() == 0 {
		return
	}
	gain := float32(1 + ev.VolumeJitter)
	if ev.Class == clack.SoundReturn {
		gain = m.returnGain
	}
	if len(m.voices) == maxVoices {
		copy(m.voices, m.voices[1:])
		m.voices = m.voices[:maxVoices-1]
	}
	m.voices = append(m.voices, &voice{
		sample: sample,
		step:   1 + ev.PitchJitter,
		gain:   gain,
	})
	m.played.Add(1)
}

func clamp(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
