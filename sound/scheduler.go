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
	"log/slog"
	"math/rand/v2"
	"time"

	clack "github.com/timburks/clack/types"
)

type Config struct {
	LeadOffset   time.Duration // how far a click precedes its reveal
	Capacity     int           // ring capacity
	PitchJitter  float64       // maximum fractional pitch offset
	VolumeJitter float64       // maximum fractional volume offset
	ReturnGain   float64       // fixed gain of the return sound
	Seed         uint64
}

func DefaultConfig() Config {
	return Config{
		LeadOffset:   100 * time.Millisecond,
		Capacity:     16,
		PitchJitter:  0.05,
		VolumeJitter: 0.10,
		ReturnGain:   0.20,
	}
}

// The Scheduler turns reveal events into audio events at submission time,
// so that each click can start before its glyph appears. Schedule is
// called only by the session writer.
type Scheduler struct {
	config Config
	ring   *Ring
	rng    *rand.Rand
	logger *slog.Logger
}

func NewScheduler(config Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Scheduler{
		config: config,
		ring:   NewRing(config.Capacity),
		rng:    rand.New(rand.NewPCG(seed, seed>>17|1)),
		logger: logger,
	}
}

func (s *Scheduler) Ring() *Ring {
	return s.ring
}

func (s *Scheduler) Config() Config {
	return s.config
}

// Schedule queues the click for ev. The play time is the reveal time less
// the lead offset, but never earlier than now.
func (s *Scheduler) Schedule(ev clack.RevealEvent, now time.Time) clack.AudioEvent {
	at := ev.ScheduledTime.Add(-s.config.LeadOffset)
	if at.Before(now) {
		at = now
	}
	class := ClassOf(ev.Glyph)
	if ev.IsLineBreak() {
		class = clack.SoundReturn
	}
	audio := clack.AudioEvent{
		Sequence:      ev.Sequence,
		Class:         class,
		ScheduledTime: at,
		Priority:      ev.Sequence,
	}
	if class != clack.SoundReturn {
		audio.PitchJitter = s.jitter(s.config.PitchJitter)
		audio.VolumeJitter = s.jitter(s.config.VolumeJitter)
	}
	if s.ring.Push(audio) {
		if dropped := s.ring.Dropped(); dropped&(dropped-1) == 0 {
			s.logger.Debug("audio queue overflow", "dropped", dropped)
		}
	}
	return audio
}

// jitter draws uniformly from [-limit, limit).
func (s *Scheduler) jitter(limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return (s.rng.Float64()*2 - 1) * limit
}
