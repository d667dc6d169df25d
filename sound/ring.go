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
	"sync"
	"sync/atomic"
	"time"

	clack "github.com/timburks/clack/types"
)

// A Ring is a fixed-capacity queue of audio events shared by one producer
// and one consumer. Push never waits: when the ring is full the oldest
// unplayed event is evicted to make room.
type Ring struct {
	mu      sync.Mutex
	events  []clack.AudioEvent
	head    int
	count   int
	dropped atomic.Uint64
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{events: make([]clack.AudioEvent, capacity)}
}

func (r *Ring) Cap() int {
	return len(r.events)
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Dropped counts events evicted by overflow.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// Push appends ev and reports whether an older event was evicted.
func (r *Ring) Push(ev clack.AudioEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := false
	if r.count == len(r.events) {
		r.head = (r.head + 1) % len(r.events)
		r.count--
		r.dropped.Add(1)
		evicted = true
	}
	r.events[(r.head+r.count)%len(r.events)] = ev
	r.count++
	return evicted
}

// PopDue moves every event due at or before now onto out, oldest first.
func (r *Ring) PopDue(now time.Time, out []clack.AudioEvent) []clack.AudioEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.count > 0 {
		ev := r.events[r.head]
		if ev.ScheduledTime.After(now) {
			break
		}
		out = append(out, ev)
		r.head = (r.head + 1) % len(r.events)
		r.count--
	}
	return out
}

// Drain empties the ring and returns its events, oldest first.
func (r *Ring) Drain() []clack.AudioEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]clack.AudioEvent, 0, r.count)
	for ; r.count > 0; r.count-- {
		out = append(out, r.events[r.head])
		r.head = (r.head + 1) % len(r.events)
	}
	return out
}
