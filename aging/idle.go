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
package aging

import (
	"sync/atomic"
	"time"

	clack "github.com/timburks/clack/types"
)

// Transition is the overlay change reported by the idle monitor.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionObscure          // overlay raised
	TransitionReveal           // overlay cleared by a keystroke
)

// The Monitor raises the idle overlay once no key has arrived for the
// timeout and drops it on the next key. Keystroke is called from input
// capture and Tick from the session loop; neither blocks the other.
type Monitor struct {
	timeout   atomic.Int64 // nanoseconds
	lastInput atomic.Int64 // unix nanoseconds
	overlay   atomic.Bool
}

func NewMonitor(timeout time.Duration, now time.Time) *Monitor {
	m := &Monitor{}
	m.timeout.Store(int64(timeout))
	m.lastInput.Store(now.UnixNano())
	return m
}

func (m *Monitor) Timeout() time.Duration {
	return time.Duration(m.timeout.Load())
}

// SetTimeout applies a reloaded configuration.
func (m *Monitor) SetTimeout(timeout time.Duration) {
	m.timeout.Store(int64(timeout))
}

func (m *Monitor) Keystroke(now time.Time) Transition {
	m.lastInput.Store(now.UnixNano())
	if m.overlay.Swap(false) {
		return TransitionReveal
	}
	return TransitionNone
}

func (m *Monitor) Tick(now time.Time) Transition {
	timeout := m.timeout.Load()
	if timeout <= 0 {
		return TransitionNone
	}
	last := m.lastInput.Load()
	if now.UnixNano()-last < timeout {
		return TransitionNone
	}
	if !m.overlay.CompareAndSwap(false, true) {
		return TransitionNone
	}
	// a keystroke that landed during the check wins
	if m.lastInput.Load() != last {
		m.overlay.CompareAndSwap(true, false)
		return TransitionNone
	}
	return TransitionObscure
}

func (m *Monitor) State() clack.IdleState {
	return clack.IdleState{
		LastInput:     time.Unix(0, m.lastInput.Load()),
		OverlayActive: m.overlay.Load(),
	}
}
