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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	clack "github.com/timburks/clack/types"
)

// ErrAudioUnavailable means no output device could be opened or the
// device went away. Audio then continues as a silent sink.
var ErrAudioUnavailable = errors.New("audio device unavailable")

const (
	deviceBuffer = 40 * time.Millisecond
	pollInterval = 10 * time.Millisecond
	checkEvery   = 250 * time.Millisecond
)

// oto allows one context per process.
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoErr     error
)

// An Output drives the mixer through the audio device, or discards due
// events when there is no device. It never reports an error to its owner.
type Output struct {
	mixer   *Mixer
	ring    *Ring
	clock   func() time.Time
	logger  *slog.Logger
	player  *oto.Player
	silent  atomic.Bool
	warn    sync.Once
	discard atomic.Uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

// Open starts audio output. When useDevice is false, or the device cannot
// be opened, the output runs silently.
func Open(ctx context.Context, mixer *Mixer, useDevice bool, logger *slog.Logger) *Output {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	o := &Output{
		mixer:  mixer,
		ring:   mixer.ring,
		clock:  mixer.clock,
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if useDevice {
		if err := o.openDevice(mixer.bank.SampleRate()); err != nil {
			o.degrade(err)
		}
	} else {
		o.silent.Store(true)
	}
	go o.run(ctx)
	return o
}

func (o *Output) openDevice(rate int) error {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoContext, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   deviceBuffer,
		})
		if otoErr == nil {
			<-ready
		}
	})
	if otoErr != nil {
		return fmt.Errorf("%w: %v", ErrAudioUnavailable, otoErr)
	}
	if err := otoContext.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	o.mixer.SetLatency(deviceBuffer)
	o.player = otoContext.NewPlayer(o.mixer)
	o.player.Play()
	return nil
}

// Silent reports whether events are being discarded.
func (o *Output) Silent() bool {
	return o.silent.Load()
}

// Discarded counts events consumed without playing.
func (o *Output) Discarded() uint64 {
	return o.discard.Load()
}

func (o *Output) degrade(err error) {
	o.silent.Store(true)
	o.warn.Do(func() {
		o.logger.Warn("audio disabled", "error", err)
	})
}

func (o *Output) run(ctx context.Context) {
	defer close(o.done)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	lastCheck := o.clock()
	var due []clack.AudioEvent
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !o.silent.Load() {
			if now := o.clock(); now.Sub(lastCheck) >= checkEvery {
				lastCheck = now
				if err := o.deviceErr(); err != nil {
					o.player.Pause()
					o.degrade(fmt.Errorf("%w: %v", ErrAudioUnavailable, err))
				}
			}
			continue
		}
		due = o.ring.PopDue(o.clock(), due[:0])
		o.discard.Add(uint64(len(due)))
	}
}

func (o *Output) deviceErr() error {
	if err := o.player.Err(); err != nil {
		return err
	}
	return otoContext.Err()
}

// Close stops output and waits for the consumer to exit.
func (o *Output) Close() error {
	o.cancel()
	<-o.done
	if o.player != nil {
		o.player.Pause()
	}
	return nil
}
