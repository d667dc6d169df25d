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
package commander

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timburks/clack/aging"
	"github.com/timburks/clack/config"
	"github.com/timburks/clack/logging"
	"github.com/timburks/clack/reveal"
	"github.com/timburks/clack/sound"
	"github.com/timburks/clack/store"
	clack "github.com/timburks/clack/types"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func newTestCommander(t *testing.T, mutate func(*Config)) *Commander {
	cfg := Config{
		Reveal:   reveal.NewScheduler(reveal.Config{Delay: 300 * time.Millisecond, MaxPending: 64}),
		Audio:    sound.NewScheduler(sound.Config{LeadOffset: 100 * time.Millisecond, Capacity: 16, Seed: 1}, nil),
		Idle:     aging.NewMonitor(30*time.Second, epoch),
		Policy:   aging.DefaultPolicy(),
		Store:    store.NewFileStore(),
		FileName: filepath.Join(t.TempDir(), "draft.txt"),
		Clock:    func() time.Time { return epoch },
		Logger:   logging.Discard().Logger,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewCommander(cfg)
}

func typeAt(c *Commander, text string, now time.Time) {
	for _, r := range text {
		if r == '\n' {
			c.Process(clack.LineBreak, now)
		} else {
			c.Process(clack.Character(r), now)
		}
	}
}

func TestMapKey(t *testing.T) {
	for _, tc := range []struct {
		event clack.Event
		input clack.InputEvent
	}{
		{clack.Event{Key: clack.KeyCtrlS}, clack.Save},
		{clack.Event{Key: clack.KeyCtrlX}, clack.Quit},
		{clack.Event{Key: clack.KeyBackspace2}, clack.Backspace},
		{clack.Event{Key: clack.KeyEnter}, clack.LineBreak},
		{clack.Event{Key: clack.KeyArrowLeft}, clack.Navigate(clack.NavigateBack)},
		{clack.Event{Key: clack.KeyArrowRight}, clack.Navigate(clack.NavigateForward)},
		{clack.Event{Key: clack.KeySpace}, clack.Character(' ')},
		{clack.Event{Ch: 'q'}, clack.Character('q')},
	} {
		input, ok := MapKey(&tc.event)
		assert.True(t, ok)
		assert.Equal(t, tc.input, input)
	}
	_, ok := MapKey(&clack.Event{Key: clack.KeyArrowUp})
	assert.False(t, ok)
}

func TestRevealsFollowCadence(t *testing.T) {
	c := newTestCommander(t, nil)
	typeAt(c, "abc", at(0))
	c.flushFrame()
	assert.Equal(t, 3, c.Frame().Pending)
	assert.Empty(t, c.Step(at(299)))
	assert.Len(t, c.Step(at(600)), 2)
	c.flushFrame()
	assert.Equal(t, "ab", string(c.Editor().Document().Bytes()))
	assert.Equal(t, 1, c.Frame().Pending)
	assert.Len(t, c.Step(at(900)), 1)
	assert.Equal(t, 3, c.audio.Ring().Len(), "one click per keystroke")
}

func TestMarkOutThroughSession(t *testing.T) {
	c := newTestCommander(t, nil)
	typeAt(c, "hello", at(0))
	c.Step(at(2000))
	c.Process(clack.Backspace, at(2000))
	c.Process(clack.Backspace, at(2000))
	c.Process(clack.Character('x'), at(2000))
	c.Process(clack.Character('x'), at(2000))
	assert.Equal(t, "hel", string(c.Editor().Document().PlainBytes()))
	assert.Equal(t, 5, c.Editor().Document().Len())
	assert.Equal(t, 0, c.reveal.Pending(), "strikes are not revealed")
}

func TestLineBreakWaitsForMarkOut(t *testing.T) {
	c := newTestCommander(t, nil)
	typeAt(c, "ab", at(0))
	c.Step(at(600))
	c.Process(clack.Backspace, at(600))
	c.Process(clack.LineBreak, at(600))
	c.Process(clack.Character('q'), at(600))
	c.Step(at(5000))
	assert.Equal(t, 1, c.Editor().Document().LineCount())
	c.Process(clack.Navigate(clack.NavigateForward), at(5000))
	c.Step(at(5000))
	assert.Equal(t, 2, c.Editor().Document().LineCount())
}

func TestSubmitBackpressure(t *testing.T) {
	c := newTestCommander(t, func(cfg *Config) {
		cfg.Reveal = reveal.NewScheduler(reveal.Config{Delay: time.Second, MaxPending: 2})
	})
	typeAt(c, "abc", at(0))
	assert.Equal(t, uint64(1), c.Rejected())
	c.flushFrame()
	assert.Equal(t, "slow down", c.Frame().Message)
	c.Step(at(1000))
	c.flushFrame()
	assert.Empty(t, c.Frame().Message)
}

func TestDeliverBackpressure(t *testing.T) {
	c := newTestCommander(t, func(cfg *Config) { cfg.InputBuffer = 1 })
	require.NoError(t, c.Deliver(clack.Character('a')))
	assert.ErrorIs(t, c.Deliver(clack.Character('b')), reveal.ErrBackpressure)
	assert.Equal(t, uint64(1), c.Rejected())
}

func TestSaveWritesLinearizedText(t *testing.T) {
	c := newTestCommander(t, nil)
	typeAt(c, "ab\ncd", at(0))
	c.Step(at(5000))
	c.Process(clack.Backspace, at(5000))
	c.Process(clack.MarkOutStrike, at(5000))
	c.Process(clack.Save, at(5000))
	data, err := os.ReadFile(c.FileName())
	require.NoError(t, err)
	assert.Equal(t, "ab\ncd\u0336", string(data))
	assert.False(t, c.Editor().Document().Modified())
	c.flushFrame()
	assert.Contains(t, c.Frame().Message, "saved")
}

func TestSaveWithoutNameUsesSessionID(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	c := newTestCommander(t, func(cfg *Config) { cfg.FileName = "" })
	require.NoError(t, c.Save())
	assert.Equal(t, "clack-"+c.SessionID()[:8]+".txt", c.FileName())
	_, err := os.Stat(filepath.Join(dir, c.FileName()))
	assert.NoError(t, err)
}

func TestQuitFlushesAndSaves(t *testing.T) {
	c := newTestCommander(t, nil)
	typeAt(c, "abc", at(0))
	c.Process(clack.Quit, at(0))
	assert.False(t, c.IsRunning())
	data, err := os.ReadFile(c.FileName())
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.Zero(t, c.Frame().Pending)
}

func TestQuitDiscards(t *testing.T) {
	c := newTestCommander(t, func(cfg *Config) { cfg.Shutdown = config.ShutdownDiscard })
	typeAt(c, "abc", at(0))
	c.Step(at(300))
	c.Close(at(300))
	assert.Equal(t, "a", string(c.Editor().Document().Bytes()))
	assert.Zero(t, c.reveal.Pending())
	// closing twice is harmless
	c.Close(at(400))
}

func TestFrameVisibilityAndOverlay(t *testing.T) {
	c := newTestCommander(t, nil)
	typeAt(c, "1\n2\n3\n4\n5", at(0))
	c.Step(at(10000))
	c.flushFrame()
	f := c.Frame()
	assert.Len(t, f.Snapshot.Lines, 5)
	assert.Equal(t, []clack.Visibility{clack.Aged(3), clack.Aged(2), clack.Aged(1), clack.Clear, clack.Clear}, f.Visibility)

	c.Step(at(40000))
	c.flushFrame()
	f = c.Frame()
	assert.True(t, f.Overlay)
	for _, v := range f.Visibility {
		assert.Equal(t, clack.Hidden, v)
	}

	c.SetPolicy(aging.Policy{VisibleLines: 5})
	c.Process(clack.Character('6'), at(40001))
	c.idle.Keystroke(at(40001))
	c.Step(at(40002))
	c.flushFrame()
	f = c.Frame()
	assert.False(t, f.Overlay)
	for _, v := range f.Visibility {
		assert.Equal(t, clack.Clear, v)
	}
}

func TestIgnoredKeystrokeClearsOverlay(t *testing.T) {
	now := epoch
	c := newTestCommander(t, func(cfg *Config) {
		cfg.Clock = func() time.Time { return now }
	})
	now = at(40000)
	c.Step(now)
	c.flushFrame()
	require.True(t, c.Frame().Overlay)

	require.NoError(t, c.Deliver(clack.Navigate(clack.NavigateForward)))
	ev := <-c.input
	c.Process(ev, now)
	c.Step(now)
	c.flushFrame()
	f := c.Frame()
	assert.False(t, f.Overlay)
	for _, v := range f.Visibility {
		assert.Equal(t, clack.Clear, v)
	}
}

func TestRunProcessesDeliveredInput(t *testing.T) {
	c := newTestCommander(t, func(cfg *Config) {
		cfg.Reveal = reveal.NewScheduler(reveal.Config{Delay: time.Millisecond, MaxPending: 64})
		cfg.Tick = time.Millisecond
		cfg.Clock = time.Now
	})
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	for _, r := range "typed" {
		require.NoError(t, c.Deliver(clack.Character(r)))
	}
	require.NoError(t, c.ProcessEvent(&clack.Event{Type: clack.EventKey, Key: clack.KeyCtrlX}))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
	assert.Equal(t, "typed", string(c.Editor().Document().Bytes()))
}

func TestRunStopsOnCancel(t *testing.T) {
	c := newTestCommander(t, func(cfg *Config) { cfg.Clock = time.Now })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
	assert.False(t, c.IsRunning())
}
