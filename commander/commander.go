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
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/timburks/clack/aging"
	"github.com/timburks/clack/config"
	"github.com/timburks/clack/editor"
	"github.com/timburks/clack/reveal"
	"github.com/timburks/clack/sound"
	"github.com/timburks/clack/store"
	clack "github.com/timburks/clack/types"
)

type Config struct {
	Editor      *editor.Editor
	Reveal      *reveal.Scheduler
	Audio       *sound.Scheduler
	Idle        *aging.Monitor
	Policy      aging.Policy
	Store       store.Store
	FileName    string
	Shutdown    string
	Tick        time.Duration
	InputBuffer int
	Clock       func() time.Time
	Logger      *slog.Logger
}

// The Commander converts user input into work for the typewriter and owns
// the session loop, the only place the document is written.
type Commander struct {
	editor    *editor.Editor
	reveal    *reveal.Scheduler
	audio     *sound.Scheduler
	idle      *aging.Monitor
	policy    atomic.Pointer[aging.Policy]
	store     store.Store
	fileName  string
	shutdown  string
	tick      time.Duration
	clock     func() time.Time
	logger    *slog.Logger
	sessionID string

	input    chan clack.InputEvent
	updates  chan struct{}
	frame    atomic.Pointer[clack.Frame]
	running  atomic.Bool
	closed   sync.Once
	rejected atomic.Uint64

	// owned by the session loop
	message string
	dirty   bool
}

func NewCommander(cfg Config) *Commander {
	if cfg.Editor == nil {
		cfg.Editor = editor.NewEditor(nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Reveal == nil {
		cfg.Reveal = reveal.NewScheduler(reveal.Config{Delay: 300 * time.Millisecond, MaxPending: 4096})
	}
	if cfg.Audio == nil {
		cfg.Audio = sound.NewScheduler(sound.DefaultConfig(), cfg.Logger)
	}
	if cfg.Idle == nil {
		cfg.Idle = aging.NewMonitor(0, cfg.Clock())
	}
	if cfg.Store == nil {
		cfg.Store = store.NewFileStore()
	}
	if cfg.Policy == (aging.Policy{}) {
		cfg.Policy = aging.DefaultPolicy()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 15 * time.Millisecond
	}
	if cfg.InputBuffer <= 0 {
		cfg.InputBuffer = 256
	}
	if cfg.Shutdown == "" {
		cfg.Shutdown = config.ShutdownFlush
	}
	id := uuid.NewString()
	c := &Commander{
		editor:    cfg.Editor,
		reveal:    cfg.Reveal,
		audio:     cfg.Audio,
		idle:      cfg.Idle,
		store:     cfg.Store,
		fileName:  cfg.FileName,
		shutdown:  cfg.Shutdown,
		tick:      cfg.Tick,
		clock:     cfg.Clock,
		logger:    cfg.Logger.With("session", id),
		sessionID: id,
		input:     make(chan clack.InputEvent, cfg.InputBuffer),
		updates:   make(chan struct{}, 1),
	}
	policy := cfg.Policy
	c.policy.Store(&policy)
	c.running.Store(true)
	c.publish()
	return c
}

func (c *Commander) SessionID() string {
	return c.sessionID
}

func (c *Commander) IsRunning() bool {
	return c.running.Load()
}

func (c *Commander) Editor() *editor.Editor {
	return c.editor
}

// SetPolicy swaps the obscuring policy, e.g. after a config reload.
func (c *Commander) SetPolicy(p aging.Policy) {
	c.policy.Store(&p)
	c.notify()
}

// Rejected counts input refused because a queue was full.
func (c *Commander) Rejected() uint64 {
	return c.rejected.Load()
}

// Frame returns the most recently published frame.
func (c *Commander) Frame() *clack.Frame {
	f := *c.frame.Load()
	// a keystroke clears the overlay before the session loop republishes
	f.Overlay = c.idle.State().OverlayActive
	f.Visibility = c.policy.Load().Levels(len(f.Snapshot.Lines), f.Overlay)
	return &f
}

// Updates signals whenever a new frame is worth drawing.
func (c *Commander) Updates() <-chan struct{} {
	return c.updates
}

// ProcessEvent maps a terminal event and delivers it.
func (c *Commander) ProcessEvent(event *clack.Event) error {
	switch event.Type {
	case clack.EventKey:
		if ev, ok := MapKey(event); ok {
			return c.Deliver(ev)
		}
	case clack.EventResize:
		c.notify()
	}
	return nil
}

// MapKey converts a key press into an input event.
func MapKey(event *clack.Event) (clack.InputEvent, bool) {
	switch event.Key {
	case clack.KeyCtrlS:
		return clack.Save, true
	case clack.KeyCtrlX, clack.KeyCtrlC:
		return clack.Quit, true
	case clack.KeyBackspace, clack.KeyBackspace2:
		return clack.Backspace, true
	case clack.KeyEnter:
		return clack.LineBreak, true
	case clack.KeyArrowRight:
		return clack.Navigate(clack.NavigateForward), true
	case clack.KeyArrowLeft:
		return clack.Navigate(clack.NavigateBack), true
	case clack.KeySpace:
		return clack.Character(' '), true
	}
	if event.Ch != 0 {
		return clack.Character(event.Ch), true
	}
	return clack.InputEvent{}, false
}

// Deliver hands an input event to the session loop without waiting.
func (c *Commander) Deliver(ev clack.InputEvent) error {
	if c.idle.Keystroke(c.clock()) == aging.TransitionReveal {
		c.notify()
	}
	select {
	case c.input <- ev:
		return nil
	default:
		c.rejected.Add(1)
		return reveal.ErrBackpressure
	}
}

// Run is the session loop. It returns after a Quit has been processed or
// ctx is cancelled; either way pending reveals are settled by the
// shutdown policy.
func (c *Commander) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for c.IsRunning() {
		select {
		case <-ctx.Done():
			c.Close(c.clock())
			return ctx.Err()
		case ev := <-c.input:
			c.Process(ev, c.clock())
		case <-ticker.C:
			c.Step(c.clock())
		}
		c.flushFrame()
	}
	return nil
}

// Process handles one input event at now. Only the session loop (or a
// script standing in for it) may call Process and Step.
func (c *Commander) Process(ev clack.InputEvent, now time.Time) {
	switch ev.Kind {
	case clack.InputSave:
		if err := c.Save(); err != nil {
			c.setMessage(err.Error())
			c.logger.Error("save failed", "error", err)
		}
	case clack.InputQuit:
		c.Close(now)
	case clack.InputCharacter, clack.InputLineBreak:
		if c.editor.Consumes(ev) {
			c.edit(ev)
			return
		}
		rev, err := c.reveal.Submit(ev, now)
		if err != nil {
			if errors.Is(err, reveal.ErrBackpressure) {
				c.rejected.Add(1)
				c.setMessage("slow down")
			}
			c.logger.Debug("input rejected", "input", ev, "error", err)
			return
		}
		c.audio.Schedule(rev, now)
		c.dirty = true
	default:
		c.edit(ev)
	}
}

func (c *Commander) edit(ev clack.InputEvent) {
	if err := c.editor.Handle(ev); err != nil {
		c.logger.Debug("input ignored", "input", ev, "mode", c.editor.Mode(), "error", err)
		return
	}
	c.dirty = true
}

// Step advances reveals and the idle monitor to now.
func (c *Commander) Step(now time.Time) []reveal.Matured {
	matured := c.reveal.Advance(now, c.editor)
	if len(matured) > 0 {
		c.dirty = true
		if c.message != "" {
			c.setMessage("")
		}
	}
	if c.idle.Tick(now) == aging.TransitionObscure {
		c.dirty = true
	}
	return matured
}

// Close settles pending reveals, saves a modified document that has a
// name and stops the session. It is safe to call more than once.
func (c *Commander) Close(now time.Time) {
	c.closed.Do(func() {
		switch c.shutdown {
		case config.ShutdownDiscard:
			if n := c.reveal.Discard(); n > 0 {
				c.logger.Info("discarded pending reveals", "count", n)
			}
		default:
			c.editor.Cancel()
			matured := c.reveal.Flush(now, c.editor)
			c.logger.Info("flushed pending reveals", "count", len(matured))
		}
		if c.editor.Document().Modified() && c.fileName != "" {
			if err := c.Save(); err != nil {
				c.logger.Error("save on quit failed", "error", err)
			}
		}
		c.running.Store(false)
		c.dirty = true
		c.flushFrame()
	})
}

// Save writes the linearized document to the store.
func (c *Commander) Save() error {
	if c.fileName == "" {
		c.fileName = fmt.Sprintf("clack-%s.txt", c.sessionID[:8])
	}
	doc := c.editor.Document()
	if err := c.store.Save(c.fileName, doc.Bytes()); err != nil {
		return err
	}
	doc.MarkSaved()
	c.setMessage("saved " + c.fileName)
	c.logger.Info("saved", "file", c.fileName, "length", doc.Len())
	return nil
}

func (c *Commander) FileName() string {
	return c.fileName
}

func (c *Commander) setMessage(m string) {
	c.message = m
	c.dirty = true
}

func (c *Commander) flushFrame() {
	if c.dirty {
		c.dirty = false
		c.publish()
	}
}

func (c *Commander) publish() {
	c.frame.Store(&clack.Frame{
		Snapshot: c.editor.Snapshot(),
		Overlay:  c.idle.State().OverlayActive,
		Pending:  c.reveal.Pending(),
		FileName: c.fileName,
		Message:  c.message,
	})
	c.notify()
}

func (c *Commander) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
