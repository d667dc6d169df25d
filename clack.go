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
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/timburks/clack/aging"
	"github.com/timburks/clack/commander"
	"github.com/timburks/clack/config"
	"github.com/timburks/clack/editor"
	"github.com/timburks/clack/logging"
	"github.com/timburks/clack/reveal"
	"github.com/timburks/clack/screen"
	"github.com/timburks/clack/sound"
	"github.com/timburks/clack/store"
	clack "github.com/timburks/clack/types"
)

type options struct {
	configPath string
	fileName   string
	eval       string
	soundDir   string
	logLevel   string
	sound      bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "clack [file]",
		Short:        "A typewriter for the terminal",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.fileName = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.Flags().Changed("sound"))
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath(), "configuration file (toml, yaml or json)")
	flags.StringVar(&opts.eval, "eval", "", "run a lisp script headlessly and print its result")
	flags.BoolVar(&opts.sound, "sound", false, "play key clicks")
	flags.StringVar(&opts.soundDir, "sound-dir", "", "directory of click1..6.wav and classic-return.wav")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.AddCommand(newExportCommand(&opts))
	return cmd
}

// newExportCommand prints a saved document without its struck cells.
func newExportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:          "export file",
		Short:        "Print a document with struck text removed",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg.Storage)
			if err != nil {
				return err
			}
			defer st.Close()
			data, err := st.Load(args[0])
			if err != nil {
				return err
			}
			doc := editor.NewDocument()
			doc.LoadBytes(data)
			_, err = cmd.OutOrStdout().Write(append(doc.PlainBytes(), '\n'))
			return err
		},
	}
}

func run(ctx context.Context, opts options, soundFlag bool) error {
	loader := config.NewLoader(opts.configPath, nil)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if soundFlag {
		cfg.Sound.Enabled = opts.sound
	}
	if opts.soundDir != "" {
		cfg.Sound.Dir = opts.soundDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	log, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.File,
		Journal:   cfg.Logging.Journal,
		Component: "clack",
	})
	if err != nil {
		return err
	}
	defer log.Close()
	loader.SetLogger(log.WithComponent("config"))

	st, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := loadDocument(st, opts.fileName, log.Logger)
	if err != nil {
		return err
	}

	// The sound output drains the audio ring even when it is silent.
	audio := sound.NewScheduler(sound.Config{
		LeadOffset:   cfg.LeadOffset(),
		Capacity:     cfg.Sound.AudioQueueCapacity,
		PitchJitter:  float64(cfg.Sound.PitchJitterPct) / 100,
		VolumeJitter: float64(cfg.Sound.VolumeJitterPct) / 100,
		ReturnGain:   float64(cfg.Sound.ReturnSoundGainPct) / 100,
	}, log.WithComponent("sound"))
	bank := soundBank(cfg.Sound, log.Logger)
	mixer := sound.NewMixer(bank, audio.Ring(), float64(cfg.Sound.ReturnSoundGainPct)/100, time.Now)
	out := sound.Open(ctx, mixer, cfg.Sound.Enabled && opts.eval == "", log.WithComponent("sound"))
	defer out.Close()

	idle := aging.NewMonitor(cfg.IdleTimeout(), time.Now())
	c := commander.NewCommander(commander.Config{
		Editor:   editor.NewEditor(doc),
		Reveal:   reveal.NewScheduler(reveal.Config{Delay: cfg.Delay(), MaxPending: cfg.Typewriter.MaxPendingReveals}),
		Audio:    audio,
		Idle:     idle,
		Policy:   policyOf(cfg),
		Store:    st,
		FileName: opts.fileName,
		Shutdown: cfg.Typewriter.Shutdown,
		Tick:     cfg.Tick(),
		Logger:   log.WithComponent("commander"),
	})

	if opts.eval != "" {
		// Run a clack script and exit.
		result, err := c.ParseEvalFile(opts.eval, time.Now())
		c.Close(time.Now())
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	}

	loader.OnChange(func(cfg *config.Config) {
		c.SetPolicy(policyOf(cfg))
		idle.SetTimeout(cfg.IdleTimeout())
	})
	if err := loader.Watch(ctx); err != nil {
		log.Warn("config changes will not be seen", "error", err)
	}
	defer loader.Close()

	// Create a screen to manage display.
	s, err := screen.NewScreen()
	if err != nil {
		return err
	}
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx)
		s.Interrupt()
	}()
	go func() {
		for c.IsRunning() {
			event := s.GetNextEvent()
			if event.Type == clack.EventInterrupt {
				return
			}
			if err := c.ProcessEvent(event); err != nil {
				log.Debug("event dropped", "error", err)
			}
		}
	}()

	// Render every published frame until the session ends.
	s.Render(c.Frame())
	for {
		select {
		case <-c.Updates():
			s.Render(c.Frame())
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func openStore(cfg config.StorageConfig) (store.Store, error) {
	if cfg.Type == "sqlite" {
		return store.OpenSQLite(cfg.Path)
	}
	return store.NewFileStore(), nil
}

// loadDocument reads name from the store, creating an empty file when a
// file store has none.
func loadDocument(st store.Store, name string, logger *slog.Logger) (*editor.Document, error) {
	doc := editor.NewDocument()
	if name == "" {
		return doc, nil
	}
	data, err := st.Load(name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if _, ok := st.(*store.FileStore); ok {
			if err := st.Save(name, nil); err != nil {
				return nil, err
			}
		}
		logger.Info("new document", "file", name)
		return doc, nil
	case err != nil:
		return nil, err
	}
	doc.LoadBytes(data)
	logger.Info("loaded document", "file", name, "lines", doc.LineCount())
	return doc, nil
}

func soundBank(cfg config.SoundConfig, logger *slog.Logger) *sound.Bank {
	if cfg.Dir != "" {
		bank, err := sound.LoadBank(cfg.Dir, cfg.SampleRate)
		if err == nil {
			return bank
		}
		logger.Warn("using synthesized clicks", "dir", cfg.Dir, "error", err)
	}
	return sound.SynthesizedBank(cfg.SampleRate)
}

func policyOf(cfg *config.Config) aging.Policy {
	return aging.Policy{
		VisibleLines: cfg.Aging.VisibleLineThreshold,
		Steps:        cfg.Aging.Steps,
		LinesPerStep: cfg.Aging.LinesPerStep,
	}
}
