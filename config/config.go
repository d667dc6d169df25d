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
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Shutdown policies for reveals still pending at exit.
const (
	ShutdownFlush   = "flush"
	ShutdownDiscard = "discard"
)

// Config holds the complete clack configuration.
type Config struct {
	Typewriter TypewriterConfig `toml:"typewriter" json:"typewriter" yaml:"typewriter"`
	Aging      AgingConfig      `toml:"aging" json:"aging" yaml:"aging"`
	Sound      SoundConfig      `toml:"sound" json:"sound" yaml:"sound"`
	Storage    StorageConfig    `toml:"storage" json:"storage" yaml:"storage"`
	Logging    LoggingConfig    `toml:"logging" json:"logging" yaml:"logging"`
}

type TypewriterConfig struct {
	// PerCharacterDelayMs is the reveal cadence.
	PerCharacterDelayMs int `toml:"per_character_delay_ms" json:"per_character_delay_ms" yaml:"per_character_delay_ms"`

	// MaxPendingReveals bounds the reveal queue; beyond it input is rejected.
	MaxPendingReveals int `toml:"max_pending_reveals" json:"max_pending_reveals" yaml:"max_pending_reveals"`

	// Shutdown is "flush" or "discard".
	Shutdown string `toml:"shutdown" json:"shutdown" yaml:"shutdown"`

	// TickMs is the period of the session loop.
	TickMs int `toml:"tick_ms" json:"tick_ms" yaml:"tick_ms"`
}

type AgingConfig struct {
	IdleTimeoutS         int `toml:"idle_timeout_s" json:"idle_timeout_s" yaml:"idle_timeout_s"`
	VisibleLineThreshold int `toml:"visible_line_threshold" json:"visible_line_threshold" yaml:"visible_line_threshold"`
	Steps                int `toml:"steps" json:"steps" yaml:"steps"`
	LinesPerStep         int `toml:"lines_per_step" json:"lines_per_step" yaml:"lines_per_step"`
}

type SoundConfig struct {
	Enabled            bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Dir                string `toml:"dir" json:"dir" yaml:"dir"`
	SampleRate         int    `toml:"sample_rate" json:"sample_rate" yaml:"sample_rate"`
	AudioLeadOffsetMs  int    `toml:"audio_lead_offset_ms" json:"audio_lead_offset_ms" yaml:"audio_lead_offset_ms"`
	AudioQueueCapacity int    `toml:"audio_queue_capacity" json:"audio_queue_capacity" yaml:"audio_queue_capacity"`
	PitchJitterPct     int    `toml:"pitch_jitter_pct" json:"pitch_jitter_pct" yaml:"pitch_jitter_pct"`
	VolumeJitterPct    int    `toml:"volume_jitter_pct" json:"volume_jitter_pct" yaml:"volume_jitter_pct"`
	ReturnSoundGainPct int    `toml:"return_sound_gain_pct" json:"return_sound_gain_pct" yaml:"return_sound_gain_pct"`
}

type StorageConfig struct {
	// Type is "file" or "sqlite".
	Type string `toml:"type" json:"type" yaml:"type"`

	// Path is the sqlite database (for sqlite).
	Path string `toml:"path" json:"path" yaml:"path"`
}

type LoggingConfig struct {
	Level   string `toml:"level" json:"level" yaml:"level"`
	Format  string `toml:"format" json:"format" yaml:"format"`
	Output  string `toml:"output" json:"output" yaml:"output"`
	File    string `toml:"file" json:"file" yaml:"file"`
	Journal bool   `toml:"journal" json:"journal" yaml:"journal"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Typewriter: TypewriterConfig{
			PerCharacterDelayMs: 300,
			MaxPendingReveals:   4096,
			Shutdown:            ShutdownFlush,
			TickMs:              15,
		},
		Aging: AgingConfig{
			IdleTimeoutS:         30,
			VisibleLineThreshold: 2,
			Steps:                3,
			LinesPerStep:         1,
		},
		Sound: SoundConfig{
			Enabled:            false,
			SampleRate:         44100,
			AudioLeadOffsetMs:  100,
			AudioQueueCapacity: 16,
			PitchJitterPct:     5,
			VolumeJitterPct:    10,
			ReturnSoundGainPct: 20,
		},
		Storage: StorageConfig{
			Type: "file",
			Path: filepath.Join(home, ".clack", "drafts.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "file",
			File:   filepath.Join(home, ".clacklog"),
		},
	}
}

// DefaultPath is ~/.config/clack/config.toml, honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "clack", "config.toml")
}

// Load reads path over the defaults, applies environment overrides and
// validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	default:
		_, err := toml.Decode(string(data), cfg)
		return err
	}
}

// ApplyEnvOverrides applies CLACK_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	envInt("CLACK_PER_CHARACTER_DELAY_MS", &c.Typewriter.PerCharacterDelayMs)
	envInt("CLACK_IDLE_TIMEOUT_S", &c.Aging.IdleTimeoutS)
	envInt("CLACK_VISIBLE_LINE_THRESHOLD", &c.Aging.VisibleLineThreshold)
	envInt("CLACK_AUDIO_LEAD_OFFSET_MS", &c.Sound.AudioLeadOffsetMs)
	envInt("CLACK_AUDIO_QUEUE_CAPACITY", &c.Sound.AudioQueueCapacity)
	if v := os.Getenv("CLACK_SOUND"); v != "" {
		c.Sound.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CLACK_SOUND_DIR"); v != "" {
		c.Sound.Dir = v
	}
	if v := os.Getenv("CLACK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks ranges; failures wrap ErrInvalid.
func (c *Config) Validate() error {
	var errs []string
	if c.Typewriter.PerCharacterDelayMs < 0 {
		errs = append(errs, "per_character_delay_ms must not be negative")
	}
	if c.Typewriter.MaxPendingReveals < 1 {
		errs = append(errs, "max_pending_reveals must be at least 1")
	}
	if c.Typewriter.Shutdown != ShutdownFlush && c.Typewriter.Shutdown != ShutdownDiscard {
		errs = append(errs, fmt.Sprintf("shutdown must be %q or %q", ShutdownFlush, ShutdownDiscard))
	}
	if c.Typewriter.TickMs < 1 {
		errs = append(errs, "tick_ms must be at least 1")
	}
	if c.Aging.IdleTimeoutS < 0 {
		errs = append(errs, "idle_timeout_s must not be negative")
	}
	if c.Aging.VisibleLineThreshold < 0 {
		errs = append(errs, "visible_line_threshold must not be negative")
	}
	if c.Aging.Steps < 0 {
		errs = append(errs, "steps must not be negative")
	}
	if c.Sound.AudioLeadOffsetMs < 0 {
		errs = append(errs, "audio_lead_offset_ms must not be negative")
	}
	if c.Sound.AudioQueueCapacity < 8 || c.Sound.AudioQueueCapacity > 16 {
		errs = append(errs, "audio_queue_capacity must be between 8 and 16")
	}
	if c.Sound.SampleRate < 8000 {
		errs = append(errs, "sample_rate must be at least 8000")
	}
	for name, pct := range map[string]int{
		"pitch_jitter_pct":      c.Sound.PitchJitterPct,
		"volume_jitter_pct":     c.Sound.VolumeJitterPct,
		"return_sound_gain_pct": c.Sound.ReturnSoundGainPct,
	} {
		if pct < 0 || pct > 100 {
			errs = append(errs, name+" must be between 0 and 100")
		}
	}
	if c.Storage.Type != "file" && c.Storage.Type != "sqlite" {
		errs = append(errs, `storage type must be "file" or "sqlite"`)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) Delay() time.Duration {
	return time.Duration(c.Typewriter.PerCharacterDelayMs) * time.Millisecond
}

func (c *Config) Tick() time.Duration {
	return time.Duration(c.Typewriter.TickMs) * time.Millisecond
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Aging.IdleTimeoutS) * time.Second
}

func (c *Config) LeadOffset() time.Duration {
	return time.Duration(c.Sound.AudioLeadOffsetMs) * time.Millisecond
}
