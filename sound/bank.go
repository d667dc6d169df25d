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
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/go-audio/wav"

	clack "github.com/timburks/clack/types"
)

const DefaultSampleRate = 44100

// Sample file names, indexed by sound class.
var sampleFiles = [...]string{
	"click1.wav",
	"click2.wav",
	"click3.wav",
	"click4.wav",
	"click5.wav",
	"click6.wav",
	"classic-return.wav",
}

// A Sample is mono audio at the bank's sample rate. It is never modified
// after the bank is built.
type Sample struct {
	data []float32
}

func (s Sample) Len() int {
	return len(s.data)
}

// At interpolates between neighboring frames.
func (s Sample) At(pos float64) float32 {
	i := int(pos)
	if i < 0 || i >= len(s.data) {
		return 0
	}
	if i+1 == len(s.data) {
		return s.data[i]
	}
	frac := float32(pos - float64(i))
	return s.data[i]*(1-frac) + s.data[i+1]*frac
}

// A Bank holds one sample per sound class.
type Bank struct {
	rate    int
	samples [clack.SoundReturn + 1]Sample
}

func (b *Bank) SampleRate() int {
	return b.rate
}

func (b *Bank) Lookup(class clack.SoundClass) Sample {
	if class < 0 || int(class) >= len(b.samples) {
		return Sample{}
	}
	return b.samples[class]
}

// ClassOf maps a revealed character to its sound class. Only lower case
// letters have their own groups.
func ClassOf(c rune) clack.SoundClass {
	switch {
	case c == '\n':
		return clack.SoundReturn
	case c >= 'a' && c <= 'f':
		return clack.SoundKey1
	case c >= 'g' && c <= 'l':
		return clack.SoundKey2
	case c >= 'm' && c <= 'r':
		return clack.SoundKey3
	case c >= 's' && c <= 'x':
		return clack.SoundKey4
	case c == 'y' || c == 'z':
		return clack.SoundKey5
	default:
		return clack.SoundKey6
	}
}

// LoadBank reads the sample files from dir and resamples them to rate.
func LoadBank(dir string, rate int) (*Bank, error) {
	b := &Bank{rate: rate}
	for class, name := range sampleFiles {
		data, err := readWav(filepath.Join(dir, name), rate)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		b.samples[class] = Sample{data: data}
	}
	return b, nil
}

func readWav(path string, rate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, errors.New("not a wav file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	depth := int(d.BitDepth)
	if depth == 0 {
		depth = 16
	}
	scale := float32(int64(1) << (depth - 1))

	mono := make([]float32, len(buf.Data)/channels)
	for i := range mono {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			v := buf.Data[i*channels+ch]
			if depth == 8 {
				v -= 128
			}
			sum += float32(v) / scale
		}
		mono[i] = sum / float32(channels)
	}
	return resample(mono, buf.Format.SampleRate, rate), nil
}

func resample(data []float32, from, to int) []float32 {
	if from <= 0 || from == to || len(data) == 0 {
		return data
	}
	src := Sample{data: data}
	n := int(float64(len(data)) * float64(to) / float64(from))
	out := make([]float32, n)
	step := float64(from) / float64(to)
	for i := range out {
		out[i] = src.At(float64(i) * step)
	}
	return out
}

// SynthesizedBank builds typewriter-like clicks and a return bell for
// use when no sample files are installed. The output is deterministic.
func SynthesizedBank(rate int) *Bank {
	b := &Bank{rate: rate}
	rng := rand.New(rand.NewPCG(0x636c61636b, 0x6b657973))
	for class := clack.SoundKey1; class <= clack.SoundKey6; class++ {
		tone := 1600 + 220*float64(class)
		b.samples[class] = Sample{data: click(rate, tone, rng)}
	}
	b.samples[clack.SoundReturn] = Sample{data: bell(rate)}
	return b
}

// click is a 35ms noise transient over a damped body tone.
func click(rate int, tone float64, rng *rand.Rand) []float32 {
	n := rate * 35 / 1000
	attack := rate / 2000
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(rate)
		env := math.Exp(-t * 180)
		if i < attack {
			env *= float64(i) / float64(attack)
		}
		noise := rng.Float64()*2 - 1
		body := math.Sin(2 * math.Pi * tone * t)
		out[i] = float32(env * (0.6*noise + 0.4*body) * 0.8)
	}
	return out
}

// bell is the carriage return ding: a fundamental with a faster
// decaying overtone.
func bell(rate int) []float32 {
	n := rate * 600 / 1000
	attack := rate * 5 / 1000
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(rate)
		env := 1.0
		if i < attack {
			env = float64(i) / float64(attack)
		}
		fundamental := math.Exp(-t/0.55) * math.Sin(2*math.Pi*1760*t)
		overtone := 0.4 * math.Exp(-t/0.2) * math.Sin(2*math.Pi*4400*t)
		out[i] = float32(env * (fundamental + overtone) * 0.7)
	}
	return out
}
