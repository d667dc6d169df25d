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
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputEventString(t *testing.T) {
	assert.Equal(t, "character('a')", Character('a').String())
	assert.Equal(t, "navigate(back)", Navigate(NavigateBack).String())
	assert.Equal(t, "navigate(forward)", Navigate(NavigateForward).String())
	assert.Equal(t, "line-break", LineBreak.String())
	assert.Equal(t, "quit", Quit.String())
}

func TestSoundClassString(t *testing.T) {
	assert.Equal(t, "click1", SoundKey1.String())
	assert.Equal(t, "click6", SoundKey6.String())
	assert.Equal(t, "return", SoundReturn.String())
}

func TestVisibilityString(t *testing.T) {
	assert.Equal(t, "clear", Clear.String())
	assert.Equal(t, "hidden", Hidden.String())
	assert.Equal(t, "aged3", Aged(3).String())
}

func TestSnapshotTail(t *testing.T) {
	s := &Snapshot{Lines: make([][]Cell, 3)}
	assert.Equal(t, 2, s.Tail())
	assert.True(t, RevealEvent{Control: ControlLineBreak}.IsLineBreak())
	assert.Equal(t, "mark-out", ModeMarkOut.String())
}
