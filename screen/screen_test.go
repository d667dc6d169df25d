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
package screen

import (
	"testing"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/assert"

	clack "github.com/timburks/clack/types"
)

func TestVisibilityColorDims(t *testing.T) {
	assert.Equal(t, colorClear, visibilityColor(clack.Clear))
	previous := visibilityColor(clack.Clear)
	for level := 1; level < 10; level++ {
		c := visibilityColor(clack.Aged(level))
		assert.LessOrEqual(t, c, previous)
		assert.GreaterOrEqual(t, c, termbox.Attribute(colorDimmest+1))
		previous = c
	}
}

func TestColumnOfWideGlyphs(t *testing.T) {
	cells := []clack.Cell{{Glyph: 'a'}, {Glyph: '漢'}, {Glyph: 'b'}}
	assert.Equal(t, 0, columnOf(cells, 0))
	assert.Equal(t, 3, columnOf(cells, 2))
	assert.Equal(t, 4, columnOf(cells, 3))
}

func TestPrintable(t *testing.T) {
	assert.Equal(t, ' ', printable('\t'))
	assert.Equal(t, 'q', printable('q'))
}

func TestKeyMapping(t *testing.T) {
	assert.Equal(t, clack.KeyCtrlS, key(termbox.KeyCtrlS))
	assert.Equal(t, clack.KeyBackspace2, key(termbox.KeyBackspace2))
	assert.Equal(t, clack.KeyEnter, key(termbox.KeyEnter))
	assert.Equal(t, clack.KeyUnsupported, key(termbox.KeyF1))
}
