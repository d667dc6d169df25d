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
	clack "github.com/timburks/clack/types"
)

// A Policy decides how visible each line is.
type Policy struct {
	VisibleLines int // lines at the tail that are always clear
	Steps        int // aged levels before a line is hidden
	LinesPerStep int
}

func DefaultPolicy() Policy {
	return Policy{VisibleLines: 2, Steps: 3, LinesPerStep: 1}
}

// Visibility maps a line's distance from the tail to a level. The idle
// overlay hides everything.
func (p Policy) Visibility(line, tail int, overlay bool) clack.Visibility {
	if overlay {
		return clack.Hidden
	}
	age := tail - line
	if age < p.VisibleLines {
		return clack.Clear
	}
	per := p.LinesPerStep
	if per < 1 {
		per = 1
	}
	level := 1 + (age-p.VisibleLines)/per
	if level > p.Steps {
		return clack.Hidden
	}
	return clack.Aged(level)
}

// Levels computes the visibility of every line in a snapshot.
func (p Policy) Levels(lines int, overlay bool) []clack.Visibility {
	levels := make([]clack.Visibility, lines)
	for i := range levels {
		levels[i] = p.Visibility(i, lines-1, overlay)
	}
	return levels
}
