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
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/steelseries/golisp"

	clack "github.com/timburks/clack/types"
)

// Scripts drive a commander headlessly on a virtual clock. The primitives
// are global to golisp, so only one script runs at a time.
var scriptLock sync.Mutex

type script struct {
	c   *Commander
	now time.Time
}

// ParseEval evaluates a lisp program against the commander, starting its
// virtual clock at start, and returns the printed value of the result.
func (c *Commander) ParseEval(source string, start time.Time) (string, error) {
	scriptLock.Lock()
	defer scriptLock.Unlock()
	s := &script{c: c, now: start}
	s.bind()
	value, err := golisp.ParseAndEval(source)
	if err != nil {
		c.logger.Error("script failed", "error", err)
		return "", err
	}
	result := golisp.String(value)
	if golisp.StringP(value) {
		result = golisp.StringValue(value)
	}
	c.logger.Debug("script finished", "result", result)
	return result, nil
}

// ParseEvalFile evaluates the lisp program stored in path.
func (c *Commander) ParseEvalFile(path string, start time.Time) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return c.ParseEval(string(source), start)
}

func (s *script) bind() {
	golisp.MakePrimitiveFunction("type", "1", s.typeImpl)
	golisp.MakePrimitiveFunction("newline", "0", s.newlineImpl)
	golisp.MakePrimitiveFunction("backspace", "*", s.repeat(clack.Backspace))
	golisp.MakePrimitiveFunction("strike", "*", s.repeat(clack.MarkOutStrike))
	golisp.MakePrimitiveFunction("forward", "*", s.repeat(clack.Navigate(clack.NavigateForward)))
	golisp.MakePrimitiveFunction("wait", "1", s.waitImpl)
	golisp.MakePrimitiveFunction("settle", "0", s.settleImpl)
	golisp.MakePrimitiveFunction("save", "0", s.saveImpl)
	golisp.MakePrimitiveFunction("text", "0", s.textImpl)
	golisp.MakePrimitiveFunction("plain", "0", s.plainImpl)
	golisp.MakePrimitiveFunction("mode", "0", s.modeImpl)
	golisp.MakePrimitiveFunction("pending", "0", s.pendingImpl)
}

func (s *script) deliver(ev clack.InputEvent) {
	s.c.idle.Keystroke(s.now)
	s.c.Process(ev, s.now)
	s.c.flushFrame()
}

func (s *script) typeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	val := golisp.Car(args)
	if !golisp.StringP(val) {
		return nil, errors.New("type requires a string argument")
	}
	n := 0
	for _, r := range golisp.StringValue(val) {
		if r == '\n' {
			s.deliver(clack.LineBreak)
		} else {
			s.deliver(clack.Character(r))
		}
		n++
	}
	return golisp.IntegerWithValue(int64(n)), nil
}

func (s *script) newlineImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	s.deliver(clack.LineBreak)
	return golisp.IntegerWithValue(1), nil
}

// repeat builds a primitive that delivers ev once, or n times when given
// an integer argument.
func (s *script) repeat(ev clack.InputEvent) func(*golisp.Data, *golisp.SymbolTableFrame) (*golisp.Data, error) {
	return func(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
		count := int64(1)
		if golisp.Length(args) > 0 {
			val := golisp.Car(args)
			if !golisp.IntegerP(val) {
				return nil, fmt.Errorf("%s requires an integer count", ev)
			}
			count = golisp.IntegerValue(val)
		}
		for i := int64(0); i < count; i++ {
			s.deliver(ev)
		}
		return golisp.IntegerWithValue(count), nil
	}
}

func (s *script) waitImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	val := golisp.Car(args)
	if !golisp.IntegerP(val) {
		return nil, errors.New("wait requires a duration in milliseconds")
	}
	matured := s.advance(s.now.Add(time.Duration(golisp.IntegerValue(val)) * time.Millisecond))
	return golisp.IntegerWithValue(int64(matured)), nil
}

// settle waits until every pending reveal has been applied.
func (s *script) settleImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	matured := 0
	for {
		next, ok := s.c.reveal.Next()
		if !ok {
			break
		}
		if next.Before(s.now) {
			next = s.now
		}
		n := s.advance(next)
		if n == 0 {
			// a held line break cannot mature until mark-out ends
			break
		}
		matured += n
	}
	return golisp.IntegerWithValue(int64(matured)), nil
}

// advance moves the virtual clock to until in tick sized steps.
func (s *script) advance(until time.Time) int {
	if until.Before(s.now) {
		until = s.now
	}
	matured := 0
	for {
		step := s.now.Add(s.c.tick)
		if step.After(until) {
			step = until
		}
		s.now = step
		matured += len(s.c.Step(s.now))
		s.c.flushFrame()
		if !s.now.Before(until) {
			return matured
		}
	}
}

func (s *script) saveImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	if err := s.c.Save(); err != nil {
		return nil, err
	}
	return golisp.StringWithValue(s.c.FileName()), nil
}

func (s *script) textImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	return golisp.StringWithValue(string(s.c.editor.Document().Bytes())), nil
}

func (s *script) plainImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	return golisp.StringWithValue(string(s.c.editor.Document().PlainBytes())), nil
}

func (s *script) modeImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	return golisp.StringWithValue(s.c.editor.Mode().String()), nil
}

func (s *script) pendingImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	return golisp.IntegerWithValue(int64(s.c.reveal.Pending())), nil
}
