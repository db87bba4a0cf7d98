// Copyright 2026 Josh Pursell
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jpursell/eveline/internal/motor"
	"github.com/jpursell/eveline/internal/physical"
	"github.com/jpursell/eveline/internal/position"
	"github.com/jpursell/eveline/internal/predictor"
	"github.com/jpursell/eveline/internal/program"
	"github.com/jpursell/eveline/internal/scurve"
)

type fakePin struct{}

func (fakePin) Set(v int) error { return nil }

func newController(t *testing.T, in string) (*Controller, *bytes.Buffer) {
	t.Helper()
	p := physical.New(physical.DefaultGeometry())
	var pins [2][4]motor.Setter
	for axis := range pins {
		for i := range pins[axis] {
			pins[axis][i] = fakePin{}
		}
	}
	motors := [2]*motor.Motor{
		motor.New(motor.Left, pins[0], motor.HalfStepEnergizer{}, 0),
		motor.New(motor.Right, pins[1], motor.HalfStepEnergizer{}, 0),
	}
	solver := scurve.NewSolver(p, 1e4, 1e9)
	pred := predictor.New(p.MaxVelocity() * p.StepsPerMM())
	out := &bytes.Buffer{}
	c := New(p, motors, solver, pred, nil, strings.NewReader(in), out)

	// Advance a fake clock on every sleep so bounded moves terminate
	// without depending on wall-clock time.
	now := time.Unix(0, 0)
	c.clock = func() time.Time { return now }
	c.sleep = func(d time.Duration) { now = now.Add(d + time.Microsecond) }
	return c, out
}

func TestAskUnrecognizedReprompts(t *testing.T) {
	c, _ := newController(t, "Z\n")
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.State() != Ask {
		t.Errorf("expected to remain in Ask after an unrecognized selection, got %v", c.State())
	}
}

func TestAskDispatchesToMoveTo(t *testing.T) {
	c, _ := newController(t, "M\n")
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.State() != MoveTo {
		t.Errorf("expected MoveTo, got %v", c.State())
	}
}

func TestQueryPaperSetsLimits(t *testing.T) {
	c, _ := newController(t, "0,0\n200,200\n")
	c.state = QueryPaper
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !c.paperSet {
		t.Fatalf("expected paper limits to be set")
	}
	if c.paperX != (program.AxisLimit{Min: 0, Max: 200}) {
		t.Errorf("unexpected paperX: %+v", c.paperX)
	}
	if c.State() != Ask {
		t.Errorf("expected to return to Ask, got %v", c.State())
	}
}

func TestQueryPositionMalformedReprompts(t *testing.T) {
	c, _ := newController(t, "not-a-position\n")
	c.state = QueryPosition
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.State() != QueryPosition {
		t.Errorf("expected to remain in QueryPosition on parse failure, got %v", c.State())
	}
}

func TestInitProgramRequiresPaperLimits(t *testing.T) {
	c, out := newController(t, "")
	c.prog = program.New([]program.Instruction{program.Move(position.MM{X: 100, Y: 200})})
	c.state = InitProgram
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.State() != Ask {
		t.Errorf("expected InitProgram to fall back to Ask without paper limits, got %v", c.State())
	}
	if !strings.Contains(out.String(), "paper limits") {
		t.Errorf("expected a paper-limits complaint, got %q", out.String())
	}
}

func TestInitProgramRejectsOutOfBoundsProgram(t *testing.T) {
	c, _ := newController(t, "")
	c.prog = program.New([]program.Instruction{program.Move(position.MM{X: 1000, Y: 1000})})
	c.paperX = program.AxisLimit{Min: 0, Max: 100}
	c.paperY = program.AxisLimit{Min: 0, Max: 100}
	c.paperSet = true
	c.state = InitProgram
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.State() != Ask {
		t.Errorf("expected an out-of-bounds program to bounce back to Ask, got %v", c.State())
	}
}

func TestInitProgramAdvancesToRunProgram(t *testing.T) {
	c, _ := newController(t, "")
	c.prog = program.New([]program.Instruction{program.Move(position.MM{X: 100, Y: 200})})
	c.paperX = program.AxisLimit{Min: 0, Max: 300}
	c.paperY = program.AxisLimit{Min: 0, Max: 300}
	c.paperSet = true
	c.state = InitProgram
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.State() != RunProgram {
		t.Fatalf("expected RunProgram, got %v", c.State())
	}
}

func TestRunProgramExhaustionReturnsToAsk(t *testing.T) {
	c, _ := newController(t, "")
	c.prog = program.New([]program.Instruction{program.Comment("done")})
	c.state = RunProgram
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if err := c.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.State() != Ask {
		t.Errorf("expected Ask after the program is exhausted, got %v", c.State())
	}
}

func TestRunProgramExhaustionWritesPreviewFile(t *testing.T) {
	c, out := newController(t, "")
	c.prog = program.New([]program.Instruction{
		program.PenDown(),
		program.Move(position.MM{X: 100, Y: 200}),
		program.Move(position.MM{X: 150, Y: 250}),
	})
	path := filepath.Join(t.TempDir(), "preview.jpg")
	c.SetPreviewPath(path)
	c.state = RunProgram

	// One tick per instruction (PenDown, Move, Move), plus one more to
	// observe exhaustion and trigger the preview render.
	for i := 0; i < 4; i++ {
		if err := c.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if c.State() != Ask {
		t.Fatalf("expected Ask after the program is exhausted, got %v", c.State())
	}
	if !strings.Contains(out.String(), "wrote preview") {
		t.Errorf("expected a preview confirmation message, got %q", out.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading preview file: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("expected a JPEG SOI marker in %s, got %x", path, data[:2])
	}
}

func TestExecuteMoveReachesTarget(t *testing.T) {
	c, _ := newController(t, "")
	target := position.MM{X: 120, Y: 210}
	if err := c.executeMove(target); err != nil {
		t.Fatalf("executeMove: %v", err)
	}
	if c.current.MM.Dist(target) > 1.0 {
		t.Errorf("expected the controller to end near the target, got %+v want %+v", c.current.MM, target)
	}
}

func TestExecuteMoveSkipsVeryCloseMoves(t *testing.T) {
	c, _ := newController(t, "")
	start := c.current
	tiny := position.MM{X: start.MM.X + 1e-6, Y: start.MM.Y}
	if err := c.executeMove(tiny); err != nil {
		t.Fatalf("executeMove: %v", err)
	}
	if c.current != start {
		t.Errorf("expected a very-close move to be a no-op, got %+v (started at %+v)", c.current, start)
	}
}
