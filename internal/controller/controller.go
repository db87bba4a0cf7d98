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

// Package controller implements the plotter's mode state machine: it
// sequences operator prompts, program loading/scaling, and segment
// execution through the kinematics, trajectory solver, predictor and
// motors, one state transition per Tick call.
package controller

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jpursell/eveline/internal/motor"
	"github.com/jpursell/eveline/internal/physical"
	"github.com/jpursell/eveline/internal/position"
	"github.com/jpursell/eveline/internal/predictor"
	"github.com/jpursell/eveline/internal/preview"
	"github.com/jpursell/eveline/internal/program"
	"github.com/jpursell/eveline/internal/scurve"
)

// State names one node of the mode state machine.
type State int

const (
	Ask State = iota
	MoveTo
	QueryPaper
	QueryPosition
	LoadPattern
	ScaleProgram
	CenterProgram
	InitProgram
	RunProgram
)

func (s State) String() string {
	switch s {
	case Ask:
		return "Ask"
	case MoveTo:
		return "MoveTo"
	case QueryPaper:
		return "QueryPaper"
	case QueryPosition:
		return "QueryPosition"
	case LoadPattern:
		return "LoadPattern"
	case ScaleProgram:
		return "ScaleProgram"
	case CenterProgram:
		return "CenterProgram"
	case InitProgram:
		return "InitProgram"
	case RunProgram:
		return "RunProgram"
	default:
		return "Unknown"
	}
}

// PatternSource supplies built-in pattern programs selected by the
// single-character pattern menu (S/T/W/G/H). Pattern generation
// itself (square, star, wave, spiralgraph, heart-wave) is an external
// collaborator with no hard engineering content; the controller only
// consumes the result.
type PatternSource interface {
	Load(selector byte) (*program.Program, error)
}

// Controller sequences the plotter through its operator-facing modes.
// It performs no hardware I/O itself beyond driving the two motor
// values supplied at construction.
type Controller struct {
	physical  *physical.Physical
	motors    [2]*motor.Motor
	solver    *scurve.Solver
	predictor *predictor.Predictor
	patterns  PatternSource

	in  *bufio.Reader
	out io.Writer

	clock func() time.Time
	sleep func(time.Duration)

	state       State
	current     position.Position
	paperX      program.AxisLimit
	paperY      program.AxisLimit
	paperSet    bool
	prog        *program.Program
	previewPath string
}

// New builds a Controller. in/out drive the operator dialog; patterns
// may be nil if built-in pattern loading is not wired.
func New(p *physical.Physical, motors [2]*motor.Motor, solver *scurve.Solver, pred *predictor.Predictor, patterns PatternSource, in io.Reader, out io.Writer) *Controller {
	return &Controller{
		physical:  p,
		motors:    motors,
		solver:    solver,
		predictor: pred,
		patterns:  patterns,
		in:        bufio.NewReader(in),
		out:       out,
		clock:     time.Now,
		sleep:     time.Sleep,
		state:     Ask,
		current:   position.FromMM(position.MM{}, p),
	}
}

// State returns the controller's current mode.
func (c *Controller) State() State { return c.state }

// SetProgram installs a program loaded externally (e.g. from a G-code
// file passed on the command line), as if it had been selected through
// the LoadPattern state.
func (c *Controller) SetProgram(p *program.Program) { c.prog = p }

// SetPreviewPath configures tickRunProgram to render the completed
// program's path to the given file (JPEG) once it runs to exhaustion.
// An empty path disables preview rendering.
func (c *Controller) SetPreviewPath(path string) { c.previewPath = path }

// Tick advances the state machine by exactly one transition.
func (c *Controller) Tick() error {
	switch c.state {
	case Ask:
		return c.tickAsk()
	case MoveTo:
		return c.tickMoveTo()
	case QueryPaper:
		return c.tickQueryPaper()
	case QueryPosition:
		return c.tickQueryPosition()
	case LoadPattern:
		return c.tickLoadPattern()
	case ScaleProgram:
		return c.tickScaleProgram()
	case CenterProgram:
		return c.tickCenterProgram()
	case InitProgram:
		return c.tickInitProgram()
	case RunProgram:
		return c.tickRunProgram()
	default:
		return fmt.Errorf("controller: unknown state %d", c.state)
	}
}

func (c *Controller) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Controller) prompt(msg string) {
	fmt.Fprintln(c.out, msg)
}

// tickAsk reads one menu selection. Parse failures re-prompt without
// changing state, per the operator-dialog rule.
func (c *Controller) tickAsk() error {
	c.prompt("M move, C center, A scale, R run, O load pattern, L set paper limits, P set position")
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if line == "" {
		return nil
	}
	switch strings.ToUpper(line)[0] {
	case 'M':
		c.state = MoveTo
	case 'C':
		c.state = CenterProgram
	case 'A':
		c.state = ScaleProgram
	case 'R':
		c.state = InitProgram
	case 'O':
		c.state = LoadPattern
	case 'L':
		c.state = QueryPaper
	case 'P':
		c.state = QueryPosition
	default:
		c.prompt(fmt.Sprintf("unrecognized selection %q", line))
	}
	return nil
}

func parseXY(s string) (position.MM, error) {
	x, y, found := strings.Cut(s, ",")
	if !found {
		return position.MM{}, fmt.Errorf("expected \"x,y\", got %q", s)
	}
	xf, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return position.MM{}, fmt.Errorf("bad x: %v", err)
	}
	yf, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if err != nil {
		return position.MM{}, fmt.Errorf("bad y: %v", err)
	}
	return position.MM{X: xf, Y: yf}, nil
}

func (c *Controller) tickMoveTo() error {
	c.prompt("move to? provide \"x,y\"")
	line, err := c.readLine()
	if err != nil {
		return err
	}
	mm, err := parseXY(line)
	if err != nil {
		c.prompt(err.Error())
		return nil
	}
	if err := c.executeMove(mm); err != nil {
		c.prompt(fmt.Sprintf("move failed: %v", err))
	}
	c.state = Ask
	return nil
}

func (c *Controller) tickQueryPaper() error {
	c.prompt("what's the lower-left corner of the paper, in mm? provide \"x,y\"")
	line, err := c.readLine()
	if err != nil {
		return err
	}
	lower, err := parseXY(line)
	if err != nil {
		c.prompt(err.Error())
		return nil
	}
	c.prompt("what's the upper-right corner of the paper, in mm? provide \"x,y\"")
	line, err = c.readLine()
	if err != nil {
		return err
	}
	upper, err := parseXY(line)
	if err != nil {
		c.prompt(err.Error())
		return nil
	}
	c.paperX = program.AxisLimit{Min: lower.X, Max: upper.X}
	c.paperY = program.AxisLimit{Min: lower.Y, Max: upper.Y}
	c.paperSet = true
	c.state = Ask
	return nil
}

func (c *Controller) tickQueryPosition() error {
	c.prompt("what's the current position, in mm? provide \"x,y\"")
	line, err := c.readLine()
	if err != nil {
		return err
	}
	mm, err := parseXY(line)
	if err != nil {
		c.prompt(err.Error())
		return nil
	}
	c.current = position.FromMM(mm, c.physical)
	c.state = Ask
	return nil
}

func (c *Controller) tickLoadPattern() error {
	c.prompt("S square, T star, W wave, G spiralgraph, H heart-wave")
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if line == "" || c.patterns == nil {
		c.state = Ask
		return nil
	}
	prog, err := c.patterns.Load(strings.ToUpper(line)[0])
	if err != nil {
		c.prompt(fmt.Sprintf("load pattern: %v", err))
		c.state = Ask
		return nil
	}
	c.prog = prog
	c.state = Ask
	return nil
}

func (c *Controller) tickScaleProgram() error {
	if c.prog == nil || !c.paperSet {
		c.prompt("no program loaded or paper limits not set")
		c.state = Ask
		return nil
	}
	if err := c.prog.ScaleKeepAspect(c.paperX, c.paperY); err != nil {
		c.prompt(fmt.Sprintf("scale: %v", err))
	}
	c.state = Ask
	return nil
}

func (c *Controller) tickCenterProgram() error {
	if c.prog == nil || !c.paperSet {
		c.prompt("no program loaded or paper limits not set")
		c.state = Ask
		return nil
	}
	if err := c.prog.CenterKeepAspect(c.paperX, c.paperY); err != nil {
		c.prompt(fmt.Sprintf("center: %v", err))
	}
	c.state = Ask
	return nil
}

// tickInitProgram checks paper limits are set and the program fits; on
// success it transitions to RunProgram, otherwise back to Ask.
func (c *Controller) tickInitProgram() error {
	if c.prog == nil {
		c.prompt("no program loaded")
		c.state = Ask
		return nil
	}
	if !c.paperSet {
		c.prompt("paper limits not set")
		c.state = Ask
		return nil
	}
	if !c.prog.WithinLimits(c.paperX, c.paperY, 1e-6) {
		c.prompt("program does not fit within paper limits")
		c.state = Ask
		return nil
	}
	c.prog.Reset()
	c.state = RunProgram
	return nil
}

// tickRunProgram consumes one instruction per call. Program exhaustion
// returns to Ask.
func (c *Controller) tickRunProgram() error {
	inst, ok := c.prog.Advance()
	if !ok {
		c.renderPreview()
		c.state = Ask
		return nil
	}
	switch inst.Kind {
	case program.KindMove:
		if err := c.executeMove(inst.MM); err != nil {
			c.prompt(fmt.Sprintf("move failed: %v", err))
		}
	case program.KindPenUp, program.KindPenDown:
		c.prompt("pen position change: press enter to continue")
		c.readLine()
	case program.KindComment:
		c.prompt(inst.Text)
	case program.KindNoOp:
	}
	return nil
}

// executeMove is the bounded inner loop: it solves a trajectory from
// the current position to target and drives the predictor/motors to
// completion before returning.
func (c *Controller) executeMove(target position.MM) error {
	if c.current.VeryCloseTo(target, c.physical.StepsPerMM()) {
		return nil
	}
	curve := c.solver.Solve(c.current.MM, target)
	for curve.StatusAt(c.clock()) == scurve.Moving {
		desired := curve.PositionAt(c.clock(), c.solver)
		step := c.physical.InverseFloat(desired)
		pred := c.predictor.Predict(c.current.Step, step)
		if pred.Kind == predictor.KindWait {
			c.sleep(pred.Wait)
			continue
		}
		if err := c.applyInstruction(0, pred.Left); err != nil {
			return err
		}
		if err := c.applyInstruction(1, pred.Right); err != nil {
			return err
		}
	}
	final, err := position.FromStep(c.current.Step, c.physical)
	if err != nil {
		return err
	}
	c.current = final
	return nil
}

// renderPreview writes a JPEG of the just-completed program's path to
// previewPath, if one was configured. Failures are reported to the
// operator but never abort the run.
func (c *Controller) renderPreview() {
	if c.previewPath == "" {
		return
	}
	f, err := os.Create(c.previewPath)
	if err != nil {
		c.prompt(fmt.Sprintf("preview: %v", err))
		return
	}
	defer f.Close()
	if err := preview.Render(c.prog, preview.DefaultOptions(), f); err != nil {
		c.prompt(fmt.Sprintf("preview: %v", err))
		return
	}
	c.prompt(fmt.Sprintf("wrote preview to %s", c.previewPath))
}

func (c *Controller) applyInstruction(axis int, inst motor.Instruction) error {
	accepted, err := c.motors[axis].Step(inst)
	if err != nil {
		return err
	}
	if !accepted {
		return nil
	}
	switch inst {
	case motor.Lengthen:
		c.current.Step.Lengthen(axis)
	case motor.Shorten:
		c.current.Step.Shorten(axis)
	}
	return nil
}
