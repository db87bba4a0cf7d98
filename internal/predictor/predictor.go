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

// Package predictor implements the step-timing scheduler: at every
// control tick it compares the ideal trajectory position to the
// current integer step count of each motor and emits either a move
// instruction or a bounded wait hint.
package predictor

import (
	"math"
	"time"

	"github.com/jpursell/eveline/internal/motor"
	"github.com/jpursell/eveline/internal/position"
)

// MaxWait caps the estimated wait returned when neither axis has
// crossed the dead-band, so pen-up/pen-down and cancellation remain
// responsive even on a long coast phase.
const MaxWait = 10 * time.Millisecond

// Kind distinguishes the two shapes a Prediction can take.
type Kind int

const (
	KindWait Kind = iota
	KindMove
)

// Prediction is the predictor's per-tick output: either a per-motor
// move instruction, or a hint of how long to wait before the next
// useful tick.
type Prediction struct {
	Kind  Kind
	Wait  time.Duration
	Left  motor.Instruction
	Right motor.Instruction
}

// Predictor is pure with respect to trajectory time: it does not
// consult the wall clock to decide whether to move, only to estimate
// a wait duration. approachRate is the configured rate (steps/sec) at
// which the dead-band is expected to be crossed, used only to shape
// the wait estimate.
type Predictor struct {
	approachRate float64
}

// New creates a Predictor that estimates wait times assuming the
// remaining distance to the dead-band boundary closes at approachRate
// steps per second (typically the solver's max velocity in steps/sec).
func New(approachRate float64) *Predictor {
	return &Predictor{approachRate: approachRate}
}

// Predict compares the current integer step count to the ideal
// (floating) per-motor cable length and returns the next action.
//
// The dead-band is the closed interval [-1, 1]: only a remainder with
// |r| > 1 issues a move on that axis; otherwise the axis holds. The strict inequality
// (not >=) gives a symmetric dead-band that prevents oscillation
// around integer boundaries.
func (p *Predictor) Predict(current position.Step, desired position.StepFloat) Prediction {
	remL := desired.L - float64(current.L)
	remR := desired.R - float64(current.R)

	moveNow := false
	instL := motor.Hold
	instR := motor.Hold
	if remL > 1.0 {
		instL = motor.Lengthen
		moveNow = true
	} else if remL < -1.0 {
		instL = motor.Shorten
		moveNow = true
	}
	if remR > 1.0 {
		instR = motor.Lengthen
		moveNow = true
	} else if remR < -1.0 {
		instR = motor.Shorten
		moveNow = true
	}

	if moveNow {
		return Prediction{Kind: KindMove, Left: instL, Right: instR}
	}

	maxRemainder := math.Abs(remL)
	if r := math.Abs(remR); r > maxRemainder {
		maxRemainder = r
	}
	return Prediction{Kind: KindWait, Wait: p.estimateWait(maxRemainder)}
}

// estimateWait returns a bounded estimate of the time until the
// largest in-dead-band remainder crosses 1, given the configured
// approach rate. A zero result (busy-wait) is acceptable when the
// approach rate is unknown or zero.
func (p *Predictor) estimateWait(maxRemainder float64) time.Duration {
	if p.approachRate <= 0 {
		return 0
	}
	remaining := 1.0 - maxRemainder
	if remaining <= 0 {
		return 0
	}
	wait := time.Duration(remaining / p.approachRate * float64(time.Second))
	if wait > MaxWait {
		return MaxWait
	}
	if wait < 0 {
		return 0
	}
	return wait
}
