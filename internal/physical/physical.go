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

// Package physical holds the fixed machine geometry of the plotter and
// the forward/inverse kinematics relating a Cartesian pen position to
// per-motor cable length and integer step count.
package physical

import (
	"fmt"
	"math"

	"github.com/jpursell/eveline/internal/position"
)

// Limits describes a closed Cartesian rectangle the pen may occupy.
type Limits struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Geometry collects the machine-construction parameters used to derive
// steps-per-mm and maximum velocity. The zero value is not usable;
// build one with DefaultGeometry and override fields as needed.
type Geometry struct {
	// MotorPos are the two anchor points, left then right.
	MotorPos [2]position.MM
	// SpoolRadius in mm.
	SpoolRadius float64
	// GearRatio is the reduction between motor shaft and spool.
	GearRatio float64
	// MotorStepsPerRev is the motor's native steps per revolution
	// multiplied by the microstep division.
	MotorStepsPerRev int
	// MaxRPM is the maximum motor shaft speed.
	MaxRPM float64
	XLimits Limits
	YLimits Limits
	YOffset float64
}

// DefaultGeometry returns the stock machine geometry: anchors at
// (0, 368.8) and (297.0, 368.8) mm, a 5.75mm spool radius, a (59/17)^2
// gear reduction, 100 whole motor steps per revolution, and a 100 RPM
// motor speed limit.
func DefaultGeometry() Geometry {
	return Geometry{
		MotorPos:         [2]position.MM{{X: 0.0, Y: 368.8}, {X: 297.0, Y: 368.8}},
		SpoolRadius:      5.75,
		GearRatio:        math.Pow(59.0/17.0, 2),
		MotorStepsPerRev: 100,
		MaxRPM:           100.0,
		XLimits:          Limits{XMin: 45.0, XMax: 260.0},
		YLimits:          Limits{YMin: 50.0, YMax: 328.0},
		YOffset:          -15.0,
	}
}

// Physical is immutable after construction and implements
// position.Kinematics.
type Physical struct {
	motorPos    [2]position.MM
	stepsPerMM  float64
	mmPerStep   float64
	maxVelocity float64
	xLimits     Limits
	yLimits     Limits
	yOffset     float64
}

// New derives a Physical from the given Geometry.
func New(g Geometry) *Physical {
	spoolCircumference := g.SpoolRadius * 2.0 * math.Pi
	stepsPerMM := float64(g.MotorStepsPerRev) * g.GearRatio / spoolCircumference
	maxRevsPerSecond := g.MaxRPM / 60.0
	maxStepsPerSecond := maxRevsPerSecond * float64(g.MotorStepsPerRev)
	maxVelocity := maxStepsPerSecond / stepsPerMM
	return &Physical{
		motorPos:    g.MotorPos,
		stepsPerMM:  stepsPerMM,
		mmPerStep:   1.0 / stepsPerMM,
		maxVelocity: maxVelocity,
		xLimits:     g.XLimits,
		yLimits:     g.YLimits,
		yOffset:     g.YOffset,
	}
}

// StepsPerMM returns the derived steps-per-millimetre constant.
func (p *Physical) StepsPerMM() float64 { return p.stepsPerMM }

// MMPerStep returns the derived millimetres-per-step constant.
func (p *Physical) MMPerStep() float64 { return p.mmPerStep }

// MaxVelocity returns the maximum cable-length velocity in mm/s.
func (p *Physical) MaxVelocity() float64 { return p.maxVelocity }

// MotorPosition returns the anchor point of motor index (0 or 1).
func (p *Physical) MotorPosition(index int) position.MM { return p.motorPos[index] }

// InBounds tests whether mm lies in the allowed Cartesian rectangle.
func (p *Physical) InBounds(mm position.MM) bool {
	return mm.InBounds(p.xLimits.XMin, p.xLimits.XMax, p.yLimits.YMin+p.yOffset, p.yLimits.YMax+p.yOffset)
}

// MMToStep converts a millimetre distance to a (fractional) step count.
func (p *Physical) MMToStep(dist float64) float64 {
	return dist * p.stepsPerMM
}

// StepToMM converts an integer step count to a millimetre distance.
func (p *Physical) StepToMM(step int) float64 {
	return float64(step) * p.mmPerStep
}

// InverseFloat returns the ideal (unrounded) per-motor cable length, in
// steps, for the given pen position.
func (p *Physical) InverseFloat(mm position.MM) position.StepFloat {
	r0 := p.motorPos[0].Dist(mm)
	r1 := p.motorPos[1].Dist(mm)
	return position.StepFloat{L: p.MMToStep(r0), R: p.MMToStep(r1)}
}

// Inverse returns the rounded per-motor step count for the given pen
// position. It implements position.Kinematics.
func (p *Physical) Inverse(mm position.MM) position.Step {
	return p.InverseFloat(mm).Round()
}

// Forward solves the pen position from the pair of integer step
// counts. It implements position.Kinematics.
//
// With anchors m_L=(x_L,y_a) and m_R=(x_R,y_a) sharing the same y
// coordinate, the two circle equations
//
//	r_L^2 = (x-x_L)^2 + (y-y_a)^2
//	r_R^2 = (x-x_R)^2 + (y-y_a)^2
//
// solve in closed form for x, and the pen-below-anchor branch of the
// square root gives y.
func (p *Physical) Forward(step position.Step) (position.MM, error) {
	rL := p.StepToMM(step.L)
	rR := p.StepToMM(step.R)
	xL := p.motorPos[0].X
	xR := p.motorPos[1].X
	yA := p.motorPos[0].Y
	x := (rL*rL-rR*rR)/(2.0*(xR-xL)) + (xR+xL)/2.0
	radicand := rL*rL - (x-xL)*(x-xL)
	if radicand < 0 {
		return position.MM{}, fmt.Errorf("physical: unreachable step pair (%d, %d): negative radicand", step.L, step.R)
	}
	y := yA - math.Sqrt(radicand)
	return position.MM{X: x, Y: y}, nil
}
