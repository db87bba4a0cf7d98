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

// Package position holds the millimetre and step representations of a
// pen location, and the pair kept consistent between the two.
package position

import "math"

// MM is a Cartesian point expressed in millimetres.
type MM struct {
	X, Y float64
}

// Dist returns the Euclidean distance in mm between p and other.
func (p MM) Dist(other MM) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Direction returns the unit vector pointing from p to other.
// The result is undefined if p == other.
func (p MM) Direction(other MM) (dx, dy float64) {
	d := p.Dist(other)
	return (other.X - p.X) / d, (other.Y - p.Y) / d
}

// Offset returns p moved by amount mm along the given unit direction.
func (p MM) Offset(amount, dx, dy float64) MM {
	return MM{X: p.X + dx*amount, Y: p.Y + dy*amount}
}

// InBounds reports whether p lies within the closed rectangle
// [xMin,xMax] x [yMin,yMax].
func (p MM) InBounds(xMin, xMax, yMin, yMax float64) bool {
	if p.X < xMin || p.X > xMax {
		return false
	}
	if p.Y < yMin || p.Y > yMax {
		return false
	}
	return true
}

// Step is the pair of integer step counts commanded to the two motors.
// Both counts are conceptually non-negative cable lengths in steps.
type Step struct {
	L, R int
}

// Lengthen increments the given axis (0 = L, 1 = R).
func (s *Step) Lengthen(axis int) {
	if axis == 0 {
		s.L++
	} else {
		s.R++
	}
}

// Shorten decrements the given axis (0 = L, 1 = R).
func (s *Step) Shorten(axis int) {
	if axis == 0 {
		s.L--
	} else {
		s.R--
	}
}

// Get returns the step count for the given axis (0 = L, 1 = R).
func (s Step) Get(axis int) int {
	if axis == 0 {
		return s.L
	}
	return s.R
}

// StepFloat is the floating-point analog of Step, used for ideal
// (not-yet-rounded) cable lengths along a trajectory.
type StepFloat struct {
	L, R float64
}

// Get returns the value for the given axis (0 = L, 1 = R).
func (s StepFloat) Get(axis int) float64 {
	if axis == 0 {
		return s.L
	}
	return s.R
}

// Round converts a StepFloat to the nearest Step.
func (s StepFloat) Round() Step {
	return Step{L: int(math.Round(s.L)), R: int(math.Round(s.R))}
}

// Kinematics converts between millimetres and motor step counts. It is
// satisfied by *physical.Physical; the interface lives here, rather than
// a dependency on the physical package, so Position stays a leaf type.
type Kinematics interface {
	Inverse(mm MM) Step
	Forward(step Step) (MM, error)
}

// Position is a pen location kept consistent in both millimetre and
// step representations. The invariant enforced at construction is
// step == kinematics.Inverse(mm); after stepping, callers reconstruct
// mm via kinematics.Forward(step).
type Position struct {
	MM   MM
	Step Step
}

// FromMM builds a Position from a millimetre location, deriving the
// step count via the supplied kinematics.
func FromMM(mm MM, k Kinematics) Position {
	return Position{MM: mm, Step: k.Inverse(mm)}
}

// FromStep builds a Position from a step count, deriving the
// millimetre location via the supplied kinematics.
func FromStep(step Step, k Kinematics) (Position, error) {
	mm, err := k.Forward(step)
	if err != nil {
		return Position{}, err
	}
	return Position{MM: mm, Step: step}, nil
}

// VeryCloseTo reports whether p is within two steps of other, per the
// "very-close-to" threshold used to skip zero-length moves.
func (p Position) VeryCloseTo(other MM, stepsPerMM float64) bool {
	return p.MM.Dist(other)*stepsPerMM < 2.0
}
