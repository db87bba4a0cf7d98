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

// Package scurve implements the jerk-limited (7-segment S-curve)
// trajectory planner: given a start and end point it produces a
// time-parameterised scalar displacement profile respecting a
// configured maximum velocity, acceleration and jerk, and projects
// that displacement onto the straight line between the two points.
package scurve

import (
	"fmt"
	"math"
	"time"

	"github.com/jpursell/eveline/internal/position"
)

// VelocitySource supplies the maximum cable-length velocity the
// solver must respect. Satisfied by *physical.Physical.
type VelocitySource interface {
	MaxVelocity() float64
}

// Solver precomputes the jerk/acceleration sub-phase durations and the
// two critical distances that classify a segment into one of the three
// closed-form regimes. It is immutable after construction.
type Solver struct {
	maxVelocity     float64
	maxAcceleration float64
	maxJerk         float64
	tJ0             float64
	tV1             float64
	minDistCoast    float64
	minDistMid      float64
}

// NewSolver builds a Solver for the given velocity source and limits.
func NewSolver(v VelocitySource, maxAcceleration, maxJerk float64) *Solver {
	mv := v.MaxVelocity()
	ma := maxAcceleration
	mj := maxJerk
	tJ0 := math.Min(ma/mj, math.Sqrt(2.0*mv/mj))
	tV1 := (mv - mj*tJ0*tJ0) / ma

	minDistCoast := -ma*tJ0*tJ0/2.0 +
		mj*tJ0*tJ0*tJ0 +
		mj*tJ0*tJ0*tV1/2.0 +
		tJ0*(ma*tV1+mj*tJ0*tJ0/2.0) +
		tJ0*(ma*tV1+mj*tJ0*tJ0) +
		tV1*(ma*tV1+mj*tJ0*tJ0/2.0)
	minDistMid := -ma*tJ0*tJ0/2.0 + 5.0*mj*tJ0*tJ0*tJ0/2.0

	if minDistCoast < minDistMid {
		panic(fmt.Sprintf("scurve: inconsistent limits: minDistCoast (%v) < minDistMid (%v)", minDistCoast, minDistMid))
	}

	return &Solver{
		maxVelocity:     mv,
		maxAcceleration: ma,
		maxJerk:         mj,
		tJ0:             tJ0,
		tV1:             tV1,
		minDistCoast:    minDistCoast,
		minDistMid:      minDistMid,
	}
}

// Solve produces an S-curve that moves the pen from start to end.
// Callers must first check that the segment is not a zero-length move
// per position.Position.VeryCloseTo — Solve does not special-case it.
func (s *Solver) Solve(start, end position.MM) *SCurve {
	dist := start.Dist(end)
	switch {
	case dist >= s.minDistCoast:
		return s.solveCoast(start, end, dist)
	case dist > s.minDistMid:
		return s.solveMidAcceleration(start, end, dist)
	default:
		return s.solveTriangularJerk(start, end, dist)
	}
}

func (s *Solver) solveCoast(start, end position.MM, p float64) *SCurve {
	ma, mj, tJ0, tV1 := s.maxAcceleration, s.maxJerk, s.tJ0, s.tV1
	tC3 := (ma*tJ0*tJ0/2.0 -
		2.0*ma*tJ0*tV1 -
		ma*tV1*tV1 -
		5.0*mj*tJ0*tJ0*tJ0/2.0 -
		mj*tJ0*tJ0*tV1 +
		p) / (ma*tV1 + mj*tJ0*tJ0)
	return newCurve(start, end, tJ0, tV1, tC3, s)
}

func (s *Solver) solveMidAcceleration(start, end position.MM, p float64) *SCurve {
	ma, mj, tJ0 := s.maxAcceleration, s.maxJerk, s.tJ0
	radicand := 6.0*ma*ma*tJ0*tJ0 -
		6.0*ma*mj*tJ0*tJ0*tJ0 +
		4.0*ma*p +
		mj*mj*tJ0*tJ0*tJ0*tJ0
	tV1 := (-tJ0*(2.0*ma+mj*tJ0) + math.Sqrt(radicand)) / (2.0 * ma)
	if tV1 <= 0 {
		panic(fmt.Sprintf("scurve: mid-acceleration regime solved a non-positive t_v1 (%v) for distance %v; solver limits are inconsistent", tV1, p))
	}
	return newCurve(start, end, tJ0, tV1, 0, s)
}

func (s *Solver) solveTriangularJerk(start, end position.MM, p float64) *SCurve {
	tJ0 := math.Pow(2.0, 2.0/3.0) * math.Pow(p/s.maxJerk, 1.0/3.0) / 2.0
	return newCurve(start, end, tJ0, 0, 0, s)
}

// SCurve is a solved trajectory for one segment. It is immutable
// except for the wall-clock anchor, which is set on the first call to
// PositionAt/PositionNow or StatusAt/StatusNow.
type SCurve struct {
	start position.MM
	dirX  float64
	dirY  float64
	t     [7]float64
	v     [7]float64
	p     [7]float64
	aJ0   float64

	clock   func() time.Time
	started bool
	tStart  time.Time
}

func newCurve(start, end position.MM, tJ0, tV1, tC3 float64, s *Solver) *SCurve {
	c := &SCurve{start: start, clock: time.Now}
	c.dirX, c.dirY = start.Direction(end)

	c.t[0] = tJ0
	c.t[1] = c.t[0] + tV1
	c.t[2] = c.t[1] + tJ0
	c.t[3] = c.t[2] + tC3
	c.t[4] = c.t[3] + tJ0
	c.t[5] = c.t[4] + tV1
	c.t[6] = c.t[5] + tJ0

	ma, mj := s.maxAcceleration, s.maxJerk
	c.aJ0 = mj * tJ0
	c.v[0] = mj * tJ0 * tJ0 / 2.0
	c.p[0] = mj * tJ0 * tJ0 * tJ0 / 6.0
	c.v[1] = c.v[0] + ma*tV1
	c.p[1] = c.p[0] + c.v[0]*tV1 + ma*tV1*tV1/2.0
	c.v[2] = c.v[1] + c.aJ0*tJ0 - mj*tJ0*tJ0/2.0
	c.p[2] = c.p[1] + c.v[1]*tJ0 + c.aJ0*tJ0*tJ0/2.0 - mj*tJ0*tJ0*tJ0/6.0
	c.p[3] = c.p[2] + c.v[2]*tC3
	// v[3] == v[2]: the coast phase holds velocity constant.
	c.v[4] = c.v[2] - mj*tJ0*tJ0/2.0
	c.p[4] = c.p[3] + c.v[2]*tJ0 - mj*tJ0*tJ0*tJ0/6.0
	c.v[5] = c.v[4] - ma*tV1
	c.p[5] = c.p[4] + c.v[4]*tV1 - ma*tV1*tV1/2.0
	c.p[6] = c.p[5] + c.v[5]*tJ0 - c.aJ0*tJ0*tJ0/2.0 + mj*tJ0*tJ0*tJ0/6.0
	c.v[6] = 0

	return c
}

// Status reports whether the curve is still in motion.
type Status int

const (
	Moving Status = iota
	Stopped
)

// anchor returns the elapsed time since the curve's first query,
// starting the clock on first call.
func (c *SCurve) anchor(now time.Time) time.Duration {
	if !c.started {
		c.tStart = now
		c.started = true
	}
	return now.Sub(c.tStart)
}

// StatusNow reports Moving or Stopped as of the current time.
func (c *SCurve) StatusNow() Status {
	return c.StatusAt(c.clock())
}

// StatusAt reports Moving or Stopped as of the given time.
func (c *SCurve) StatusAt(now time.Time) Status {
	elapsed := c.anchor(now).Seconds()
	if elapsed >= c.t[6] {
		return Stopped
	}
	return Moving
}

// Total returns the curve's total duration.
func (c *SCurve) Total() time.Duration {
	return time.Duration(c.t[6] * float64(time.Second))
}

// PositionNow returns the ideal pen position at the current time.
func (c *SCurve) PositionNow(s *Solver) position.MM {
	return c.PositionAt(c.clock(), s)
}

// PositionAt returns the ideal pen position at the given time,
// evaluating the phase containing that time and projecting the
// resulting scalar displacement onto the segment direction.
func (c *SCurve) PositionAt(now time.Time, s *Solver) position.MM {
	elapsed := c.anchor(now).Seconds()
	disp := c.displacement(elapsed, s)
	return c.start.Offset(disp, c.dirX, c.dirY)
}

func (c *SCurve) displacement(elapsed float64, s *Solver) float64 {
	switch {
	case elapsed < c.t[0]:
		return s.maxJerk * elapsed * elapsed * elapsed / 6.0
	case elapsed < c.t[1]:
		t := elapsed - c.t[0]
		return c.p[0] + c.v[0]*t + s.maxAcceleration*t*t/2.0
	case elapsed < c.t[2]:
		t := elapsed - c.t[1]
		return c.p[1] + c.v[1]*t + c.aJ0*t*t/2.0 - s.maxJerk*t*t*t/6.0
	case elapsed < c.t[3]:
		t := elapsed - c.t[2]
		return c.p[2] + c.v[2]*t
	case elapsed < c.t[4]:
		t := elapsed - c.t[3]
		return c.p[3] + c.v[2]*t - s.maxJerk*t*t*t/6.0
	case elapsed < c.t[5]:
		t := elapsed - c.t[4]
		return c.p[4] + c.v[4]*t - s.maxAcceleration*t*t/2.0
	default:
		if elapsed > c.t[6] {
			elapsed = c.t[6]
		}
		t := elapsed - c.t[5]
		return c.p[5] + c.v[5]*t - c.aJ0*t*t/2.0 + s.maxJerk*t*t*t/6.0
	}
}

// TotalDistance returns p[6], the total scalar arc length planned,
// which should equal start.Dist(end) within the S-curve endpoint
// invariant.
func (c *SCurve) TotalDistance() float64 {
	return c.p[6]
}
