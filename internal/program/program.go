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

// Package program holds the plotter's instruction list model: an
// ordered sequence of Move/PenUp/PenDown/Comment/NoOp instructions with
// bounding-box metadata, supporting rigid scaling, aspect-preserving
// fitting, and centring transforms.
package program

import (
	"fmt"
	"math"

	"github.com/jpursell/eveline/internal/position"
)

// Kind discriminates the variants of PlotterInstruction.
type Kind int

const (
	KindMove Kind = iota
	KindPenUp
	KindPenDown
	KindComment
	KindNoOp
)

// Instruction is one plotter instruction. Only the fields relevant to
// Kind are meaningful: MM for KindMove, Text for KindComment.
type Instruction struct {
	Kind Kind
	MM   position.MM
	Text string
}

func Move(mm position.MM) Instruction { return Instruction{Kind: KindMove, MM: mm} }
func PenUp() Instruction              { return Instruction{Kind: KindPenUp} }
func PenDown() Instruction            { return Instruction{Kind: KindPenDown} }
func Comment(text string) Instruction { return Instruction{Kind: KindComment, Text: text} }
func NoOp() Instruction               { return Instruction{Kind: KindNoOp} }

// AxisLimit is a non-empty closed interval [Min, Max].
type AxisLimit struct {
	Min, Max float64
}

// Extent returns Max - Min.
func (a AxisLimit) Extent() float64 { return a.Max - a.Min }

// Center returns the midpoint of the interval.
func (a AxisLimit) Center() float64 { return (a.Min + a.Max) / 2.0 }

// Contains reports whether other lies within a (within epsilon).
func (a AxisLimit) Contains(other AxisLimit, eps float64) bool {
	return other.Min >= a.Min-eps && other.Max <= a.Max+eps
}

// Program is an ordered list of plotter instructions together with the
// tight bounding box of its Move instructions.
type Program struct {
	instructions []Instruction
	xLimits      AxisLimit
	yLimits      AxisLimit
	cursor       int
}

// New builds a Program from an instruction list, computing its
// bounding box from the Move instructions it contains.
func New(instructions []Instruction) *Program {
	p := &Program{instructions: instructions}
	p.recomputeBounds()
	return p
}

func (p *Program) recomputeBounds() {
	first := true
	for _, inst := range p.instructions {
		if inst.Kind != KindMove {
			continue
		}
		if first {
			p.xLimits = AxisLimit{Min: inst.MM.X, Max: inst.MM.X}
			p.yLimits = AxisLimit{Min: inst.MM.Y, Max: inst.MM.Y}
			first = false
			continue
		}
		if inst.MM.X < p.xLimits.Min {
			p.xLimits.Min = inst.MM.X
		}
		if inst.MM.X > p.xLimits.Max {
			p.xLimits.Max = inst.MM.X
		}
		if inst.MM.Y < p.yLimits.Min {
			p.yLimits.Min = inst.MM.Y
		}
		if inst.MM.Y > p.yLimits.Max {
			p.yLimits.Max = inst.MM.Y
		}
	}
}

// Instructions returns a copy of the full instruction list, leaving
// the advance cursor untouched. Intended for read-only consumers such
// as a preview renderer.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.instructions))
	copy(out, p.instructions)
	return out
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.instructions) }

// Cursor returns the current advance position, in [0, Len()].
func (p *Program) Cursor() int { return p.cursor }

// Reset sets the cursor back to 0.
func (p *Program) Reset() { p.cursor = 0 }

// Advance returns the next instruction and increments the cursor, or
// reports ok=false when the program is exhausted.
func (p *Program) Advance() (inst Instruction, ok bool) {
	if p.cursor >= len(p.instructions) {
		return Instruction{}, false
	}
	inst = p.instructions[p.cursor]
	p.cursor++
	return inst, true
}

// XLimits returns the program's tight x bounding box.
func (p *Program) XLimits() AxisLimit { return p.xLimits }

// YLimits returns the program's tight y bounding box.
func (p *Program) YLimits() AxisLimit { return p.yLimits }

// WithinLimits reports whether the program's bounding box fits inside
// the given paper limits (within eps).
func (p *Program) WithinLimits(paperX, paperY AxisLimit, eps float64) bool {
	return paperX.Contains(p.xLimits, eps) && paperY.Contains(p.yLimits, eps)
}

const scaleEpsilon = 1e-6

// ScaleAxis rescales the x or y axis (axis == 0 for x, 1 for y) so its
// bounds map linearly onto target. The transform is the affine
// v -> v*k + b with k = target.Extent()/cur.Extent(),
// b = target.Min - cur.Min*k. Bounds are recomputed from the
// transformed instructions and verified against target.
func (p *Program) ScaleAxis(target AxisLimit, axis int) error {
	var cur AxisLimit
	if axis == 0 {
		cur = p.xLimits
	} else {
		cur = p.yLimits
	}
	if cur.Extent() == 0 {
		return fmt.Errorf("program: cannot scale a degenerate axis with zero extent")
	}
	k := target.Extent() / cur.Extent()
	b := target.Min - cur.Min*k

	p.transformAxis(axis, k, b)
	p.recomputeBounds()

	var got AxisLimit
	if axis == 0 {
		got = p.xLimits
	} else {
		got = p.yLimits
	}
	if math.Abs(got.Min-target.Min) > scaleEpsilon || math.Abs(got.Max-target.Max) > scaleEpsilon {
		return fmt.Errorf("program: scale post-condition not met: got %v, want %v", got, target)
	}
	return nil
}

func (p *Program) transformAxis(axis int, k, b float64) {
	for i, inst := range p.instructions {
		if inst.Kind != KindMove {
			continue
		}
		if axis == 0 {
			p.instructions[i].MM.X = inst.MM.X*k + b
		} else {
			p.instructions[i].MM.Y = inst.MM.Y*k + b
		}
	}
}

// ScaleKeepAspect computes independent affine transforms for x and y,
// takes the smaller scale factor for both axes, and translates each
// axis so the program is centred within its target interval.
// Postcondition: the new bounds are contained within targetX x targetY.
func (p *Program) ScaleKeepAspect(targetX, targetY AxisLimit) error {
	if p.xLimits.Extent() == 0 || p.yLimits.Extent() == 0 {
		return fmt.Errorf("program: cannot scale-keep-aspect a degenerate program")
	}
	kx := targetX.Extent() / p.xLimits.Extent()
	ky := targetY.Extent() / p.yLimits.Extent()
	k := math.Min(kx, ky)

	newXExtent := p.xLimits.Extent() * k
	newYExtent := p.yLimits.Extent() * k
	bx := targetX.Center() - newXExtent/2.0 - p.xLimits.Min*k
	by := targetY.Center() - newYExtent/2.0 - p.yLimits.Min*k

	p.transformAxis(0, k, bx)
	p.transformAxis(1, k, by)
	p.recomputeBounds()

	if !targetX.Contains(p.xLimits, scaleEpsilon) || !targetY.Contains(p.yLimits, scaleEpsilon) {
		return fmt.Errorf("program: scale-keep-aspect overflowed target bounds: x=%v (target %v), y=%v (target %v)", p.xLimits, targetX, p.yLimits, targetY)
	}
	return nil
}

// CenterKeepAspect translates the program (no scaling) so it is
// centred within targetX x targetY. It fails if the program's bounding
// box is wider than the target on either axis.
func (p *Program) CenterKeepAspect(targetX, targetY AxisLimit) error {
	if p.xLimits.Extent() > targetX.Extent()+scaleEpsilon || p.yLimits.Extent() > targetY.Extent()+scaleEpsilon {
		return fmt.Errorf("program: too large to center: program %vx%v does not fit target %vx%v",
			p.xLimits.Extent(), p.yLimits.Extent(), targetX.Extent(), targetY.Extent())
	}
	bx := targetX.Center() - p.xLimits.Center()
	by := targetY.Center() - p.yLimits.Center()
	p.transformAxis(0, 1, bx)
	p.transformAxis(1, 1, by)
	p.recomputeBounds()
	return nil
}
