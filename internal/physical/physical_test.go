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

package physical

import (
	"math"
	"testing"

	"github.com/jpursell/eveline/internal/position"
)

func almostEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v (tol %v)", msg, got, want, tol)
	}
}

func TestRoundTrip(t *testing.T) {
	p := New(DefaultGeometry())
	mm := position.MM{X: 148.5, Y: 200.0}
	step := p.Inverse(mm)
	got, err := p.Forward(step)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	almostEqual(t, got.X, mm.X, 0.03, "x")
	almostEqual(t, got.Y, mm.Y, 0.03, "y")
}

func TestRoundTripWithinHalfStep(t *testing.T) {
	p := New(DefaultGeometry())
	for _, mm := range []position.MM{
		{X: 148.5, Y: 200.0},
		{X: 60.0, Y: 100.0},
		{X: 250.0, Y: 300.0},
	} {
		step := p.Inverse(mm)
		got, err := p.Forward(step)
		if err != nil {
			t.Fatalf("Forward(%v): %v", mm, err)
		}
		if got.Dist(mm) > 0.5*p.MMPerStep()+1e-6 {
			t.Errorf("round trip of %v drifted by %v mm, want <= 0.5*mm_per_step (%v)", mm, got.Dist(mm), 0.5*p.MMPerStep())
		}
	}
}

func TestForwardUnreachableStepPair(t *testing.T) {
	p := New(DefaultGeometry())
	_, err := p.Forward(position.Step{L: 0, R: 100000})
	if err == nil {
		t.Fatalf("expected error for unreachable step pair")
	}
}

func TestInBounds(t *testing.T) {
	p := New(DefaultGeometry())
	if !p.InBounds(position.MM{X: 148.5, Y: 200.0}) {
		t.Errorf("expected center of paper to be in bounds")
	}
	if p.InBounds(position.MM{X: -10, Y: 200}) {
		t.Errorf("expected x=-10 to be out of bounds")
	}
}
