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

package predictor

import (
	"testing"

	"github.com/jpursell/eveline/internal/motor"
	"github.com/jpursell/eveline/internal/position"
)

func TestDeadBand(t *testing.T) {
	p := New(100)
	current := position.Step{L: 1000, R: 1000}
	desired := position.StepFloat{L: 1000.4, R: 1001.6}

	pred := p.Predict(current, desired)
	if pred.Kind != KindMove {
		t.Fatalf("expected a move prediction, got %v", pred.Kind)
	}
	if pred.Left != motor.Hold {
		t.Errorf("expected left axis to Hold (remainder 0.4 within dead-band), got %v", pred.Left)
	}
	if pred.Right != motor.Lengthen {
		t.Errorf("expected right axis to Lengthen (remainder 1.6 exceeds dead-band), got %v", pred.Right)
	}
}

func TestShortenWhenBehind(t *testing.T) {
	p := New(100)
	current := position.Step{L: 1000, R: 1000}
	desired := position.StepFloat{L: 998.0, R: 1000.0}
	pred := p.Predict(current, desired)
	if pred.Kind != KindMove || pred.Left != motor.Shorten || pred.Right != motor.Hold {
		t.Fatalf("unexpected prediction: %+v", pred)
	}
}

func TestExactlyOneIsNotAMove(t *testing.T) {
	// Strict > 1 dead-band: a remainder of exactly 1.0 must Hold, to
	// give a symmetric dead-band that avoids oscillation at integer
	// boundaries.
	p := New(100)
	current := position.Step{L: 1000, R: 1000}
	desired := position.StepFloat{L: 1001.0, R: 999.0}
	pred := p.Predict(current, desired)
	if pred.Kind != KindWait {
		t.Fatalf("expected Wait when both remainders sit exactly at the dead-band edge, got %+v", pred)
	}
}

func TestWaitIsBoundedAndNonNegative(t *testing.T) {
	p := New(1) // slow approach rate to exercise the cap
	current := position.Step{L: 1000, R: 1000}
	desired := position.StepFloat{L: 1000.0, R: 1000.0}
	pred := p.Predict(current, desired)
	if pred.Kind != KindWait {
		t.Fatalf("expected Wait, got %+v", pred)
	}
	if pred.Wait < 0 || pred.Wait > MaxWait {
		t.Errorf("expected 0 <= wait <= %v, got %v", MaxWait, pred.Wait)
	}
}

func TestZeroApproachRateBusyWaits(t *testing.T) {
	p := New(0)
	pred := p.Predict(position.Step{L: 0, R: 0}, position.StepFloat{L: 0, R: 0})
	if pred.Kind != KindWait || pred.Wait != 0 {
		t.Errorf("expected a zero-duration busy-wait, got %+v", pred)
	}
}
