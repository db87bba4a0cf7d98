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

package gcode

import (
	"strings"
	"testing"

	"github.com/jpursell/eveline/internal/position"
	"github.com/jpursell/eveline/internal/program"
)

func TestCarryForward(t *testing.T) {
	input := "G0 X10 Y20\nG1 X15\nG1 Y25\n"
	p := NewParser()
	insts, err := p.ParseAll(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	want := []position.MM{{X: 10, Y: 20}, {X: 15, Y: 20}, {X: 15, Y: 25}}
	if len(insts) != len(want) {
		t.Fatalf("got %d instructions, want %d: %+v", len(insts), len(want), insts)
	}
	for i, inst := range insts {
		if inst.Kind != program.KindMove {
			t.Fatalf("instruction %d: expected Move, got %v", i, inst.Kind)
		}
		if inst.MM != want[i] {
			t.Errorf("instruction %d: got %+v, want %+v", i, inst.MM, want[i])
		}
	}
}

func TestPenUpDown(t *testing.T) {
	p := NewParser()
	down, err := p.ParseLine("G1 Z0")
	if err != nil || down.Kind != program.KindPenDown {
		t.Fatalf("Z0 -> PenDown, got %+v err=%v", down, err)
	}
	up, err := p.ParseLine("G1 Z5")
	if err != nil || up.Kind != program.KindPenUp {
		t.Fatalf("Z5 -> PenUp, got %+v err=%v", up, err)
	}
}

func TestHousekeepingComments(t *testing.T) {
	p := NewParser()
	for _, line := range []string{"G21", "G90", "G28"} {
		inst, err := p.ParseLine(line)
		if err != nil {
			t.Fatalf("%s: %v", line, err)
		}
		if inst.Kind != program.KindComment {
			t.Errorf("%s: expected Comment, got %v", line, inst.Kind)
		}
	}
}

func TestParenComment(t *testing.T) {
	p := NewParser()
	inst, err := p.ParseLine("(set speed)")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if inst.Kind != program.KindComment || inst.Text != "set speed" {
		t.Errorf("got %+v, want Comment(\"set speed\")", inst)
	}
}

func TestFeedOnlyIsComment(t *testing.T) {
	p := NewParser()
	inst, err := p.ParseLine("G1 F8000")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if inst.Kind != program.KindComment {
		t.Errorf("expected a Comment for a feed-only move, got %+v", inst)
	}
}

func TestBlankLineIsNoOp(t *testing.T) {
	p := NewParser()
	inst, err := p.ParseLine("   ")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if inst.Kind != program.KindNoOp {
		t.Errorf("expected NoOp for a blank line, got %+v", inst)
	}
}

func TestMalformedZWithXY(t *testing.T) {
	p := NewParser()
	_, err := p.ParseLine("G1 X10 Z0")
	var malformed *MalformedProgram
	if err == nil {
		t.Fatal("expected MalformedProgram for Z combined with X")
	}
	if !asMalformed(err, &malformed) {
		t.Errorf("expected *MalformedProgram, got %T: %v", err, err)
	}
}

func TestMalformedNegativeZ(t *testing.T) {
	p := NewParser()
	_, err := p.ParseLine("G1 Z-1")
	if err == nil {
		t.Fatal("expected MalformedProgram for negative Z")
	}
}

func TestMalformedLeadingMoveLacksAxes(t *testing.T) {
	p := NewParser()
	_, err := p.ParseLine("G1")
	if err == nil {
		t.Fatal("expected MalformedProgram for a move with no axes and no carried state")
	}
}

func TestMalformedUnrecognizedGNumber(t *testing.T) {
	p := NewParser()
	_, err := p.ParseLine("G99 X1 Y1")
	if err == nil {
		t.Fatal("expected MalformedProgram for an unrecognized G-number")
	}
}

func TestMalformedUnrecognizedLetter(t *testing.T) {
	p := NewParser()
	_, err := p.ParseLine("G1 X10 Y20 Q5")
	if err == nil {
		t.Fatal("expected MalformedProgram for an unrecognized axis letter")
	}
}

func asMalformed(err error, target **MalformedProgram) bool {
	if m, ok := err.(*MalformedProgram); ok {
		*target = m
		return true
	}
	return false
}
