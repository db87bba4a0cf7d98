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

// Package gcode streams a Marlin/pen-plotter subset of G-code into
// program.Instruction values: G0/G1 moves (with X/Y carry-forward and
// Z-as-pen-state), G21/G90/G28 housekeeping comments, and parenthesised
// comments.
package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jpursell/eveline/internal/position"
	"github.com/jpursell/eveline/internal/program"
)

// MalformedProgram reports a G-code block that cannot be lowered into
// a plotter instruction.
type MalformedProgram struct {
	Line   string
	Reason string
}

func (e *MalformedProgram) Error() string {
	return fmt.Sprintf("gcode: malformed program at %q: %s", e.Line, e.Reason)
}

// word is one letter/number pair parsed from a block, e.g. "X15.254".
type word struct {
	letter byte
	value  string
}

// Parser streams G-code blocks and lowers them into program
// instructions, carrying forward the last-seen X/Y coordinate across
// single-axis moves as the Marlin convention requires.
type Parser struct {
	lastX, lastY float64
	haveX, haveY bool
}

// NewParser returns a Parser with no carried-forward coordinate state.
func NewParser() *Parser {
	return &Parser{}
}

// ParseAll reads every block from r and returns the resulting
// instructions, with NoOp blocks filtered out. It stops at the first
// MalformedProgram error.
func (p *Parser) ParseAll(r io.Reader) ([]program.Instruction, error) {
	var out []program.Instruction
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		inst, err := p.ParseLine(line)
		if err != nil {
			return nil, err
		}
		if inst.Kind == program.KindNoOp {
			continue
		}
		out = append(out, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gcode: reading input: %w", err)
	}
	return out, nil
}

// ParseLine lowers a single line of text into one instruction. A blank
// line, or a line consisting only of whitespace, yields NoOp.
func (p *Parser) ParseLine(line string) (program.Instruction, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return program.NoOp(), nil
	}

	if comment, rest, ok := extractComment(trimmed); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return program.Comment(comment), nil
		}
		// A comment sharing a line with a command is dropped: only the
		// command part is parsed, and the comment text is not kept.
		trimmed = rest
	}

	words, err := tokenize(trimmed)
	if err != nil {
		return program.Instruction{}, &MalformedProgram{Line: line, Reason: err.Error()}
	}
	if len(words) == 0 {
		return program.NoOp(), nil
	}

	head := words[0]
	if head.letter != 'G' {
		return program.Instruction{}, &MalformedProgram{Line: line, Reason: fmt.Sprintf("expected a G-word, got %q", string(head.letter))}
	}
	gnum, err := strconv.Atoi(head.value)
	if err != nil {
		return program.Instruction{}, &MalformedProgram{Line: line, Reason: fmt.Sprintf("bad G-number %q", head.value)}
	}

	switch gnum {
	case 21:
		return program.Comment("G21: units set to millimetres"), nil
	case 90:
		return program.Comment("G90: absolute positioning"), nil
	case 28:
		return program.Comment("G28: home"), nil
	case 0, 1:
		return p.lowerMove(line, words[1:])
	default:
		return program.Instruction{}, &MalformedProgram{Line: line, Reason: fmt.Sprintf("unrecognized G-number G%d", gnum)}
	}
}

func (p *Parser) lowerMove(line string, rest []word) (program.Instruction, error) {
	var x, y, z, f *float64
	for _, w := range rest {
		v, err := strconv.ParseFloat(w.value, 64)
		if err != nil {
			return program.Instruction{}, &MalformedProgram{Line: line, Reason: fmt.Sprintf("bad number for %q: %v", string(w.letter), err)}
		}
		switch w.letter {
		case 'X':
			x = &v
		case 'Y':
			y = &v
		case 'Z':
			z = &v
		case 'F':
			f = &v
		default:
			return program.Instruction{}, &MalformedProgram{Line: line, Reason: fmt.Sprintf("unrecognized axis letter %q", string(w.letter))}
		}
	}

	if z != nil {
		if x != nil || y != nil {
			return program.Instruction{}, &MalformedProgram{Line: line, Reason: "Z move may not also carry X or Y"}
		}
		if *z < 0 {
			return program.Instruction{}, &MalformedProgram{Line: line, Reason: "Z must be non-negative"}
		}
		if *z == 0 {
			return program.PenDown(), nil
		}
		return program.PenUp(), nil
	}

	if x != nil || y != nil {
		if x == nil {
			if !p.haveX {
				return program.Instruction{}, &MalformedProgram{Line: line, Reason: "single-axis move with no prior X to carry forward"}
			}
			x = &p.lastX
		}
		if y == nil {
			if !p.haveY {
				return program.Instruction{}, &MalformedProgram{Line: line, Reason: "single-axis move with no prior Y to carry forward"}
			}
			y = &p.lastY
		}
		p.lastX, p.haveX = *x, true
		p.lastY, p.haveY = *y, true
		return program.Move(position.MM{X: *x, Y: *y}), nil
	}

	if f != nil {
		return program.Comment(fmt.Sprintf("feed %g", *f)), nil
	}

	return program.Instruction{}, &MalformedProgram{Line: line, Reason: "a leading move lacks both axes"}
}

// extractComment splits a parenthesised comment out of a line, e.g.
// "(set speed)" or "G1 F8000 (set speed)". It returns ok=false, an
// empty comment and the original text both when no '(' is present and
// when the '(' is unterminated; in the latter case the stray '(' word
// is rejected as a MalformedProgram further down.
func extractComment(s string) (comment, rest string, ok bool) {
	l := strings.IndexByte(s, '(')
	if l < 0 {
		return "", s, false
	}
	r := strings.IndexByte(s[l:], ')')
	if r < 0 {
		return "", s, false
	}
	r += l
	comment = s[l+1 : r]
	rest = s[:l] + s[r+1:]
	return comment, rest, true
}

// tokenize splits a command line into letter/value words, e.g.
// "G1 F8000" -> [{G,1} {F,8000}]. Letters are upper-cased to accept
// case-insensitive input per the operator-dialog rule.
func tokenize(s string) ([]word, error) {
	fields := strings.Fields(s)
	words := make([]word, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			return nil, fmt.Errorf("malformed word %q", f)
		}
		letter := strings.ToUpper(f[:1])[0]
		words = append(words, word{letter: letter, value: f[1:]})
	}
	return words, nil
}
