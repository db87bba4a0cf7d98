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

// Package motor implements a per-axis, rate-limited stepper motor: an
// integer step counter gated by a minimum-interval timer, translating
// {Lengthen, Shorten, Hold} instructions into step-engine pin energization.
package motor

import (
	"time"
)

// Instruction is one of the three per-tick directives the predictor
// emits for a motor.
type Instruction int

const (
	// Hold leaves the motor position unchanged.
	Hold Instruction = iota
	// Lengthen increases the cable length by one step.
	Lengthen
	// Shorten decreases the cable length by one step.
	Shorten
)

// Side identifies which cable this motor drives. Lengthen always means
// the cable gets longer regardless of Side; Side only determines which
// physical rotation direction accomplishes that.
type Side int

const (
	Left Side = iota
	Right
)

// Setter sets one physical output pin. Satisfied by *stepio.Pin.
type Setter interface {
	Set(v int) error
}

// Energizer maps a step-engine phase index to pin levels. StepDivision
// reports the number of phases this energizer cycles through per whole
// step; the phase counter advances modulo 4*StepDivision.
type Energizer interface {
	StepDivision() int
	Energize(pins [4]Setter, phase int) error
}

// Motor is a single rate-limited stepper axis.
type Motor struct {
	pins         [4]Setter
	side         Side
	energizer    Energizer
	phase        int
	position     int64
	minSecPerStep float64
	lastStep     time.Time
	clock        func() time.Time
}

// New creates a Motor driving the four given pins with the supplied
// energizer, gated to at most one step every minSecondsPerStep.
func New(side Side, pins [4]Setter, energizer Energizer, minSecondsPerStep float64) *Motor {
	return &Motor{
		pins:          pins,
		side:          side,
		energizer:     energizer,
		minSecPerStep: minSecondsPerStep,
		lastStep:      time.Time{},
		clock:         time.Now,
	}
}

// Position returns the current signed step count (lengthen = +1).
func (m *Motor) Position() int64 { return m.position }

// Step attempts to apply instruction. Hold always succeeds with no
// effect. Lengthen/Shorten succeed only if at least minSecondsPerStep
// has elapsed since the last accepted step; otherwise the motor is
// rate-limited and the caller must not assume the step occurred.
func (m *Motor) Step(instruction Instruction) (accepted bool, err error) {
	if instruction == Hold {
		return true, nil
	}
	now := m.clock()
	if !m.lastStep.IsZero() && now.Sub(m.lastStep).Seconds() < m.minSecPerStep {
		return false, nil
	}
	m.lastStep = now
	switch instruction {
	case Lengthen:
		err = m.rotate(m.side == Left)
		if err == nil {
			m.position++
		}
	case Shorten:
		err = m.rotate(m.side != Left)
		if err == nil {
			m.position--
		}
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// rotate advances the step-engine phase clockwise if cw, else
// counter-clockwise, and energizes the pins accordingly.
func (m *Motor) rotate(cw bool) error {
	div := m.energizer.StepDivision()
	modulus := 4 * div
	if cw {
		m.phase = (m.phase + 1) % modulus
	} else {
		m.phase = (m.phase - 1 + modulus) % modulus
	}
	return m.energizer.Energize(m.pins, m.phase)
}

// Save returns the current phase index, for restoring after a restart.
func (m *Motor) Save() int { return m.phase }

// Restore sets the phase index directly and re-energizes the pins.
func (m *Motor) Restore(phase int) error {
	div := m.energizer.StepDivision()
	m.phase = phase % (4 * div)
	return m.energizer.Energize(m.pins, m.phase)
}
