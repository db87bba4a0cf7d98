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

package motor

import "math"

// halfStepSequence is the classic 8-state half-step energization table
// for a 4-wire unipolar stepper: each row is the (pin0..pin3) levels
// for one phase. Advancing one row is one half step.
var halfStepSequence = [8][4]int{
	{1, 0, 0, 0},
	{1, 1, 0, 0},
	{0, 1, 0, 0},
	{0, 1, 1, 0},
	{0, 0, 1, 0},
	{0, 0, 1, 1},
	{0, 0, 0, 1},
	{1, 0, 0, 1},
}

// HalfStepEnergizer drives four on/off pins through the 8-phase
// half-step table. StepDivision is 2 (8 phases = 4*2), matching the
// default half-step microstep mode.
type HalfStepEnergizer struct{}

func (HalfStepEnergizer) StepDivision() int { return 2 }

func (HalfStepEnergizer) Energize(pins [4]Setter, phase int) error {
	seq := halfStepSequence[phase&7]
	for i, pin := range pins {
		if err := pin.Set(seq[i]); err != nil {
			return err
		}
	}
	return nil
}

// PWMSetter extends Setter with fractional duty-cycle output, for
// drivers that can hold a pin at an intermediate level between two
// full phases.
type PWMSetter interface {
	Setter
	SetDutyCycle(duty float64) error
}

// FractionalEnergizer generalizes the step engine to an arbitrary
// microstep division greater than the half-step default, blending two
// adjacent phase pins with a sine-weighted duty cycle exactly as
// derived in the original's update_pins for STEP_DIVISION > 2: phase
// is split into a main pin (held on or carrying the falling edge of
// the blend) and a secondary pin (carrying the rising edge), with the
// crossover at StepDivision/2.
type FractionalEnergizer struct {
	Division int
	PWM      [4]PWMSetter
}

func (f FractionalEnergizer) StepDivision() int { return f.Division }

func (f FractionalEnergizer) Energize(pins [4]Setter, phase int) error {
	numPins := len(pins)
	mainPin := (phase / f.Division) % numPins
	secondaryPin := (mainPin + 1) % numPins
	sub := phase % f.Division
	var onPin, pwmPin int
	var duty float64
	if sub < f.Division/2 {
		onPin, pwmPin = mainPin, secondaryPin
		duty = math.Sin(float64(sub) / float64(f.Division) * math.Pi)
	} else {
		onPin, pwmPin = secondaryPin, mainPin
		duty = math.Sin(float64(f.Division-sub) / float64(f.Division) * math.Pi)
	}
	for i := range pins {
		if i == onPin {
			if err := pins[i].Set(1); err != nil {
				return err
			}
		} else if i != pwmPin {
			if err := pins[i].Set(0); err != nil {
				return err
			}
		}
	}
	return f.PWM[pwmPin].SetDutyCycle(duty)
}
