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

package stepio

import (
	"fmt"
	"time"

	"github.com/jpursell/eveline/internal/motor"
)

// SoftwarePWM bit-bangs a fractional duty cycle onto a motor.Setter pin
// from a dedicated goroutine, for driving FractionalEnergizer's
// secondary pin on hardware with no PWM-capable output. Implements
// motor.PWMSetter.
type SoftwarePWM struct {
	pin    motor.Setter
	period time.Duration
	c      chan pwmMsg
}

type pwmMsg struct {
	duty float64
	stop chan struct{}
}

// NewSoftwarePWM starts a SoftwarePWM bit-banging pin with the given
// carrier period. Close must be called to stop the goroutine.
func NewSoftwarePWM(pin motor.Setter, period time.Duration) *SoftwarePWM {
	p := &SoftwarePWM{pin: pin, period: period, c: make(chan pwmMsg, 1)}
	go p.run()
	return p
}

// Set implements motor.Setter: a hard on/off, sent through the carrier
// as a 0% or 100% duty cycle.
func (p *SoftwarePWM) Set(v int) error {
	duty := 0.0
	if v != 0 {
		duty = 1.0
	}
	return p.SetDutyCycle(duty)
}

// SetDutyCycle implements motor.PWMSetter. duty must be in [0, 1]; the
// change takes effect at the start of the next carrier period.
func (p *SoftwarePWM) SetDutyCycle(duty float64) error {
	if duty < 0 || duty > 1 {
		return fmt.Errorf("stepio: invalid duty cycle %v", duty)
	}
	p.c <- pwmMsg{duty: duty}
	return nil
}

// Close stops the bit-banging goroutine and leaves the pin low.
func (p *SoftwarePWM) Close() {
	stop := make(chan struct{})
	p.c <- pwmMsg{stop: stop}
	<-stop
}

func (p *SoftwarePWM) run() {
	var on, off time.Duration
	current := -1
	idle := true
	for {
		if on != 0 {
			if current != 1 {
				p.pin.Set(1)
				current = 1
			}
			time.Sleep(on)
		}
		if off != 0 {
			if current != 0 {
				p.pin.Set(0)
				current = 0
			}
			time.Sleep(off)
		}
		var m pwmMsg
		if idle {
			m = <-p.c
		} else {
			select {
			case m = <-p.c:
			default:
				continue
			}
		}
		if m.stop != nil {
			p.pin.Set(0)
			close(m.stop)
			return
		}
		on = time.Duration(float64(p.period) * m.duty)
		off = p.period - on
		idle = on == 0 && off == 0
	}
}
