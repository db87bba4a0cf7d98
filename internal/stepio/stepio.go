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

// Package stepio adapts the real github.com/aamcrae/gpio pins to the
// motor.Setter interface, replacing the teacher's local sysfs
// reimplementation with the actual external module the teacher's
// go.mod already declares.
package stepio

import (
	"fmt"

	"github.com/aamcrae/gpio"

	"github.com/jpursell/eveline/internal/motor"
)

// Pin wraps a single GPIO output pin as a motor.Setter.
type Pin struct {
	g *gpio.Gpio
}

// OutputPin opens GPIO number n as an output pin.
func OutputPin(n int) (*Pin, error) {
	g, err := gpio.OutputPin(n)
	if err != nil {
		return nil, fmt.Errorf("stepio: pin %d: %w", n, err)
	}
	return &Pin{g: g}, nil
}

// Set implements motor.Setter.
func (p *Pin) Set(v int) error {
	return p.g.Set(v)
}

// Close releases the underlying GPIO pin.
func (p *Pin) Close() {
	p.g.Close()
}

// Pins opens the four GPIO lines driving one motor's step engine, in
// the order the Energizer expects them.
func Pins(nums [4]int) ([4]motor.Setter, []*Pin, error) {
	var out [4]motor.Setter
	var raw []*Pin
	for i, n := range nums {
		p, err := OutputPin(n)
		if err != nil {
			for _, opened := range raw {
				opened.Close()
			}
			return out, nil, fmt.Errorf("stepio: motor pin %d: %w", i, err)
		}
		raw = append(raw, p)
		out[i] = p
	}
	return out, raw, nil
}

// EdgeWatcher opens GPIO number n as an input pin with both-edge
// detection enabled, for an out-of-band diagnostic (e.g. a limit
// switch or manual jog button). It is not part of the motion core and
// is never used for closed-loop position correction.
type EdgeWatcher struct {
	g *gpio.Gpio
}

// NewEdgeWatcher opens GPIO number n for edge-triggered polling.
func NewEdgeWatcher(n int) (*EdgeWatcher, error) {
	g, err := gpio.Pin(n)
	if err != nil {
		return nil, fmt.Errorf("stepio: edge watcher pin %d: %w", n, err)
	}
	if err := g.Edge(gpio.BOTH); err != nil {
		g.Close()
		return nil, fmt.Errorf("stepio: edge watcher pin %d: %w", n, err)
	}
	return &EdgeWatcher{g: g}, nil
}

// Wait blocks until the next edge and returns the pin's new level.
func (w *EdgeWatcher) Wait() (int, error) {
	return w.g.Get()
}

// Close releases the underlying GPIO pin.
func (w *EdgeWatcher) Close() {
	w.g.Close()
}
