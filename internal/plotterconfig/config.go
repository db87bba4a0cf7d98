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

// Package plotterconfig reads the plotter's machine geometry, motion
// limits and GPIO pin assignments from a config file section, in the
// same key/value idiom the rest of the dependency pack uses.
package plotterconfig

import (
	"fmt"

	"github.com/aamcrae/config"

	"github.com/jpursell/eveline/internal/physical"
)

// MachineConfig collects everything read from the "plotter" section,
// plus per-motor GPIO pin assignments read from "left"/"right".
//
// Sample config file:
//
//	[plotter]
//	anchors=0.0,368.8,297.0,368.8
//	spool_radius=5.75
//	gear_ratio=59,17
//	motor_steps=100
//	max_rpm=100.0
//	x_limits=45.0,260.0
//	y_limits=50.0,328.0
//	y_offset=-15.0
//	max_acceleration=1e4
//	max_jerk=1e9
//	step_division=2
//	min_step_interval=0.002
//	abort_pin=26
//
//	[left]
//	pins=4,17,27,22
//
//	[right]
//	pins=5,6,13,19
type MachineConfig struct {
	Geometry        physical.Geometry
	MaxAcceleration float64
	MaxJerk         float64
	StepDivision    int
	MinStepInterval float64
	LeftPins        [4]int
	RightPins       [4]int
	// AbortPin, if non-nil, is a GPIO line watched for an edge (e.g. a
	// panic button) that aborts the run loop out of band. Optional: the
	// motion core works with no abort pin configured at all.
	AbortPin *int
}

// Load reads and validates the plotter configuration from the given
// config file path.
func Load(path string) (*MachineConfig, error) {
	conf, err := config.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("plotterconfig: %s: %v", path, err)
	}
	return fromConfig(conf)
}

func fromConfig(conf *config.Config) (*MachineConfig, error) {
	sect := conf.GetSection("plotter")
	if sect == nil {
		return nil, fmt.Errorf("plotterconfig: no [plotter] section")
	}
	var mc MachineConfig
	mc.Geometry = physical.DefaultGeometry()

	n, err := sect.Parse("anchors", "%f,%f,%f,%f",
		&mc.Geometry.MotorPos[0].X, &mc.Geometry.MotorPos[0].Y,
		&mc.Geometry.MotorPos[1].X, &mc.Geometry.MotorPos[1].Y)
	if err != nil {
		return nil, fmt.Errorf("anchors: %v", err)
	}
	if n != 4 {
		return nil, fmt.Errorf("anchors: argument count")
	}

	if _, err := sect.Parse("spool_radius", "%f", &mc.Geometry.SpoolRadius); err != nil {
		return nil, fmt.Errorf("spool_radius: %v", err)
	}

	var gearNum, gearDen float64
	n, err = sect.Parse("gear_ratio", "%f,%f", &gearNum, &gearDen)
	if err != nil {
		return nil, fmt.Errorf("gear_ratio: %v", err)
	}
	if n != 2 || gearDen == 0 {
		return nil, fmt.Errorf("gear_ratio: argument count")
	}
	mc.Geometry.GearRatio = (gearNum / gearDen) * (gearNum / gearDen)

	if _, err := sect.Parse("motor_steps", "%d", &mc.Geometry.MotorStepsPerRev); err != nil {
		return nil, fmt.Errorf("motor_steps: %v", err)
	}
	if _, err := sect.Parse("max_rpm", "%f", &mc.Geometry.MaxRPM); err != nil {
		return nil, fmt.Errorf("max_rpm: %v", err)
	}

	n, err = sect.Parse("x_limits", "%f,%f", &mc.Geometry.XLimits.XMin, &mc.Geometry.XLimits.XMax)
	if err != nil || n != 2 {
		return nil, fmt.Errorf("x_limits: %v", err)
	}
	n, err = sect.Parse("y_limits", "%f,%f", &mc.Geometry.YLimits.YMin, &mc.Geometry.YLimits.YMax)
	if err != nil || n != 2 {
		return nil, fmt.Errorf("y_limits: %v", err)
	}
	if _, err := sect.Parse("y_offset", "%f", &mc.Geometry.YOffset); err != nil {
		return nil, fmt.Errorf("y_offset: %v", err)
	}

	if _, err := sect.Parse("max_acceleration", "%f", &mc.MaxAcceleration); err != nil {
		return nil, fmt.Errorf("max_acceleration: %v", err)
	}
	if _, err := sect.Parse("max_jerk", "%f", &mc.MaxJerk); err != nil {
		return nil, fmt.Errorf("max_jerk: %v", err)
	}
	if _, err := sect.Parse("step_division", "%d", &mc.StepDivision); err != nil {
		return nil, fmt.Errorf("step_division: %v", err)
	}
	if _, err := sect.Parse("min_step_interval", "%f", &mc.MinStepInterval); err != nil {
		return nil, fmt.Errorf("min_step_interval: %v", err)
	}

	var abortPin int
	if n, err := sect.Parse("abort_pin", "%d", &abortPin); err == nil && n == 1 {
		mc.AbortPin = &abortPin
	}

	left := conf.GetSection("left")
	if left == nil {
		return nil, fmt.Errorf("plotterconfig: no [left] section")
	}
	n, err = left.Parse("pins", "%d,%d,%d,%d", &mc.LeftPins[0], &mc.LeftPins[1], &mc.LeftPins[2], &mc.LeftPins[3])
	if err != nil || n != 4 {
		return nil, fmt.Errorf("left pins: %v", err)
	}

	right := conf.GetSection("right")
	if right == nil {
		return nil, fmt.Errorf("plotterconfig: no [right] section")
	}
	n, err = right.Parse("pins", "%d,%d,%d,%d", &mc.RightPins[0], &mc.RightPins[1], &mc.RightPins[2], &mc.RightPins[3])
	if err != nil || n != 4 {
		return nil, fmt.Errorf("right pins: %v", err)
	}

	return &mc, nil
}
