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

// Command eveline drives a two-motor cable plotter: it loads machine
// geometry and pin assignments from a config file, optionally streams
// a G-code file into a plotter program, and runs the operator-facing
// mode state machine to completion or until signalled.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jpursell/eveline/internal/controller"
	"github.com/jpursell/eveline/internal/gcode"
	"github.com/jpursell/eveline/internal/motor"
	"github.com/jpursell/eveline/internal/physical"
	"github.com/jpursell/eveline/internal/plotterconfig"
	"github.com/jpursell/eveline/internal/predictor"
	"github.com/jpursell/eveline/internal/program"
	"github.com/jpursell/eveline/internal/scurve"
	"github.com/jpursell/eveline/internal/stepio"
)

var (
	configFile  = flag.String("config", "", "Configuration file")
	gcodePath   = flag.String("gcode-path", "", "Optional G-code file to load as the initial program")
	previewPath = flag.String("preview", "", "Optional JPEG path to write a path preview to after each run")
)

func main() {
	flag.Parse()
	if *configFile == "" {
		log.Fatalf("-config is required")
	}
	mc, err := plotterconfig.Load(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}

	leftSetters, leftPins, err := stepio.Pins(mc.LeftPins)
	if err != nil {
		log.Fatalf("left motor: %v", err)
	}
	rightSetters, rightPins, err := stepio.Pins(mc.RightPins)
	if err != nil {
		log.Fatalf("right motor: %v", err)
	}
	defer closeAll(leftPins)
	defer closeAll(rightPins)

	var leftEngine, rightEngine motor.Energizer
	if mc.StepDivision > 2 {
		carrier := time.Millisecond
		leftEngine = motor.FractionalEnergizer{Division: mc.StepDivision, PWM: pwmWrap(leftSetters, carrier)}
		rightEngine = motor.FractionalEnergizer{Division: mc.StepDivision, PWM: pwmWrap(rightSetters, carrier)}
	} else {
		leftEngine = motor.HalfStepEnergizer{}
		rightEngine = motor.HalfStepEnergizer{}
	}

	motors := [2]*motor.Motor{
		motor.New(motor.Left, leftSetters, leftEngine, mc.MinStepInterval),
		motor.New(motor.Right, rightSetters, rightEngine, mc.MinStepInterval),
	}

	p := physical.New(mc.Geometry)
	solver := scurve.NewSolver(p, mc.MaxAcceleration, mc.MaxJerk)
	pred := predictor.New(p.MaxVelocity() * p.StepsPerMM())

	c := controller.New(p, motors, solver, pred, nil, os.Stdin, os.Stdout)
	if *previewPath != "" {
		c.SetPreviewPath(*previewPath)
	}

	if *gcodePath != "" {
		f, err := os.Open(*gcodePath)
		if err != nil {
			log.Fatalf("%s: %v", *gcodePath, err)
		}
		insts, err := gcode.NewParser().ParseAll(f)
		f.Close()
		if err != nil {
			log.Fatalf("%s: %v", *gcodePath, err)
		}
		c.SetProgram(program.New(insts))
		fmt.Printf("loaded %d instructions from %s\n", len(insts), *gcodePath)
	}

	running := int32(1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		atomic.StoreInt32(&running, 0)
	}()

	if mc.AbortPin != nil {
		watcher, err := stepio.NewEdgeWatcher(*mc.AbortPin)
		if err != nil {
			log.Fatalf("abort pin %d: %v", *mc.AbortPin, err)
		}
		defer watcher.Close()
		go func() {
			for atomic.LoadInt32(&running) == 1 {
				if _, err := watcher.Wait(); err != nil {
					return
				}
				atomic.StoreInt32(&running, 0)
			}
		}()
	}

	for atomic.LoadInt32(&running) == 1 {
		if err := c.Tick(); err != nil {
			log.Printf("controller: %v", err)
			break
		}
	}
}

func closeAll(pins []*stepio.Pin) {
	for _, p := range pins {
		p.Close()
	}
}

// pwmWrap wraps each already-opened output pin in a software PWM
// controller, giving the FractionalEnergizer a fractional duty cycle
// on hardware with no native PWM output.
func pwmWrap(pins [4]motor.Setter, carrier time.Duration) [4]motor.PWMSetter {
	var out [4]motor.PWMSetter
	for i, pin := range pins {
		out[i] = stepio.NewSoftwarePWM(pin, carrier)
	}
	return out
}
