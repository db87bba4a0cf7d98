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

// Command calibrate is an interactive, hardware-free dry run of the
// kinematics solver: given a config file, it accepts either "mm x,y"
// (a millimetre position) or "step L,R" (a step pair) and reports the
// other representation, to let an operator sanity-check machine geometry
// before driving real motors.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jpursell/eveline/internal/physical"
	"github.com/jpursell/eveline/internal/plotterconfig"
	"github.com/jpursell/eveline/internal/position"
)

var configFile = flag.String("config", "", "Configuration file")

func main() {
	flag.Parse()
	if *configFile == "" {
		log.Fatalf("-config is required")
	}
	mc, err := plotterconfig.Load(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	p := physical.New(mc.Geometry)

	fmt.Printf("steps/mm %.4f, mm/step %.4f, max velocity %.2f mm/s\n", p.StepsPerMM(), p.MMPerStep(), p.MaxVelocity())
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter \"mm x,y\", \"step L,R\", or 'q' to quit: ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		switch {
		case text == "q":
			return
		case strings.HasPrefix(text, "mm "):
			mm, err := parsePair(strings.TrimPrefix(text, "mm "))
			if err != nil {
				fmt.Printf("%v\n", err)
				continue
			}
			point := position.MM{X: mm[0], Y: mm[1]}
			step := p.Inverse(point)
			fmt.Printf("-> step L=%d R=%d (in bounds: %v)\n", step.L, step.R, p.InBounds(point))
		case strings.HasPrefix(text, "step "):
			lr, err := parsePair(strings.TrimPrefix(text, "step "))
			if err != nil {
				fmt.Printf("%v\n", err)
				continue
			}
			step := position.Step{L: int(lr[0]), R: int(lr[1])}
			mm, err := p.Forward(step)
			if err != nil {
				fmt.Printf("%v\n", err)
				continue
			}
			fmt.Printf("-> mm X=%.3f Y=%.3f (in bounds: %v)\n", mm.X, mm.Y, p.InBounds(mm))
		default:
			fmt.Println("unrecognized input; expected \"mm x,y\" or \"step L,R\"")
		}
	}
}

func parsePair(s string) ([2]float64, error) {
	a, b, found := strings.Cut(s, ",")
	if !found {
		return [2]float64{}, fmt.Errorf("expected \"a,b\", got %q", s)
	}
	af, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("bad first value: %v", err)
	}
	bf, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("bad second value: %v", err)
	}
	return [2]float64{af, bf}, nil
}
