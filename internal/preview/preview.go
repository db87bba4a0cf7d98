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

// Package preview renders a plotter program's path as a JPEG image for
// operator sanity-checking, the way the clock renders hand positions
// onto a clock face image.
package preview

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/fogleman/gg"

	"github.com/jpursell/eveline/internal/program"
)

// Options controls the rendered canvas size, margin, and optional
// backdrop.
type Options struct {
	Width, Height int
	Margin        float64
	// Background, if set, is decoded and drawn under the path, the way
	// the clock face JPEG is drawn under the hands.
	Background io.Reader
}

// DefaultOptions returns a reasonable default canvas.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 800, Margin: 20}
}

// Render draws the program's Move segments as connected line strokes,
// scaled and flipped to fit the canvas (paper y grows upward; image y
// grows downward), and writes the result to w as a JPEG.
func Render(p *program.Program, opt Options, w io.Writer) error {
	xl, yl := p.XLimits(), p.YLimits()
	xExtent, yExtent := xl.Extent(), yl.Extent()
	if xExtent <= 0 || yExtent <= 0 {
		return fmt.Errorf("preview: program has a degenerate bounding box")
	}

	usableW := float64(opt.Width) - 2*opt.Margin
	usableH := float64(opt.Height) - 2*opt.Margin
	scale := usableW / xExtent
	if s := usableH / yExtent; s < scale {
		scale = s
	}

	toCanvas := func(x, y float64) (float64, float64) {
		cx := opt.Margin + (x-xl.Min)*scale
		cy := opt.Margin + (yExtent-(y-yl.Min))*scale
		return cx, cy
	}

	var c *gg.Context
	if opt.Background != nil {
		bg, _, err := image.Decode(opt.Background)
		if err != nil {
			return fmt.Errorf("preview: background: %v", err)
		}
		c = gg.NewContextForImage(bg)
	} else {
		c = gg.NewContext(opt.Width, opt.Height)
		c.SetRGB(1, 1, 1)
		c.Clear()
	}
	c.SetRGB(0, 0, 0)
	c.SetLineWidth(1.0)

	penDown := false
	started := false
	for _, inst := range p.Instructions() {
		switch inst.Kind {
		case program.KindPenDown:
			penDown = true
		case program.KindPenUp:
			penDown = false
			started = false
		case program.KindMove:
			cx, cy := toCanvas(inst.MM.X, inst.MM.Y)
			if penDown && started {
				c.LineTo(cx, cy)
			} else {
				c.MoveTo(cx, cy)
			}
			started = true
		}
	}
	c.Stroke()

	c.SetRGB(0, 0, 0)
	label := fmt.Sprintf("%.0fx%.0fmm", xExtent, yExtent)
	c.DrawString(label, opt.Margin, float64(opt.Height)-opt.Margin/2)

	return jpeg.Encode(w, c.Image(), nil)
}
