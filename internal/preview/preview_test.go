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

package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/jpursell/eveline/internal/position"
	"github.com/jpursell/eveline/internal/program"
)

func TestRenderProducesJPEG(t *testing.T) {
	p := program.New([]program.Instruction{
		program.PenDown(),
		program.Move(position.MM{X: 0, Y: 0}),
		program.Move(position.MM{X: 100, Y: 50}),
		program.PenUp(),
	})
	var buf bytes.Buffer
	if err := Render(p, DefaultOptions(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Len() == 0 {
		t.Errorf("expected non-empty JPEG output")
	}
	// JPEG files start with the SOI marker 0xFFD8.
	got := buf.Bytes()
	if len(got) < 2 || got[0] != 0xFF || got[1] != 0xD8 {
		t.Errorf("expected a JPEG SOI marker, got %x", got[:2])
	}
}

func TestRenderRejectsDegenerateBoundingBox(t *testing.T) {
	p := program.New([]program.Instruction{program.Comment("no moves")})
	var buf bytes.Buffer
	if err := Render(p, DefaultOptions(), &buf); err == nil {
		t.Errorf("expected an error rendering a program with no Move instructions")
	}
}

func TestRenderWithBackgroundProducesJPEG(t *testing.T) {
	p := program.New([]program.Instruction{
		program.PenDown(),
		program.Move(position.MM{X: 0, Y: 0}),
		program.Move(position.MM{X: 100, Y: 50}),
	})
	bg := image.NewRGBA(image.Rect(0, 0, 800, 800))
	for y := 0; y < 800; y++ {
		for x := 0; x < 800; x++ {
			bg.Set(x, y, color.White)
		}
	}
	var bgBuf bytes.Buffer
	if err := jpeg.Encode(&bgBuf, bg, nil); err != nil {
		t.Fatalf("encoding fixture background: %v", err)
	}

	opt := DefaultOptions()
	opt.Background = bytes.NewReader(bgBuf.Bytes())
	var buf bytes.Buffer
	if err := Render(p, opt, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := buf.Bytes()
	if len(got) < 2 || got[0] != 0xFF || got[1] != 0xD8 {
		t.Errorf("expected a JPEG SOI marker, got %x", got[:2])
	}
}

func TestRenderRejectsUndecodableBackground(t *testing.T) {
	p := program.New([]program.Instruction{
		program.Move(position.MM{X: 0, Y: 0}),
		program.Move(position.MM{X: 10, Y: 10}),
	})
	opt := DefaultOptions()
	opt.Background = bytes.NewReader([]byte("not an image"))
	var buf bytes.Buffer
	if err := Render(p, opt, &buf); err == nil {
		t.Errorf("expected an error decoding a malformed background")
	}
}
