package ui

import (
	"math"
	"strings"

	"github.com/san-kum/jointctl/internal/command"
	"github.com/san-kum/jointctl/internal/joint"
)

// Slider is one joint's row: the joint it commands, the angle the operator
// set and the readout of the last accepted angle.
type Slider struct {
	joint   joint.Spec
	angle   float64
	readout string
}

func newSlider(j joint.Spec) *Slider {
	return &Slider{joint: j, readout: command.FormatDegrees(0)}
}

func (s *Slider) SetText(text string) { s.readout = text }

func (s *Slider) Joint() joint.Spec { return s.joint }
func (s *Slider) Angle() float64    { return s.angle }
func (s *Slider) Readout() string   { return s.readout }

// Range is the slider's angular bounds and its length in cells.
type Range struct {
	Min, Max float64
	Width    int
}

func (r Range) Clamp(deg float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, deg))
}

// Cell maps an angle to a cell of the bar.
func (r Range) Cell(deg float64) int {
	if r.Width <= 1 {
		return 0
	}
	frac := (r.Clamp(deg) - r.Min) / (r.Max - r.Min)
	return int(math.Round(frac * float64(r.Width-1)))
}

// Angle maps a cell of the bar back to an angle.
func (r Range) Angle(cell int) float64 {
	if r.Width <= 1 {
		return r.Min
	}
	if cell < 0 {
		cell = 0
	}
	if cell > r.Width-1 {
		cell = r.Width - 1
	}
	return r.Min + float64(cell)/float64(r.Width-1)*(r.Max-r.Min)
}

func (r Range) render(deg float64) string {
	knob := r.Cell(deg)
	zero := r.Cell(0)
	lo, hi := zero, knob
	if lo > hi {
		lo, hi = hi, lo
	}

	var b strings.Builder
	for i := 0; i < r.Width; i++ {
		switch {
		case i == knob:
			b.WriteString(knobStyle.Render("●"))
		case i >= lo && i <= hi:
			b.WriteString(fillStyle.Render("━"))
		default:
			b.WriteString(trackStyle.Render("─"))
		}
	}
	return b.String()
}
