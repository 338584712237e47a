// Package command turns slider movements into joint-position commands.
package command

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/jointctl/internal/joint"
	"github.com/san-kum/jointctl/internal/remote"
)

const DegToRad = math.Pi / 180.0

// Command is a single "set joint to angle" instruction.
type Command struct {
	Joint   joint.Spec
	Degrees float64
	Radians float64
	At      time.Time
}

// Positioner is the part of the simulator a Channel needs.
type Positioner interface {
	SetJointPosition(ctx context.Context, h remote.Handle, rad float64) error
}

// Readout displays the last applied angle of a joint.
type Readout interface {
	SetText(text string)
}

// Observer sees every command after it was sent. err is nil when the
// simulator accepted it.
type Observer interface {
	OnCommand(cmd Command, err error)
}

type ObserverFunc func(cmd Command, err error)

func (f ObserverFunc) OnCommand(cmd Command, err error) { f(cmd, err) }

// Channel sends commands one at a time, straight to the simulator.
type Channel struct {
	sim       Positioner
	observers []Observer
	now       func() time.Time
}

func New(sim Positioner) *Channel {
	return &Channel{sim: sim, now: time.Now}
}

func (c *Channel) AddObserver(o Observer) { c.observers = append(c.observers, o) }

// Apply commands j to deg degrees and, if the simulator accepted it, shows the
// angle on out. A failed command is dropped; the caller never sees the error.
func (c *Channel) Apply(ctx context.Context, j joint.Spec, deg float64, out Readout) {
	cmd := Command{
		Joint:   j,
		Degrees: deg,
		Radians: deg * DegToRad,
		At:      c.now(),
	}

	err := c.sim.SetJointPosition(ctx, j.Handle, cmd.Radians)
	if err == nil && out != nil {
		out.SetText(FormatDegrees(deg))
	}

	for _, o := range c.observers {
		o.OnCommand(cmd, err)
	}
}

// FormatDegrees renders an angle with one decimal and a degree sign.
func FormatDegrees(deg float64) string {
	return fmt.Sprintf("%.1f°", deg)
}
