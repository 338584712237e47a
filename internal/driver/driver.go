// Package driver keeps the simulation stepping at a fixed wall-clock pace.
//
// A Driver moves through three states and never goes back:
//
//	Idle --Run--> Running --ctx done or remote failure--> Stopped
//
// Remote failures end the loop quietly. They are the normal way a driver
// learns that the session was closed underneath it.
package driver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/jointctl/internal/logging"
)

const DefaultInterval = 30 * time.Millisecond

var ErrNotResumable = errors.New("driver: already started")

type State int32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stepper is the part of the simulator a Driver needs.
type Stepper interface {
	StartSimulation(ctx context.Context) error
	Step(ctx context.Context) error
}

// Observer is notified after each completed step and once when the driver stops.
type Observer interface {
	OnStep(n uint64)
	OnStop(cause error)
}

type Driver struct {
	sim       Stepper
	interval  time.Duration
	observers []Observer
	logger    *slog.Logger

	state atomic.Int32
	steps atomic.Uint64
	done  chan struct{}

	mu    sync.Mutex
	cause error
}

type Option func(*Driver)

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, o) }
}

func New(sim Stepper, interval time.Duration, opts ...Option) *Driver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	d := &Driver{
		sim:      sim,
		interval: interval,
		logger:   logging.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run starts the simulation and steps it until ctx is done or a remote call
// fails. Remote failures are not returned; see Cause. Run may be called once.
func (d *Driver) Run(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrNotResumable
	}
	defer close(d.done)

	if err := d.sim.StartSimulation(ctx); err != nil {
		d.stop(err)
		return nil
	}
	d.logger.Debug("simulation started", "interval", d.interval)

	timer := time.NewTimer(d.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.stop(ctx.Err())
			return nil
		default:
		}

		if err := d.sim.Step(ctx); err != nil {
			d.stop(err)
			return nil
		}
		n := d.steps.Add(1)
		for _, o := range d.observers {
			o.OnStep(n)
		}

		timer.Reset(d.interval)
		select {
		case <-ctx.Done():
			d.stop(ctx.Err())
			return nil
		case <-timer.C:
		}
	}
}

func (d *Driver) stop(cause error) {
	d.mu.Lock()
	d.cause = cause
	d.mu.Unlock()
	d.state.Store(int32(Stopped))

	d.logger.Debug("simulation driver stopped", "steps", d.steps.Load(), "cause", cause)
	for _, o := range d.observers {
		o.OnStop(cause)
	}
}

func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) Steps() uint64 { return d.steps.Load() }

func (d *Driver) Interval() time.Duration { return d.interval }

// Done is closed when Run returns.
func (d *Driver) Done() <-chan struct{} { return d.done }

// Cause reports why the driver stopped, or nil while it has not.
func (d *Driver) Cause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cause
}
