// Package shutdown stops the simulation exactly once, whoever asks first.
package shutdown

import (
	"context"
	"log/slog"
	"sync"

	"github.com/san-kum/jointctl/internal/logging"
)

// Stopper is the part of the simulator the coordinator needs.
type Stopper interface {
	StopSimulation(ctx context.Context) error
}

type Coordinator struct {
	sim      Stopper
	cancel   context.CancelFunc
	teardown []func()
	logger   *slog.Logger

	once sync.Once
	done chan struct{}
}

type Option func(*Coordinator)

// WithCancel registers the function that cancels the stepping loop.
func WithCancel(cancel context.CancelFunc) Option {
	return func(c *Coordinator) { c.cancel = cancel }
}

// WithTeardown adds a hook run after the stop request, in registration order.
func WithTeardown(fn func()) Option {
	return func(c *Coordinator) { c.teardown = append(c.teardown, fn) }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func New(sim Stopper, opts ...Option) *Coordinator {
	c := &Coordinator{
		sim:    sim,
		logger: logging.NewNop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Shutdown cancels the driver, asks the simulator to stop and runs the
// teardown hooks. Only the first call does anything; concurrent callers wait
// for it to finish.
// A simulator that is already stopped or gone is not an error.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.once.Do(func() {
		defer close(c.done)

		if c.cancel != nil {
			c.cancel()
		}
		if err := c.sim.StopSimulation(ctx); err != nil {
			c.logger.Debug("stop simulation failed", "err", err)
		}
		for _, fn := range c.teardown {
			fn()
		}
	})
}

// Done is closed once Shutdown has completed.
func (c *Coordinator) Done() <-chan struct{} { return c.done }
