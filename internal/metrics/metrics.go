// Package metrics exports jointctl activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/jointctl/internal/command"
)

const namespace = "jointctl"

// Collector observes the command channel and the simulation driver.
type Collector struct {
	registry *prom.Registry
	steps    prom.Counter
	commands *prom.CounterVec
	running  prom.Gauge

	dropped atomic.Uint64
}

func New() *Collector {
	c := &Collector{
		registry: prom.NewRegistry(),
		steps: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace, Name: "sim_steps_total", Help: "Simulation steps issued by the driver",
		}),
		commands: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace, Name: "joint_commands_total", Help: "Joint position commands by joint and result",
		}, []string{"joint", "result"}),
		running: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace, Name: "sim_driver_running", Help: "1 while the simulation driver is stepping",
		}),
	}
	c.registry.MustRegister(c.steps, c.commands, c.running)
	c.registry.MustRegister(promcollect.NewGoCollector())
	return c
}

func (c *Collector) OnCommand(cmd command.Command, err error) {
	result := "applied"
	if err != nil {
		result = "dropped"
		c.dropped.Add(1)
	}
	c.commands.WithLabelValues(strconv.Itoa(cmd.Joint.Index), result).Inc()
}

func (c *Collector) OnStep(n uint64) {
	c.steps.Inc()
	c.running.Set(1)
}

func (c *Collector) OnStop(cause error) {
	c.running.Set(0)
}

// Dropped is the number of commands the simulator did not accept.
func (c *Collector) Dropped() uint64 { return c.dropped.Load() }

func (c *Collector) Registry() *prom.Registry { return c.registry }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
