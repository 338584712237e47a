// Package engine provides an in-process simulator for running jointctl
// without a CoppeliaSim instance.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/jointctl/internal/remote"
)

// DefaultTick matches the simulator's default simulation time step.
const DefaultTick = 50 * time.Millisecond

var ErrNotRunning = errors.New("engine: simulation is not running")

// Memory is a remote.Sim holding a scene of named joints in memory.
type Memory struct {
	mu           sync.Mutex
	objects      map[string]remote.Handle
	positions    map[remote.Handle]float64
	running      bool
	disconnected bool
	steps        uint64
	tick         time.Duration
	simTime      time.Duration
}

// NewMemory creates a scene containing the given object paths. Handles are
// assigned in order starting at 1.
func NewMemory(paths ...string) *Memory {
	m := &Memory{
		objects:   make(map[string]remote.Handle, len(paths)),
		positions: make(map[remote.Handle]float64, len(paths)),
		tick:      DefaultTick,
	}
	for i, p := range paths {
		h := remote.Handle(i + 1)
		m.objects[p] = h
		m.positions[h] = 0
	}
	return m
}

func (m *Memory) GetObject(ctx context.Context, path string) (remote.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return 0, remote.ErrUnavailable
	}
	h, ok := m.objects[path]
	if !ok {
		return 0, &remote.CallError{Func: "sim.getObject", Msg: fmt.Sprintf("object does not exist: %s", path)}
	}
	return h, nil
}

func (m *Memory) SetJointPosition(ctx context.Context, h remote.Handle, rad float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return remote.ErrUnavailable
	}
	if _, ok := m.positions[h]; !ok {
		return &remote.CallError{Func: "sim.setJointPosition", Msg: fmt.Sprintf("invalid handle %d", h)}
	}
	m.positions[h] = rad
	return nil
}

func (m *Memory) Step(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return remote.ErrUnavailable
	}
	if !m.running {
		return ErrNotRunning
	}
	m.steps++
	m.simTime += m.tick
	return nil
}

func (m *Memory) StartSimulation(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return remote.ErrUnavailable
	}
	m.running = true
	return nil
}

// StopSimulation is a no-op on a stopped session.
func (m *Memory) StopSimulation(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return remote.ErrUnavailable
	}
	m.running = false
	return nil
}

// Disconnect makes every later call fail with remote.ErrUnavailable.
func (m *Memory) Disconnect() {
	m.mu.Lock()
	m.disconnected = true
	m.running = false
	m.mu.Unlock()
}

func (m *Memory) Position(h remote.Handle) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positions[h]
}

func (m *Memory) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Memory) Steps() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps
}

func (m *Memory) SimTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.simTime
}
