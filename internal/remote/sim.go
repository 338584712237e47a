package remote

import "context"

// Handle is an opaque object identifier issued by the simulator.
type Handle int64

// Sim is the subset of the simulator API jointctl drives.
type Sim interface {
	GetObject(ctx context.Context, path string) (Handle, error)
	SetJointPosition(ctx context.Context, h Handle, rad float64) error
	Step(ctx context.Context) error
	StartSimulation(ctx context.Context) error
	StopSimulation(ctx context.Context) error
}
