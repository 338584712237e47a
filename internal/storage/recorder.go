package storage

import (
	"sync"
	"time"

	"github.com/san-kum/jointctl/internal/command"
)

// Recorder collects every command of a session in memory.
type Recorder struct {
	mu      sync.Mutex
	start   time.Time
	records []CommandRecord
}

func NewRecorder(start time.Time) *Recorder {
	return &Recorder{start: start}
}

func (r *Recorder) OnCommand(cmd command.Command, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, CommandRecord{
		Offset:  cmd.At.Sub(r.start),
		Joint:   cmd.Joint.Index,
		Degrees: cmd.Degrees,
		Radians: cmd.Radians,
		Dropped: err != nil,
	})
}

func (r *Recorder) Start() time.Time { return r.start }

func (r *Recorder) Records() []CommandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommandRecord, len(r.records))
	copy(out, r.records)
	return out
}
