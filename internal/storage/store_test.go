package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/jointctl/internal/command"
	"github.com/san-kum/jointctl/internal/joint"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	records := []CommandRecord{
		{Offset: 100 * time.Millisecond, Joint: 1, Degrees: 10, Radians: 10 * math.Pi / 180},
		{Offset: 250 * time.Millisecond, Joint: 2, Degrees: -45, Radians: -math.Pi / 4},
		{Offset: 300 * time.Millisecond, Joint: 2, Degrees: -50, Radians: -50 * math.Pi / 180, Dropped: true},
	}
	meta := SessionMetadata{Endpoint: "tcp://localhost:23000", Joints: 14, StepInterval: 30 * time.Millisecond, Steps: 99}

	id, err := st.Save(meta, records)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty session id")
	}

	for _, name := range []string{metadataFile, commandsFile} {
		if _, err := os.Stat(filepath.Join(st.baseDir, id, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	loaded, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Commands != 3 || loaded.Dropped != 1 {
		t.Errorf("unexpected counts: %d commands, %d dropped", loaded.Commands, loaded.Dropped)
	}
	if loaded.StepInterval != 30*time.Millisecond || loaded.Steps != 99 {
		t.Errorf("metadata not preserved: %+v", loaded)
	}

	got, err := st.LoadCommands(id)
	if err != nil {
		t.Fatalf("load commands failed: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(got))
	}
	if got[1].Joint != 2 || got[1].Degrees != -45 || got[1].Offset != 250*time.Millisecond {
		t.Errorf("unexpected record %+v", got[1])
	}
	if !got[2].Dropped {
		t.Error("dropped flag lost")
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	older := SessionMetadata{Timestamp: time.Now().Add(-time.Hour)}
	newer := SessionMetadata{Timestamp: time.Now()}
	newerID, _ := st.Save(newer, nil)
	olderID, _ := st.Save(older, nil)

	if err := os.WriteFile(filepath.Join(st.baseDir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	sessions, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != olderID || sessions[1].ID != newerID {
		t.Errorf("sessions not ordered by time: %v, %v", sessions[0].ID, sessions[1].ID)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	sessions, err := st.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}
}

func TestRecorder(t *testing.T) {
	start := time.Now()
	rec := NewRecorder(start)

	j3 := joint.Spec{Index: 3, Handle: 30}
	rec.OnCommand(command.Command{Joint: j3, Degrees: 15, Radians: 0.26, At: start.Add(time.Second)}, nil)
	rec.OnCommand(command.Command{Joint: j3, Degrees: 20, Radians: 0.35, At: start.Add(2 * time.Second)}, errors.New("closed"))

	records := rec.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Offset != time.Second || records[0].Joint != 3 {
		t.Errorf("unexpected record %+v", records[0])
	}
	if !records[1].Dropped {
		t.Error("failed command not marked dropped")
	}

	series := JointSeries(records, 3)
	if len(series) != 1 || series[0] != 15 {
		t.Errorf("expected only accepted angles, got %v", series)
	}
}
