package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	metadataFile = "metadata.json"
	commandsFile = "commands.csv"
)

// Store keeps recorded control sessions, one directory per session.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SessionMetadata struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	Endpoint     string        `json:"endpoint"`
	Joints       int           `json:"joints"`
	StepInterval time.Duration `json:"step_interval_ns"`
	Duration     time.Duration `json:"duration_ns"`
	Steps        uint64        `json:"steps"`
	Commands     int           `json:"commands"`
	Dropped      int           `json:"dropped"`
}

// CommandRecord is one joint command, Offset measured from session start.
type CommandRecord struct {
	Offset  time.Duration
	Joint   int
	Degrees float64
	Radians float64
	Dropped bool
}

func newSessionID(now time.Time) string {
	return fmt.Sprintf("%s_%s", now.Format("20060102-150405"), uuid.NewString()[:8])
}

// Save writes meta and records under a new session id and returns the id.
func (s *Store) Save(meta SessionMetadata, records []CommandRecord) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.ID = newSessionID(meta.Timestamp)
	meta.Commands = len(records)
	meta.Dropped = 0
	for _, r := range records {
		if r.Dropped {
			meta.Dropped++
		}
	}

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, commandsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"time", "joint", "degrees", "radians", "dropped"}); err != nil {
		return "", err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatFloat(r.Offset.Seconds(), 'f', 6, 64),
			strconv.Itoa(r.Joint),
			strconv.FormatFloat(r.Degrees, 'f', 6, 64),
			strconv.FormatFloat(r.Radians, 'f', 6, 64),
			strconv.FormatBool(r.Dropped),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable session, oldest first.
func (s *Store) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMetadata{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.Before(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*SessionMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadCommands(id string) ([]CommandRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, commandsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 5

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return []CommandRecord{}, nil
	}

	records := make([]CommandRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", commandsFile, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(row []string) (CommandRecord, error) {
	secs, err := strconv.ParseFloat(row[0], 64)
	if err != nil {
		return CommandRecord{}, err
	}
	j, err := strconv.Atoi(row[1])
	if err != nil {
		return CommandRecord{}, err
	}
	deg, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return CommandRecord{}, err
	}
	rad, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return CommandRecord{}, err
	}
	dropped, err := strconv.ParseBool(row[4])
	if err != nil {
		return CommandRecord{}, err
	}
	return CommandRecord{
		Offset:  time.Duration(secs * float64(time.Second)),
		Joint:   j,
		Degrees: deg,
		Radians: rad,
		Dropped: dropped,
	}, nil
}

// JointSeries extracts the accepted angles commanded to one joint, in order.
func JointSeries(records []CommandRecord, joint int) []float64 {
	series := make([]float64, 0)
	for _, r := range records {
		if r.Joint == joint && !r.Dropped {
			series = append(series, r.Degrees)
		}
	}
	return series
}
