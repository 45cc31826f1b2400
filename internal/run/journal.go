package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome of a recorded run.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Step is one entry in a run's ordered step log.
type Step struct {
	Name   string    `json:"name"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Record is the durable journal entry for one install run. The journal
// is what idempotence checks consult: a later run of the same artifact
// and version can skip straight to done.
type Record struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	Artifact      string    `json:"artifact"`
	Version       string    `json:"version"`
	Outcome       string    `json:"outcome"`
	InstalledPath string    `json:"installed_path,omitempty"`
	Verified      string    `json:"verified,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Steps         []Step    `json:"steps"`
}

// NewRecord starts a journal record for an artifact install.
func NewRecord(artifactName, version string) *Record {
	return &Record{
		SchemaVersion: 1,
		ID:            uuid.New().String(),
		Artifact:      artifactName,
		Version:       version,
		StartedAt:     time.Now().UTC(),
	}
}

// AddStep appends to the step log.
func (r *Record) AddStep(name, detail string) {
	r.Steps = append(r.Steps, Step{Name: name, Detail: detail, At: time.Now().UTC()})
}

// Save writes the record to dir atomically (write-then-rename), syncing
// the directory for durability.
func (r *Record) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	r.FinishedAt = time.Now().UTC()

	finalPath := filepath.Join(dir, fmt.Sprintf("run-%s-%s.json", r.Artifact, r.ID))
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write journal record: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename journal record: %w", err)
	}

	if df, err := os.Open(dir); err == nil {
		df.Sync()
		df.Close()
	}
	return nil
}

// LoadRecord reads a journal record from disk.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal journal record: %w", err)
	}
	return &r, nil
}

// LatestSuccess returns the most recent successful record for an
// artifact, or nil when there is none.
func LatestSuccess(dir, artifactName string) (*Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal directory: %w", err)
	}

	prefix := fmt.Sprintf("run-%s-", artifactName)
	var records []*Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		r, err := LoadRecord(filepath.Join(dir, name))
		if err != nil {
			// A corrupt record must not wedge future installs.
			continue
		}
		if r.Artifact == artifactName && r.Outcome == OutcomeSuccess {
			records = append(records, r)
		}
	}
	if len(records) == 0 {
		return nil, nil
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].FinishedAt.After(records[j].FinishedAt)
	})
	return records[0], nil
}
