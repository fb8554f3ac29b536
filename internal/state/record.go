package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jorge-barreto/tcpub/internal/atomicfile"
)

// Stage outcomes recorded in a run record.
const (
	StageDone    = "done"
	StageFailed  = "failed"
	StageBlocked = "blocked"
	StageSkipped = "skipped"
)

// OutputRecord is one published directory and the digest of its contents.
type OutputRecord struct {
	Path   string `json:"path"`
	Digest string `json:"digest,omitempty"`
}

type StageRecord struct {
	Stage    string         `json:"stage"`
	Resource string         `json:"resource"`
	Version  string         `json:"version,omitempty"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Outputs  []OutputRecord `json:"outputs,omitempty"`
}

// Record summarizes one pipeline run. Records live in the state directory,
// never in the resources tree.
type Record struct {
	RunID    string        `json:"run_id"`
	Language string        `json:"language"`
	Book     string        `json:"book,omitempty"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished,omitempty"`
	Status   string        `json:"status"`
	Stages   []StageRecord `json:"stages"`
}

// Save writes the record to runs/<run id>.json.
func (r *Record) Save(stateDir string) error {
	if r.RunID == "" {
		return fmt.Errorf("record has no run id")
	}
	return atomicfile.WriteJSON(osFs, RecordPath(stateDir, r.RunID), r)
}

// LoadRecord reads a run record by id.
func LoadRecord(stateDir, runID string) (*Record, error) {
	data, err := os.ReadFile(RecordPath(stateDir, runID))
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing run record %s: %w", runID, err)
	}
	return &r, nil
}

// Digests maps output path to digest across all stages.
func (r *Record) Digests() map[string]string {
	out := make(map[string]string)
	for _, s := range r.Stages {
		for _, o := range s.Outputs {
			out[o.Path] = o.Digest
		}
	}
	return out
}

// ListRecords loads all saved runs, oldest first by start time.
func ListRecords(stateDir string) ([]*Record, error) {
	entries, err := os.ReadDir(filepath.Join(stateDir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var records []*Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		r, err := LoadRecord(stateDir, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Started.Before(records[j].Started)
	})
	return records, nil
}
