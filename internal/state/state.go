package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/jorge-barreto/tcpub/internal/atomicfile"
)

const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

type State struct {
	RunID      string   `json:"run_id"`
	Language   string   `json:"language"`
	Book       string   `json:"book,omitempty"`
	StageIndex int      `json:"stage_index"`
	Status     string   `json:"status"` // running, completed, failed, interrupted
	Failed     []string `json:"failed,omitempty"`
	Blocked    []string `json:"blocked,omitempty"` // skipped because a dependency failed
}

func statePath(stateDir string) string {
	return filepath.Join(stateDir, "state.json")
}

// Load reads the state from the state directory. Returns a new state if not found.
func Load(stateDir string) (*State, error) {
	path := statePath(stateDir)
	data, err := afero.ReadFile(osFs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &State{Status: StatusRunning}, nil
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the state to the state directory.
func (s *State) Save(stateDir string) error {
	return atomicfile.WriteJSON(osFs, statePath(stateDir), s)
}

// Advance increments the stage index.
func (s *State) Advance() {
	s.StageIndex++
}

// SetStage sets the stage index for --from restarts.
func (s *State) SetStage(idx int) {
	s.StageIndex = idx
}

// Reset starts a fresh run.
func (s *State) Reset(runID, language, book string) {
	*s = State{RunID: runID, Language: language, Book: book, Status: StatusRunning}
}
