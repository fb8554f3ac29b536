package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// The state directory always lives on the real disk beside the checkouts.
var osFs afero.Fs = afero.NewOsFs()

// DirName is the state directory kept beside the repository checkouts.
const DirName = ".tcpub"

// Dir returns the state directory for a working directory.
func Dir(workingDir string) string {
	return filepath.Join(workingDir, DirName)
}

// EnsureDir creates the state directory structure.
func EnsureDir(stateDir string) error {
	dirs := []string{
		stateDir,
		LogDir(stateDir),
		filepath.Join(stateDir, "runs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating state dir %s: %w", d, err)
		}
	}
	return nil
}

// LogDir holds the per-call processor logs and the run log.
func LogDir(stateDir string) string {
	return filepath.Join(stateDir, "logs")
}

// RunLogPath returns the structured run log.
func RunLogPath(stateDir string) string {
	return filepath.Join(LogDir(stateDir), "run.log")
}

// RecordPath returns the record file for a run id.
func RecordPath(stateDir, runID string) string {
	return filepath.Join(stateDir, "runs", runID+".json")
}
