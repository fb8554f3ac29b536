// Package manifest reads the manifest.yaml shipped with a resource
// repository. Nothing is cached: every call goes back to disk.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileName is the manifest file expected at the root of a repository.
const FileName = "manifest.yaml"

var (
	// ErrNotFound means the repository has no manifest file.
	ErrNotFound = errors.New("manifest not found")
	// ErrMalformed means the manifest could not be parsed or lacks a usable version.
	ErrMalformed = errors.New("manifest malformed")
)

// Error ties a manifest failure to the file it came from.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Language struct {
	Identifier string `yaml:"identifier"`
	Title      string `yaml:"title"`
}

type DublinCore struct {
	Identifier string    `yaml:"identifier"`
	Title      string    `yaml:"title"`
	Type       string    `yaml:"type"`
	Publisher  string    `yaml:"publisher"`
	Issued     string    `yaml:"issued"`
	Language   Language  `yaml:"language"`
	Version    yaml.Node `yaml:"version"`
}

type Project struct {
	Identifier string `yaml:"identifier"`
	Title      string `yaml:"title"`
	Path       string `yaml:"path"`
}

// Manifest is the subset of a resource manifest the pipeline uses.
type Manifest struct {
	DublinCore DublinCore `yaml:"dublin_core"`
	Projects   []Project  `yaml:"projects"`
}

// Version returns dublin_core.version as written in the file. Unquoted
// numbers (version: 12) are returned as their literal text.
func (m *Manifest) Version() (string, error) {
	n := m.DublinCore.Version
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return "", fmt.Errorf("dublin_core.version: %w: missing or not a scalar", ErrMalformed)
	}
	v := strings.TrimSpace(n.Value)
	if v == "" {
		return "", fmt.Errorf("dublin_core.version: %w: empty", ErrMalformed)
	}
	return v, nil
}

// FindProject returns the project with the given identifier, or nil.
func (m *Manifest) FindProject(id string) *Project {
	for i := range m.Projects {
		if m.Projects[i].Identifier == id {
			return &m.Projects[i]
		}
	}
	return nil
}

// Path returns the manifest location for a repository checkout.
func Path(repoPath string) string {
	return filepath.Join(repoPath, FileName)
}

// Read loads and parses the manifest under repoPath.
func Read(fsys afero.Fs, repoPath string) (*Manifest, error) {
	path := Path(repoPath)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Path: path, Err: ErrNotFound}
		}
		return nil, &Error{Path: path, Err: err}
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return &m, nil
}

// ReadVersion returns the declared version of the resource at repoPath.
func ReadVersion(fsys afero.Fs, repoPath string) (string, error) {
	m, err := Read(fsys, repoPath)
	if err != nil {
		return "", err
	}
	v, err := m.Version()
	if err != nil {
		return "", &Error{Path: Path(repoPath), Err: err}
	}
	return v, nil
}
