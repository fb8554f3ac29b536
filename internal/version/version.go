// Package version finds version-labelled directories (v1, V4.22.0, v6.1a.0)
// and orders them naturally, so the highest version can be picked
// deterministically.
package version

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/spf13/afero"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrNotFound is returned when the directory to scan does not exist.
var ErrNotFound = errors.New("directory not found")

var tagRe = regexp.MustCompile(`^[vV]\d`)

// IsTag reports whether name looks like a version tag.
func IsTag(name string) bool {
	return tagRe.MatchString(name)
}

// newCollator returns a numeric-aware, case-insensitive collator.
// Collators keep internal buffers, so each caller gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
}

// Compare orders two tags naturally: digit runs compare as numbers and
// case is ignored. It returns -1, 0 or 1.
func Compare(a, b string) int {
	return newCollator().CompareString(a, b)
}

// Sort orders tags ascending in place. Tags that compare equal keep their
// original relative order.
func Sort(tags []string) {
	c := newCollator()
	slices.SortStableFunc(tags, c.CompareString)
}

// List returns the names of the version directories directly under path,
// in ascending natural order. A directory with no version entries yields an
// empty slice.
func List(fsys afero.Fs, path string) ([]string, error) {
	ok, err := afero.DirExists(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("version: checking %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("version: %s: %w", path, ErrNotFound)
	}
	entries, err := afero.ReadDir(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("version: reading %s: %w", path, err)
	}
	tags := []string{}
	for _, e := range entries {
		if e.IsDir() && IsTag(e.Name()) {
			tags = append(tags, e.Name())
		}
	}
	Sort(tags)
	return tags, nil
}

// Latest returns the highest version tag under path. ok is false when
// path holds no version directories; that is not an error.
func Latest(fsys afero.Fs, path string) (tag string, ok bool, err error) {
	tags, err := List(fsys, path)
	if err != nil {
		return "", false, err
	}
	if len(tags) == 0 {
		return "", false, nil
	}
	return tags[len(tags)-1], true, nil
}

// LatestPath is Latest joined back onto path.
func LatestPath(fsys afero.Fs, path string) (string, bool, error) {
	tag, ok, err := Latest(fsys, path)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Join(path, tag), true, nil
}
