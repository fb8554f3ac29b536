// Package digest fingerprints published output trees with BLAKE3 so two
// runs can be compared byte for byte.
package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// File returns the hex BLAKE3 digest of a single file.
func File(fsys afero.Fs, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest: reading %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Tree returns a digest covering every directory name, file name and file
// content under root. Walk order is lexical, so equal trees give equal
// digests regardless of how they were written.
func Tree(fsys afero.Fs, root string) (string, error) {
	h := blake3.New()
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		switch {
		case info.IsDir():
			fmt.Fprintf(h, "d %s\n", rel)
		case info.Mode().IsRegular():
			sum, err := File(fsys, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(h, "f %s %s\n", rel, sum)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("digest: %s: %w", root, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
