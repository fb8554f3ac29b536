// Package atomicfile replaces files through a temp file and a rename so
// readers never see a partial write.
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// TempSuffix is appended to the target path while it is being written.
const TempSuffix = ".tmp"

// Write replaces path with data. On failure the temp file is removed and
// any previous content at path is left as it was.
func Write(fsys afero.Fs, path string, data []byte, perm os.FileMode) (err error) {
	tmp := path + TempSuffix
	f, err := fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			fsys.Remove(tmp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return fsys.Rename(tmp, path)
}

// WriteJSON writes v as two-space indented JSON with a trailing newline.
// Map keys come out sorted, so equal values give equal bytes.
func WriteJSON(fsys afero.Fs, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return Write(fsys, path, append(data, '\n'), 0644)
}
