package groupdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/jorge-barreto/tcpub/internal/atomicfile"
)

// RawDir is where the notes processor leaves uncategorized group data,
// relative to the notes output path: one <bookId>.json array per book.
const RawDir = "groups"

// IndexFile is the per-category group listing.
const IndexFile = "index.json"

// IndexEntry is one group in a category index.
type IndexEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Persist replaces bookID's data in every category: the book file is
// written where the book has items and removed where it has none, so an
// item that moved category is never left behind. Each touched category's
// index.json is then rebuilt from the book files on disk. Writers must not
// run concurrently against the same outputRoot.
func Persist(fsys afero.Fs, c *Categorized, outputRoot, bookID string) error {
	for _, cat := range Categories {
		dir := filepath.Join(outputRoot, string(cat))
		path := filepath.Join(dir, bookID+".json")
		items := c.Items[cat][bookID]
		if len(items) == 0 {
			existed, err := afero.Exists(fsys, path)
			if err != nil {
				return fmt.Errorf("groupdata: checking %s: %w", path, err)
			}
			if !existed {
				continue
			}
			if err := fsys.Remove(path); err != nil {
				return fmt.Errorf("groupdata: removing stale %s: %w", path, err)
			}
		} else {
			if err := fsys.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("groupdata: creating %s: %w", dir, err)
			}
			if err := atomicfile.WriteJSON(fsys, path, items); err != nil {
				return fmt.Errorf("groupdata: %w", err)
			}
		}
		if err := RebuildIndex(fsys, dir, c.Titles); err != nil {
			return err
		}
	}
	return nil
}

// PersistAll persists every book in c.
func PersistAll(fsys afero.Fs, c *Categorized, outputRoot string) error {
	for _, b := range c.Books() {
		if err := Persist(fsys, c, outputRoot, b); err != nil {
			return err
		}
	}
	return nil
}

// RebuildIndex rewrites dir/index.json from every book file in dir, so the
// index covers books from earlier runs as well as the current one. Names
// come from titles, then from the previous index, then the id itself. A
// category with no book files left loses its index and, when empty, its
// directory.
func RebuildIndex(fsys afero.Fs, dir string, titles map[string]string) error {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("groupdata: reading %s: %w", dir, err)
	}
	indexPath := filepath.Join(dir, IndexFile)
	previous := readIndexNames(fsys, indexPath)

	ids := make(map[string]bool)
	books := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == IndexFile || !strings.HasSuffix(name, ".json") {
			continue
		}
		items, err := readItems(fsys, filepath.Join(dir, name))
		if err != nil {
			return err
		}
		books++
		for _, it := range items {
			if id := it.GroupID(); id != "" {
				ids[id] = true
			}
		}
	}

	if books == 0 {
		if err := fsys.Remove(indexPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("groupdata: removing %s: %w", indexPath, err)
		}
		if empty, _ := afero.IsEmpty(fsys, dir); empty {
			fsys.Remove(dir)
		}
		return nil
	}

	index := make([]IndexEntry, 0, len(ids))
	for id := range ids {
		name := titles[id]
		if name == "" {
			name = previous[id]
		}
		if name == "" {
			name = id
		}
		index = append(index, IndexEntry{ID: id, Name: name})
	}
	sort.Slice(index, func(i, j int) bool { return index[i].ID < index[j].ID })
	if err := atomicfile.WriteJSON(fsys, indexPath, index); err != nil {
		return fmt.Errorf("groupdata: %w", err)
	}
	return nil
}

// readIndexNames returns id -> name from an existing index, or nil.
func readIndexNames(fsys afero.Fs, path string) map[string]string {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil
	}
	var entries []IndexEntry
	if json.Unmarshal(data, &entries) != nil {
		return nil
	}
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[e.ID] = e.Name
	}
	return names
}

func readItems(fsys afero.Fs, path string) ([]Item, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("groupdata: reading %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var items []Item
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("groupdata: parsing %s: %w", path, err)
	}
	return items, nil
}

// LoadRaw reads the uncategorized group data in dir. When book is not
// empty only that book is loaded.
func LoadRaw(fsys afero.Fs, dir, book string) (map[string][]Item, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("groupdata: reading %s: %w", dir, err)
	}
	books := make(map[string][]Item)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		bookID := strings.TrimSuffix(e.Name(), ".json")
		if book != "" && bookID != book {
			continue
		}
		items, err := readItems(fsys, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		books[bookID] = items
	}
	return books, nil
}

// RawExists reports whether the notes output holds uncategorized group data.
func RawExists(fsys afero.Fs, outputRoot string) (bool, error) {
	ok, err := afero.DirExists(fsys, filepath.Join(outputRoot, RawDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return ok, nil
}
