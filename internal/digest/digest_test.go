package digest

import (
	"testing"

	"github.com/spf13/afero"
)

func writeTree(t *testing.T, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := afero.WriteFile(fsys, root+"/"+name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestTree_EqualTreesEqualDigest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{"figures/tit.json": "[]", "figures/index.json": "[]", "other/tit.json": "[1]"}
	writeTree(t, fsys, "/a", files)
	writeTree(t, fsys, "/b", files)

	a, err := Tree(fsys, "/a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Tree(fsys, "/b")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("digests differ: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d", len(a))
	}
}

func TestTree_ContentChangeChangesDigest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTree(t, fsys, "/a", map[string]string{"x.json": "1"})
	before, _ := Tree(fsys, "/a")
	writeTree(t, fsys, "/a", map[string]string{"x.json": "2"})
	after, _ := Tree(fsys, "/a")
	if before == after {
		t.Fatal("digest should change with content")
	}
}

func TestTree_RenameChangesDigest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTree(t, fsys, "/a", map[string]string{"x.json": "1"})
	writeTree(t, fsys, "/b", map[string]string{"y.json": "1"})
	a, _ := Tree(fsys, "/a")
	b, _ := Tree(fsys, "/b")
	if a == b {
		t.Fatal("digest should cover file names")
	}
}

func TestTree_Missing(t *testing.T) {
	if _, err := Tree(afero.NewMemMapFs(), "/none"); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	afero.WriteFile(fsys, "/f", []byte("abc"), 0644)
	got, err := File(fsys, "/f")
	if err != nil {
		t.Fatal(err)
	}
	// BLAKE3("abc")
	want := "6437b3ac38465133ffb63b75273a8db548c558465d79db03fd359c6cd5bd9d85"
	if got != want {
		t.Fatalf("got %s", got)
	}
}
