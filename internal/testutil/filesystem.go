package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// WriteTree creates files under root. Keys are slash-separated relative
// paths; a key ending in "/" creates an empty directory and its value is
// ignored.
func WriteTree(t *testing.T, fsys afero.Fs, root string, tree map[string]string) {
	t.Helper()

	for rel, content := range tree {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := fsys.MkdirAll(p, 0755); err != nil {
				t.Fatalf("creating %s: %v", p, err)
			}
			continue
		}
		if err := fsys.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("creating parent of %s: %v", p, err)
		}
		if err := afero.WriteFile(fsys, p, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
	}
}

// ReadTree returns every entry below root in the format WriteTree accepts:
// files map to their content and directories map to "" under a key ending
// in "/". root itself is not included.
func ReadTree(t *testing.T, fsys afero.Fs, root string) map[string]string {
	t.Helper()

	tree := map[string]string{}
	err := afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			tree[rel+"/"] = ""
			return nil
		}
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		tree[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("reading tree %s: %v", root, err)
	}
	return tree
}
