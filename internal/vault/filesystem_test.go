package vault

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func newTestVault(t *testing.T) (*FileSystemVault, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	v, err := NewFileSystemVault(mem, "/backups")
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	return v, mem
}

func TestNewFileSystemVault_CreatesRoot(t *testing.T) {
	v, mem := newTestVault(t)

	ok, err := afero.DirExists(mem, "/backups")
	if err != nil || !ok {
		t.Fatalf("root not created: exists=%v err=%v", ok, err)
	}
	if v.Root() != "/backups" {
		t.Errorf("Root() = %q, want %q", v.Root(), "/backups")
	}
}

func TestPendingFile_Commit(t *testing.T) {
	v, mem := newTestVault(t)
	name := ArchiveName("15-01-2024__10.30.00", "tar")

	p, err := v.Create(name)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := io.WriteString(p, "payload"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if exists, _ := afero.Exists(mem, filepath.Join("/backups", name)); exists {
		t.Fatal("archive visible before Commit")
	}

	got, err := p.Commit()
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got != filepath.Join("/backups", name) {
		t.Errorf("Commit() = %q, want %q", got, filepath.Join("/backups", name))
	}

	data, err := afero.ReadFile(mem, got)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("archive content = %q, want %q", data, "payload")
	}

	if err := p.Discard(); err != nil {
		t.Errorf("Discard() after Commit error = %v", err)
	}
	if _, err := p.Commit(); err == nil {
		t.Error("second Commit() expected error")
	}
	assertNoTempFiles(t, mem)
}

func TestPendingFile_Discard(t *testing.T) {
	v, mem := newTestVault(t)
	name := ArchiveName("15-01-2024__10.30.00", "tar")

	p, err := v.Create(name)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	io.WriteString(p, "partial")

	if err := p.Discard(); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if exists, _ := afero.Exists(mem, filepath.Join("/backups", name)); exists {
		t.Error("archive exists after Discard")
	}
	assertNoTempFiles(t, mem)
}

func TestPendingFile_CommitReplacesExisting(t *testing.T) {
	v, mem := newTestVault(t)
	name := ArchiveName("15-01-2024__10.30.00", "tar")

	for _, content := range []string{"first", "second"} {
		p, err := v.Create(name)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		io.WriteString(p, content)
		if _, err := p.Commit(); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
	}

	data, _ := afero.ReadFile(mem, filepath.Join("/backups", name))
	if string(data) != "second" {
		t.Errorf("archive content = %q, want last write %q", data, "second")
	}
}

func TestFileSystemVault_List(t *testing.T) {
	v, mem := newTestVault(t)

	files := map[string]string{
		"archive_02-01-2024__09.00.00.tar.zst":     "bb",
		"archive_15-12-2023__10.00.00.tar.zst.age": "a",
		"archive_01-01-2024__12.00.00.tar":         "ccc",
		"notes.txt":                                "x",
		".tmp-archive_03-01-2024__09.00.00.tar-1":  "x",
	}
	for name, content := range files {
		if err := afero.WriteFile(mem, filepath.Join("/backups", name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := mem.MkdirAll("/backups/archive_05-01-2024__09.00.00.tar", 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := v.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	wantOrder := []string{
		"archive_15-12-2023__10.00.00.tar.zst.age",
		"archive_01-01-2024__12.00.00.tar",
		"archive_02-01-2024__09.00.00.tar.zst",
	}
	if len(got) != len(wantOrder) {
		t.Fatalf("List() returned %d archives, want %d: %+v", len(got), len(wantOrder), got)
	}
	for i, want := range wantOrder {
		if got[i].Name != want {
			t.Errorf("List()[%d].Name = %q, want %q", i, got[i].Name, want)
		}
		if got[i].Size != int64(len(files[want])) {
			t.Errorf("List()[%d].Size = %d, want %d", i, got[i].Size, len(files[want]))
		}
	}
	if got[0].Ext != "tar.zst.age" {
		t.Errorf("List()[0].Ext = %q, want %q", got[0].Ext, "tar.zst.age")
	}
}

func assertNoTempFiles(t *testing.T, mem afero.Fs) {
	t.Helper()
	entries, err := afero.ReadDir(mem, "/backups")
	if err != nil {
		t.Fatalf("reading vault: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
