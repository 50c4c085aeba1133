package barc_test

import (
	"testing"

	"github.com/spf13/afero"

	"barc/internal/archivers"
	"barc/internal/barc"
	"barc/internal/fs"
	"barc/internal/testutil"
)

const (
	scratchDir = "/scratch"
	// fixedStamp is testutil.FixedClock formatted as an archive timestamp.
	fixedStamp = "15-01-2024__10.30.00"
)

// fixture wires a Service over an in-memory filesystem.
type fixture struct {
	mem   afero.Fs
	fsm   *fs.Manager
	clock *testutil.StubClock
	svc   *barc.Service
}

func newFixture(t *testing.T, compression archivers.Compression) *fixture {
	t.Helper()
	return newFixtureWith(t, afero.NewMemMapFs(), testutil.NewTestEncryptor(), compression)
}

func newFixtureWith(t *testing.T, fsys afero.Fs, enc barc.Encryptor, compression archivers.Compression) *fixture {
	t.Helper()
	fsm := fs.NewManager(fsys, fs.DefaultIgnorePatterns)
	clock := testutil.FixedClock()
	svc := barc.NewService(fsm, enc, barc.NewNopLogger(), clock, testutil.NewStubIDGenerator(), barc.ArchiverOptions{
		Compression: compression,
		ScratchDir:  scratchDir,
	})
	return &fixture{mem: fsys, fsm: fsm, clock: clock, svc: svc}
}

// writeSources creates the two-source layout used throughout:
// /src/file1.txt = "A" and /src/dir1/file2.txt = "B".
func (f *fixture) writeSources(t *testing.T) []string {
	t.Helper()
	testutil.WriteTree(t, f.mem, "/src", map[string]string{
		"file1.txt":      "A",
		"dir1/file2.txt": "B",
	})
	return []string{"/src/file1.txt", "/src/dir1"}
}

// assertScratchEmpty fails if any scratch tree is left behind.
func (f *fixture) assertScratchEmpty(t *testing.T) {
	t.Helper()
	entries, err := afero.ReadDir(f.mem, scratchDir)
	if err != nil {
		t.Fatalf("reading scratch dir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("scratch tree left behind: %s", e.Name())
	}
}
