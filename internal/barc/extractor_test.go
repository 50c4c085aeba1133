package barc_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barc/internal/archivers"
	"barc/internal/barc"
	"barc/internal/fs"
	"barc/internal/testutil"
)

// createArchive backs up the standard sources into /dest and returns the
// archive path.
func createArchive(t *testing.T, f *fixture, passphrase string) string {
	t.Helper()
	result, err := f.svc.ProcessList(context.Background(), barc.BackupRequest{
		Sources:     f.writeSources(t),
		Destination: "/dest",
		Archive:     true,
		Passphrase:  passphrase,
	})
	require.NoError(t, err)
	return result.Archive
}

func TestExtractor_Passphrases(t *testing.T) {
	t.Run("missing passphrase on encrypted archive", func(t *testing.T) {
		f := newFixture(t, archivers.CompressionZstd)
		archive := createArchive(t, f, "abc")

		_, err := f.svc.Extract(context.Background(), archive, "/out", "")
		require.ErrorIs(t, err, barc.ErrPassphraseRequired)

		exists, _ := afero.Exists(f.mem, "/out")
		assert.False(t, exists, "nothing should be written without a passphrase")
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		f := newFixture(t, archivers.CompressionZstd)
		archive := createArchive(t, f, "abc")

		for i := 0; i < 2; i++ {
			_, err := f.svc.Extract(context.Background(), archive, "/out", "abd")
			require.ErrorIs(t, err, barc.ErrBadPassphrase)
		}

		exists, _ := afero.Exists(f.mem, "/out")
		assert.False(t, exists, "nothing should be written with a wrong passphrase")
	})

	t.Run("passphrase on unencrypted archive is ignored", func(t *testing.T) {
		f := newFixture(t, archivers.CompressionZstd)
		archive := createArchive(t, f, "")

		result, err := f.svc.Extract(context.Background(), archive, "/out", "abc")
		require.NoError(t, err)
		assert.Equal(t, 2, result.Files)
	})
}

func TestExtractor_RootsComeFromMembers(t *testing.T) {
	f := newFixture(t, archivers.CompressionZstd)
	archive := createArchive(t, f, "abc")

	renamed := "/elsewhere/my-backup.bin"
	require.NoError(t, f.mem.MkdirAll("/elsewhere", 0o755))
	require.NoError(t, f.mem.Rename(archive, renamed))

	result, err := f.svc.Extract(context.Background(), renamed, "/out", "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{fixedStamp}, result.Roots)
	assert.Equal(t, "/out", result.Destination)

	data, err := afero.ReadFile(f.mem, filepath.Join("/out", fixedStamp, "dir1", "file2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
}

func TestExtractor_OverwritesExistingFiles(t *testing.T) {
	f := newFixture(t, archivers.CompressionZstd)
	archive := createArchive(t, f, "")
	testutil.WriteTree(t, f.mem, "/out/"+fixedStamp, map[string]string{"file1.txt": "stale"})

	_, err := f.svc.Extract(context.Background(), archive, "/out", "")
	require.NoError(t, err)

	data, err := afero.ReadFile(f.mem, filepath.Join("/out", fixedStamp, "file1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
}

// writeRawArchive builds an uncompressed archive whose members have the
// given names, bypassing the Archiver's naming.
func writeRawArchive(t *testing.T, mem afero.Fs, path string, names ...string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(mem, "/fixture.txt", []byte("x"), 0o644))
	info, err := mem.Stat("/fixture.txt")
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := archivers.NewTarWriter(&buf, archivers.CompressionNone)
	require.NoError(t, err)
	for _, name := range names {
		require.NoError(t, w.AddFile(name, info, strings.NewReader("x")))
	}
	require.NoError(t, w.Close())
	require.NoError(t, afero.WriteFile(mem, path, buf.Bytes(), 0o600))
}

func TestExtractor_RejectsUnsafeMembers(t *testing.T) {
	tests := []struct {
		name   string
		member string
	}{
		{name: "parent traversal", member: "../evil.txt"},
		{name: "nested traversal", member: "ts/../../evil.txt"},
		{name: "absolute path", member: "/evil.txt"},
		{name: "bare parent", member: ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := afero.NewMemMapFs()
			writeRawArchive(t, mem, "/evil.tar", "ts/ok.txt", tt.member)
			ex := barc.NewExtractor(fs.NewManager(mem, nil), testutil.NewTestEncryptor(), barc.NewNopLogger())

			_, err := ex.Extract(context.Background(), "/evil.tar", "/out/inner", "")
			require.ErrorIs(t, err, barc.ErrUnsafeMemberPath)

			for _, p := range []string{"/evil.txt", "/out/evil.txt"} {
				exists, _ := afero.Exists(mem, p)
				assert.False(t, exists, "%s must not be written", p)
			}
		})
	}
}

func TestExtractor_InvalidInput(t *testing.T) {
	f := newFixture(t, archivers.CompressionZstd)

	_, err := f.svc.Extract(context.Background(), "", "/out", "")
	require.ErrorIs(t, err, barc.ErrInvalidRequest)

	_, err = f.svc.Extract(context.Background(), "/dest/archive.tar", "", "")
	require.ErrorIs(t, err, barc.ErrInvalidRequest)

	_, err = f.svc.Extract(context.Background(), "/dest/missing.tar", "/out", "")
	require.Error(t, err)
}

func TestExtractor_CorruptArchive(t *testing.T) {
	f := newFixture(t, archivers.CompressionZstd)
	archive := createArchive(t, f, "")

	data, err := afero.ReadFile(f.mem, archive)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(f.mem, archive, data[:len(data)/2], 0o600))

	_, err = f.svc.Extract(context.Background(), archive, "/out", "")
	require.Error(t, err)
}

// The full pipeline on the real filesystem with age encryption.
func TestPipeline_AgeOnDisk(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "dir1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "file1.txt"), []byte("A"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "dir1", "file2.txt"), []byte("B"), 0o644))

	clock := testutil.FixedClock()
	svc := barc.NewService(fs.NewOSManager(fs.DefaultIgnorePatterns), testutil.NewFastAgeEncryptor(), barc.NewNopLogger(),
		clock, testutil.NewStubIDGenerator(), barc.ArchiverOptions{ScratchDir: filepath.Join(dir, "scratch")})

	ctx := context.Background()
	result, err := svc.ProcessList(ctx, barc.BackupRequest{
		Sources:     []string{filepath.Join(src, "file1.txt"), filepath.Join(src, "dir1")},
		Destination: filepath.Join(dir, "destination"),
		Archive:     true,
		Passphrase:  "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "archive_"+fixedStamp+".tar.zst.age", filepath.Base(result.Archive))

	out := filepath.Join(dir, "destination2")
	_, err = svc.Extract(ctx, result.Archive, out, "wrong")
	require.ErrorIs(t, err, barc.ErrBadPassphrase)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "destination must not be created on a bad passphrase")

	_, err = svc.Extract(ctx, result.Archive, out, "abc")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, fixedStamp, "file1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
	data, err = os.ReadFile(filepath.Join(out, fixedStamp, "dir1", "file2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))

	info, err := os.Stat(filepath.Join(out, fixedStamp, "file1.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	archives, err := svc.ListArchives(filepath.Join(dir, "destination"))
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.True(t, archives[0].Encrypted)
}
