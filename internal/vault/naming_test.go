package vault

import (
	"sort"
	"testing"
	"time"
)

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)
	if got, want := Timestamp(ts), "05-03-2024__14.07.09"; got != want {
		t.Errorf("Timestamp() = %q, want %q", got, want)
	}
}

func TestArchiveName(t *testing.T) {
	got := ArchiveName("05-03-2024__14.07.09", "tar.zst.age")
	if want := "archive_05-03-2024__14.07.09.tar.zst.age"; got != want {
		t.Errorf("ArchiveName() = %q, want %q", got, want)
	}
}

func TestParseArchiveName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantOK  bool
		wantTS  time.Time
		wantExt string
	}{
		{
			name:    "encrypted zstd archive",
			input:   "archive_05-03-2024__14.07.09.tar.zst.age",
			wantOK:  true,
			wantTS:  time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local),
			wantExt: "tar.zst.age",
		},
		{
			name:    "plain tar",
			input:   "archive_31-12-2023__23.59.59.tar",
			wantOK:  true,
			wantTS:  time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local),
			wantExt: "tar",
		},
		{name: "missing prefix", input: "backup_05-03-2024__14.07.09.tar"},
		{name: "missing extension", input: "archive_05-03-2024__14.07.09"},
		{name: "bad separator", input: "archive_05-03-2024__14.07.09_tar"},
		{name: "invalid date", input: "archive_32-13-2024__14.07.09.tar"},
		{name: "temp file", input: ".tmp-archive_05-03-2024__14.07.09.tar-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ext, ok := ParseArchiveName(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseArchiveName(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !ts.Equal(tt.wantTS) {
				t.Errorf("timestamp = %v, want %v", ts, tt.wantTS)
			}
			if ext != tt.wantExt {
				t.Errorf("ext = %q, want %q", ext, tt.wantExt)
			}
		})
	}
}

func TestArchiveName_RoundTrip(t *testing.T) {
	at := time.Date(2025, 7, 1, 8, 0, 30, 0, time.Local)
	ts, ext, ok := ParseArchiveName(ArchiveName(Timestamp(at), "tar.gz"))
	if !ok {
		t.Fatal("ParseArchiveName() rejected a generated name")
	}
	if !ts.Equal(at) {
		t.Errorf("timestamp = %v, want %v", ts, at)
	}
	if ext != "tar.gz" {
		t.Errorf("ext = %q, want %q", ext, "tar.gz")
	}
}

// Names generated one second apart are distinct and, within a day, sort in
// creation order.
func TestArchiveName_UniquePerSecond(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	var names []string
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		name := ArchiveName(Timestamp(base.Add(time.Duration(i)*time.Second)), "tar.zst")
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true
		names = append(names, name)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not in creation order: %v", names)
	}
}
