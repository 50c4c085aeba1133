package vault

import (
	"strings"
	"time"
)

// TimestampLayout formats archive creation times as DD-MM-YYYY__HH.MM.SS.
const TimestampLayout = "02-01-2006__15.04.05"

// archivePrefix starts every archive filename.
const archivePrefix = "archive_"

// Timestamp formats t for use in an archive name.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ArchiveName returns archive_<timestamp>.<ext>.
func ArchiveName(timestamp, ext string) string {
	return archivePrefix + timestamp + "." + ext
}

// ParseArchiveName splits an archive filename into its timestamp and
// extension. ok is false for names that do not follow the archive pattern.
func ParseArchiveName(name string) (ts time.Time, ext string, ok bool) {
	rest, found := strings.CutPrefix(name, archivePrefix)
	if !found || len(rest) < len(TimestampLayout)+2 {
		return time.Time{}, "", false
	}
	if rest[len(TimestampLayout)] != '.' {
		return time.Time{}, "", false
	}

	ts, err := time.ParseInLocation(TimestampLayout, rest[:len(TimestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, "", false
	}
	return ts, rest[len(TimestampLayout)+1:], true
}
