package barc

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the wall-clock time used to name archives.
type Clock interface {
	Now() time.Time
}

// RealClock returns the local time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator produces the unique suffix of scratch directories.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
