package barc

import "github.com/samber/lo"

// ItemResult is the outcome of copying one source path.
// A non-nil Err marks a per-item failure; the rest of the backup still runs.
type ItemResult struct {
	Source string
	Target string
	Kind   PathKind
	// Files and Dirs count what was written below Target.
	Files int
	Dirs  int
	// Ignored counts entries matched by an ignore pattern.
	Ignored int
	// Skipped counts entries that are neither files nor directories, such as
	// symlinks found inside a copied tree.
	Skipped int
	Err     error
}

// OK reports whether the item was copied without error.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// Report collects the per-item results of a copy or staging pass.
type Report struct {
	Items []ItemResult
}

// Add appends a result.
func (r *Report) Add(item ItemResult) {
	r.Items = append(r.Items, item)
}

// Failed returns the items that reported an error.
func (r Report) Failed() []ItemResult {
	return lo.Filter(r.Items, func(item ItemResult, _ int) bool {
		return !item.OK()
	})
}

// OK reports whether every item succeeded.
func (r Report) OK() bool {
	return len(r.Failed()) == 0
}

// Files returns the total number of files written.
func (r Report) Files() int {
	return lo.SumBy(r.Items, func(item ItemResult) int { return item.Files })
}

// Dirs returns the total number of directories written.
func (r Report) Dirs() int {
	return lo.SumBy(r.Items, func(item ItemResult) int { return item.Dirs })
}

// Result is returned by Service.ProcessList and Archiver.CreateArchive.
type Result struct {
	Report Report
	// Archive is the path of the created archive. Empty for flat copies.
	Archive string
	// Timestamp names the archive and its single top-level member.
	Timestamp string
	Encrypted bool
}

// ExtractResult describes a completed extraction.
type ExtractResult struct {
	Destination string
	// Roots are the top-level member names read from the archive.
	Roots []string
	Files int
	Dirs  int
}
