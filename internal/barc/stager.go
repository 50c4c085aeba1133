package barc

import (
	"context"
	"fmt"
)

// Stager assembles source paths into a single scratch tree.
type Stager struct {
	copier *Copier
	logger Logger
}

// NewStager creates a Stager that copies with copier.
func NewStager(copier *Copier, logger Logger) *Stager {
	return &Stager{copier: copier, logger: logger}
}

// Stage copies every source into scratchRoot in input order. Directories land
// in scratchRoot/<basename> with their structure; files land directly in
// scratchRoot. A failing source is recorded in the report and the remaining
// sources are still staged. If ctx is cancelled the remaining sources are
// reported as failed without being copied.
func (s *Stager) Stage(ctx context.Context, sources []string, scratchRoot string) Report {
	var report Report
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			report.Add(ItemResult{Source: src, Err: fmt.Errorf("staging cancelled: %w", err)})
			continue
		}
		report.Add(s.copier.CopyItem(ctx, src, scratchRoot))
	}

	s.logger.Debug("staging complete", "scratch", scratchRoot,
		"items", len(report.Items), "failed", len(report.Failed()), "files", report.Files())
	return report
}
