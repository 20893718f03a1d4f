package site

import (
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
)

// Report summarizes one build.
type Report struct {
	BuildID string
	// Pages lists the output paths written, sorted.
	Pages []string
	// Warnings are problems tolerated outside strict mode: tool failures,
	// missing assets and broken links.
	Warnings []error
	// Changed lists output paths whose source differs from the previously
	// published manifest. Every page is changed on a first build.
	Changed []string
	// Missing lists chapter ids without a page.
	Missing []string
	// Failed lists source paths whose page was not written.
	Failed []string
	// BrokenLinks is filled when build.check_links is enabled.
	BrokenLinks  []linkcheck.Broken
	Outcome      metrics.BuildOutcomeLabel
	Duration     time.Duration
	ManifestHash string
}

func (r *Report) deriveOutcome(err error, canceled bool) {
	switch {
	case canceled:
		r.Outcome = metrics.BuildOutcomeCanceled
	case err != nil:
		r.Outcome = metrics.BuildOutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = metrics.BuildOutcomeWarning
	default:
		r.Outcome = metrics.BuildOutcomeSuccess
	}
}
