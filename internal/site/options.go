package site

import (
	"log/slog"

	"git.home.luguber.info/inful/bookbuilder/internal/external"
	"git.home.luguber.info/inful/bookbuilder/internal/history"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/steps"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build progress.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithRunner replaces the subprocess runner used by code_check and highlight.
func WithRunner(r external.Runner) Option {
	return func(b *Builder) { b.runner = r }
}

// WithExtraSteps appends steps to the configured pipeline.
func WithExtraSteps(s ...steps.Step) Option {
	return func(b *Builder) { b.extra = append(b.extra, s...) }
}

// WithOutputDir overrides output.directory.
func WithOutputDir(dir string) Option {
	return func(b *Builder) { b.outputDir = dir }
}

// WithHistory records build events.
func WithHistory(r *history.Recorder) Option {
	return func(b *Builder) { b.history = r }
}
