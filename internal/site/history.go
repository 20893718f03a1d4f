package site

import (
	"context"
	"log/slog"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/history"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// History failures never fail a build; they are logged.

func (b *Builder) recordStarted(ctx context.Context, buildID string, pages int, logger *slog.Logger) {
	if b.history == nil {
		return
	}
	err := b.history.BuildStarted(context.WithoutCancel(ctx), buildID, history.BuildStartedPayload{
		Source: b.cfg.SourceDir(),
		Output: b.outputDir,
		Pages:  pages,
	})
	if err != nil {
		logger.Warn("Failed to record build start", logfields.Error(err))
	}
}

func (b *Builder) recordPageFailed(ctx context.Context, buildID string, failure error, logger *slog.Logger) {
	if b.history == nil {
		return
	}
	payload := history.PageFailedPayload{
		Page:     pageOf(failure),
		Category: string(ferrors.GetCategory(failure)),
		Message:  failure.Error(),
	}
	if err := b.history.PageFailed(context.WithoutCancel(ctx), buildID, payload); err != nil {
		logger.Warn("Failed to record page failure", logfields.Error(err))
	}
}

func (b *Builder) recordFinished(ctx context.Context, report *Report, buildErr error, logger *slog.Logger) {
	if b.history == nil {
		return
	}
	errCount := 0
	if buildErr != nil {
		errCount = len(report.Failed) + len(report.Missing)
		if errCount == 0 {
			errCount = 1
		}
	}
	err := b.history.BuildFinished(context.WithoutCancel(ctx), report.BuildID, history.BuildFinishedPayload{
		Outcome:    string(report.Outcome),
		Pages:      len(report.Pages),
		Warnings:   len(report.Warnings),
		Errors:     errCount,
		DurationMS: report.Duration.Milliseconds(),
	})
	if err != nil {
		logger.Warn("Failed to record build result", logfields.Error(err))
	}
}
