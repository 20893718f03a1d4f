// Package errors provides the classified error primitives used across bookbuilder.
//
// A ClassifiedError carries a category (configuration, chapter metadata,
// external tool, filesystem...), a severity and a small structured context.
// The CLI and HTTP adapters map categories to exit codes and status codes.
//
// Example usage:
//
//	err := errors.ConfigError("container selector matched no node").
//		WithSelector("#toc").
//		WithPage(p.SourcePath).
//		Build()
package errors
