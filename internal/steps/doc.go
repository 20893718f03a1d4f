// Package steps holds the page steps that run on every rendered page and the
// pipeline that orders them.
//
// Every step receives the page tree and a shared read-only Env carrying the
// chapter index and the page catalog. Steps within a page run sequentially
// in pipeline order; pages run in parallel, so a step must not mutate Env.
//
// Ordering is declared, not numbered: each step names a Stage and optional
// MustRunAfter / MustRunBefore constraints. BuildPipeline groups steps by
// stage (StageOrder) and sorts each group topologically.
package steps
