// Package chapters loads the book's chapter metadata and resolves pages to chapters.
//
// An Index is loaded once per build and is immutable afterwards; it is safe to
// share across page workers without synchronization.
package chapters
