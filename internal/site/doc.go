// Package site drives a whole book build: it loads the chapter index and
// layout once, discovers page sources, renders every page through the step
// pipeline on a bounded worker pool and publishes the result atomically.
package site
