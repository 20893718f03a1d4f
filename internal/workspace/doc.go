// Package workspace manages the staging directory a build writes into.
//
// A build renders every page into a hidden sibling of the output directory
// (e.g. .bookbuilder-staging-1234) and only replaces the output directory
// once all pages succeeded. A failed build leaves the previous output intact.
package workspace
