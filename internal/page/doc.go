// Package page is the in-memory document model for one output page.
//
// A Page wraps a goquery document and adds the operations the build steps
// need: selector lookups that fail loudly, templated fragment rendering and
// deterministic serialization.
package page
