// Package preview serves a built book over HTTP, rebuilds it when sources
// change and tells open browser tabs to reload over server-sent events.
package preview
