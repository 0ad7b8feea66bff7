// Package extension provides run-time registries of named components and
// of the Go types they accept and return, so a host can invoke a component
// by name with a freshly allocated input.
package extension
