// Package idgen wraps the UUID generator so that it can be stubbed in tests.
// Identifiers are opaque strings; callers must not rely on their format.
package idgen
