// Package progress keeps aggregated evaluation counters for a single run of
// the processor. The tracker travels in the context so every component can
// apply a Delta without a global registry.
package progress
