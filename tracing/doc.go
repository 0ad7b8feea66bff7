// Package tracing wraps OpenTelemetry so approver and processor code can open
// spans with StartSpan/EndSpan without importing the SDK.
package tracing
