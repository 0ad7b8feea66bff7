// Package event publishes typed notifications, such as evaluation outcomes,
// over a messaging queue.
package event
