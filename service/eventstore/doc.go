// Package eventstore defines the event history contracts the approver reads
// from and appends to, together with a factory selecting a storage vendor.
//
// Vendors:
//
//   - memory   – process-local store, used in tests and dry runs
//   - fs       – one JSON document per batch on any afs-supported file system
//   - sqlite   – database/sql with modernc.org/sqlite
//   - postgres – database/sql with github.com/lib/pq
//
// Every vendor returns round trips ascending by number with events in
// append order, and registers an unknown round trip on first append.
package eventstore
