// Package ingestsync provides an asynchronous outbox-sync engine that propagates content
// record changes from a host system into an external ingestion API.
//
// Typical flow:
//  1. Host events (record saved, record permanently removed) are routed through Hooks,
//     which enqueue work on a Queue instead of calling the remote API inline.
//  2. A Worker periodically runs a Processor tick: queued deletions first, then queued
//     syncs, then one page of a running bulk reconciliation pass, all within a fixed budget.
//  3. Every item is handed to the Engine, which decides ingest, delete or skip and calls
//     the ingestion API through a Client. Items are dequeued after a single attempt.
//
// State lives in a small key-value store (KVStore) plus a per-item marker store. For
// table-backed implementations see the mysql and sqlite packages.
package ingestsync
