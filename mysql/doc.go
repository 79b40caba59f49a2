// Package mysql provides MySQL 8.0+ storage for ingestsync.
//
// A single Store exposes:
//   - the key-value table holding the delete queue, bulk progress and schedule documents
//   - an indexed sync queue table (ORDER BY queued_at, item_id) instead of one JSON document
//   - an attempt marker table keyed by item id
//   - a read-only RecordSource over the host content table (id > cursor ORDER BY id ASC)
//   - a GET_LOCK advisory Locker that makes worker ticks single-flight across processes
//
// See Schema for the DDL of the owned tables and ContentSchema for the expected
// shape of the host table.
package mysql
