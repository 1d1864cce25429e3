// Package contentstore provides the content-entry store behind the roastery
// editing portal.
//
// A Store keeps every typed content entry (brewing guides, menu items,
// events, ...) in a single in-memory Document and persists that document as
// one JSON blob under a fixed key in a BlobStore. Creation, deletion, Clear
// and Save write the whole document immediately; UpdateEntry only arms a
// coalescing auto-save timer, so a burst of edits produces exactly one write
// one delay interval after the last edit.
//
// # Persistence
//
// The persistence granularity is always the whole document. Documents.Load
// never fails: a missing blob, a parse failure or a version mismatch all
// degrade to an empty document. Capacity failures on write are surfaced to
// the user through a Notifier and leave in-memory state authoritative.
//
// Backends for the BlobStore live under storage/ (memory, fs, s3, sqlstore). The
// schema subpackage enumerates the known content types and validates entry
// data; the store itself never validates.
package contentstore
