// Package snapshot stores the durable copy of the history window.
//
// A snapshot is a single named slot holding an opaque JSON document. Each
// save overwrites the slot wholesale; there is no merge. Backends:
//   - file: one JSON file per key, replaced atomically via rename
//   - redis: SET/GET on the key, optional TTL
//   - postgres: one row per key, upserted
//   - none: never finds anything, discards saves
package snapshot
