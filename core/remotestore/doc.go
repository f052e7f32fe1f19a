// Package remotestore implements the authoritative multi-user store.
//
// Two backends are available:
//
//   - SQLRemote keeps records in a gorm table, one row per
//     (owner, collection, identity), and authorizes principals against the
//     remote_principals table.
//   - ObjectRemote keeps one JSON object per record in a minio bucket at
//     <principal>/<collection>/<identity>.json.
//
// Both upsert by identity, so replaying a write is harmless, and both scope
// every read and write to the principal of the session.
package remotestore
