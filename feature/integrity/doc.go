// Package integrity provides health checks of both stores.
//
// # Checks Provided
//
//   - Local: per collection, records without an identity token, identities
//     claimed twice, and records shadowed by a tombstone.
//   - Remote: the remote tables and their required columns (sql driver), or
//     the bucket (object driver). Both can be repaired with fix.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/local : Runs the local check.
//   - GET /integrity/remote : Runs the remote check (supports ?fix=true).
package integrity
