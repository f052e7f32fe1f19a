// Package sync exposes reconciliation passes and the tombstone ledger over HTTP.
//
// # Routes
//
//	POST   /sync/:collection                    run a pass (?force=true bypasses the throttle)
//	GET    /sync/:collection/preview            pending changes of a pass, nothing applied
//	GET    /sync/:collection/cursor             last successful pass and current state
//	GET    /tombstones/:collection              list tombstones
//	POST   /tombstones/:collection/clear-token  issue a clear confirmation token
//	POST   /tombstones/:collection/:identity    tombstone an identity
//	DELETE /tombstones/:collection?token=...    clear every tombstone
//	DELETE /records/:collection/:identity       delete a local record and tombstone it
//
// The remote principal of a request comes from the principal header
// (X-Principal by default).
package sync
