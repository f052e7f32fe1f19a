// Package localstore is the durable offline-first store.
//
// It keeps one row per key in a small key-value table:
//
//	<collection>          -> JSON array of record payloads
//	deleted:<collection>  -> JSON object of tombstoned identity -> creation time
//
// Records carry no identity column; identities are derived from their payload
// by the collection's IdentityResolver. Every write is a read-modify-write of a
// single key inside one transaction.
package localstore
