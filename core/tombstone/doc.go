// Package tombstone records locally deleted identities so that a sync pass
// never recreates them remotely.
//
// Tombstones never expire. They are only removed by ClearAll, which requires a
// single-use confirmation token obtained from RequestClear.
package tombstone
