// Package lessons declares the synced collections: lessons, compositions and
// progressions.
//
// Each collection names its identity prefix, the fields its identity is
// derived from, and the field map between the local and the remote schema.
//
// The local schema predates the remote one. Locally, "category" holds the
// difficulty of a lesson and "topic" its subject; remotely the difficulty
// lives in "difficulty" and "category" is a separate field the sync never
// writes.
package lessons
