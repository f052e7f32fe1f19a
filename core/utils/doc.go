// Package utils provides common utility functions for lesson-sync.
// It includes helpers for converting the loosely typed scalar values found in
// record payloads (JSON numbers, database driver values, strings) into Go types.
package utils
