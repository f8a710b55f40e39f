// Package registry persists the owner's identity, known participants,
// group records, and routing bookkeeping to a single JSON file, guarded by
// a cross-process exclusive lock and written via temp-file-then-rename so
// a crash mid-write never corrupts the file (spec.md §4.1, §5).
package registry
