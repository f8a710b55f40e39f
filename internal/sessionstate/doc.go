// Package sessionstate persists the per-group DKG artifacts and
// per-group/per-session signing artifacts a coordinator or participant
// needs to resume a protocol run out-of-process (spec.md §4.2). Each
// group gets its own directory under a root path, named after the file
// layout spec.md §4.2 lays out verbatim (round1_secret.bin,
// collected_round2.json, signing/<session_id>/start.json, and so on).
package sessionstate
