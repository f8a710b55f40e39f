// Package collector implements the Parallel Collector (spec.md §4.7): a
// single cooperative executor that fans fetches and dispatches out over a
// KvStore, concurrently via golang.org/x/sync/errgroup or sequentially for
// deterministic tests, recording per-participant outcomes without ever
// letting one participant's failure abort the group.
package collector
