// Package transport implements the HTTP KvStore adapter spec.md §6
// describes: a single-write key/value slot keyed by ARID, reachable over
// HTTP. The engine only depends on domain.KvStore, so this is one
// interchangeable adapter among the DHT/IPFS/hybrid alternatives the
// specification names; xfrost-kvd is the reference server this client talks to.
package transport
