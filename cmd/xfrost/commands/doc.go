// Package commands is the xfrost CLI's cobra command tree: owner/registry
// enrollment, group DKG, and threshold signing (spec.md §10).
package commands
