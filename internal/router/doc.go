// Package router allocates ARIDs and names the transport slots the
// protocol engines read from and write to (spec.md §4's Router
// component): "the currency of every where-do-I-send/collect question".
package router
