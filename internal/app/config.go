package app

import "net/http"

// Config holds runtime wiring options for building the app.
type Config struct {
	Home       string       // registry/session-state home directory, e.g. $HOME/.xfrost
	KvURL      string       // xfrost-kvd base URL, e.g. http://127.0.0.1:8090
	HTTP       *http.Client // optional; defaults to http.DefaultClient
	Parallel   bool         // run the collector's fetches/dispatches concurrently
	MaxSigners int          // group size n, required before any DKG invite
	Threshold  int          // group threshold m, required before any DKG invite
}
