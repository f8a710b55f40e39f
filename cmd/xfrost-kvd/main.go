// Command xfrost-kvd is the reference single-write key/value rendezvous
// server spec.md §6 names as one valid transport binding: an HTTP server
// exposing PUT/GET on /arid/<hex>, refusing any second write to the same
// slot.
package main

import (
	"flag"
	"log"
	"net/http"

	"go.uber.org/zap"

	"xfrost/internal/transport"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("xfrost-kvd: build logger: %v", err)
	}
	defer logger.Sync()

	server := transport.NewServer(logger)
	logger.Info("xfrost-kvd listening", zap.String("addr", *addr))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Fatal("xfrost-kvd: serve", zap.Error(err))
	}
}
