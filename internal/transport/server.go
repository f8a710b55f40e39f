package transport

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	domain "xfrost/internal/domain"
)

// Server is the reference xfrost-kvd HTTP handler: a single-write
// key/value slot store keyed by ARID, exactly the contract domain.KvStore
// requires (spec.md §6). It is deliberately the simplest adapter among the
// ones spec.md names (HTTP server, DHT, IPFS gateway, hybrid fallback);
// the engine never knows which one it is talking to.
type Server struct {
	log  *zap.Logger
	mu   sync.RWMutex
	data map[domain.ARID][]byte
}

// NewServer returns an http.Handler implementing the kvd protocol.
func NewServer(log *zap.Logger) *Server {
	return &Server{log: log, data: make(map[domain.ARID][]byte)}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/arid/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	arid, err := parseARID(strings.TrimPrefix(r.URL.Path, prefix))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.put(w, r, arid)
	case http.MethodGet:
		s.get(w, arid)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) put(w http.ResponseWriter, r *http.Request, arid domain.ARID) {
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	_, exists := s.data[arid]
	if !exists {
		s.data[arid] = body
	}
	s.mu.Unlock()

	if exists {
		s.log.Warn("rejected write to already-written arid", zap.String("arid", arid.String()))
		http.Error(w, "arid already written", http.StatusConflict)
		return
	}
	s.log.Debug("wrote arid", zap.String("arid", arid.String()), zap.Int("bytes", len(body)))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) get(w http.ResponseWriter, arid domain.ARID) {
	s.mu.RLock()
	body, ok := s.data[arid]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(body)
}

func parseARID(hexStr string) (domain.ARID, error) {
	var a domain.ARID
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return domain.ARID{}, err
	}
	if len(b) != len(a) {
		return domain.ARID{}, fmt.Errorf("arid must be 32 bytes hex-encoded, got %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}
