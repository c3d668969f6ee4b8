// Package inspector exposes live state instances over a local HTTP debug
// server. Development tools list instances, edit values and trigger
// cleanup through it; nothing in this package runs in production builds
// unless explicitly started.
package inspector

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/reactive"
)

// Server serves the inspection side-channel for one registry.
type Server struct {
	reg      *reactive.Registry
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates an inspector over reg. A nil reg inspects the default
// registry.
func New(reg *reactive.Registry) *Server {
	if reg == nil {
		reg = reactive.Default()
	}
	return &Server{reg: reg}
}

// Start begins serving on the given port. Returns the actual port, which
// matters when port is 0 and an ephemeral one is allocated. Starting an
// already running server returns its current port.
func (s *Server) Start(port int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		if s.listener != nil {
			return s.listener.Addr().(*net.TCPAddr).Port, nil
		}
		return port, nil
	}

	// Bind first to fail fast on port conflicts
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return 0, fmt.Errorf("inspector listen: %w", err)
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/instances", s.handleInstances)
	mux.HandleFunc("/instances/update", s.handleUpdate)
	mux.HandleFunc("/cleanup", s.handleCleanup)
	mux.HandleFunc("/health", s.handleHealth)

	server := &http.Server{Handler: mux}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
			errors.Report(&errors.StateError{
				Op:   "inspector.Serve",
				Kind: errors.KindUnknown,
				Err:  err,
			})
		}
	}()

	return actualPort, nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

// instanceJSON is the wire form of one live instance.
type instanceJSON struct {
	Type           string `json:"type"`
	Key            string `json:"key"`
	HasListeners   bool   `json:"hasListeners"`
	ReferenceCount int    `json:"referenceCount"`
	AutoDispose    bool   `json:"autoDispose"`
	RelatedCount   int    `json:"relatedCount"`
	ValuePreview   string `json:"valuePreview"`
	Variant        string `json:"variant,omitempty"`
}

// handleInstances lists every live instance.
func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	infos := s.reg.Snapshot()
	out := make([]instanceJSON, len(infos))
	for i, info := range infos {
		out[i] = instanceJSON{
			Type:           info.TypeName,
			Key:            info.Identity.Key,
			HasListeners:   info.HasListeners,
			ReferenceCount: info.ReferenceCount,
			AutoDispose:    info.AutoDispose,
			RelatedCount:   info.RelatedCount,
			ValuePreview:   info.ValuePreview,
			Variant:        info.VariantTag,
		}
	}
	writeJSON(w, map[string]any{
		"count":     len(out),
		"instances": out,
	})
}

// updateRequest is the body of POST /instances/update.
type updateRequest struct {
	Type  string          `json:"type"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// handleUpdate live-edits one instance's value. The new value still runs
// through the normal equality check and propagation path.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, fmt.Sprintf("read body: %v", err), http.StatusBadRequest)
		return
	}
	var req updateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Type == "" || req.Key == "" || len(req.Value) == 0 {
		http.Error(w, "type, key and value are required", http.StatusBadRequest)
		return
	}

	id := reactive.Identity{Type: req.Type, Key: req.Key}
	if err := s.reg.UpdateValue(id, req.Value); err != nil {
		status := http.StatusBadRequest
		var notFound *reactive.NotFoundError
		if stderrors.As(err, &notFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]any{"updated": id.String()})
}

// handleCleanup disposes every instance and empties the registry.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	removed := s.reg.Len()
	s.reg.ClearAll()
	writeJSON(w, map[string]any{"removed": removed})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
