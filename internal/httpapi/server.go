// Package httpapi is the JSON HTTP surface over the synthesis pipeline and
// the design store.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/lumastack/agentdraft/internal/auditlog"
	"github.com/lumastack/agentdraft/internal/monitor"
	"github.com/lumastack/agentdraft/internal/store"
	"github.com/lumastack/agentdraft/internal/synthesis"
)

type Options struct {
	Logger *slog.Logger
	Addr   string

	Synthesis *synthesis.Service
	Designs   *store.Store
	Audit     *auditlog.Store
	Monitor   *monitor.Service
}

type Server struct {
	log  *slog.Logger
	addr string

	synth   *synthesis.Service
	designs *store.Store
	audit   *auditlog.Store
	mon     *monitor.Service

	ln  net.Listener
	srv *http.Server
}

func New(opts Options) (*Server, error) {
	if opts.Synthesis == nil {
		return nil, errors.New("missing Synthesis")
	}
	if opts.Designs == nil {
		return nil, errors.New("missing Designs")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = "127.0.0.1:8787"
	}
	return &Server{
		log:     log,
		addr:    addr,
		synth:   opts.Synthesis,
		designs: opts.Designs,
		audit:   opts.Audit,
		mon:     opts.Monitor,
	}, nil
}

// Handler builds the route table. Exposed separately so tests can drive the
// mux through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/synthesis/initial", s.handleSynthesisInitial)
	mux.HandleFunc("/api/synthesis/tools", s.handleSynthesisTools)
	mux.HandleFunc("/api/synthesis/diagram", s.handleSynthesisDiagram)
	mux.HandleFunc("/api/designs", s.handleDesigns)
	mux.HandleFunc("/api/designs/", s.handleDesignByID)
	mux.HandleFunc("/api/health", s.handleHealth)
	return s.logRequests(mux)
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("api server stopped", "error", err)
		}
	}()

	s.log.Info("api listening", "addr", ln.Addr().String())
	return nil
}

func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(ctx)
	}
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.srv = nil
	s.ln = nil
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(started).Milliseconds())
	})
}

// Success/error envelopes shared by every endpoint.

type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 4<<20))
	return dec.Decode(v)
}
