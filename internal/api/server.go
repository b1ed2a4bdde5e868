// Package api is the thin HTTP layer over the dubbing service. All
// semantics live in the internal packages; handlers only decode,
// delegate and encode.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/voxlate/voxlate/internal/jobs"
	"github.com/voxlate/voxlate/internal/service"
)

type Server struct {
	svc   *service.Service
	queue *jobs.Queue

	mux    *http.ServeMux
	server *http.Server
}

func NewServer(svc *service.Service, queue *jobs.Queue) *Server {
	s := &Server{
		svc:   svc,
		queue: queue,
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/v1/subtitles", s.handleSubtitles)
	s.mux.HandleFunc("/v1/translate", s.handleTranslate)
	s.mux.HandleFunc("/v1/optimize", s.handleOptimize)
	s.mux.HandleFunc("/v1/narrate", s.handleNarrate)
	s.mux.HandleFunc("/v1/validate", s.handleValidate)
	s.mux.HandleFunc("/v1/adjust", s.handleAdjust)
	s.mux.HandleFunc("/v1/combine", s.handleCombine)
	s.mux.HandleFunc("/v1/dub", s.handleDub)
	s.mux.HandleFunc("/v1/jobs", s.handleJobs)
	s.mux.HandleFunc("/v1/jobs/", s.handleJobByID)
}
