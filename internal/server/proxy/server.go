package proxy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

// Server runs the gateway HTTP endpoint and stops gracefully when its
// context is cancelled.
type Server struct {
	address string
	handler *Handler
	logger  logging.Logger
}

func NewServer(address string, upstreamBaseURL string, requestTimeout time.Duration, l logging.Logger) (*Server, error) {
	forwarder, err := NewForwarder(upstreamBaseURL, &http.Client{Timeout: requestTimeout})
	if err != nil {
		return nil, err
	}

	return &Server{
		address: address,
		handler: NewHandler(forwarder, l),
		logger:  l.With("module", "http_server"),
	}, nil
}

func (s *Server) Run(ctx context.Context) error {

	mux := http.NewServeMux()
	mux.Handle("/api/proxy", s.handler)

	srv := &http.Server{Addr: s.address, Handler: mux}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
