package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type Server struct {
	log             *logger.Logger
	srv             *http.Server
	shutdownTimeout time.Duration
}

func NewServer(log *logger.Logger, addr string, shutdownTimeout time.Duration, cfg RouterConfig) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	return &Server{
		log:             log.With("component", "HTTPServer"),
		shutdownTimeout: shutdownTimeout,
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
