// Package edge runs the public HTTP listener in front of the router.
package edge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/previewgate/internal/adapters/in/http/middleware"
	"github.com/bnema/previewgate/internal/boundaries/in"
	"github.com/bnema/previewgate/internal/logging"
)

// shutdownGrace bounds how long in-flight requests may finish on shutdown.
const shutdownGrace = 30 * time.Second

// Server serves the edge router over HTTP.
type Server struct {
	router      in.EdgeRouter
	port        int
	trustedNets []*net.IPNet
	log         zerolog.Logger
}

// NewServer creates the edge server.
func NewServer(router in.EdgeRouter, port int, trustedNets []*net.IPNet, log zerolog.Logger) *Server {
	return &Server{
		router:      router,
		port:        port,
		trustedNets: trustedNets,
		log:         log,
	}
}

// Handler returns the router wrapped in the request middleware chain.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(
		middleware.PanicRecovery(s.log),
		middleware.RequestLogger(s.log, s.trustedNets),
	)(s.router)
}

// Start listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(s.port))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext: func(net.Listener) context.Context {
			return logging.WithCtx(context.Background(), s.log)
		},
	}

	s.log.Info().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "http").
		Str("address", ln.Addr().String()).
		Msg("edge server starting")

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.log.Info().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "http").
			Msg("edge server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
