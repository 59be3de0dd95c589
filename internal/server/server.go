package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

type Middleware func(http.Handler) http.Handler

// MethodAPI is the single-endpoint surface the router exposes.
type MethodAPI interface {
	Method(w http.ResponseWriter, r *http.Request)
	NotFound(w http.ResponseWriter, r *http.Request)
}

type Server struct {
	httpServer *http.Server
	log        *zerolog.Logger
}

func NewServer(addr string, log *zerolog.Logger, h MethodAPI, mws ...Middleware) *Server {
	router := mux.NewRouter()
	for _, mw := range mws {
		router.Use(mux.MiddlewareFunc(mw))
	}

	router.HandleFunc("/method", h.Method).Methods(http.MethodPost)

	// Всё остальное - 404 в том же конверте
	router.NotFoundHandler = chain(http.HandlerFunc(h.NotFound), mws...)
	router.MethodNotAllowedHandler = chain(http.HandlerFunc(h.NotFound), mws...)

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		log: log,
	}
}

func chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", "http://"+s.httpServer.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
