package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/haguru/clinica/internal/interfaces"

	"github.com/gorilla/mux"
)

var (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
	IdleTimeout  = 30 * time.Second
)

type Server struct {
	Port             string
	Host             string
	server           *http.Server
	router           *mux.Router
	middlewares      []mux.MiddlewareFunc
	notFound         http.Handler
	methodNotAllowed http.Handler
	Logger           interfaces.Logger
}

// NewServer creates a new Server instance with the specified host and port.
func NewServer(host, port string, logger interfaces.Logger) interfaces.Server {
	router := mux.NewRouter()
	server := &http.Server{
		Addr:         host + ":" + port,
		Handler:      router,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	return &Server{
		Host:   host,
		Port:   port,
		server: server,
		router: router,
		Logger: logger,
	}
}

// AddRoute adds a new route to the server.
// The handler function will be called when the route is accessed with one of
// the given methods, or with any method when none are given.
func (s *Server) AddRoute(route string, handler func(w http.ResponseWriter, r *http.Request), methods ...string) error {
	if route == "" || handler == nil {
		return fmt.Errorf("route and handler are required")
	}
	r := s.router.HandleFunc(route, handler)
	if len(methods) > 0 {
		r.Methods(methods...)
	}
	s.Logger.Info("Route added", "route", route, "methods", methods)
	return nil
}

// Handle mounts an http.Handler on the route for every method.
func (s *Server) Handle(route string, handler http.Handler) error {
	if route == "" || handler == nil {
		return fmt.Errorf("route and handler are required")
	}
	s.router.Handle(route, handler)
	s.Logger.Info("Handler added", "route", route)
	return nil
}

// Router exposes the underlying router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Use appends middleware to the router chain. The router only runs it for
// matched routes, so the fallback handlers are wrapped with it as well.
func (s *Server) Use(middleware ...mux.MiddlewareFunc) {
	s.middlewares = append(s.middlewares, middleware...)
	s.router.Use(middleware...)
	s.applyFallbacks()
}

// NotFound sets the handler for requests that match no route.
func (s *Server) NotFound(handler http.Handler) {
	s.notFound = handler
	s.applyFallbacks()
}

// MethodNotAllowed sets the handler for requests whose path matches a route
// registered for other methods.
func (s *Server) MethodNotAllowed(handler http.Handler) {
	s.methodNotAllowed = handler
	s.applyFallbacks()
}

func (s *Server) applyFallbacks() {
	if s.notFound != nil {
		s.router.NotFoundHandler = s.chain(s.notFound)
	}
	if s.methodNotAllowed != nil {
		s.router.MethodNotAllowedHandler = s.chain(s.methodNotAllowed)
	}
}

// chain wraps handler so the first registered middleware runs outermost,
// the same order the router applies.
func (s *Server) chain(handler http.Handler) http.Handler {
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i].Middleware(handler)
	}
	return handler
}

// ListenAndServe starts the HTTP server and listens for incoming requests.
// It returns nil once the server has been shut down.
func (s *Server) ListenAndServe() error {
	s.Logger.Info("Starting server", "host", s.Host, "port", s.Port)
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Logger.Error("Failed to start server", "error", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for active requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("Shutting down server", "host", s.Host, "port", s.Port)
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
