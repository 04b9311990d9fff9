package interfaces

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// Server interface defines the methods for a server implementation.
type Server interface {
	// AddRoute registers handler for route, restricted to methods when any are given.
	AddRoute(route string, handler func(w http.ResponseWriter, r *http.Request), methods ...string) error
	Handle(route string, handler http.Handler) error
	Router() *mux.Router
	Use(middleware ...mux.MiddlewareFunc)
	// NotFound and MethodNotAllowed set the fallback handlers; middleware added with Use wraps them.
	NotFound(handler http.Handler)
	MethodNotAllowed(handler http.Handler)
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}
