package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logger "github.com/haguru/clinica/pkg/zerolog"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AddRoute(t *testing.T) {
	srv := NewServer("127.0.0.1", "0", logger.NewWithWriter("test", io.Discard))

	err := srv.AddRoute("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(mux.Vars(r)["id"]))
	}, http.MethodGet)
	require.NoError(t, err)

	assert.Error(t, srv.AddRoute("", nil))
	assert.Error(t, srv.Handle("/x", nil))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "matching method", method: http.MethodGet, path: "/api/items/7", wantStatus: http.StatusOK, wantBody: "7"},
		{name: "wrong method", method: http.MethodPost, path: "/api/items/7", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown path", method: http.MethodGet, path: "/api/other", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.Router().ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestServer_Use(t *testing.T) {
	srv := NewServer("127.0.0.1", "0", logger.NewWithWriter("test", io.Discard))
	srv.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test", "yes")
			next.ServeHTTP(w, r)
		})
	})
	require.NoError(t, srv.Handle("/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "yes", rr.Header().Get("X-Test"))
}

func TestServer_Fallbacks(t *testing.T) {
	srv := NewServer("127.0.0.1", "0", logger.NewWithWriter("test", io.Discard))
	require.NoError(t, srv.AddRoute("/api/items", func(w http.ResponseWriter, r *http.Request) {}, http.MethodGet))

	// Fallbacks set before Use still pick up the middleware.
	srv.NotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	srv.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test", "yes")
			next.ServeHTTP(w, r)
		})
	})
	srv.MethodNotAllowed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("wrong method"))
	}))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "unknown path", method: http.MethodGet, path: "/api/other", wantStatus: http.StatusNotFound, wantBody: "missing"},
		{name: "wrong method", method: http.MethodPatch, path: "/api/items", wantStatus: http.StatusMethodNotAllowed, wantBody: "wrong method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.Router().ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
			assert.Equal(t, "yes", rr.Header().Get("X-Test"))
		})
	}
}

func TestServer_Shutdown(t *testing.T) {
	srv := NewServer("127.0.0.1", "0", logger.NewWithWriter("test", io.Discard))

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
