package routes

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/models"
	"github.com/haguru/clinica/internal/models/dto"
)

// RegisterAPI adds the REST endpoints of every registered collection to the server.
func RegisterAPI(srv interfaces.Server, service interfaces.DataService, logger interfaces.Logger) error {
	for _, collection := range models.Collections() {
		entity, err := NewEntityRoute(collection, service, logger)
		if err != nil {
			return err
		}
		if err := entity.register(srv); err != nil {
			return fmt.Errorf("failed to add %s routes: %w", collection, err)
		}
	}
	return nil
}

// RegisterPages adds the dashboard, the management pages and the status endpoint.
func RegisterPages(srv interfaces.Server, page *PageRoute) error {
	if err := srv.AddRoute(StatusRouteAPI, page.Status, http.MethodGet); err != nil {
		return fmt.Errorf("failed to add status route: %w", err)
	}
	if err := srv.AddRoute(DashboardRoute, page.Dashboard, http.MethodGet); err != nil {
		return fmt.Errorf("failed to add dashboard route: %w", err)
	}
	for _, collection := range models.Collections() {
		if err := srv.AddRoute("/"+collection.String(), page.Page(collection), http.MethodGet); err != nil {
			return fmt.Errorf("failed to add %s page: %w", collection, err)
		}
	}
	return nil
}

// RegisterFallbacks answers unknown paths and unsupported methods with the
// JSON envelope instead of the router's empty defaults.
func RegisterFallbacks(srv interfaces.Server) {
	srv.NotFound(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, dto.Envelope{Success: false, Message: MsgRouteNotFound})
	}))
	srv.MethodNotAllowed(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, dto.Envelope{Success: false, Message: MsgMethodNotAllowed})
	}))
}

type endpoint struct {
	path    string
	handler http.HandlerFunc
	method  string
}

func (e *EntityRoute) register(srv interfaces.Server) error {
	base := APIPrefix + e.Collection.String()
	item := base + "/{" + IDVar + "}"

	endpoints := []endpoint{
		{base, e.GetAll, http.MethodGet},
		{base, e.Create, http.MethodPost},
	}
	if e.Descriptor.HasDNI {
		endpoints = append(endpoints, endpoint{base + "/dni/{" + DNIVar + "}", e.GetByDNI, http.MethodGet})
	}

	segments := make([]string, 0, len(e.Descriptor.IndexedFields))
	for segment := range e.Descriptor.IndexedFields {
		segments = append(segments, segment)
	}
	sort.Strings(segments)
	for _, segment := range segments {
		path := base + "/" + segment + "/{" + ValueVar + "}"
		endpoints = append(endpoints, endpoint{path, e.GetByField(e.Descriptor.IndexedFields[segment]), http.MethodGet})
	}

	endpoints = append(endpoints,
		endpoint{item, e.GetByID, http.MethodGet},
		endpoint{item, e.Update, http.MethodPut},
		endpoint{item, e.Delete, http.MethodDelete},
	)

	for _, ep := range endpoints {
		if err := srv.AddRoute(ep.path, ep.handler, ep.method); err != nil {
			return err
		}
	}
	return nil
}
