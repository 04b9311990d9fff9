package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/haguru/clinica/internal/dataservice"
	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/models"
	"github.com/haguru/clinica/internal/models/dto"

	"github.com/gorilla/mux"
)

// EntityRoute serves the REST endpoints of one collection. Each handler makes
// a single DataService call and maps its outcome to an envelope.
type EntityRoute struct {
	Collection models.Collection
	Descriptor models.Descriptor
	Service    interfaces.DataService
	Logger     interfaces.Logger
}

// NewEntityRoute creates a new EntityRoute for a registered collection.
func NewEntityRoute(collection models.Collection, service interfaces.DataService, logger interfaces.Logger) (*EntityRoute, error) {
	descriptor, err := models.Lookup(collection)
	if err != nil {
		return nil, err
	}
	return &EntityRoute{
		Collection: collection,
		Descriptor: descriptor,
		Service:    service,
		Logger:     logger,
	}, nil
}

// GetAll handles GET /api/<collection>.
func (e *EntityRoute) GetAll(w http.ResponseWriter, req *http.Request) {
	records, err := e.Service.GetAll(req.Context(), e.Collection)
	if err != nil {
		e.errorResponse(w, http.StatusInternalServerError, err, fmt.Sprintf(ErrRetrievingFormat, e.singular()))
		return
	}
	e.listResponse(w, records)
}

// GetByID handles GET /api/<collection>/{id}.
func (e *EntityRoute) GetByID(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)[IDVar]
	record, err := e.Service.GetByID(req.Context(), e.Collection, id)
	if err != nil {
		if errors.Is(err, dataservice.ErrNotFound) {
			e.notFound(w, fmt.Sprintf(MsgNotFoundFormat, e.Descriptor.Singular))
			return
		}
		e.errorResponse(w, http.StatusInternalServerError, err, fmt.Sprintf(ErrRetrievingOneFormat, e.singular()))
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Data: record})
}

// Create handles POST /api/<collection>. Every failure is reported as 400.
func (e *EntityRoute) Create(w http.ResponseWriter, req *http.Request) {
	fields, ok := e.decodeBody(w, req)
	if !ok {
		return
	}

	record, err := e.Service.Create(req.Context(), e.Collection, fields)
	if err != nil {
		e.errorResponse(w, http.StatusBadRequest, err, fmt.Sprintf(ErrCreatingFormat, e.singular()))
		return
	}

	writeJSON(w, http.StatusCreated, dto.Envelope{
		Success: true,
		Message: fmt.Sprintf(MsgCreatedFormat, e.Descriptor.Singular),
		Data:    record,
	})
}

// Update handles PUT /api/<collection>/{id}.
func (e *EntityRoute) Update(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)[IDVar]
	patch, ok := e.decodeBody(w, req)
	if !ok {
		return
	}

	record, err := e.Service.Update(req.Context(), e.Collection, id, patch)
	if err != nil {
		if errors.Is(err, dataservice.ErrNotFound) {
			e.notFound(w, fmt.Sprintf(MsgNotFoundFormat, e.Descriptor.Singular))
			return
		}
		e.errorResponse(w, http.StatusBadRequest, err, fmt.Sprintf(ErrUpdatingFormat, e.singular()))
		return
	}

	writeJSON(w, http.StatusOK, dto.Envelope{
		Success: true,
		Message: fmt.Sprintf(MsgUpdatedFormat, e.Descriptor.Singular),
		Data:    record,
	})
}

// Delete handles DELETE /api/<collection>/{id}.
func (e *EntityRoute) Delete(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)[IDVar]
	deleted, err := e.Service.Delete(req.Context(), e.Collection, id)
	if err != nil {
		e.errorResponse(w, http.StatusInternalServerError, err, fmt.Sprintf(ErrDeletingFormat, e.singular()))
		return
	}
	if !deleted {
		e.notFound(w, fmt.Sprintf(MsgNotFoundFormat, e.Descriptor.Singular))
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{
		Success: true,
		Message: fmt.Sprintf(MsgDeletedFormat, e.Descriptor.Singular),
	})
}

// GetByDNI handles GET /api/<collection>/dni/{dni}.
func (e *EntityRoute) GetByDNI(w http.ResponseWriter, req *http.Request) {
	dni := mux.Vars(req)[DNIVar]
	record, err := e.Service.GetByDNI(req.Context(), e.Collection, dni)
	if err != nil {
		if errors.Is(err, dataservice.ErrNotFound) {
			e.notFound(w, fmt.Sprintf(MsgNotFoundDNIFormat, e.Descriptor.Singular))
			return
		}
		e.errorResponse(w, http.StatusInternalServerError, err, fmt.Sprintf(ErrRetrievingOneFormat, e.singular()))
		return
	}
	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Data: record})
}

// GetByField returns the handler for GET /api/<collection>/<segment>/{value}
// filtering on field.
func (e *EntityRoute) GetByField(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		value := mux.Vars(req)[ValueVar]
		records, err := e.Service.GetByField(req.Context(), e.Collection, field, value)
		if err != nil {
			e.errorResponse(w, http.StatusInternalServerError, err, fmt.Sprintf(ErrSearchingFormat, e.singular(), field))
			return
		}
		e.listResponse(w, records)
	}
}

func (e *EntityRoute) singular() string {
	return strings.ToLower(e.Descriptor.Singular)
}

func (e *EntityRoute) listResponse(w http.ResponseWriter, records []models.Record) {
	if records == nil {
		records = []models.Record{}
	}
	count := len(records)
	writeJSON(w, http.StatusOK, dto.Envelope{Success: true, Data: records, Count: &count})
}

func (e *EntityRoute) notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, dto.Envelope{Success: false, Message: message})
}

func (e *EntityRoute) errorResponse(w http.ResponseWriter, status int, err error, message string) {
	if status >= http.StatusInternalServerError {
		e.Logger.Error(message, "table", e.Collection, "status", status, "error", err)
	} else {
		e.Logger.Warn(message, "table", e.Collection, "status", status, "error", err)
	}
	writeJSON(w, status, dto.Envelope{Success: false, Message: message, Error: err.Error()})
}

// decodeBody reads a JSON object body and writes the 400 response itself
// when the Content-Type or the body is wrong.
func (e *EntityRoute) decodeBody(w http.ResponseWriter, req *http.Request) (map[string]interface{}, bool) {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get(ContentType))
	if err != nil || mediaType != ContentTypeJson {
		e.errorResponse(w, http.StatusBadRequest, fmt.Errorf(ErrInvalidContentTypeFormat, req.Header.Get(ContentType)), ErrInvalidContentType)
		return nil, false
	}

	fields := map[string]interface{}{}
	if err := json.NewDecoder(req.Body).Decode(&fields); err != nil {
		e.errorResponse(w, http.StatusBadRequest, err, ErrInvalidRequestBody)
		return nil, false
	}
	return fields, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(ContentType, ContentTypeJson)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
