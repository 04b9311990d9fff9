package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haguru/clinica/internal/dataservice"
	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/interfaces/mocks"
	"github.com/haguru/clinica/internal/metrics"
	"github.com/haguru/clinica/internal/models"
	"github.com/haguru/clinica/internal/models/dto"
	"github.com/haguru/clinica/internal/recordrepo/memory"
	"github.com/haguru/clinica/internal/server"
	pkgmetrics "github.com/haguru/clinica/pkg/metrics"
	logger "github.com/haguru/clinica/pkg/zerolog"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Count   *int            `json:"count"`
}

func newTestServer(t *testing.T, service interfaces.DataService) http.Handler {
	t.Helper()
	log := logger.NewWithWriter("test", io.Discard)
	srv := server.NewServer("127.0.0.1", "0", log)
	require.NoError(t, RegisterAPI(srv, service, log))
	require.NoError(t, RegisterPages(srv, NewPageRoute(service, log, "memory")))
	RegisterFallbacks(srv)
	return srv.Router()
}

func newMemoryServer(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewWithWriter("test", io.Discard)
	return newTestServer(t, dataservice.NewDataService(memory.NewMemoryRecordRepository(), nil, log, nil))
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(ContentType, ContentTypeJson)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	env := envelope{}
	if strings.HasPrefix(rr.Header().Get(ContentType), ContentTypeJson) {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr, env
}

func TestPatientLifecycle(t *testing.T) {
	h := newMemoryServer(t)

	rr, env := do(t, h, http.MethodPost, "/api/pacientes", `{"DNI":"123","Nombre":"Ana"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Patient created successfully", env.Message)
	created := models.Record{}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created.ID()
	require.NotEmpty(t, id)

	rr, env = do(t, h, http.MethodGet, "/api/pacientes/dni/123", "")
	require.Equal(t, http.StatusOK, rr.Code)
	byDNI := models.Record{}
	require.NoError(t, json.Unmarshal(env.Data, &byDNI))
	assert.Equal(t, created, byDNI)

	rr, env = do(t, h, http.MethodDelete, "/api/pacientes/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Patient deleted successfully", env.Message)

	rr, env = do(t, h, http.MethodGet, "/api/pacientes/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Patient not found", env.Message)

	rr, _ = do(t, h, http.MethodDelete, "/api/pacientes/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateErrors(t *testing.T) {
	h := newMemoryServer(t)
	rr, _ := do(t, h, http.MethodPost, "/api/pacientes", `{"DNI":"1","Nombre":"Ana"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantMessage string
		wantError   string
	}{
		{
			name:        "missing content type",
			body:        `{"DNI":"2","Nombre":"Luis"}`,
			wantMessage: ErrInvalidContentType,
		},
		{
			name:        "invalid JSON body",
			contentType: ContentTypeJson,
			body:        `{"DNI":"2""Nombre":"Luis"}`,
			wantMessage: ErrInvalidRequestBody,
		},
		{
			name:        "validation failure",
			contentType: ContentTypeJson,
			body:        `{"DNI":"2"}`,
			wantMessage: "Error creating patient",
			wantError:   "Nombre failed on 'required'",
		},
		{
			name:        "duplicate DNI",
			contentType: "application/json; charset=utf-8",
			body:        `{"DNI":"1","Nombre":"Otra"}`,
			wantMessage: "Error creating patient",
			wantError:   "DNI already exists in the database",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/pacientes", bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set(ContentType, tt.contentType)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			env := envelope{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMessage, env.Message)
			if tt.wantError != "" {
				assert.Contains(t, env.Error, tt.wantError)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	h := newMemoryServer(t)
	_, env := do(t, h, http.MethodPost, "/api/medicos",
		`{"DNI":"1","Nombre":"Juan","Apellido":"Pérez","Especialidad":"Clínica","Matricula":"MN-1"}`)
	created := models.Record{}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, true, created["Activo"])

	rr, env := do(t, h, http.MethodPut, "/api/medicos/"+created.ID(), `{"Especialidad":"Cardiología","Activo":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Doctor updated successfully", env.Message)
	updated := models.Record{}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Cardiología", updated["Especialidad"])
	assert.Equal(t, false, updated["Activo"])

	rr, _ = do(t, h, http.MethodPut, "/api/medicos/"+created.ID(), `{"Nombre":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = do(t, h, http.MethodPut, "/api/medicos/missing", `{"Nombre":"X"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetAllAndByField(t *testing.T) {
	h := newMemoryServer(t)

	rr, env := do(t, h, http.MethodGet, "/api/turnos", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)
	assert.JSONEq(t, `[]`, string(env.Data))

	for _, estado := range []string{"pendiente", "confirmado", "pendiente"} {
		rr, _ := do(t, h, http.MethodPost, "/api/turnos",
			`{"Paciente":"p","Medico":"m","Fecha":"2024-05-02","Hora":"10:00","Estado":"`+estado+`"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr, env = do(t, h, http.MethodGet, "/api/turnos", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, *env.Count)

	rr, env = do(t, h, http.MethodGet, "/api/turnos/estado/pendiente", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, *env.Count)

	rr, env = do(t, h, http.MethodGet, "/api/turnos/estado/cancelado", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, *env.Count)

	rr, _ = do(t, h, http.MethodGet, "/api/turnos/dni/123", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServiceErrors(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setupMock  func(m *mocks.MockDataService)
		wantStatus int
	}{
		{
			name:   "get all fails",
			method: http.MethodGet, path: "/api/pacientes",
			setupMock: func(m *mocks.MockDataService) {
				m.On("GetAll", mock.Anything, models.Patients).Return(nil, boom)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "get by id fails",
			method: http.MethodGet, path: "/api/pacientes/abc",
			setupMock: func(m *mocks.MockDataService) {
				m.On("GetByID", mock.Anything, models.Patients, "abc").Return(nil, boom)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "delete fails",
			method: http.MethodDelete, path: "/api/medicos/abc",
			setupMock: func(m *mocks.MockDataService) {
				m.On("Delete", mock.Anything, models.Doctors, "abc").Return(false, boom)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "get by dni fails",
			method: http.MethodGet, path: "/api/medicos/dni/9",
			setupMock: func(m *mocks.MockDataService) {
				m.On("GetByDNI", mock.Anything, models.Doctors, "9").Return(nil, boom)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "get by field fails",
			method: http.MethodGet, path: "/api/pacientes/obra-social/OSDE",
			setupMock: func(m *mocks.MockDataService) {
				m.On("GetByField", mock.Anything, models.Patients, "ObraSocial", "OSDE").Return(nil, boom)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "update store error",
			method: http.MethodPut, path: "/api/turnos/abc", body: `{"Estado":"cancelado"}`,
			setupMock: func(m *mocks.MockDataService) {
				m.On("Update", mock.Anything, models.Appointments, "abc", map[string]interface{}{"Estado": "cancelado"}).Return(nil, boom)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := mocks.NewMockDataService(t)
			tt.setupMock(service)
			h := newTestServer(t, service)

			rr, env := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.False(t, env.Success)
			assert.Equal(t, boom.Error(), env.Error)
		})
	}
}

func TestStatus(t *testing.T) {
	h := newMemoryServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, StatusRouteAPI, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	resp := dto.StatusResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "memory", resp.Database)
	assert.Equal(t, "/api/pacientes", resp.Endpoints["pacientes"])
	assert.Equal(t, StatusRouteAPI, resp.Endpoints["status"])
	_, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
	assert.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	h := newMemoryServer(t)
	for _, dni := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		rr, _ := do(t, h, http.MethodPost, "/api/pacientes", `{"DNI":"`+dni+`","Nombre":"Paciente`+dni+`"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.Contains(t, body, "Pacientes: 7")
	assert.Contains(t, body, "Paciente7")
	assert.NotContains(t, body, "Paciente1<")
	assert.Less(t, strings.Index(body, "Paciente7"), strings.Index(body, "Paciente6"))
	assert.NotContains(t, body, ErrDashboardData)
}

func TestDashboardError(t *testing.T) {
	service := mocks.NewMockDataService(t)
	service.On("GetAll", mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	h := newTestServer(t, service)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, ErrDashboardData)
	assert.Contains(t, body, "Turnos: 0")
}

func TestDashboardCountsAndNames(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	m := pkgmetrics.NewMetrics("test")
	metrics.Register(m)
	h := newTestServer(t, dataservice.NewDataService(memory.NewMemoryRecordRepository(), nil, log, m))

	_, paciente := do(t, h, http.MethodPost, "/api/pacientes", `{"DNI":"1","Nombre":"Ana","Apellido":"García"}`)
	_, medico := do(t, h, http.MethodPost, "/api/medicos",
		`{"DNI":"2","Nombre":"Juan","Apellido":"Pérez","Especialidad":"Clínica","Matricula":"MN-1"}`)
	pacienteID, medicoID := recordID(t, paciente), recordID(t, medico)
	rr, _ := do(t, h, http.MethodPost, "/api/turnos",
		`{"Paciente":"`+pacienteID+`","Medico":"`+medicoID+`","Fecha":"2025-03-01","Hora":"09:30"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr, _ = do(t, h, http.MethodPost, "/api/turnos",
		`{"Paciente":"unknown","Medico":"`+medicoID+`","Fecha":"2025-03-02","Hora":"10:00"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.Contains(t, body, "Turnos: 2")
	assert.Contains(t, body, "Pacientes: 1")
	assert.Contains(t, body, "Médicos: 1")
	assert.Contains(t, body, "<td>Ana García</td><td>Juan Pérez</td>")
	assert.Contains(t, body, "<td>unknown</td><td>Juan Pérez</td>")
	assert.NotContains(t, body, "<td>"+medicoID+"</td>")

	count, err := testutil.GatherAndCount(m.GetRegistry(), metrics.RecordsTotal)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDashboardCountError(t *testing.T) {
	service := mocks.NewMockDataService(t)
	service.On("GetAll", mock.Anything, mock.Anything).Return([]models.Record{{models.IDField: "1"}}, nil)
	service.On("Count", mock.Anything, models.Appointments).Return(int64(0), errors.New("down"))
	h := newTestServer(t, service)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), ErrDashboardData)
	assert.Contains(t, rr.Body.String(), "Pacientes: 0")
}

func TestFallbacks(t *testing.T) {
	h := newMemoryServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantMsg    string
	}{
		{name: "no dni route for appointments", method: http.MethodGet, path: "/api/turnos/dni/1", wantStatus: http.StatusNotFound, wantMsg: MsgRouteNotFound},
		{name: "unknown collection", method: http.MethodGet, path: "/api/facturas", wantStatus: http.StatusNotFound, wantMsg: MsgRouteNotFound},
		{name: "patch not supported", method: http.MethodPatch, path: "/api/pacientes", wantStatus: http.StatusMethodNotAllowed, wantMsg: MsgMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := do(t, h, tt.method, tt.path, "")
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestErrorResponseLogLevel(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name      string
		req       func() *http.Request
		handler   func(e *EntityRoute) http.HandlerFunc
		setupMock func(m *mocks.MockDataService)
		wantLevel string
	}{
		{
			name: "store failure logs an error",
			req:  func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/pacientes", nil) },
			handler: func(e *EntityRoute) http.HandlerFunc {
				return e.GetAll
			},
			setupMock: func(m *mocks.MockDataService) {
				m.On("GetAll", mock.Anything, models.Patients).Return(nil, boom)
			},
			wantLevel: `"level":"error"`,
		},
		{
			name: "bad request logs a warning",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/pacientes", strings.NewReader("{}"))
			},
			handler: func(e *EntityRoute) http.HandlerFunc {
				return e.Create
			},
			setupMock: func(m *mocks.MockDataService) {},
			wantLevel: `"level":"warn"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			service := mocks.NewMockDataService(t)
			tt.setupMock(service)
			e, err := NewEntityRoute(models.Patients, service, logger.NewWithWriter("test", buf))
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			tt.handler(e)(rr, tt.req())
			assert.Contains(t, buf.String(), tt.wantLevel)
		})
	}
}

func recordID(t *testing.T, env envelope) string {
	t.Helper()
	record := models.Record{}
	require.NoError(t, json.Unmarshal(env.Data, &record))
	require.NotEmpty(t, record.ID())
	return record.ID()
}

func TestPages(t *testing.T) {
	h := newMemoryServer(t)
	for _, c := range models.Collections() {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/"+c.String(), nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), pageTitles[c])
	}
}

func TestLatest(t *testing.T) {
	records := []models.Record{{"n": 1}, {"n": 2}, {"n": 3}}
	assert.Equal(t, []models.Record{{"n": 3}, {"n": 2}}, latest(records, 2))
	assert.Equal(t, []models.Record{{"n": 3}, {"n": 2}, {"n": 1}}, latest(records, 6))
	assert.Empty(t, latest(nil, 6))
}
