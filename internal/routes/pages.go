package routes

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/models"
	"github.com/haguru/clinica/internal/models/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"field": field,
}).ParseFS(templateFS, "templates/*.html"))

// pageTitles maps the management pages to their headings.
var pageTitles = map[models.Collection]string{
	models.Patients:     "Gestión de Pacientes",
	models.Doctors:      "Gestión de Médicos",
	models.Appointments: "Gestión de Turnos",
}

// DashboardMetrics holds the record count of each collection.
type DashboardMetrics struct {
	Turnos    int64
	Pacientes int64
	Medicos   int64
}

// AppointmentRow is an appointment with the patient and doctor resolved to names.
type AppointmentRow struct {
	Fecha    string
	Hora     string
	Paciente string
	Medico   string
	Estado   string
}

// DashboardView is the data rendered by the dashboard template.
type DashboardView struct {
	Title     string
	Turnos    []AppointmentRow
	Pacientes []models.Record
	Medicos   []models.Record
	Metrics   DashboardMetrics
	Error     string
}

// PageRoute serves the HTML views and the status endpoint.
type PageRoute struct {
	Service  interfaces.DataService
	Logger   interfaces.Logger
	Database string
	now      func() time.Time
}

// NewPageRoute creates a new PageRoute. database is the store name reported by the status endpoint.
func NewPageRoute(service interfaces.DataService, logger interfaces.Logger, database string) *PageRoute {
	return &PageRoute{
		Service:  service,
		Logger:   logger,
		Database: database,
		now:      time.Now,
	}
}

// Dashboard renders the latest appointments and patients, newest first, with
// the count of every collection. A failing store renders an empty dashboard
// with an error banner.
func (p *PageRoute) Dashboard(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	view := DashboardView{
		Title:     DashboardTitle,
		Turnos:    []AppointmentRow{},
		Pacientes: []models.Record{},
		Medicos:   []models.Record{},
	}

	turnos, errT := p.Service.GetAll(ctx, models.Appointments)
	pacientes, errP := p.Service.GetAll(ctx, models.Patients)
	medicos, errM := p.Service.GetAll(ctx, models.Doctors)
	if err := firstError(errT, errP, errM); err != nil {
		p.Logger.Error("Error loading dashboard data", "error", err)
		view.Error = ErrDashboardData
		p.render(w, "index.html", view)
		return
	}

	counts, err := p.counts(ctx)
	if err != nil {
		p.Logger.Error("Error counting dashboard records", "error", err)
		view.Error = ErrDashboardData
		p.render(w, "index.html", view)
		return
	}

	view.Turnos = appointmentRows(latest(turnos, DashboardRecent), fullNames(pacientes), fullNames(medicos))
	view.Pacientes = latest(pacientes, DashboardRecent)
	view.Medicos = medicos
	view.Metrics = counts
	p.render(w, "index.html", view)
}

func (p *PageRoute) counts(ctx context.Context) (DashboardMetrics, error) {
	counts := DashboardMetrics{}
	var err error
	if counts.Turnos, err = p.Service.Count(ctx, models.Appointments); err != nil {
		return DashboardMetrics{}, err
	}
	if counts.Pacientes, err = p.Service.Count(ctx, models.Patients); err != nil {
		return DashboardMetrics{}, err
	}
	if counts.Medicos, err = p.Service.Count(ctx, models.Doctors); err != nil {
		return DashboardMetrics{}, err
	}
	return counts, nil
}

// Page returns the handler of the management page of a collection.
func (p *PageRoute) Page(collection models.Collection) http.HandlerFunc {
	view := struct {
		Title      string
		Collection string
		API        string
	}{
		Title:      pageTitles[collection],
		Collection: collection.String(),
		API:        APIPrefix + collection.String(),
	}
	return func(w http.ResponseWriter, req *http.Request) {
		p.render(w, "page.html", view)
	}
}

// Status handles GET /api/status.
func (p *PageRoute) Status(w http.ResponseWriter, req *http.Request) {
	endpoints := map[string]string{"status": StatusRouteAPI}
	for _, c := range models.Collections() {
		endpoints[c.String()] = APIPrefix + c.String()
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{
		Status:    StatusSuccess,
		Message:   MsgStatusOK,
		Timestamp: p.now().UTC().Format(time.RFC3339Nano),
		Database:  p.Database,
		Endpoints: endpoints,
	})
}

func (p *PageRoute) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set(ContentType, ContentTypeHTML)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		p.Logger.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// latest returns up to n records from the end of records, newest first.
func latest(records []models.Record, n int) []models.Record {
	start := len(records) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.Record, 0, len(records)-start)
	for i := len(records) - 1; i >= start; i-- {
		out = append(out, records[i])
	}
	return out
}

// field formats a record value for display; missing keys render empty.
func field(r models.Record, key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// fullNames maps record identities to "Nombre Apellido".
func fullNames(records []models.Record) map[string]string {
	names := make(map[string]string, len(records))
	for _, r := range records {
		names[r.ID()] = strings.TrimSpace(field(r, "Nombre") + " " + field(r, "Apellido"))
	}
	return names
}

// appointmentRows resolves the patient and doctor references of appointments.
// References that match no record are shown as stored.
func appointmentRows(turnos []models.Record, pacientes, medicos map[string]string) []AppointmentRow {
	rows := make([]AppointmentRow, 0, len(turnos))
	for _, t := range turnos {
		rows = append(rows, AppointmentRow{
			Fecha:    field(t, "Fecha"),
			Hora:     field(t, "Hora"),
			Paciente: resolve(pacientes, field(t, "Paciente")),
			Medico:   resolve(medicos, field(t, "Medico")),
			Estado:   field(t, "Estado"),
		})
	}
	return rows
}

func resolve(names map[string]string, id string) string {
	if name := names[id]; name != "" {
		return name
	}
	return id
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
