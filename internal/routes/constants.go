package routes

const (
	// API route constants
	APIPrefix       = "/api/"
	StatusRouteAPI  = "/api/status"
	MetricsRouteAPI = "/metrics"
	DashboardRoute  = "/"

	// path variables
	IDVar    = "id"
	DNIVar   = "dni"
	ValueVar = "value"

	// Content-Type constants
	ContentType     = "Content-Type"
	ContentTypeJson = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"

	// message constants
	MsgCreatedFormat     = "%s created successfully"
	MsgUpdatedFormat     = "%s updated successfully"
	MsgDeletedFormat     = "%s deleted successfully"
	MsgNotFoundFormat    = "%s not found"
	MsgNotFoundDNIFormat = "%s not found with that DNI"
	MsgStatusOK          = "API running correctly"
	MsgRouteNotFound     = "Resource not found"
	MsgMethodNotAllowed  = "Method not allowed"
	StatusSuccess        = "success"

	// Error messages
	ErrInvalidContentType       = "Request Content-Type must be application/json"
	ErrInvalidRequestBody       = "Invalid request body"
	ErrRetrievingFormat         = "Error retrieving %s records"
	ErrRetrievingOneFormat      = "Error retrieving %s"
	ErrCreatingFormat           = "Error creating %s"
	ErrUpdatingFormat           = "Error updating %s"
	ErrDeletingFormat           = "Error deleting %s"
	ErrSearchingFormat          = "Error searching %s records by %s"
	ErrInvalidContentTypeFormat = "invalid content-type: %s"
	ErrDashboardData            = "Error loading data from the database"

	// dashboard
	DashboardTitle  = "Dashboard - Clínica Salud Integral"
	DashboardRecent = 6
)
