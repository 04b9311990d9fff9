package metrics

import (
	"github.com/haguru/clinica/internal/interfaces"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names shared by the HTTP layer and the data service.
const (
	HTTPRequestsTotal      = "http_requests_total"
	HTTPRequestDuration    = "http_request_duration_seconds"
	RateLimitedTotal       = "http_rate_limited_total"
	DataOperationsTotal    = "data_operations_total"
	DataOperationDuration  = "data_operation_duration_seconds"
	DataOperationErrors    = "data_operation_errors_total"
	RecordsTotal           = "records_total"
	DuplicateRejectedTotal = "duplicate_rejected_total"
)

// Register adds the clinic metrics to m.
func Register(m interfaces.Metrics) {
	m.RegisterCounterVec(HTTPRequestsTotal, "Total number of HTTP requests", []string{"method", "route", "status"})
	m.RegisterHistogramVec(HTTPRequestDuration, "HTTP request latency", prometheus.DefBuckets, []string{"method", "route"})
	m.RegisterCounter(RateLimitedTotal, "Total number of requests rejected by the rate limiter")

	m.RegisterCounterVec(DataOperationsTotal, "Total number of data operations", []string{"collection", "operation"})
	m.RegisterHistogramVec(DataOperationDuration, "Data operation latency", prometheus.DefBuckets, []string{"collection", "operation"})
	m.RegisterCounterVec(DataOperationErrors, "Total number of failed data operations", []string{"collection", "operation"})
	m.RegisterCounterVec(DuplicateRejectedTotal, "Writes rejected because a unique field already exists", []string{"collection", "field"})
	m.RegisterGaugeVec(RecordsTotal, "Number of records per collection as of the last count", []string{"collection"})
}
