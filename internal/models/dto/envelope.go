package dto

// Envelope is the response body shared by every API endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

// StatusResponse is returned by the status endpoint.
type StatusResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Database  string            `json:"database"`
	Endpoints map[string]string `json:"endpoints"`
}

// RateLimitResponse is written when a client exceeds the request budget.
type RateLimitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
