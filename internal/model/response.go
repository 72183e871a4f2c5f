package model

// ErrorResponse is the stable error shape for every failing request:
// a message array, the numeric status, and the status name.
type ErrorResponse struct {
	Message    []string `json:"message,omitempty" example:"Invalid input"`
	StatusCode int      `json:"statusCode" example:"400"`
	Error      string   `json:"error" example:"Bad Request"`
}

type HealthResponse struct {
	Status string `json:"status" example:"OK"`
}
