package dto

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the envelope of every JSON reply except the beacons.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse builds the error form of the envelope.
func ErrorResponse(message string) APIResponse {
	return APIResponse{Status: StatusError, Message: message}
}
