package dto

// SignupRequest is the body of POST /early-access.
type SignupRequest struct {
	Email        string `json:"email"`
	Type         string `json:"type"`
	BusinessName string `json:"business_name,omitempty"`
}
