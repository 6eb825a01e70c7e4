package dto

// ClaimRequest is the body of POST /claims.
type ClaimRequest struct {
	BusinessID string `json:"business_id"`
	Proof      string `json:"proof"`
}

// ClaimDecisionRequest is the body of POST /admin/claims/:id/decision.
type ClaimDecisionRequest struct {
	Action string `json:"action"`
}
