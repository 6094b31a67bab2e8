package handlers

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthConfigResponse describes the enabled authentication methods.
type AuthConfigResponse struct {
	Methods  []string `json:"methods"`
	OAuthURL string   `json:"oauth_url,omitempty"`
}
