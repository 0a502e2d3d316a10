package dto

// AuthorizationURLResponse is returned by GET /{platform}/connect.
type AuthorizationURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

// SocialProfileStatus is one entry of GET /social-profiles/status.
type SocialProfileStatus struct {
	Platform     string `json:"platform"`
	Connected    bool   `json:"connected"`
	ProfileName  string `json:"profile_name"`
	ProfileURL   string `json:"profile_url"`
	Status       string `json:"status"`
	IsTokenValid bool   `json:"is_token_valid"`
}
