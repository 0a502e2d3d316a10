package model

import "time"

// OAuthStateTTL is how long an authorization flow may take before its state is rejected.
const OAuthStateTTL = 10 * time.Minute

// OAuthState is a single-use CSRF nonce, optionally carrying a PKCE code verifier.
type OAuthState struct {
	ID           int64     `json:"id"`
	State        string    `json:"state"`
	UserID       string    `json:"user_id"`
	Platform     Platform  `json:"platform"`
	CodeVerifier *string   `json:"code_verifier,omitempty"`
	Used         bool      `json:"used"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *OAuthState) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > OAuthStateTTL
}
