package model

import (
	"strings"
	"time"
)

// Platform identifies an external social network.
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// Platforms lists every platform a profile may be connected to, in display order.
var Platforms = []Platform{PlatformLinkedIn, PlatformTwitter, PlatformFacebook, PlatformInstagram}

// ParsePlatform normalizes a user supplied platform name. "x" is accepted as an alias for twitter.
func ParsePlatform(s string) (Platform, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "x" {
		s = string(PlatformTwitter)
	}
	for _, p := range Platforms {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// ProfileStatus is the connection state of a SocialProfile.
type ProfileStatus string

const (
	ProfileDisconnected ProfileStatus = "disconnected"
	ProfileConnected    ProfileStatus = "connected"
	ProfileExpired      ProfileStatus = "expired"
	ProfileError        ProfileStatus = "error"
)

// TokenCipher encrypts and decrypts stored credentials.
type TokenCipher interface {
	Encrypt(plaintext string) string
	Decrypt(ciphertext string) string
}

// SocialProfile is one connected account per (user, platform).
// Token fields hold ciphertext; use the accessor methods to read or write plaintext.
type SocialProfile struct {
	ID             int64         `json:"id"`
	UserID         string        `json:"user_id"`
	Platform       Platform      `json:"platform"`
	AccessToken    string        `json:"-"`
	RefreshToken   string        `json:"-"`
	TokenExpiresAt *time.Time    `json:"token_expires_at,omitempty"`
	ExternalID     string        `json:"external_id"`
	ProfileName    string        `json:"profile_name"`
	ProfileURL     string        `json:"profile_url"`
	AvatarURL      string        `json:"avatar_url"`
	PageID         *string       `json:"page_id,omitempty"`
	PageName       *string       `json:"page_name,omitempty"`
	Scopes         string        `json:"scopes"`
	Status         ProfileStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (p *SocialProfile) GetAccessToken(c TokenCipher) string {
	return c.Decrypt(p.AccessToken)
}

func (p *SocialProfile) SetAccessToken(c TokenCipher, token string) {
	p.AccessToken = c.Encrypt(token)
}

func (p *SocialProfile) GetRefreshToken(c TokenCipher) string {
	return c.Decrypt(p.RefreshToken)
}

func (p *SocialProfile) SetRefreshToken(c TokenCipher, token string) {
	p.RefreshToken = c.Encrypt(token)
}

// ClearTokens drops every credential and marks the profile disconnected.
func (p *SocialProfile) ClearTokens() {
	p.AccessToken = ""
	p.RefreshToken = ""
	p.TokenExpiresAt = nil
	p.Status = ProfileDisconnected
}

// TokenValid reports whether the profile holds a connected, unexpired token at now.
func (p *SocialProfile) TokenValid(now time.Time) bool {
	if p.Status != ProfileConnected || p.AccessToken == "" {
		return false
	}
	return p.TokenExpiresAt == nil || p.TokenExpiresAt.After(now)
}

// Author returns the identity adapters post as.
func (p *SocialProfile) Author() AuthorIdentity {
	a := AuthorIdentity{ExternalID: p.ExternalID}
	if p.PageID != nil {
		a.PageID = *p.PageID
	}
	return a
}

// ExternalProfile is the account information fetched from a platform after a token exchange.
type ExternalProfile struct {
	ID        string
	Name      string
	URL       string
	AvatarURL string
	PageID    string
	PageName  string
}

// TokenSet is the result of a code or refresh token exchange.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scopes       string
}
