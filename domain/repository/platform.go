package repository

import (
	"context"

	"social-publisher/domain/model"
)

// IPlatformAdapter is the capability set the orchestrator needs from a platform.
type IPlatformAdapter interface {
	Platform() model.Platform
	IsConfigured() bool
	CreatePost(ctx context.Context, accessToken string, author model.AuthorIdentity, text string, media []model.MediaRef) (*model.PostResult, error)
	// UploadMedia takes the author because some platforms own assets per member or page.
	UploadMedia(ctx context.Context, accessToken string, author model.AuthorIdentity, data []byte, mimeType string, category model.MediaCategory) (*model.MediaRef, error)
	DeletePost(ctx context.Context, accessToken string, author model.AuthorIdentity, postID string) (bool, error)
	// GetMetrics never fails; unavailable counts are zero.
	GetMetrics(ctx context.Context, accessToken string, author model.AuthorIdentity, postID string) model.Metrics
}

// IOAuthProvider implements the authorization code flow for one platform.
type IOAuthProvider interface {
	Platform() model.Platform
	IsConfigured() bool
	RequiresPKCE() bool
	// AuthorizationURL embeds state and, when non-empty, an S256 code challenge.
	AuthorizationURL(state, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*model.TokenSet, error)
	RefreshToken(ctx context.Context, refreshToken string) (*model.TokenSet, error)
	FetchProfile(ctx context.Context, accessToken string) (*model.ExternalProfile, error)
}
