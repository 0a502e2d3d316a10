// Package twitter implements OAuth 2.0 with PKCE and publishing against the X API v2.
package twitter

import (
	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/media"

	"golang.org/x/oauth2"
)

const (
	apiURL   = "https://api.twitter.com"
	authURL  = "https://twitter.com/i/oauth2/authorize"
	tokenURL = "https://api.twitter.com/2/oauth2/token"
)

const (
	// SimpleUploadLimit is the largest image sent as a single request.
	SimpleUploadLimit = 5 << 20
	ChunkSize         = 1 << 20
)

// Client is both the X OAuth provider and publishing adapter.
type Client struct {
	*platform.OAuth
	api      *platform.Client
	pipeline *media.Pipeline
}

// New uses confidential-client Basic auth on the token endpoint and always requires PKCE.
func New(creds configuration.OAuthClient, opts ...platform.Option) *Client {
	s := platform.Apply(opts)
	api := platform.NewClient(model.PlatformTwitter, s.URL(apiURL, ""), s.HTTPClient)
	endpoint := oauth2.Endpoint{
		AuthURL:   s.URL(authURL, "/i/oauth2/authorize"),
		TokenURL:  s.URL(tokenURL, "/2/oauth2/token"),
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	return &Client{
		OAuth:    platform.NewOAuth(model.PlatformTwitter, creds, endpoint, true, api),
		api:      api,
		pipeline: media.NewPipeline(model.PlatformTwitter, s.PipelineOptions...),
	}
}
