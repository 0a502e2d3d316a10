// Package linkedin implements OAuth and publishing against the LinkedIn REST API.
package linkedin

import (
	"strings"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/media"

	"golang.org/x/oauth2"
)

const (
	apiURL   = "https://api.linkedin.com"
	authURL  = "https://www.linkedin.com/oauth/v2/authorization"
	tokenURL = "https://www.linkedin.com/oauth/v2/accessToken"

	personPrefix = "urn:li:person:"
	assetPrefix  = "urn:li:digitalmediaAsset:"

	// OrganizationPrefix is the URN prefix of company pages.
	OrganizationPrefix = "urn:li:organization:"
)

var restliHeaders = map[string]string{"X-Restli-Protocol-Version": "2.0.0"}

// Client is both the LinkedIn OAuth provider and publishing adapter.
type Client struct {
	*platform.OAuth
	api      *platform.Client
	pipeline *media.Pipeline
}

func New(creds configuration.OAuthClient, opts ...platform.Option) *Client {
	s := platform.Apply(opts)
	api := platform.NewClient(model.PlatformLinkedIn, s.URL(apiURL, ""), s.HTTPClient)
	endpoint := oauth2.Endpoint{
		AuthURL:   s.URL(authURL, "/oauth/v2/authorization"),
		TokenURL:  s.URL(tokenURL, "/oauth/v2/accessToken"),
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return &Client{
		OAuth:    platform.NewOAuth(model.PlatformLinkedIn, creds, endpoint, false, api),
		api:      api,
		pipeline: media.NewPipeline(model.PlatformLinkedIn, s.PipelineOptions...),
	}
}

// PersonURN normalizes a member id into an author URN.
func PersonURN(id string) string {
	if strings.HasPrefix(id, "urn:li:") {
		return id
	}
	return personPrefix + id
}

func assetID(urn string) string {
	return strings.TrimPrefix(urn, assetPrefix)
}
