// Package facebook implements OAuth and page publishing against the Graph API.
package facebook

import (
	"context"
	"errors"
	"net/url"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/media"

	"golang.org/x/oauth2"
)

const (
	graphURL = "https://graph.facebook.com/v19.0"
	authURL  = "https://www.facebook.com/v19.0/dialog/oauth"
	tokenURL = "https://graph.facebook.com/v19.0/oauth/access_token"
)

var errNoPages = errors.New("no pages available for this account")

// Client is both the Facebook OAuth provider and page publishing adapter.
// The stored credential is the long-lived user token; page tokens are resolved per call.
type Client struct {
	*platform.OAuth
	graph    *platform.Client
	creds    configuration.OAuthClient
	pipeline *media.Pipeline
}

func New(creds configuration.OAuthClient, opts ...platform.Option) *Client {
	s := platform.Apply(opts)
	graph := platform.NewClient(model.PlatformFacebook, s.URL(graphURL, ""), s.HTTPClient)
	endpoint := oauth2.Endpoint{
		AuthURL:   s.URL(authURL, "/dialog/oauth"),
		TokenURL:  s.URL(tokenURL, "/oauth/access_token"),
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return &Client{
		OAuth:    platform.NewOAuth(model.PlatformFacebook, creds, endpoint, false, graph),
		graph:    graph,
		creds:    creds,
		pipeline: media.NewPipeline(model.PlatformFacebook, s.PipelineOptions...),
	}
}

type tokenQuery struct {
	AccessToken string `url:"access_token"`
	Fields      string `url:"fields,omitempty"`
}

type page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

func (c *Client) pages(ctx context.Context, userToken string) ([]page, error) {
	var out struct {
		Data []page `json:"data"`
	}
	if _, err := c.graph.DoJSON(ctx, platform.Request{
		Path:      "/me/accounts",
		Operation: "get pages",
		Query:     tokenQuery{AccessToken: userToken, Fields: "id,name,access_token"},
	}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// pageFor returns the page the author publishes to, or the first managed page.
func (c *Client) pageFor(ctx context.Context, userToken string, author model.AuthorIdentity) (*page, error) {
	pages, err := c.pages(ctx, userToken)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if author.PageID == "" || pages[i].ID == author.PageID {
			return &pages[i], nil
		}
	}
	return nil, &errs.PlatformAPIError{Platform: string(model.PlatformFacebook), Operation: "get pages", Cause: errNoPages}
}

func escape(id string) string { return url.PathEscape(id) }
