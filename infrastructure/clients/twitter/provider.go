package twitter

import (
	"context"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
)

func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*model.TokenSet, error) {
	tok, err := c.Exchange(ctx, code, codeVerifier)
	if err != nil {
		return nil, err
	}
	return platform.TokenSet(tok), nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	tok, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return platform.TokenSet(tok), nil
}

type userFields struct {
	Fields string `url:"user.fields"`
}

func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*model.ExternalProfile, error) {
	var out struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	_, err := c.api.DoJSON(ctx, platform.Request{
		Path:      "/2/users/me",
		Operation: "users me",
		Token:     accessToken,
		Query:     userFields{Fields: "profile_image_url,username"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &model.ExternalProfile{
		ID:        out.Data.ID,
		Name:      out.Data.Name,
		URL:       "https://twitter.com/" + out.Data.Username,
		AvatarURL: out.Data.ProfileImageURL,
	}, nil
}
