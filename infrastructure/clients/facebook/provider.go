package facebook

import (
	"context"
	"errors"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
)

type exchangeQuery struct {
	GrantType       string `url:"grant_type"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	FBExchangeToken string `url:"fb_exchange_token"`
}

// ExchangeCode trades the code for a short-lived user token and upgrades it to a long-lived one.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*model.TokenSet, error) {
	short, err := c.Exchange(ctx, code, codeVerifier)
	if err != nil {
		return nil, err
	}
	var long struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if _, err := c.graph.DoJSON(ctx, platform.Request{
		Path:      "/oauth/access_token",
		Operation: "long-lived token exchange",
		Query: exchangeQuery{
			GrantType:       "fb_exchange_token",
			ClientID:        c.creds.ClientID,
			ClientSecret:    c.creds.ClientSecret,
			FBExchangeToken: short.AccessToken,
		},
	}, &long); err != nil {
		return nil, err
	}
	ts := &model.TokenSet{AccessToken: long.AccessToken}
	if long.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(long.ExpiresIn) * time.Second).UTC()
		ts.ExpiresAt = &exp
	}
	if scope, ok := short.Extra("scope").(string); ok {
		ts.Scopes = scope
	}
	return ts, nil
}

// RefreshToken always fails: Facebook issues no refresh tokens and the user must reconnect.
func (c *Client) RefreshToken(_ context.Context, _ string) (*model.TokenSet, error) {
	return nil, &errs.PlatformAPIError{Platform: string(model.PlatformFacebook), Operation: "token refresh", Cause: errors.New("refresh tokens are not supported")}
}

// FetchProfile reads the user and selects the first managed page as the publishing target.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*model.ExternalProfile, error) {
	var me struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if _, err := c.graph.DoJSON(ctx, platform.Request{
		Path:      "/me",
		Operation: "get me",
		Query:     tokenQuery{AccessToken: accessToken, Fields: "id,name,picture"},
	}, &me); err != nil {
		return nil, err
	}
	p, err := c.pageFor(ctx, accessToken, model.AuthorIdentity{})
	if err != nil {
		return nil, err
	}
	return &model.ExternalProfile{
		ID:        me.ID,
		Name:      me.Name,
		URL:       "https://www.facebook.com/" + p.ID,
		AvatarURL: me.Picture.Data.URL,
		PageID:    p.ID,
		PageName:  p.Name,
	}, nil
}
