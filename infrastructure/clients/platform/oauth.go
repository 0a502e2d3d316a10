package platform

import (
	"context"
	"errors"
	"strings"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"golang.org/x/oauth2"
)

// OAuth wraps an oauth2.Config with the conventions every provider shares:
// S256 challenges, per-call timeouts and PlatformAPIError wrapping.
type OAuth struct {
	platform model.Platform
	config   *oauth2.Config
	pkce     bool
	http     *Client
}

func NewOAuth(platform model.Platform, creds configuration.OAuthClient, endpoint oauth2.Endpoint, pkce bool, client *Client) *OAuth {
	return &OAuth{
		platform: platform,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       creds.Scopes,
			Endpoint:     endpoint,
		},
		pkce: pkce,
		http: client,
	}
}

func (o *OAuth) Platform() model.Platform { return o.platform }

func (o *OAuth) Config() *oauth2.Config { return o.config }

func (o *OAuth) RequiresPKCE() bool { return o.pkce }

// Missing names the first absent credential, or "" when fully configured.
func (o *OAuth) Missing() string {
	switch {
	case o.config.ClientID == "":
		return "client_id"
	case o.config.ClientSecret == "":
		return "client_secret"
	case o.config.RedirectURL == "":
		return "redirect_uri"
	}
	return ""
}

func (o *OAuth) IsConfigured() bool { return o.Missing() == "" }

// ConfigurationError returns nil when configured.
func (o *OAuth) ConfigurationError() error {
	if m := o.Missing(); m != "" {
		return &errs.ConfigurationError{Platform: string(o.platform), Missing: m}
	}
	return nil
}

// AuthorizationURL embeds state and, when set, an S256 code challenge.
func (o *OAuth) AuthorizationURL(state, codeChallenge string) string {
	var opts []oauth2.AuthCodeOption
	if codeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	return o.config.AuthCodeURL(state, opts...)
}

func (o *OAuth) withClient(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	if o.http != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.http.HTTPClient())
	}
	return ctx, cancel
}

// Exchange trades an authorization code for a token, sending the PKCE verifier when set.
func (o *OAuth) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	if err := o.ConfigurationError(); err != nil {
		return nil, err
	}
	ctx, cancel := o.withClient(ctx)
	defer cancel()
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}
	tok, err := o.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, o.wrap("token exchange", err)
	}
	return tok, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if err := o.ConfigurationError(); err != nil {
		return nil, err
	}
	ctx, cancel := o.withClient(ctx)
	defer cancel()
	src := o.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)})
	tok, err := src.Token()
	if err != nil {
		return nil, o.wrap("token refresh", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

func (o *OAuth) wrap(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &errs.PlatformAPIError{Platform: string(o.platform), Operation: op, StatusCode: re.Response.StatusCode, Body: strings.TrimSpace(string(re.Body))}
	}
	return &errs.PlatformAPIError{Platform: string(o.platform), Operation: op, Cause: err}
}

// TokenSet converts an oauth2 token into the domain representation.
func TokenSet(tok *oauth2.Token) *model.TokenSet {
	ts := &model.TokenSet{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		ts.ExpiresAt = &exp
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		ts.Scopes = scope
	}
	return ts
}
