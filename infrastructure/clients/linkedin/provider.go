package linkedin

import (
	"context"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/logger"
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

type userInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
}

type aclQuery struct {
	Q     string `url:"q"`
	Role  string `url:"role"`
	State string `url:"state"`
}

type organizationAcls struct {
	Elements []struct {
		Organization string `json:"organization"`
	} `json:"elements"`
}

// FetchProfile reads the OpenID userinfo of the authenticated member and, when the
// member administers an organization, records it as the profile's page. Organization
// webhooks are addressed to that page.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*model.ExternalProfile, error) {
	var info userInfo
	if _, err := c.api.DoJSON(ctx, platform.Request{Path: "/v2/userinfo", Operation: "userinfo", Token: accessToken}, &info); err != nil {
		return nil, err
	}
	return &model.ExternalProfile{
		ID:        info.Sub,
		Name:      info.Name,
		AvatarURL: info.Picture,
		PageID:    c.administeredOrganization(ctx, accessToken),
	}, nil
}

// administeredOrganization is best effort: members without the organization scope get "".
func (c *Client) administeredOrganization(ctx context.Context, accessToken string) string {
	var acls organizationAcls
	_, err := c.api.DoJSON(ctx, platform.Request{
		Path:      "/v2/organizationAcls",
		Operation: "organization acls",
		Token:     accessToken,
		Query:     aclQuery{Q: "roleAssignee", Role: "ADMINISTRATOR", State: "APPROVED"},
		Headers:   restliHeaders,
	}, &acls)
	if err != nil {
		logger.GetLogger().WithField("platform", model.PlatformLinkedIn).WithField("error", err).Debug("No administered organization")
		return ""
	}
	for _, e := range acls.Elements {
		if id := strings.TrimPrefix(e.Organization, OrganizationPrefix); id != "" && id != e.Organization {
			return id
		}
	}
	return ""
}
