package usecase

import (
	"context"
	"errors"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/metrics"
	"social-publisher/infrastructure/utils"

	"golang.org/x/oauth2"
)

// RefreshLookahead is how close to expiry a token may get before it is refreshed.
const RefreshLookahead = 5 * time.Minute

type IConnectionUsecase interface {
	BeginAuthorization(ctx context.Context, userID string, platform model.Platform) (string, error)
	CompleteAuthorization(ctx context.Context, platform model.Platform, code, state string) (*model.SocialProfile, error)
	// ValidAccessToken is the single entry point for obtaining a usable token; it refreshes when needed.
	ValidAccessToken(ctx context.Context, profile *model.SocialProfile) (string, error)
	Disconnect(ctx context.Context, userID string, platform model.Platform) error
	Status(ctx context.Context, userID string) ([]dto.SocialProfileStatus, error)
}

type connectionUsecase struct {
	providers     map[model.Platform]repository.IOAuthProvider
	states        repository.IOAuthState
	profiles      repository.ISocialProfile
	cipher        model.TokenCipher
	testModeToken string
	now           func() time.Time
}

func NewConnectionUsecase(
	providers []repository.IOAuthProvider,
	states repository.IOAuthState,
	profiles repository.ISocialProfile,
	cipher model.TokenCipher,
	testModeToken string,
	opts ...Option,
) IConnectionUsecase {
	o := buildOptions(opts)
	byPlatform := make(map[model.Platform]repository.IOAuthProvider, len(providers))
	for _, p := range providers {
		byPlatform[p.Platform()] = p
	}
	return &connectionUsecase{
		providers:     byPlatform,
		states:        states,
		profiles:      profiles,
		cipher:        cipher,
		testModeToken: testModeToken,
		now:           o.now,
	}
}

func (u *connectionUsecase) provider(platform model.Platform) (repository.IOAuthProvider, error) {
	p, ok := u.providers[platform]
	if !ok {
		return nil, errs.ErrUnsupportedPlatform
	}
	if !p.IsConfigured() {
		if ce, ok := p.(interface{ ConfigurationError() error }); ok {
			if err := ce.ConfigurationError(); err != nil {
				return nil, err
			}
		}
		return nil, &errs.ConfigurationError{Platform: string(platform), Missing: "client credentials"}
	}
	return p, nil
}

func (u *connectionUsecase) BeginAuthorization(ctx context.Context, userID string, platform model.Platform) (string, error) {
	provider, err := u.provider(platform)
	if err != nil {
		return "", err
	}
	if err := u.states.InvalidateUnused(ctx, userID, platform); err != nil {
		return "", err
	}
	state, err := utils.RandomURLToken(32)
	if err != nil {
		return "", err
	}
	st := &model.OAuthState{State: state, UserID: userID, Platform: platform, CreatedAt: u.now().UTC()}

	var challenge string
	if provider.RequiresPKCE() {
		verifier := oauth2.GenerateVerifier()
		st.CodeVerifier = &verifier
		challenge = oauth2.S256ChallengeFromVerifier(verifier)
	}
	if err := u.states.Create(ctx, st); err != nil {
		return "", err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"platform": platform,
		"user_id":  userID,
		"pkce":     challenge != "",
	}).Info("Authorization started")
	return provider.AuthorizationURL(state, challenge), nil
}

func (u *connectionUsecase) CompleteAuthorization(ctx context.Context, platform model.Platform, code, state string) (*model.SocialProfile, error) {
	if state == "" {
		return nil, errs.ErrInvalidState
	}
	// consumed before anything else so the state is single use whatever happens next
	st, err := u.states.Consume(ctx, state)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	if st.Platform != platform {
		return nil, errs.ErrInvalidState
	}
	if st.Expired(u.now()) {
		return nil, errs.ErrExpiredState
	}
	provider, err := u.provider(platform)
	if err != nil {
		return nil, err
	}

	var verifier string
	if st.CodeVerifier != nil {
		verifier = *st.CodeVerifier
	}
	tokens, err := provider.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, err
	}
	ext, err := provider.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	profile := &model.SocialProfile{
		UserID:         st.UserID,
		Platform:       platform,
		TokenExpiresAt: tokens.ExpiresAt,
		ExternalID:     ext.ID,
		ProfileName:    ext.Name,
		ProfileURL:     ext.URL,
		AvatarURL:      ext.AvatarURL,
		Scopes:         tokens.Scopes,
		Status:         model.ProfileConnected,
	}
	if ext.PageID != "" {
		pageID, pageName := ext.PageID, ext.PageName
		profile.PageID = &pageID
		profile.PageName = &pageName
	}
	profile.SetAccessToken(u.cipher, tokens.AccessToken)
	profile.SetRefreshToken(u.cipher, tokens.RefreshToken)
	if err := u.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"platform":   platform,
		"user_id":    st.UserID,
		"profile_id": profile.ID,
	}).Info("Social profile connected")
	return profile, nil
}

func (u *connectionUsecase) needsRefresh(p *model.SocialProfile, access string) bool {
	if access == "" {
		return true
	}
	if p.TokenExpiresAt == nil {
		return false
	}
	return p.TokenExpiresAt.Sub(u.now()) < RefreshLookahead
}

func (u *connectionUsecase) ValidAccessToken(ctx context.Context, p *model.SocialProfile) (string, error) {
	access := p.GetAccessToken(u.cipher)
	if u.testModeToken != "" && access == u.testModeToken {
		return access, nil
	}
	if p.Status != model.ProfileConnected {
		return "", errs.ErrProfileNotConnected
	}
	if !u.needsRefresh(p, access) {
		return access, nil
	}

	log := logger.GetLogger().WithField("platform", p.Platform).WithField("profile_id", p.ID)
	refresh := p.GetRefreshToken(u.cipher)
	if refresh == "" {
		p.Status = model.ProfileExpired
		u.persistStatus(ctx, p)
		metrics.TokenRefreshes.WithLabelValues(string(p.Platform), "no_refresh_token").Inc()
		log.Warn("Token expiring and no refresh token stored")
		return "", errs.ErrNoRefreshToken
	}

	provider, ok := u.providers[p.Platform]
	if !ok {
		return "", errs.ErrUnsupportedPlatform
	}
	tokens, err := provider.RefreshToken(ctx, refresh)
	metrics.TokenRefreshes.WithLabelValues(string(p.Platform), metrics.Result(err)).Inc()
	if err != nil {
		p.Status = model.ProfileError
		u.persistStatus(ctx, p)
		log.WithField("error", err).Error("Token refresh failed")
		return "", &errs.RefreshFailedError{Platform: string(p.Platform), Cause: err}
	}

	p.SetAccessToken(u.cipher, tokens.AccessToken)
	if tokens.RefreshToken != "" {
		p.SetRefreshToken(u.cipher, tokens.RefreshToken)
	}
	p.TokenExpiresAt = tokens.ExpiresAt
	p.Status = model.ProfileConnected
	if err := u.profiles.Update(ctx, p); err != nil {
		return "", err
	}
	log.Info("Token refreshed")
	return tokens.AccessToken, nil
}

// persistStatus records a refresh failure; the refresh error is what the caller sees.
func (u *connectionUsecase) persistStatus(ctx context.Context, p *model.SocialProfile) {
	if err := u.profiles.Update(ctx, p); err != nil {
		logger.GetLogger().WithField("profile_id", p.ID).WithField("error", err).Error("Failed to persist profile status")
	}
}

func (u *connectionUsecase) Disconnect(ctx context.Context, userID string, platform model.Platform) error {
	p, err := u.profiles.GetByUserPlatform(ctx, userID, platform)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.Status == model.ProfileDisconnected && p.AccessToken == "" && p.RefreshToken == "" {
		return nil
	}
	p.ClearTokens()
	if err := u.profiles.Update(ctx, p); err != nil {
		return err
	}
	logger.GetLogger().WithField("platform", platform).WithField("user_id", userID).Info("Social profile disconnected")
	return nil
}

func (u *connectionUsecase) Status(ctx context.Context, userID string) ([]dto.SocialProfileStatus, error) {
	profiles, err := u.profiles.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byPlatform := make(map[model.Platform]*model.SocialProfile, len(profiles))
	for _, p := range profiles {
		byPlatform[p.Platform] = p
	}

	now := u.now()
	out := make([]dto.SocialProfileStatus, 0, len(model.Platforms))
	for _, platform := range model.Platforms {
		p, connected := byPlatform[platform]
		if _, supported := u.providers[platform]; !supported && !connected {
			continue
		}
		entry := dto.SocialProfileStatus{Platform: string(platform), Status: string(model.ProfileDisconnected)}
		if connected {
			entry.Connected = p.Status == model.ProfileConnected
			entry.ProfileName = p.ProfileName
			entry.ProfileURL = p.ProfileURL
			entry.Status = string(p.Status)
			entry.IsTokenValid = p.TokenValid(now)
		}
		out = append(out, entry)
	}
	return out, nil
}
