package usecase_test

import (
	"context"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/media"

	"github.com/stretchr/testify/mock"
)

// plainCipher stores tokens verbatim.
type plainCipher struct{}

func (plainCipher) Encrypt(s string) string { return s }
func (plainCipher) Decrypt(s string) string { return s }

type MockProvider struct {
	mock.Mock
	platform model.Platform
	pkce     bool
}

func (m *MockProvider) Platform() model.Platform { return m.platform }
func (m *MockProvider) IsConfigured() bool       { return true }
func (m *MockProvider) RequiresPKCE() bool       { return m.pkce }

func (m *MockProvider) AuthorizationURL(state, codeChallenge string) string {
	args := m.Called(state, codeChallenge)
	return args.String(0)
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*model.TokenSet, error) {
	args := m.Called(ctx, code, codeVerifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenSet), args.Error(1)
}

func (m *MockProvider) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenSet), args.Error(1)
}

func (m *MockProvider) FetchProfile(ctx context.Context, accessToken string) (*model.ExternalProfile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExternalProfile), args.Error(1)
}

type MockAdapter struct {
	mock.Mock
	platform model.Platform
}

func (m *MockAdapter) Platform() model.Platform { return m.platform }
func (m *MockAdapter) IsConfigured() bool       { return true }

func (m *MockAdapter) CreatePost(ctx context.Context, accessToken string, author model.AuthorIdentity, text string, refs []model.MediaRef) (*model.PostResult, error) {
	args := m.Called(ctx, accessToken, author, text, refs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostResult), args.Error(1)
}

func (m *MockAdapter) UploadMedia(ctx context.Context, accessToken string, author model.AuthorIdentity, data []byte, mimeType string, category model.MediaCategory) (*model.MediaRef, error) {
	args := m.Called(ctx, accessToken, author, data, mimeType, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MediaRef), args.Error(1)
}

func (m *MockAdapter) DeletePost(ctx context.Context, accessToken string, author model.AuthorIdentity, postID string) (bool, error) {
	args := m.Called(ctx, accessToken, author, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdapter) GetMetrics(ctx context.Context, accessToken string, author model.AuthorIdentity, postID string) model.Metrics {
	args := m.Called(ctx, accessToken, author, postID)
	return args.Get(0).(model.Metrics)
}

type MockStates struct {
	mock.Mock
}

func (m *MockStates) Create(ctx context.Context, s *model.OAuthState) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStates) InvalidateUnused(ctx context.Context, userID string, platform model.Platform) error {
	return m.Called(ctx, userID, platform).Error(0)
}

func (m *MockStates) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OAuthState), args.Error(1)
}

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) Upsert(ctx context.Context, p *model.SocialProfile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfiles) Update(ctx context.Context, p *model.SocialProfile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfiles) GetByID(ctx context.Context, id int64) (*model.SocialProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialProfile), args.Error(1)
}

func (m *MockProfiles) GetByUserPlatform(ctx context.Context, userID string, platform model.Platform) (*model.SocialProfile, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialProfile), args.Error(1)
}

func (m *MockProfiles) ListByUser(ctx context.Context, userID string) ([]*model.SocialProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SocialProfile), args.Error(1)
}

func (m *MockProfiles) ListByIDs(ctx context.Context, ids []int64) ([]*model.SocialProfile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SocialProfile), args.Error(1)
}

type MockContents struct {
	mock.Mock
}

func (m *MockContents) Create(ctx context.Context, item *model.ContentItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockContents) GetByID(ctx context.Context, id int64) (*model.ContentItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentItem), args.Error(1)
}

func (m *MockContents) FindDue(ctx context.Context, now time.Time, limit int) ([]*model.ContentItem, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ContentItem), args.Error(1)
}

func (m *MockContents) UpdateStatus(ctx context.Context, id int64, status model.ContentStatus, scheduledDate *time.Time, from ...model.ContentStatus) error {
	return m.Called(ctx, id, status, scheduledDate, from).Error(0)
}

func (m *MockContents) SavePublishOutcome(ctx context.Context, id int64, outcome *model.PublishOutcome) error {
	return m.Called(ctx, id, outcome).Error(0)
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Record(ctx context.Context, audit *model.PublishAudit) error {
	return m.Called(ctx, audit).Error(0)
}

func (m *MockAudit) History(ctx context.Context, contentID int64, limit int64) ([]model.PublishAudit, error) {
	args := m.Called(ctx, contentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PublishAudit), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyStatus(ctx context.Context, evt *model.ContentStatusEvent) error {
	return m.Called(ctx, evt).Error(0)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, item model.MediaItem) (*media.Asset, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.Asset), args.Error(1)
}

type MockConnections struct {
	mock.Mock
}

func (m *MockConnections) BeginAuthorization(ctx context.Context, userID string, platform model.Platform) (string, error) {
	args := m.Called(ctx, userID, platform)
	return args.String(0), args.Error(1)
}

func (m *MockConnections) CompleteAuthorization(ctx context.Context, platform model.Platform, code, state string) (*model.SocialProfile, error) {
	args := m.Called(ctx, platform, code, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialProfile), args.Error(1)
}

func (m *MockConnections) ValidAccessToken(ctx context.Context, profile *model.SocialProfile) (string, error) {
	args := m.Called(ctx, profile)
	return args.String(0), args.Error(1)
}

func (m *MockConnections) Disconnect(ctx context.Context, userID string, platform model.Platform) error {
	return m.Called(ctx, userID, platform).Error(0)
}

func (m *MockConnections) Status(ctx context.Context, userID string) ([]dto.SocialProfileStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.SocialProfileStatus), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, item *model.ContentItem) (*model.PublishOutcome, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishOutcome), args.Error(1)
}

func (m *MockPublisher) Metrics(ctx context.Context, item *model.ContentItem) (map[string]model.Metrics, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.Metrics), args.Error(1)
}

func (m *MockPublisher) DeletePosts(ctx context.Context, item *model.ContentItem) (map[string]bool, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

type MockWebhookEvents struct {
	mock.Mock
}

func (m *MockWebhookEvents) Create(ctx context.Context, events []*model.WebhookEvent) error {
	return m.Called(ctx, events).Error(0)
}

func (m *MockWebhookEvents) ListByTargets(ctx context.Context, targetIDs []string, unreadOnly bool, limit int) ([]*model.WebhookEvent, error) {
	args := m.Called(ctx, targetIDs, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEvents) GetByID(ctx context.Context, id string) (*model.WebhookEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEvents) MarkRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetById(ctx context.Context, id int) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUsers) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	args := m.Called(ctx, userName)
	return args.Get(0).(model.User), args.Error(1)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
