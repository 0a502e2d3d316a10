package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/media"
	"social-publisher/infrastructure/metrics"
)

// ErrNoEligibleProfiles is recorded when an item has nothing to publish to.
var ErrNoEligibleProfiles = errors.New("no connected profiles for target platforms")

// MediaFetcher loads the bytes behind a media reference.
type MediaFetcher interface {
	Fetch(ctx context.Context, item model.MediaItem) (*media.Asset, error)
}

type IPublishUsecase interface {
	// Publish fans item out to every eligible profile. Per-profile failures are collected
	// in the outcome; the returned error is reserved for failures loading profiles.
	Publish(ctx context.Context, item *model.ContentItem) (*model.PublishOutcome, error)
	Metrics(ctx context.Context, item *model.ContentItem) (map[string]model.Metrics, error)
	DeletePosts(ctx context.Context, item *model.ContentItem) (map[string]bool, error)
}

type publishUsecase struct {
	adapters      map[model.Platform]repository.IPlatformAdapter
	profiles      repository.ISocialProfile
	connections   IConnectionUsecase
	fetcher       MediaFetcher
	testModeToken string
	now           func() time.Time
}

func NewPublishUsecase(
	adapters []repository.IPlatformAdapter,
	profiles repository.ISocialProfile,
	connections IConnectionUsecase,
	fetcher MediaFetcher,
	testModeToken string,
	opts ...Option,
) IPublishUsecase {
	o := buildOptions(opts)
	byPlatform := make(map[model.Platform]repository.IPlatformAdapter, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
	}
	return &publishUsecase{
		adapters:      byPlatform,
		profiles:      profiles,
		connections:   connections,
		fetcher:       fetcher,
		testModeToken: testModeToken,
		now:           o.now,
	}
}

func (u *publishUsecase) eligibleProfiles(ctx context.Context, item *model.ContentItem) ([]*model.SocialProfile, error) {
	var (
		candidates []*model.SocialProfile
		err        error
	)
	if len(item.ProfileIDs) > 0 {
		candidates, err = u.profiles.ListByIDs(ctx, item.ProfileIDs)
	} else {
		candidates, err = u.profiles.ListByUser(ctx, item.UserID)
	}
	if err != nil {
		return nil, err
	}
	eligible := make([]*model.SocialProfile, 0, len(candidates))
	for _, p := range candidates {
		if p.UserID != item.UserID || p.Status != model.ProfileConnected || !item.Targets(p.Platform) {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible, nil
}

func (u *publishUsecase) Publish(ctx context.Context, item *model.ContentItem) (*model.PublishOutcome, error) {
	log := logger.GetLogger().WithField("content_id", item.ID).WithField("user_id", item.UserID)
	profiles, err := u.eligibleProfiles(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("load profiles for content %d: %w", item.ID, err)
	}

	outcome := &model.PublishOutcome{Results: map[string]*model.PostResult{}, Errors: []string{}}
	if len(profiles) == 0 {
		outcome.Errors = append(outcome.Errors, ErrNoEligibleProfiles.Error())
	}

	assets := &assetCache{fetcher: u.fetcher, items: item.Media}
	for _, p := range profiles {
		res, err := u.publishTo(ctx, p, item, assets)
		metrics.PublishAttempts.WithLabelValues(string(p.Platform), metrics.Result(err)).Inc()
		if err != nil {
			log.WithField("platform", p.Platform).WithField("profile_id", p.ID).WithField("error", err).Warn("Publish to profile failed")
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %v", p.Platform, err))
			continue
		}
		outcome.Results[string(p.Platform)] = res
	}

	if len(outcome.Errors) > 0 && len(outcome.Results) == 0 {
		outcome.Status = model.ContentFailed
	} else {
		now := u.now().UTC()
		outcome.Status = model.ContentPublished
		outcome.PublishedAt = &now
	}
	metrics.ContentOutcomes.WithLabelValues(string(outcome.Status)).Inc()
	log.WithFields(map[string]interface{}{
		"status":  outcome.Status,
		"results": len(outcome.Results),
		"errors":  len(outcome.Errors),
	}).Info("Content publish finished")
	return outcome, nil
}

func (u *publishUsecase) adapterFor(platform model.Platform) (repository.IPlatformAdapter, error) {
	a, ok := u.adapters[platform]
	if !ok {
		return nil, errs.ErrUnsupportedPlatform
	}
	if !a.IsConfigured() {
		return nil, &errs.ConfigurationError{Platform: string(platform), Missing: "client credentials"}
	}
	return a, nil
}

func (u *publishUsecase) publishTo(ctx context.Context, p *model.SocialProfile, item *model.ContentItem, assets *assetCache) (*model.PostResult, error) {
	token, err := u.connections.ValidAccessToken(ctx, p)
	if err != nil {
		return nil, err
	}
	if u.testModeToken != "" && token == u.testModeToken {
		return u.mockResult(p, item), nil
	}
	adapter, err := u.adapterFor(p.Platform)
	if err != nil {
		return nil, err
	}

	author := p.Author()
	var refs []model.MediaRef
	if len(item.Media) > 0 {
		list, err := assets.load(ctx)
		if err != nil {
			return nil, err
		}
		for _, a := range list {
			ref, err := adapter.UploadMedia(ctx, token, author, a.Data, a.MimeType, a.Category)
			if err != nil {
				return nil, err
			}
			refs = append(refs, *ref)
		}
	}

	res, err := adapter.CreatePost(ctx, token, author, item.Body, refs)
	if err != nil {
		return nil, err
	}
	res.ProfileID = p.ID
	if res.PublishedAt.IsZero() {
		res.PublishedAt = u.now().UTC()
	}
	return res, nil
}

// mockResult is deterministic so repeated test-mode runs are comparable.
func (u *publishUsecase) mockResult(p *model.SocialProfile, item *model.ContentItem) *model.PostResult {
	return &model.PostResult{
		Platform:    p.Platform,
		PostID:      fmt.Sprintf("mock_%s_%d_%d", p.Platform, item.ID, p.ID),
		ProfileID:   p.ID,
		Mock:        true,
		PublishedAt: u.now().UTC(),
	}
}

// assetCache fetches media once per item and shares the bytes across platforms.
type assetCache struct {
	fetcher MediaFetcher
	items   []model.MediaItem
	loaded  bool
	assets  []*media.Asset
	err     error
}

func (c *assetCache) load(ctx context.Context) ([]*media.Asset, error) {
	if c.loaded {
		return c.assets, c.err
	}
	c.loaded = true
	if c.fetcher == nil {
		c.err = errors.New("media fetcher not configured")
		return nil, c.err
	}
	for _, item := range c.items {
		a, err := c.fetcher.Fetch(ctx, item)
		if err != nil {
			c.err = err
			return nil, err
		}
		c.assets = append(c.assets, a)
	}
	return c.assets, nil
}

// publishedPost is one platform entry read back from post_results.
type publishedPost struct {
	platform model.Platform
	result   model.PostResult
}

func publishedPosts(item *model.ContentItem) []publishedPost {
	var posts []publishedPost
	for _, platform := range model.Platforms {
		raw, ok := item.PostResults[string(platform)]
		if !ok {
			continue
		}
		b, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var res model.PostResult
		if err := json.Unmarshal(b, &res); err != nil || res.PostID == "" {
			continue
		}
		posts = append(posts, publishedPost{platform: platform, result: res})
	}
	return posts
}

// postContext resolves the adapter, token and author for an already published post.
func (u *publishUsecase) postContext(ctx context.Context, item *model.ContentItem, post publishedPost) (repository.IPlatformAdapter, string, model.AuthorIdentity, error) {
	var author model.AuthorIdentity
	profile, err := u.profiles.GetByID(ctx, post.result.ProfileID)
	if err != nil {
		return nil, "", author, err
	}
	if profile.UserID != item.UserID {
		return nil, "", author, errs.ErrNotFound
	}
	if profile.Status != model.ProfileConnected {
		return nil, "", author, errs.ErrProfileNotConnected
	}
	token, err := u.connections.ValidAccessToken(ctx, profile)
	if err != nil {
		return nil, "", author, err
	}
	adapter, err := u.adapterFor(post.platform)
	if err != nil {
		return nil, "", author, err
	}
	return adapter, token, profile.Author(), nil
}

func (u *publishUsecase) Metrics(ctx context.Context, item *model.ContentItem) (map[string]model.Metrics, error) {
	if item.Status != model.ContentPublished {
		return nil, errs.ErrInvalidTransition
	}
	out := make(map[string]model.Metrics)
	for _, post := range publishedPosts(item) {
		if post.result.Mock {
			out[string(post.platform)] = model.Metrics{}
			continue
		}
		adapter, token, author, err := u.postContext(ctx, item, post)
		if err != nil {
			logger.GetLogger().WithField("platform", post.platform).WithField("error", err).Warn("Skipping metrics for post")
			out[string(post.platform)] = model.Metrics{}
			continue
		}
		out[string(post.platform)] = adapter.GetMetrics(ctx, token, author, post.result.PostID)
	}
	return out, nil
}

func (u *publishUsecase) DeletePosts(ctx context.Context, item *model.ContentItem) (map[string]bool, error) {
	if item.Status != model.ContentPublished {
		return nil, errs.ErrInvalidTransition
	}
	out := make(map[string]bool)
	for _, post := range publishedPosts(item) {
		if post.result.Mock {
			out[string(post.platform)] = true
			continue
		}
		adapter, token, author, err := u.postContext(ctx, item, post)
		if err != nil {
			logger.GetLogger().WithField("platform", post.platform).WithField("error", err).Warn("Cannot delete post")
			out[string(post.platform)] = false
			continue
		}
		deleted, err := adapter.DeletePost(ctx, token, author, post.result.PostID)
		if err != nil {
			logger.GetLogger().WithField("platform", post.platform).WithField("error", err).Warn("Delete post failed")
		}
		out[string(post.platform)] = deleted
	}
	return out, nil
}
