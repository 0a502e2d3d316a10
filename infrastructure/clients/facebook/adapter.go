package facebook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/logger"
)

type idResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

// CreatePost publishes to the author's page. Photos are attached to a feed post;
// an uploaded (unpublished) video is published with the text as its description.
func (c *Client) CreatePost(ctx context.Context, accessToken string, author model.AuthorIdentity, text string, refs []model.MediaRef) (*model.PostResult, error) {
	p, err := c.pageFor(ctx, accessToken, author)
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		if r.Category == model.MediaVideo {
			return c.publishVideo(ctx, p, r.ID, text)
		}
	}

	form := url.Values{"message": {text}, "access_token": {p.AccessToken}}
	for i, r := range refs {
		form.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":"%s"}`, r.ID))
	}
	var out idResponse
	if _, err := c.graph.DoJSON(ctx, platform.Request{
		Method:    http.MethodPost,
		Path:      "/" + escape(p.ID) + "/feed",
		Operation: "create post",
		Form:      form,
	}, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, &errs.PlatformAPIError{Platform: string(model.PlatformFacebook), Operation: "create post", Cause: errors.New("response carried no post id")}
	}
	return &model.PostResult{Platform: model.PlatformFacebook, PostID: out.ID, URL: "https://www.facebook.com/" + out.ID}, nil
}

func (c *Client) publishVideo(ctx context.Context, p *page, videoID, text string) (*model.PostResult, error) {
	if _, err := c.graph.Do(ctx, platform.Request{
		Method:    http.MethodPost,
		Path:      "/" + escape(videoID),
		Operation: "publish video",
		Form:      url.Values{"description": {text}, "published": {"true"}, "access_token": {p.AccessToken}},
	}); err != nil {
		return nil, err
	}
	return &model.PostResult{Platform: model.PlatformFacebook, PostID: videoID, URL: "https://www.facebook.com/" + p.ID + "/videos/" + videoID}, nil
}

// DeletePost removes a page post using the page token.
func (c *Client) DeletePost(ctx context.Context, accessToken string, author model.AuthorIdentity, postID string) (bool, error) {
	p, err := c.pageFor(ctx, accessToken, author)
	if err != nil {
		return false, err
	}
	var out struct {
		Success bool `json:"success"`
	}
	if _, err := c.graph.DoJSON(ctx, platform.Request{
		Method:    http.MethodDelete,
		Path:      "/" + escape(postID),
		Operation: "delete post",
		Query:     tokenQuery{AccessToken: p.AccessToken},
	}, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

type summary struct {
	Summary struct {
		TotalCount int64 `json:"total_count"`
	} `json:"summary"`
}

type postStats struct {
	Likes    summary `json:"likes"`
	Comments summary `json:"comments"`
	Shares   struct {
		Count int64 `json:"count"`
	} `json:"shares"`
}

type insights struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

type insightsQuery struct {
	AccessToken string `url:"access_token"`
	Metric      string `url:"metric"`
}

// GetMetrics reads reactions, comments and shares from the post, and impressions from insights.
func (c *Client) GetMetrics(ctx context.Context, accessToken string, author model.AuthorIdentity, postID string) model.Metrics {
	lg := logger.GetLogger().WithField("platform", model.PlatformFacebook)
	var m model.Metrics
	p, err := c.pageFor(ctx, accessToken, author)
	if err != nil {
		lg.WithField("error", err).Warn("Failed to resolve page token for metrics")
		return m
	}
	var stats postStats
	if _, err := c.graph.DoJSON(ctx, platform.Request{
		Path:      "/" + escape(postID),
		Operation: "post metrics",
		Query:     tokenQuery{AccessToken: p.AccessToken, Fields: "likes.summary(true),comments.summary(true),shares"},
	}, &stats); err != nil {
		lg.WithField("error", err).Warn("Failed to read post metrics")
		return m
	}
	m.Likes = stats.Likes.Summary.TotalCount
	m.Comments = stats.Comments.Summary.TotalCount
	m.Shares = stats.Shares.Count

	var in insights
	if _, err := c.graph.DoJSON(ctx, platform.Request{
		Path:      "/" + escape(postID) + "/insights",
		Operation: "post insights",
		Query:     insightsQuery{AccessToken: p.AccessToken, Metric: "post_impressions"},
	}, &in); err != nil {
		lg.WithField("error", err).Debug("Post insights unavailable")
		return m
	}
	for _, d := range in.Data {
		if d.Name == "post_impressions" && len(d.Values) > 0 {
			m.Impressions = d.Values[0].Value
		}
	}
	return m
}
