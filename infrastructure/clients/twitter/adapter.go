package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/logger"
)

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

// CreatePost posts a tweet with up to four attached media ids.
func (c *Client) CreatePost(ctx context.Context, accessToken string, _ model.AuthorIdentity, text string, refs []model.MediaRef) (*model.PostResult, error) {
	req := tweetRequest{Text: text}
	if len(refs) > 0 {
		req.Media = &tweetMedia{}
		for _, r := range refs {
			req.Media.MediaIDs = append(req.Media.MediaIDs, r.ID)
		}
	}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	resp, err := c.api.DoJSON(ctx, platform.Request{
		Method:    http.MethodPost,
		Path:      "/2/tweets",
		Operation: "create tweet",
		Token:     accessToken,
		JSON:      req,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, &errs.PlatformAPIError{Platform: string(model.PlatformTwitter), Operation: "create tweet", StatusCode: resp.StatusCode, Cause: errors.New("response carried no tweet id")}
	}
	return &model.PostResult{
		Platform: model.PlatformTwitter,
		PostID:   out.Data.ID,
		URL:      "https://twitter.com/i/web/status/" + out.Data.ID,
	}, nil
}

// DeletePost deletes a tweet and reports the platform's deleted flag.
func (c *Client) DeletePost(ctx context.Context, accessToken string, _ model.AuthorIdentity, postID string) (bool, error) {
	var out struct {
		Data struct {
			Deleted bool `json:"deleted"`
		} `json:"data"`
	}
	if _, err := c.api.DoJSON(ctx, platform.Request{
		Method:    http.MethodDelete,
		Path:      "/2/tweets/" + url.PathEscape(postID),
		Operation: "delete tweet",
		Token:     accessToken,
	}, &out); err != nil {
		return false, err
	}
	return out.Data.Deleted, nil
}

type publicMetrics struct {
	LikeCount       int64 `json:"like_count"`
	ReplyCount      int64 `json:"reply_count"`
	RetweetCount    int64 `json:"retweet_count"`
	QuoteCount      int64 `json:"quote_count"`
	ImpressionCount int64 `json:"impression_count"`
}

type tweetFields struct {
	Fields string `url:"tweet.fields"`
}

// GetMetrics maps public_metrics; retweets and quotes both count as shares.
func (c *Client) GetMetrics(ctx context.Context, accessToken string, _ model.AuthorIdentity, postID string) model.Metrics {
	var out struct {
		Data struct {
			PublicMetrics publicMetrics `json:"public_metrics"`
		} `json:"data"`
	}
	if _, err := c.api.DoJSON(ctx, platform.Request{
		Path:      "/2/tweets/" + url.PathEscape(postID),
		Operation: "tweet metrics",
		Token:     accessToken,
		Query:     tweetFields{Fields: "public_metrics"},
	}, &out); err != nil {
		logger.GetLogger().WithField("platform", model.PlatformTwitter).WithField("error", err).Warn("Failed to read post metrics")
		return model.Metrics{}
	}
	pm := out.Data.PublicMetrics
	return model.Metrics{
		Likes:       pm.LikeCount,
		Comments:    pm.ReplyCount,
		Shares:      pm.RetweetCount + pm.QuoteCount,
		Impressions: pm.ImpressionCount,
	}
}
