package linkedin

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

type shareCommentary struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status string `json:"status"`
	Media  string `json:"media"`
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
	Media              []shareMedia    `json:"media,omitempty"`
}

type ugcPost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

func shareMediaCategory(refs []model.MediaRef) string {
	if len(refs) == 0 {
		return "NONE"
	}
	if refs[0].Category == model.MediaVideo {
		return "VIDEO"
	}
	return "IMAGE"
}

// CreatePost publishes a member share through the ugcPosts API.
func (c *Client) CreatePost(ctx context.Context, accessToken string, author model.AuthorIdentity, text string, refs []model.MediaRef) (*model.PostResult, error) {
	content := shareContent{
		ShareCommentary:    shareCommentary{Text: text},
		ShareMediaCategory: shareMediaCategory(refs),
	}
	for _, r := range refs {
		content.Media = append(content.Media, shareMedia{Status: "READY", Media: r.ID})
	}
	post := ugcPost{
		Author:          PersonURN(author.ExternalID),
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]shareContent{"com.linkedin.ugc.ShareContent": content},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}

	var body struct {
		ID string `json:"id"`
	}
	resp, err := c.api.DoJSON(ctx, platform.Request{
		Method:    http.MethodPost,
		Path:      "/v2/ugcPosts",
		Operation: "create post",
		Token:     accessToken,
		JSON:      post,
		Headers:   restliHeaders,
	}, &body)
	if err != nil {
		return nil, err
	}
	id := resp.Header.Get("X-RestLi-Id")
	if id == "" {
		id = body.ID
	}
	if id == "" {
		return nil, &errs.PlatformAPIError{Platform: string(model.PlatformLinkedIn), Operation: "create post", StatusCode: resp.StatusCode, Cause: errors.New("response carried no post id")}
	}
	return &model.PostResult{
		Platform: model.PlatformLinkedIn,
		PostID:   id,
		URL:      "https://www.linkedin.com/feed/update/" + id,
	}, nil
}

// UploadMedia registers an asset owned by the author. Images use a single PUT,
// video goes through the multipart upload protocol.
func (c *Client) UploadMedia(ctx context.Context, accessToken string, author model.AuthorIdentity, data []byte, mimeType string, category model.MediaCategory) (*model.MediaRef, error) {
	owner := PersonURN(author.ExternalID)
	switch category {
	case model.MediaImage, model.MediaGIF:
		u, err := c.pipeline.Single(ctx, func(ctx context.Context) (string, error) {
			return c.uploadImage(ctx, accessToken, owner, data, mimeType)
		})
		if err != nil {
			return nil, err
		}
		return &model.MediaRef{Platform: model.PlatformLinkedIn, ID: u.ID, Category: category}, nil
	case model.MediaVideo:
		s := &videoSession{client: c, token: accessToken, owner: owner}
		u, err := c.pipeline.Chunked(ctx, s, data)
		if err != nil {
			return nil, err
		}
		return &model.MediaRef{Platform: model.PlatformLinkedIn, ID: u.ID, Category: category}, nil
	default:
		return nil, &errs.MediaUploadError{Platform: string(model.PlatformLinkedIn), Stage: "register", Cause: fmt.Errorf("unsupported media category %q", category)}
	}
}

// DeletePost removes a share. A post that no longer exists reports false.
func (c *Client) DeletePost(ctx context.Context, accessToken string, _ model.AuthorIdentity, postID string) (bool, error) {
	_, err := c.api.Do(ctx, platform.Request{
		Method:    http.MethodDelete,
		Path:      "/v2/ugcPosts/" + url.PathEscape(postID),
		Operation: "delete post",
		Token:     accessToken,
		Headers:   restliHeaders,
	})
	if err != nil {
		var apiErr *errs.PlatformAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type socialActions struct {
	LikesSummary struct {
		TotalLikes int64 `json:"totalLikes"`
	} `json:"likesSummary"`
	CommentsSummary struct {
		AggregatedTotalComments int64 `json:"aggregatedTotalComments"`
	} `json:"commentsSummary"`
}

// GetMetrics reads likes and comments from socialActions. Shares and impressions
// require organization analytics and stay zero.
func (c *Client) GetMetrics(ctx context.Context, accessToken string, _ model.AuthorIdentity, postID string) model.Metrics {
	var sa socialActions
	if _, err := c.api.DoJSON(ctx, platform.Request{
		Path:      "/v2/socialActions/" + url.PathEscape(postID),
		Operation: "social actions",
		Token:     accessToken,
		Headers:   restliHeaders,
	}, &sa); err != nil {
		logger.GetLogger().WithField("platform", model.PlatformLinkedIn).WithField("error", err).Warn("Failed to read post metrics")
		return model.Metrics{}
	}
	return model.Metrics{
		Likes:    sa.LikesSummary.TotalLikes,
		Comments: sa.CommentsSummary.AggregatedTotalComments,
	}
}
