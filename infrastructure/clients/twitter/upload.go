package twitter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/media"
)

const uploadPath = "/2/media/upload"

func mediaCategory(category model.MediaCategory) string {
	switch category {
	case model.MediaVideo:
		return "tweet_video"
	case model.MediaGIF:
		return "tweet_gif"
	default:
		return "tweet_image"
	}
}

// UsesChunkedUpload reports whether an asset must go through INIT/APPEND/FINALIZE.
func UsesChunkedUpload(size int, category model.MediaCategory) bool {
	return category == model.MediaVideo || category == model.MediaGIF || size > SimpleUploadLimit
}

type uploadResponse struct {
	Data struct {
		ID             string          `json:"id"`
		ProcessingInfo *processingInfo `json:"processing_info"`
	} `json:"data"`
	MediaIDString string `json:"media_id_string"`
}

func (r uploadResponse) id() string {
	if r.Data.ID != "" {
		return r.Data.ID
	}
	return r.MediaIDString
}

type processingInfo struct {
	State          string `json:"state"`
	CheckAfterSecs int    `json:"check_after_secs"`
	Error          *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *processingInfo) status() media.Status {
	if p == nil {
		return media.Status{State: media.StateReady}
	}
	st := media.Status{CheckAfter: time.Duration(p.CheckAfterSecs) * time.Second}
	switch p.State {
	case "succeeded":
		st.State = media.StateReady
	case "failed":
		st.State = media.StateFailed
		if p.Error != nil {
			st.Detail = p.Error.Message
		}
	default:
		st.State = media.StateProcessing
	}
	return st
}

// UploadMedia sends small images in one request and everything else in chunks.
func (c *Client) UploadMedia(ctx context.Context, accessToken string, _ model.AuthorIdentity, data []byte, mimeType string, category model.MediaCategory) (*model.MediaRef, error) {
	var u *media.Upload
	var err error
	if UsesChunkedUpload(len(data), category) {
		u, err = c.pipeline.Chunked(ctx, &chunkedSession{client: c, token: accessToken, mimeType: mimeType, category: mediaCategory(category)}, data)
	} else {
		u, err = c.pipeline.Single(ctx, func(ctx context.Context) (string, error) {
			return c.simpleUpload(ctx, accessToken, data, category)
		})
	}
	if err != nil {
		return nil, err
	}
	return &model.MediaRef{Platform: model.PlatformTwitter, ID: u.ID, Category: category}, nil
}

type simpleFields struct {
	MediaCategory string `url:"media_category"`
}

func (c *Client) simpleUpload(ctx context.Context, token string, data []byte, category model.MediaCategory) (string, error) {
	body, contentType, err := platform.Multipart(simpleFields{MediaCategory: mediaCategory(category)}, "media", "media", data)
	if err != nil {
		return "", err
	}
	var out uploadResponse
	if _, err := c.api.DoJSON(ctx, platform.Request{
		Method:      http.MethodPost,
		Path:        uploadPath,
		Operation:   "media upload",
		Token:       token,
		Body:        body,
		ContentType: contentType,
		Timeout:     platform.UploadTimeout,
	}, &out); err != nil {
		return "", err
	}
	if out.id() == "" {
		return "", errors.New("media upload returned no media id")
	}
	return out.id(), nil
}

type initFields struct {
	Command       string `url:"command"`
	TotalBytes    int64  `url:"total_bytes"`
	MediaType     string `url:"media_type"`
	MediaCategory string `url:"media_category"`
}

type appendFields struct {
	Command      string `url:"command"`
	MediaID      string `url:"media_id"`
	SegmentIndex int    `url:"segment_index"`
}

type commandFields struct {
	Command string `url:"command"`
	MediaID string `url:"media_id"`
}

// chunkedSession speaks the INIT/APPEND/FINALIZE/STATUS command protocol.
type chunkedSession struct {
	client   *Client
	token    string
	mimeType string
	category string
}

func (s *chunkedSession) command(ctx context.Context, op string, r platform.Request) (uploadResponse, error) {
	var out uploadResponse
	r.Path = uploadPath
	r.Operation = op
	r.Token = s.token
	if r.Method == "" {
		r.Method = http.MethodPost
	}
	_, err := s.client.api.DoJSON(ctx, r, &out)
	return out, err
}

func (s *chunkedSession) Init(ctx context.Context, total int64) (string, error) {
	out, err := s.command(ctx, "media init", platform.Request{Query: initFields{
		Command:       "INIT",
		TotalBytes:    total,
		MediaType:     s.mimeType,
		MediaCategory: s.category,
	}})
	if err != nil {
		return "", err
	}
	if out.id() == "" {
		return "", errors.New("INIT returned no media id")
	}
	return out.id(), nil
}

func (s *chunkedSession) ChunkSize() int { return ChunkSize }

func (s *chunkedSession) Append(ctx context.Context, mediaID string, index int, _ int64, chunk []byte) error {
	body, contentType, err := platform.Multipart(appendFields{Command: "APPEND", MediaID: mediaID, SegmentIndex: index}, "media", "chunk", chunk)
	if err != nil {
		return err
	}
	_, err = s.client.api.Do(ctx, platform.Request{
		Method:      http.MethodPost,
		Path:        uploadPath,
		Operation:   "media append",
		Token:       s.token,
		Body:        body,
		ContentType: contentType,
		Timeout:     platform.VideoTimeout,
	})
	return err
}

func (s *chunkedSession) Finalize(ctx context.Context, mediaID string) (media.Status, error) {
	out, err := s.command(ctx, "media finalize", platform.Request{Query: commandFields{Command: "FINALIZE", MediaID: mediaID}})
	if err != nil {
		return media.Status{}, err
	}
	return out.Data.ProcessingInfo.status(), nil
}

func (s *chunkedSession) Status(ctx context.Context, mediaID string) (media.Status, error) {
	out, err := s.command(ctx, "media status", platform.Request{Method: http.MethodGet, Query: commandFields{Command: "STATUS", MediaID: mediaID}})
	if err != nil {
		return media.Status{}, err
	}
	return out.Data.ProcessingInfo.status(), nil
}
