package facebook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/media"
)

type photoFields struct {
	Published   bool   `url:"published"`
	AccessToken string `url:"access_token"`
}

// UploadMedia uploads unpublished photos in one request and video through the
// resumable start/transfer/finish protocol.
func (c *Client) UploadMedia(ctx context.Context, accessToken string, author model.AuthorIdentity, data []byte, mimeType string, category model.MediaCategory) (*model.MediaRef, error) {
	p, err := c.pageFor(ctx, accessToken, author)
	if err != nil {
		return nil, err
	}
	var u *media.Upload
	switch category {
	case model.MediaVideo:
		u, err = c.pipeline.Chunked(ctx, &videoSession{client: c, page: p}, data)
	case model.MediaImage, model.MediaGIF:
		u, err = c.pipeline.Single(ctx, func(ctx context.Context) (string, error) {
			return c.uploadPhoto(ctx, p, data)
		})
	default:
		return nil, fmt.Errorf("facebook: unsupported media category %q", category)
	}
	if err != nil {
		return nil, err
	}
	return &model.MediaRef{Platform: model.PlatformFacebook, ID: u.ID, Category: category}, nil
}

func (c *Client) uploadPhoto(ctx context.Context, p *page, data []byte) (string, error) {
	body, contentType, err := platform.Multipart(photoFields{Published: false, AccessToken: p.AccessToken}, "source", "photo", data)
	if err != nil {
		return "", err
	}
	var out idResponse
	if _, err := c.graph.DoJSON(ctx, platform.Request{
		Method:      http.MethodPost,
		Path:        "/" + escape(p.ID) + "/photos",
		Operation:   "upload photo",
		Body:        body,
		ContentType: contentType,
		Timeout:     platform.UploadTimeout,
	}, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("photo upload returned no id")
	}
	return out.ID, nil
}

type videoPhase struct {
	UploadPhase     string `url:"upload_phase"`
	AccessToken     string `url:"access_token"`
	FileSize        int64  `url:"file_size,omitempty"`
	UploadSessionID string `url:"upload_session_id,omitempty"`
	StartOffset     string `url:"start_offset,omitempty"`
	Published       string `url:"published,omitempty"`
}

type phaseResponse struct {
	VideoID         string `json:"video_id"`
	UploadSessionID string `json:"upload_session_id"`
	StartOffset     string `json:"start_offset"`
	EndOffset       string `json:"end_offset"`
	Success         bool   `json:"success"`
}

// videoSession drives the Graph resumable video upload. The chunk size is the
// window returned by the start phase.
type videoSession struct {
	client    *Client
	page      *page
	sessionID string
	chunkSize int
}

func (s *videoSession) phase(ctx context.Context, op string, fields videoPhase, chunk []byte) (*phaseResponse, error) {
	fields.AccessToken = s.page.AccessToken
	fileField := ""
	if chunk != nil {
		fileField = "video_file_chunk"
	}
	body, contentType, err := platform.Multipart(fields, fileField, "chunk", chunk)
	if err != nil {
		return nil, err
	}
	var out phaseResponse
	_, err = s.client.graph.DoJSON(ctx, platform.Request{
		Method:      http.MethodPost,
		Path:        "/" + escape(s.page.ID) + "/videos",
		Operation:   op,
		Body:        body,
		ContentType: contentType,
		Timeout:     platform.VideoTimeout,
	}, &out)
	return &out, err
}

func (s *videoSession) Init(ctx context.Context, total int64) (string, error) {
	out, err := s.phase(ctx, "video start", videoPhase{UploadPhase: "start", FileSize: total}, nil)
	if err != nil {
		return "", err
	}
	start, _ := strconv.ParseInt(out.StartOffset, 10, 64)
	end, _ := strconv.ParseInt(out.EndOffset, 10, 64)
	if out.VideoID == "" || out.UploadSessionID == "" || end <= start {
		return "", errors.New("video start returned no upload session")
	}
	s.sessionID = out.UploadSessionID
	s.chunkSize = int(end - start)
	return out.VideoID, nil
}

func (s *videoSession) ChunkSize() int { return s.chunkSize }

func (s *videoSession) Append(ctx context.Context, _ string, _ int, offset int64, chunk []byte) error {
	out, err := s.phase(ctx, "video transfer", videoPhase{
		UploadPhase:     "transfer",
		UploadSessionID: s.sessionID,
		StartOffset:     strconv.FormatInt(offset, 10),
	}, chunk)
	if err != nil {
		return err
	}
	if next, _ := strconv.ParseInt(out.StartOffset, 10, 64); next != offset+int64(len(chunk)) {
		return fmt.Errorf("transfer acknowledged offset %s, expected %d", out.StartOffset, offset+int64(len(chunk)))
	}
	return nil
}

func (s *videoSession) Finalize(ctx context.Context, _ string) (media.Status, error) {
	out, err := s.phase(ctx, "video finish", videoPhase{UploadPhase: "finish", UploadSessionID: s.sessionID, Published: "false"}, nil)
	if err != nil {
		return media.Status{}, err
	}
	if !out.Success {
		return media.Status{State: media.StateFailed, Detail: "finish not acknowledged"}, nil
	}
	return media.Status{State: media.StateProcessing}, nil
}

func (s *videoSession) Status(ctx context.Context, videoID string) (media.Status, error) {
	var out struct {
		Status struct {
			VideoStatus string `json:"video_status"`
		} `json:"status"`
	}
	if _, err := s.client.graph.DoJSON(ctx, platform.Request{
		Path:      "/" + escape(videoID),
		Operation: "video status",
		Query:     tokenQuery{AccessToken: s.page.AccessToken, Fields: "status"},
	}, &out); err != nil {
		return media.Status{}, err
	}
	switch out.Status.VideoStatus {
	case "ready":
		return media.Status{State: media.StateReady}, nil
	case "error":
		return media.Status{State: media.StateFailed, Detail: "video processing error"}, nil
	}
	return media.Status{State: media.StateProcessing}, nil
}
