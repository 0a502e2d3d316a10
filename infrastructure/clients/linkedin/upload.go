package linkedin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/media"
)

const (
	recipeImage = "urn:li:digitalmediaRecipe:feedshare-image"
	recipeVideo = "urn:li:digitalmediaRecipe:feedshare-video"

	mechanismSingle    = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"
	mechanismMultipart = "com.linkedin.digitalmedia.uploading.MultipartUpload"
)

type serviceRelationship struct {
	RelationshipType string `json:"relationshipType"`
	Identifier       string `json:"identifier"`
}

type registerUploadRequest struct {
	Recipes                  []string              `json:"recipes"`
	Owner                    string                `json:"owner"`
	ServiceRelationships     []serviceRelationship `json:"serviceRelationships"`
	SupportedUploadMechanism []string              `json:"supportedUploadMechanism,omitempty"`
	FileSize                 int64                 `json:"fileSize,omitempty"`
}

type partUploadRequest struct {
	URL       string `json:"url"`
	ByteRange struct {
		FirstByte int64 `json:"firstByte"`
		LastByte  int64 `json:"lastByte"`
	} `json:"byteRange"`
	Headers map[string]string `json:"headers"`
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		MediaArtifact   string `json:"mediaArtifact"`
		UploadMechanism struct {
			Single struct {
				UploadURL string            `json:"uploadUrl"`
				Headers   map[string]string `json:"headers"`
			} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
			Multipart struct {
				PartUploadRequests []partUploadRequest `json:"partUploadRequests"`
				Metadata           string              `json:"metadata"`
			} `json:"com.linkedin.digitalmedia.uploading.MultipartUpload"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

var registerAction = url.Values{"action": {"registerUpload"}}

func (c *Client) register(ctx context.Context, token string, req registerUploadRequest) (*registerUploadResponse, error) {
	var out registerUploadResponse
	_, err := c.api.DoJSON(ctx, platform.Request{
		Method:    http.MethodPost,
		Path:      "/v2/assets",
		Operation: "register upload",
		Token:     token,
		Query:     registerAction,
		JSON:      map[string]registerUploadRequest{"registerUploadRequest": req},
		Headers:   restliHeaders,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Value.Asset == "" {
		return nil, errors.New("register upload returned no asset")
	}
	return &out, nil
}

func ownerRelationship() []serviceRelationship {
	return []serviceRelationship{{RelationshipType: "OWNER", Identifier: "urn:li:userGeneratedContent"}}
}

func (c *Client) uploadImage(ctx context.Context, token, owner string, data []byte, mimeType string) (string, error) {
	reg, err := c.register(ctx, token, registerUploadRequest{
		Recipes:              []string{recipeImage},
		Owner:                owner,
		ServiceRelationships: ownerRelationship(),
	})
	if err != nil {
		return "", err
	}
	single := reg.Value.UploadMechanism.Single
	if single.UploadURL == "" {
		return "", fmt.Errorf("register upload returned no %s", mechanismSingle)
	}
	_, err = c.api.Do(ctx, platform.Request{
		Method:      http.MethodPut,
		Path:        single.UploadURL,
		Operation:   "upload image",
		Token:       token,
		Body:        bytes.NewReader(data),
		ContentType: mimeType,
		Headers:     single.Headers,
		Timeout:     platform.UploadTimeout,
	})
	if err != nil {
		return "", err
	}
	return reg.Value.Asset, nil
}

// videoSession speaks the register / part PUT / completeMultiPartUpload protocol.
type videoSession struct {
	client   *Client
	token    string
	owner    string
	reg      *registerUploadResponse
	etags    []string
	partSize int
}

func (s *videoSession) Init(ctx context.Context, total int64) (string, error) {
	reg, err := s.client.register(ctx, s.token, registerUploadRequest{
		Recipes:                  []string{recipeVideo},
		Owner:                    s.owner,
		ServiceRelationships:     ownerRelationship(),
		SupportedUploadMechanism: []string{"MULTIPART_UPLOAD"},
		FileSize:                 total,
	})
	if err != nil {
		return "", err
	}
	parts := reg.Value.UploadMechanism.Multipart.PartUploadRequests
	if len(parts) == 0 {
		return "", fmt.Errorf("register upload returned no %s", mechanismMultipart)
	}
	s.reg = reg
	s.partSize = int(parts[0].ByteRange.LastByte - parts[0].ByteRange.FirstByte + 1)
	s.etags = make([]string, len(parts))
	return reg.Value.Asset, nil
}

func (s *videoSession) ChunkSize() int { return s.partSize }

func (s *videoSession) Append(ctx context.Context, _ string, index int, offset int64, chunk []byte) error {
	parts := s.reg.Value.UploadMechanism.Multipart.PartUploadRequests
	if index >= len(parts) {
		return fmt.Errorf("no upload url for part %d", index)
	}
	part := parts[index]
	if part.ByteRange.FirstByte != offset {
		return fmt.Errorf("part %d expects offset %d, got %d", index, part.ByteRange.FirstByte, offset)
	}
	resp, err := s.client.api.Do(ctx, platform.Request{
		Method:      http.MethodPut,
		Path:        part.URL,
		Operation:   "upload video part",
		Body:        bytes.NewReader(chunk),
		ContentType: "application/octet-stream",
		Headers:     part.Headers,
		Timeout:     platform.VideoTimeout,
	})
	if err != nil {
		return err
	}
	s.etags[index] = resp.Header.Get("ETag")
	return nil
}

type partUploadResponse struct {
	HTTPStatusCode int               `json:"httpStatusCode"`
	Headers        map[string]string `json:"headers"`
}

func (s *videoSession) Finalize(ctx context.Context, uploadID string) (media.Status, error) {
	responses := make([]partUploadResponse, len(s.etags))
	for i, etag := range s.etags {
		responses[i] = partUploadResponse{HTTPStatusCode: http.StatusOK, Headers: map[string]string{"ETag": etag}}
	}
	_, err := s.client.api.Do(ctx, platform.Request{
		Method:    http.MethodPost,
		Path:      "/v2/assets",
		Operation: "complete multipart upload",
		Token:     s.token,
		Query:     url.Values{"action": {"completeMultiPartUpload"}},
		JSON: map[string]interface{}{
			"completeMultipartUploadRequest": map[string]interface{}{
				"mediaArtifact":       s.reg.Value.MediaArtifact,
				"metadata":            s.reg.Value.UploadMechanism.Multipart.Metadata,
				"partUploadResponses": responses,
			},
		},
		Headers: restliHeaders,
	})
	if err != nil {
		return media.Status{}, err
	}
	return media.Status{State: media.StateProcessing}, nil
}

type assetStatus struct {
	Recipes []struct {
		Recipe string `json:"recipe"`
		Status string `json:"status"`
	} `json:"recipes"`
}

func (s *videoSession) Status(ctx context.Context, uploadID string) (media.Status, error) {
	var out assetStatus
	_, err := s.client.api.DoJSON(ctx, platform.Request{
		Path:      "/v2/assets/" + url.PathEscape(assetID(uploadID)),
		Operation: "asset status",
		Token:     s.token,
		Headers:   restliHeaders,
	}, &out)
	if err != nil {
		return media.Status{}, err
	}
	for _, r := range out.Recipes {
		if r.Recipe != recipeVideo {
			continue
		}
		switch r.Status {
		case "AVAILABLE":
			return media.Status{State: media.StateReady}, nil
		case "CLIENT_ERROR", "SERVER_ERROR", "INCOMPLETE":
			return media.Status{State: media.StateFailed, Detail: r.Status}, nil
		}
	}
	return media.Status{State: media.StateProcessing}, nil
}

var _ media.ChunkedSession = (*videoSession)(nil)
