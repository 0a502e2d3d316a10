package model

import "time"

// AuthorIdentity is who a post is created as on the platform.
type AuthorIdentity struct {
	ExternalID string
	// PageID is the Facebook page posts are published to.
	PageID string
}

// MediaCategory classifies an asset for platform upload rules.
type MediaCategory string

const (
	MediaImage    MediaCategory = "image"
	MediaGIF      MediaCategory = "gif"
	MediaVideo    MediaCategory = "video"
	MediaDocument MediaCategory = "document"
)

// CategoryFromMime maps a MIME type onto an upload category.
func CategoryFromMime(mime string) MediaCategory {
	switch {
	case mime == "image/gif":
		return MediaGIF
	case len(mime) >= 6 && mime[:6] == "image/":
		return MediaImage
	case len(mime) >= 6 && mime[:6] == "video/":
		return MediaVideo
	default:
		return MediaDocument
	}
}

// MediaItem is a media reference attached to a content item, before platform upload.
type MediaItem struct {
	URL      string        `json:"url"`
	MimeType string        `json:"mime_type,omitempty"`
	Category MediaCategory `json:"category,omitempty"`
	AltText  string        `json:"alt_text,omitempty"`
}

// MediaRef is an uploaded asset that can be referenced by a post on one platform.
type MediaRef struct {
	Platform Platform      `json:"platform"`
	ID       string        `json:"id"`
	Category MediaCategory `json:"category"`
}

// PostResult is the outcome of a successful createPost call.
type PostResult struct {
	Platform    Platform  `json:"platform"`
	PostID      string    `json:"post_id"`
	URL         string    `json:"url,omitempty"`
	ProfileID   int64     `json:"profile_id"`
	Mock        bool      `json:"mock,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Metrics are engagement counts for a post. Fields a platform does not expose stay zero.
type Metrics struct {
	Likes       int64 `json:"likes"`
	Comments    int64 `json:"comments"`
	Shares      int64 `json:"shares"`
	Impressions int64 `json:"impressions"`
}
