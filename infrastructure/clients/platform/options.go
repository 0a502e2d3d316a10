package platform

import (
	"net/http"

	"social-publisher/infrastructure/media"
)

// Settings are the knobs every platform client accepts.
type Settings struct {
	// BaseURL replaces every platform host; used to point clients at a local server.
	BaseURL         string
	HTTPClient      *http.Client
	PipelineOptions []media.Option
}

type Option func(*Settings)

func WithBaseURL(u string) Option {
	return func(s *Settings) { s.BaseURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Settings) { s.HTTPClient = c }
}

func WithPipeline(opts ...media.Option) Option {
	return func(s *Settings) { s.PipelineOptions = append(s.PipelineOptions, opts...) }
}

func Apply(opts []Option) Settings {
	var s Settings
	for _, o := range opts {
		o(&s)
	}
	return s
}

// URL returns def unless a base URL override is set, in which case path is appended to it.
func (s Settings) URL(def, path string) string {
	if s.BaseURL != "" {
		return s.BaseURL + path
	}
	return def
}
