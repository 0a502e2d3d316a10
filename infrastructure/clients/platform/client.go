// Package platform holds the HTTP plumbing shared by the social platform clients.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"

	"github.com/google/go-querystring/query"
)

// Per-call timeouts.
const (
	APITimeout    = 30 * time.Second
	UploadTimeout = 120 * time.Second
	VideoTimeout  = 600 * time.Second
)

const maxErrorBody = 512

// Client issues requests against one platform API and converts every failure into
// *errs.PlatformAPIError.
type Client struct {
	platform model.Platform
	baseURL  string
	http     *http.Client
}

// NewClient returns a client rooted at baseURL. A nil httpClient uses a fresh client
// without a global timeout; deadlines are applied per request.
func NewClient(platform model.Platform, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{platform: platform, baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Platform() model.Platform { return c.platform }

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) HTTPClient() *http.Client { return c.http }

// Request describes one API call. Path may be absolute, otherwise it is joined to the base URL.
type Request struct {
	Method    string
	Path      string
	Operation string
	Token     string
	// Query is a struct with `url` tags or url.Values.
	Query       interface{}
	JSON        interface{}
	Form        url.Values
	Body        io.Reader
	ContentType string
	Headers     map[string]string
	Timeout     time.Duration
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

func (c *Client) apiError(op string, status int, body []byte, cause error) error {
	b := strings.TrimSpace(string(body))
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return &errs.PlatformAPIError{Platform: string(c.platform), Operation: op, StatusCode: status, Body: b, Cause: cause}
}

// Do sends the request. Non-2xx responses and transport failures return *errs.PlatformAPIError.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = APITimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := r.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	}
	if r.Query != nil {
		q, err := encodeQuery(r.Query)
		if err != nil {
			return nil, c.apiError(r.Operation, 0, nil, err)
		}
		if enc := q.Encode(); enc != "" {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + enc
		}
	}

	body := r.Body
	contentType := r.ContentType
	switch {
	case r.JSON != nil:
		raw, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, c.apiError(r.Operation, 0, nil, err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, c.apiError(r.Operation, 0, nil, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.apiError(r.Operation, 0, nil, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.apiError(r.Operation, resp.StatusCode, nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(r.Operation, resp.StatusCode, respBody, nil)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// DoJSON sends the request and decodes the response body into out.
func (c *Client) DoJSON(ctx context.Context, r Request, out interface{}) (*Response, error) {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return nil, c.apiError(r.Operation, resp.StatusCode, resp.Body, fmt.Errorf("decode response: %w", err))
		}
	}
	return resp, nil
}

func encodeQuery(v interface{}) (url.Values, error) {
	if vals, ok := v.(url.Values); ok {
		return vals, nil
	}
	return query.Values(v)
}

// Multipart builds a multipart/form-data body with the given fields and one file part.
func Multipart(fields interface{}, fileField, fileName string, data []byte) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if fields != nil {
		vals, err := encodeQuery(fields)
		if err != nil {
			return nil, "", err
		}
		for k, vs := range vals {
			for _, v := range vs {
				if err := w.WriteField(k, v); err != nil {
					return nil, "", err
				}
			}
		}
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
