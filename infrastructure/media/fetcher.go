package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"social-publisher/domain/model"
)

const (
	FetchTimeout  = 120 * time.Second
	MaxFetchBytes = 512 << 20
)

// Asset is a downloaded media reference ready for platform upload.
type Asset struct {
	Data     []byte
	MimeType string
	Category model.MediaCategory
}

// ErrForbiddenAddress rejects media hosted on loopback, private or link-local networks.
var ErrForbiddenAddress = errors.New("media address not allowed")

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() || !addr.IsGlobalUnicast() {
		return false
	}
	return !addr.IsPrivate() && !addr.IsLoopback() && !addr.IsLinkLocalUnicast() && !sharedAddressSpace.Contains(addr)
}

// publicOnly runs after DNS resolution, so redirects and rebinding are covered too.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !isPublic(addr) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
	}
	return nil
}

// Fetcher downloads media references.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher uses client as given. A nil client gets one that only dials public addresses.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = nil
		transport.DialContext = (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   publicOnly,
		}).DialContext
		client = &http.Client{Timeout: FetchTimeout, Transport: transport}
	}
	return &Fetcher{client: client, maxBytes: MaxFetchBytes}
}

func (f *Fetcher) WithMaxBytes(n int64) *Fetcher {
	f.maxBytes = n
	return f
}

// Fetch downloads item.URL. The MIME type comes from the item, then the response
// header, then content sniffing.
func (f *Fetcher) Fetch(ctx context.Context, item model.MediaItem) (*Asset, error) {
	u, err := url.Parse(item.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("fetch media: unsupported scheme %q", u.Scheme)
	}
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("fetch media: exceeds %d bytes", f.maxBytes)
	}

	mimeType := item.MimeType
	if mimeType == "" {
		if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
			mimeType = mt
		}
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	category := item.Category
	if category == "" {
		category = model.CategoryFromMime(mimeType)
	}
	return &Asset{Data: data, MimeType: mimeType, Category: category}, nil
}
