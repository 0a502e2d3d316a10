package facebook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/facebook"
	"social-publisher/infrastructure/clients/platform"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/media"
)

var (
	_ repository.IPlatformAdapter = (*facebook.Client)(nil)
	_ repository.IOAuthProvider   = (*facebook.Client)(nil)
)

var pageAuthor = model.AuthorIdentity{ExternalID: "u1", PageID: "p2"}

func newClient(srv *httptest.Server) *facebook.Client {
	return facebook.New(configuration.OAuthClient{ClientID: "app", ClientSecret: "appsecret", RedirectURI: "http://localhost/facebook/callback"},
		platform.WithBaseURL(srv.URL),
		platform.WithHTTPClient(srv.Client()),
		platform.WithPipeline(media.WithSleep(func(context.Context, time.Duration) error { return nil })),
	)
}

func writeAccounts(w http.ResponseWriter) {
	_, _ = w.Write([]byte(`{"data":[{"id":"p1","name":"First","access_token":"page-1"},{"id":"p2","name":"Second","access_token":"page-2"}]}`))
}

func TestExchangeCodeUpgradesToLongLivedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			_, _ = w.Write([]byte(`{"access_token":"short","token_type":"bearer","expires_in":3600}`))
			return
		}
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "short", q.Get("fb_exchange_token"))
		assert.Equal(t, "appsecret", q.Get("client_secret"))
		_, _ = w.Write([]byte(`{"access_token":"long","token_type":"bearer","expires_in":5184000}`))
	}))
	defer srv.Close()

	ts, err := newClient(srv).ExchangeCode(context.Background(), "the-code", "")
	require.NoError(t, err)
	assert.Equal(t, "long", ts.AccessToken)
	assert.Empty(t, ts.RefreshToken)
	require.NotNil(t, ts.ExpiresAt)
	assert.True(t, ts.ExpiresAt.After(time.Now().Add(59*24*time.Hour)))
}

func TestRefreshTokenUnsupported(t *testing.T) {
	c := facebook.New(configuration.OAuthClient{ClientID: "a", ClientSecret: "b", RedirectURI: "c"})
	_, err := c.RefreshToken(context.Background(), "anything")
	var apiErr *errs.PlatformAPIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestFetchProfileSelectsFirstPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			_, _ = w.Write([]byte(`{"id":"u1","name":"Owner","picture":{"data":{"url":"https://img/o.png"}}}`))
		case "/me/accounts":
			assert.Equal(t, "user-token", r.URL.Query().Get("access_token"))
			writeAccounts(w)
		}
	}))
	defer srv.Close()

	p, err := newClient(srv).FetchProfile(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "p1", p.PageID)
	assert.Equal(t, "First", p.PageName)
	assert.Equal(t, "https://img/o.png", p.AvatarURL)
}

func TestFetchProfileWithoutPagesFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/me/accounts" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","name":"Owner"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv).FetchProfile(context.Background(), "user-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pages")
}

func TestCreatePostWithPhotosUsesPageToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/accounts":
			writeAccounts(w)
		case "/p2/feed":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "page-2", r.PostForm.Get("access_token"))
			assert.Equal(t, "hello", r.PostForm.Get("message"))
			assert.JSONEq(t, `{"media_fbid":"ph1"}`, r.PostForm.Get("attached_media[0]"))
			_, _ = w.Write([]byte(`{"id":"p2_555"}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	res, err := newClient(srv).CreatePost(context.Background(), "user-token", pageAuthor, "hello",
		[]model.MediaRef{{ID: "ph1", Category: model.MediaImage}})
	require.NoError(t, err)
	assert.Equal(t, "p2_555", res.PostID)
}

func TestCreatePostUnknownPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { writeAccounts(w) }))
	defer srv.Close()

	_, err := newClient(srv).CreatePost(context.Background(), "user-token", model.AuthorIdentity{PageID: "nope"}, "x", nil)
	var apiErr *errs.PlatformAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "get pages", apiErr.Operation)
}

func TestUploadPhotoUnpublished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/accounts":
			writeAccounts(w)
		case "/p2/photos":
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "false", r.FormValue("published"))
			assert.Equal(t, "page-2", r.FormValue("access_token"))
			_, _ = w.Write([]byte(`{"id":"ph9"}`))
		}
	}))
	defer srv.Close()

	ref, err := newClient(srv).UploadMedia(context.Background(), "user-token", pageAuthor, []byte("png"), "image/png", model.MediaImage)
	require.NoError(t, err)
	assert.Equal(t, "ph9", ref.ID)
}

func TestUploadVideoResumable(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 3)
	var mu sync.Mutex
	var assembled bytes.Buffer
	var phases []string
	statusCalls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/me/accounts":
			writeAccounts(w)
		case "/p2/videos":
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			phase := r.FormValue("upload_phase")
			phases = append(phases, phase)
			switch phase {
			case "start":
				assert.Equal(t, "30", r.FormValue("file_size"))
				_, _ = w.Write([]byte(`{"video_id":"v1","upload_session_id":"s1","start_offset":"0","end_offset":"12"}`))
			case "transfer":
				f, _, err := r.FormFile("video_file_chunk")
				assert.NoError(t, err)
				chunk, _ := io.ReadAll(f)
				start, _ := strconv.Atoi(r.FormValue("start_offset"))
				assert.Equal(t, assembled.Len(), start)
				assembled.Write(chunk)
				next := strconv.Itoa(assembled.Len())
				_ = json.NewEncoder(w).Encode(map[string]string{"start_offset": next, "end_offset": next})
			case "finish":
				assert.Equal(t, "false", r.FormValue("published"))
				_, _ = w.Write([]byte(`{"success":true}`))
			}
		case "/v1":
			statusCalls++
			_, _ = w.Write([]byte(`{"status":{"video_status":"ready"}}`))
		}
	}))
	defer srv.Close()

	ref, err := newClient(srv).UploadMedia(context.Background(), "user-token", pageAuthor, data, "video/mp4", model.MediaVideo)
	require.NoError(t, err)
	assert.Equal(t, "v1", ref.ID)
	assert.Equal(t, data, assembled.Bytes())
	assert.Equal(t, []string{"start", "transfer", "transfer", "transfer", "finish"}, phases)
	assert.Equal(t, 1, statusCalls)
}

func TestCreatePostPublishesUploadedVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/accounts":
			writeAccounts(w)
		case "/v1":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "caption", r.PostForm.Get("description"))
			assert.Equal(t, "true", r.PostForm.Get("published"))
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	res, err := newClient(srv).CreatePost(context.Background(), "user-token", pageAuthor, "caption",
		[]model.MediaRef{{ID: "v1", Category: model.MediaVideo}})
	require.NoError(t, err)
	assert.Equal(t, "v1", res.PostID)
}

func TestDeleteAndMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/me/accounts":
			writeAccounts(w)
		case r.Method == http.MethodDelete:
			assert.Equal(t, "page-2", r.URL.Query().Get("access_token"))
			_, _ = w.Write([]byte(`{"success":true}`))
		case r.URL.Path == "/p2_555/insights":
			_, _ = w.Write([]byte(`{"data":[{"name":"post_impressions","values":[{"value":321}]}]}`))
		case r.URL.Path == "/p2_555":
			_, _ = w.Write([]byte(`{"likes":{"summary":{"total_count":7}},"comments":{"summary":{"total_count":2}},"shares":{"count":1}}`))
		}
	}))
	defer srv.Close()
	c := newClient(srv)

	ok, err := c.DeletePost(context.Background(), "user-token", pageAuthor, "p2_555")
	require.NoError(t, err)
	assert.True(t, ok)

	m := c.GetMetrics(context.Background(), "user-token", pageAuthor, "p2_555")
	assert.Equal(t, model.Metrics{Likes: 7, Comments: 2, Shares: 1, Impressions: 321}, m)
}
