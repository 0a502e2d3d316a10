// Package media drives platform media uploads: single-request uploads for small assets
// and INIT/APPEND/FINALIZE uploads with status polling for large or async ones.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/metrics"
)

// State is the lifecycle of a single upload.
type State string

const (
	StateRegistered State = "registered"
	StateUploading  State = "uploading"
	StateFinalizing State = "finalizing"
	StateReady      State = "ready"
	StateProcessing State = "processing"
	StateFailed     State = "failed"
)

// Stage names reported in errs.MediaUploadError.
const (
	StageInit     = "init"
	StageAppend   = "append"
	StageFinalize = "finalize"
	StageStatus   = "status"
	StageUpload   = "upload"
)

const (
	DefaultMaxPolls   = 60
	DefaultCheckAfter = 5 * time.Second
)

// Status is what a platform reports after FINALIZE or a status poll.
type Status struct {
	State State
	// MediaID overrides the upload id when the platform issues a different reference.
	MediaID    string
	CheckAfter time.Duration
	Detail     string
}

// ChunkedSession is one platform's implementation of the chunked protocol.
type ChunkedSession interface {
	Init(ctx context.Context, totalBytes int64) (uploadID string, err error)
	ChunkSize() int
	Append(ctx context.Context, uploadID string, index int, offset int64, chunk []byte) error
	Finalize(ctx context.Context, uploadID string) (Status, error)
	Status(ctx context.Context, uploadID string) (Status, error)
}

// Upload records the progress of one asset through the state machine.
type Upload struct {
	Platform model.Platform
	ID       string
	State    State
	Offset   int64
	Chunks   int
	Polls    int
}

type Pipeline struct {
	platform   model.Platform
	maxPolls   int
	checkAfter time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Pipeline)

func WithMaxPolls(n int) Option {
	return func(p *Pipeline) { p.maxPolls = n }
}

func WithCheckAfter(d time.Duration) Option {
	return func(p *Pipeline) { p.checkAfter = d }
}

// WithSleep replaces the wait between status polls.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) { p.sleep = fn }
}

func NewPipeline(platform model.Platform, opts ...Option) *Pipeline {
	p := &Pipeline{
		platform:   platform,
		maxPolls:   DefaultMaxPolls,
		checkAfter: DefaultCheckAfter,
		sleep:      sleepCtx,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Pipeline) fail(u *Upload, stage string, path string, err error) error {
	u.State = StateFailed
	metrics.MediaUploads.WithLabelValues(string(p.platform), path, string(StateFailed)).Inc()
	logger.GetLogger().WithFields(map[string]interface{}{
		"platform": p.platform,
		"stage":    stage,
		"uploadId": u.ID,
		"error":    err,
	}).Error("Media upload failed")
	return &errs.MediaUploadError{Platform: string(p.platform), Stage: stage, Cause: err}
}

// Single runs a one-request upload: registered -> ready.
func (p *Pipeline) Single(ctx context.Context, upload func(ctx context.Context) (string, error)) (*Upload, error) {
	u := &Upload{Platform: p.platform, State: StateRegistered}
	id, err := upload(ctx)
	if err != nil {
		return u, p.fail(u, StageUpload, "single", err)
	}
	u.ID = id
	u.State = StateReady
	metrics.MediaUploads.WithLabelValues(string(p.platform), "single", string(StateReady)).Inc()
	return u, nil
}

// Chunked runs INIT, strictly ordered APPENDs, FINALIZE and, when the platform reports
// processing, polls status until ready or failed. Any failure aborts the upload.
func (p *Pipeline) Chunked(ctx context.Context, s ChunkedSession, data []byte) (*Upload, error) {
	u := &Upload{Platform: p.platform, State: StateRegistered}

	id, err := s.Init(ctx, int64(len(data)))
	if err != nil {
		return u, p.fail(u, StageInit, "chunked", err)
	}
	u.ID = id
	u.State = StateUploading

	size := s.ChunkSize()
	if size <= 0 {
		return u, p.fail(u, StageInit, "chunked", fmt.Errorf("invalid chunk size %d", size))
	}
	for offset := 0; offset < len(data); offset += size {
		end := offset + size
		if end > len(data) {
			end = len(data)
		}
		if err := s.Append(ctx, u.ID, u.Chunks, int64(offset), data[offset:end]); err != nil {
			return u, p.fail(u, StageAppend, "chunked", fmt.Errorf("chunk %d at offset %d: %w", u.Chunks, offset, err))
		}
		u.Chunks++
		u.Offset = int64(end)
	}

	u.State = StateFinalizing
	st, err := s.Finalize(ctx, u.ID)
	if err != nil {
		return u, p.fail(u, StageFinalize, "chunked", err)
	}
	if err := p.settle(ctx, s, u, st); err != nil {
		return u, err
	}
	metrics.MediaUploads.WithLabelValues(string(p.platform), "chunked", string(StateReady)).Inc()
	return u, nil
}

var errStillProcessing = errors.New("media still processing")

func (p *Pipeline) settle(ctx context.Context, s ChunkedSession, u *Upload, st Status) error {
	for {
		if st.MediaID != "" {
			u.ID = st.MediaID
		}
		switch st.State {
		case StateReady, "":
			u.State = StateReady
			return nil
		case StateFailed:
			return p.fail(u, StageStatus, "chunked", fmt.Errorf("platform rejected media: %s", st.Detail))
		}
		u.State = StateProcessing
		if u.Polls >= p.maxPolls {
			return p.fail(u, StageStatus, "chunked", fmt.Errorf("%w after %d polls", errStillProcessing, u.Polls))
		}
		wait := st.CheckAfter
		if wait <= 0 {
			wait = p.checkAfter
		}
		if err := p.sleep(ctx, wait); err != nil {
			return p.fail(u, StageStatus, "chunked", err)
		}
		u.Polls++
		next, err := s.Status(ctx, u.ID)
		if err != nil {
			return p.fail(u, StageStatus, "chunked", err)
		}
		st = next
	}
}
