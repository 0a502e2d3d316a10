package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

var ErrInvalidContent = errors.New("invalid content")

// PublishHistory reads the publish audit archive.
type PublishHistory interface {
	History(ctx context.Context, contentID int64, limit int64) ([]model.PublishAudit, error)
}

// IContentUsecase is the thin boundary the content calendar uses to hand items to the engine.
type IContentUsecase interface {
	Create(ctx context.Context, userID string, req dto.ContentRequest) (*model.ContentItem, error)
	Get(ctx context.Context, userID string, id int64) (*model.ContentItem, error)
	Schedule(ctx context.Context, userID string, id int64, at time.Time) (*model.ContentItem, error)
	Cancel(ctx context.Context, userID string, id int64) (*model.ContentItem, error)
	History(ctx context.Context, userID string, id int64) ([]model.PublishAudit, error)
}

type contentUsecase struct {
	contents repository.IContent
	history  PublishHistory
	now      func() time.Time
}

func NewContentUsecase(contents repository.IContent, history PublishHistory, opts ...Option) IContentUsecase {
	o := buildOptions(opts)
	return &contentUsecase{contents: contents, history: history, now: o.now}
}

func (u *contentUsecase) Create(ctx context.Context, userID string, req dto.ContentRequest) (*model.ContentItem, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidContent)
	}
	item := &model.ContentItem{
		UserID:     userID,
		Title:      req.Title,
		Body:       req.Text,
		Media:      req.MediaRefs,
		ProfileIDs: req.TargetProfileIDs,
		Status:     model.ContentDraft,
	}
	for _, raw := range req.TargetPlatforms {
		p, ok := model.ParsePlatform(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidContent, raw)
		}
		item.TargetPlatforms = append(item.TargetPlatforms, p)
	}
	for i := range item.Media {
		if item.Media[i].URL == "" {
			return nil, fmt.Errorf("%w: media %d has no url", ErrInvalidContent, i)
		}
		if item.Media[i].Category == "" && item.Media[i].MimeType != "" {
			item.Media[i].Category = model.CategoryFromMime(item.Media[i].MimeType)
		}
	}
	if req.ScheduledAt != nil {
		at := req.ScheduledAt.UTC()
		item.ScheduledDate = &at
		item.Status = model.ContentScheduled
	}
	if err := u.contents.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (u *contentUsecase) Get(ctx context.Context, userID string, id int64) (*model.ContentItem, error) {
	item, err := u.contents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return item, nil
}

func (u *contentUsecase) Schedule(ctx context.Context, userID string, id int64, at time.Time) (*model.ContentItem, error) {
	if _, err := u.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	at = at.UTC()
	if err := u.contents.UpdateStatus(ctx, id, model.ContentScheduled, &at, model.ContentDraft); err != nil {
		return nil, err
	}
	return u.contents.GetByID(ctx, id)
}

// Cancel only stops future dispatch; an in-flight publish is not interrupted.
func (u *contentUsecase) Cancel(ctx context.Context, userID string, id int64) (*model.ContentItem, error) {
	if _, err := u.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := u.contents.UpdateStatus(ctx, id, model.ContentCancelled, nil, model.ContentDraft, model.ContentScheduled); err != nil {
		return nil, err
	}
	return u.contents.GetByID(ctx, id)
}

func (u *contentUsecase) History(ctx context.Context, userID string, id int64) ([]model.PublishAudit, error) {
	if _, err := u.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if u.history == nil {
		return []model.PublishAudit{}, nil
	}
	return u.history.History(ctx, id, 20)
}
