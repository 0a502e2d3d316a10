package persistence

import (
	"context"
	"errors"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"gorm.io/gorm"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) repository.IWebhookEvent {
	return &WebhookEventRepository{db: db}
}

// MigrateWebhookEvents creates or updates the webhook_events table.
func MigrateWebhookEvents(db *gorm.DB) error {
	return db.AutoMigrate(&model.WebhookEvent{})
}

func (r *WebhookEventRepository) Create(ctx context.Context, events []*model.WebhookEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *WebhookEventRepository) ListByTargets(ctx context.Context, targetIDs []string, unreadOnly bool, limit int) ([]*model.WebhookEvent, error) {
	if len(targetIDs) == 0 {
		return []*model.WebhookEvent{}, nil
	}
	q := r.db.WithContext(ctx).Where("target_id IN ?", targetIDs)
	if unreadOnly {
		q = q.Where("`read` = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var events []*model.WebhookEvent
	if err := q.Order("received_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *WebhookEventRepository) GetByID(ctx context.Context, id string) (*model.WebhookEvent, error) {
	var evt model.WebhookEvent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&evt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &evt, nil
}

func (r *WebhookEventRepository) MarkRead(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
