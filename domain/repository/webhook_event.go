package repository

import (
	"context"

	"social-publisher/domain/model"
)

// IWebhookEvent is the append-only inbound event log.
type IWebhookEvent interface {
	Create(ctx context.Context, events []*model.WebhookEvent) error
	ListByTargets(ctx context.Context, targetIDs []string, unreadOnly bool, limit int) ([]*model.WebhookEvent, error)
	GetByID(ctx context.Context, id string) (*model.WebhookEvent, error)
	MarkRead(ctx context.Context, id string) error
}
