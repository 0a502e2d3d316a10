package repository

import (
	"context"
	"time"

	"social-publisher/domain/model"
)

// IContent is the engine's view of the content calendar.
type IContent interface {
	Create(ctx context.Context, item *model.ContentItem) error
	GetByID(ctx context.Context, id int64) (*model.ContentItem, error)
	// FindDue returns scheduled items with scheduled_date <= now, oldest first.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*model.ContentItem, error)
	// UpdateStatus moves an item to status only while it is still in one of from.
	// Returns errs.ErrInvalidTransition when no row matched.
	UpdateStatus(ctx context.Context, id int64, status model.ContentStatus, scheduledDate *time.Time, from ...model.ContentStatus) error
	// SavePublishOutcome persists status, post_results and published_at.
	SavePublishOutcome(ctx context.Context, id int64, outcome *model.PublishOutcome) error
}
