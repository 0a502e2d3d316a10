package repository

import (
	"context"

	"social-publisher/domain/model"
)

type IPublishAudit interface {
	Record(ctx context.Context, audit *model.PublishAudit) error
}

// IStatusNotifier receives an event whenever a content item reaches a terminal status.
type IStatusNotifier interface {
	NotifyStatus(ctx context.Context, evt *model.ContentStatusEvent) error
}
