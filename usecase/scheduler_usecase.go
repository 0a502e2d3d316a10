package usecase

import (
	"context"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

const (
	// ItemTimeout covers one item's publish across all its profiles, large video included.
	ItemTimeout = 30 * time.Minute
	// persistTimeout bounds the writes that follow a publish.
	persistTimeout = 30 * time.Second
)

type ISchedulerUsecase interface {
	// RunDue publishes every scheduled item whose time has come. Items are handled one at a time;
	// the scheduled status is the only claim, so a single dispatcher must be active.
	RunDue(ctx context.Context) (*dto.RunDueResponse, error)
	// RunOne publishes a draft or scheduled item immediately.
	RunOne(ctx context.Context, userID string, id int64) (*model.ContentItem, *model.PublishOutcome, error)
}

type schedulerUsecase struct {
	contents    repository.IContent
	publisher   IPublishUsecase
	audit       repository.IPublishAudit
	notifiers   []repository.IStatusNotifier
	batchSize   int
	itemTimeout time.Duration
	now         func() time.Time
}

func NewSchedulerUsecase(
	contents repository.IContent,
	publisher IPublishUsecase,
	audit repository.IPublishAudit,
	notifiers []repository.IStatusNotifier,
	batchSize int,
	opts ...Option,
) ISchedulerUsecase {
	o := buildOptions(opts)
	if batchSize <= 0 {
		batchSize = 50
	}
	if o.itemTimeout <= 0 {
		o.itemTimeout = ItemTimeout
	}
	return &schedulerUsecase{
		contents:    contents,
		publisher:   publisher,
		audit:       audit,
		notifiers:   notifiers,
		batchSize:   batchSize,
		itemTimeout: o.itemTimeout,
		now:         o.now,
	}
}

func (u *schedulerUsecase) RunDue(ctx context.Context) (*dto.RunDueResponse, error) {
	items, err := u.contents.FindDue(ctx, u.now().UTC(), u.batchSize)
	if err != nil {
		return nil, err
	}
	summary := &dto.RunDueResponse{}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		itemCtx, cancel := context.WithTimeout(ctx, u.itemTimeout)
		outcome, err := u.dispatch(itemCtx, item, TriggerScheduled)
		cancel()
		if err != nil {
			// left scheduled; picked up again on the next run
			logger.GetLogger().WithField("content_id", item.ID).WithField("error", err).Error("Dispatch failed")
			continue
		}
		summary.Processed++
		if outcome.Status == model.ContentFailed {
			summary.Failed++
		} else {
			summary.Published++
		}
	}
	if len(items) > 0 {
		logger.GetLogger().WithFields(map[string]interface{}{
			"due":       len(items),
			"published": summary.Published,
			"failed":    summary.Failed,
		}).Info("Scheduler run finished")
	}
	return summary, nil
}

func (u *schedulerUsecase) RunOne(ctx context.Context, userID string, id int64) (*model.ContentItem, *model.PublishOutcome, error) {
	item, err := u.contents.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if item.UserID != userID {
		return nil, nil, errs.ErrNotFound
	}
	if item.Status.Terminal() {
		return item, nil, errs.ErrInvalidTransition
	}
	outcome, err := u.dispatch(ctx, item, TriggerManual)
	if err != nil {
		return item, nil, err
	}
	return item, outcome, nil
}

func (u *schedulerUsecase) dispatch(ctx context.Context, item *model.ContentItem, trigger string) (*model.PublishOutcome, error) {
	outcome, err := u.publisher.Publish(ctx, item)
	if err != nil {
		return nil, err
	}
	// Posts may already be live; record them even if the caller gave up meanwhile.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := u.contents.SavePublishOutcome(ctx, item.ID, outcome); err != nil {
		return nil, err
	}
	item.Status = outcome.Status
	item.PostResults = outcome.PostResultsDocument()
	item.PublishedAt = outcome.PublishedAt

	now := u.now().UTC()
	if u.audit != nil {
		record := &model.PublishAudit{
			ContentID: item.ID,
			UserID:    item.UserID,
			Trigger:   trigger,
			Status:    outcome.Status,
			Results:   item.PostResults,
			Errors:    outcome.Errors,
			CreatedAt: now,
		}
		if err := u.audit.Record(ctx, record); err != nil {
			logger.GetLogger().WithField("content_id", item.ID).WithField("error", err).Warn("Publish audit not recorded")
		}
	}

	evt := &model.ContentStatusEvent{
		Type:      "content_status",
		ContentID: item.ID,
		UserID:    item.UserID,
		Status:    outcome.Status,
		Platforms: make([]string, 0, len(outcome.Results)),
		Errors:    outcome.Errors,
		At:        now,
	}
	for _, platform := range model.Platforms {
		if _, ok := outcome.Results[string(platform)]; ok {
			evt.Platforms = append(evt.Platforms, string(platform))
		}
	}
	for _, n := range u.notifiers {
		if err := n.NotifyStatus(ctx, evt); err != nil {
			logger.GetLogger().WithField("content_id", item.ID).WithField("error", err).Warn("Status notification failed")
		}
	}
	return outcome, nil
}
