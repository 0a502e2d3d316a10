package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dueItem(id int64) *model.ContentItem {
	at := testNow.Add(-time.Minute)
	return &model.ContentItem{ID: id, UserID: "u1", Body: "hello", Status: model.ContentScheduled, ScheduledDate: &at}
}

func TestRunDue_PersistsAuditsAndNotifies(t *testing.T) {
	contents := new(MockContents)
	publisher := new(MockPublisher)
	audit := new(MockAudit)
	notifier := new(MockNotifier)

	first, second := dueItem(1), dueItem(2)
	published := &model.PublishOutcome{
		Status:      model.ContentPublished,
		Results:     map[string]*model.PostResult{"linkedin": {Platform: model.PlatformLinkedIn, PostID: "urn:li:share:1"}},
		Errors:      []string{},
		PublishedAt: &testNow,
	}
	failed := &model.PublishOutcome{Status: model.ContentFailed, Results: map[string]*model.PostResult{}, Errors: []string{"twitter: boom"}}

	contents.On("FindDue", mock.Anything, testNow, 10).Return([]*model.ContentItem{first, second}, nil)
	publisher.On("Publish", mock.Anything, first).Return(published, nil)
	publisher.On("Publish", mock.Anything, second).Return(failed, nil)
	contents.On("SavePublishOutcome", mock.Anything, int64(1), published).Return(nil)
	contents.On("SavePublishOutcome", mock.Anything, int64(2), failed).Return(nil)
	audit.On("Record", mock.Anything, mock.MatchedBy(func(a *model.PublishAudit) bool {
		return a.Trigger == usecase.TriggerScheduled
	})).Return(nil)
	notifier.On("NotifyStatus", mock.Anything, mock.AnythingOfType("*model.ContentStatusEvent")).Return(nil)

	uc := usecase.NewSchedulerUsecase(contents, publisher, audit, []repository.IStatusNotifier{notifier}, 10, usecase.WithClock(fixedClock(testNow)))
	summary, err := uc.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Published)
	assert.Equal(t, 1, summary.Failed)

	assert.Equal(t, model.ContentPublished, first.Status)
	assert.Contains(t, first.PostResults, "linkedin")
	assert.Equal(t, model.ContentFailed, second.Status)
	assert.Equal(t, []string{"twitter: boom"}, second.PostResults["errors"])

	audit.AssertNumberOfCalls(t, "Record", 2)
	notifier.AssertNumberOfCalls(t, "NotifyStatus", 2)
	evt := notifier.Calls[0].Arguments.Get(1).(*model.ContentStatusEvent)
	assert.Equal(t, int64(1), evt.ContentID)
	assert.Equal(t, []string{"linkedin"}, evt.Platforms)
}

func TestRunDue_SaveFailureLeavesItemForNextRun(t *testing.T) {
	contents := new(MockContents)
	publisher := new(MockPublisher)
	item := dueItem(1)
	outcome := &model.PublishOutcome{Status: model.ContentPublished, Results: map[string]*model.PostResult{}, PublishedAt: &testNow}

	contents.On("FindDue", mock.Anything, testNow, 50).Return([]*model.ContentItem{item}, nil)
	publisher.On("Publish", mock.Anything, item).Return(outcome, nil)
	contents.On("SavePublishOutcome", mock.Anything, int64(1), outcome).Return(errors.New("db down"))

	uc := usecase.NewSchedulerUsecase(contents, publisher, nil, nil, 0, usecase.WithClock(fixedClock(testNow)))
	summary, err := uc.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, model.ContentScheduled, item.Status)
}

func TestRunDue_AuditAndNotifierErrorsDoNotFail(t *testing.T) {
	contents := new(MockContents)
	publisher := new(MockPublisher)
	audit := new(MockAudit)
	notifier := new(MockNotifier)
	item := dueItem(4)
	outcome := &model.PublishOutcome{Status: model.ContentPublished, Results: map[string]*model.PostResult{}, PublishedAt: &testNow}

	contents.On("FindDue", mock.Anything, testNow, 50).Return([]*model.ContentItem{item}, nil)
	publisher.On("Publish", mock.Anything, item).Return(outcome, nil)
	contents.On("SavePublishOutcome", mock.Anything, int64(4), outcome).Return(nil)
	audit.On("Record", mock.Anything, mock.Anything).Return(errors.New("mongo down"))
	notifier.On("NotifyStatus", mock.Anything, mock.Anything).Return(errors.New("topic missing"))

	uc := usecase.NewSchedulerUsecase(contents, publisher, audit, []repository.IStatusNotifier{notifier}, 0, usecase.WithClock(fixedClock(testNow)))
	summary, err := uc.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Published)
}

func TestRunDue_FindError(t *testing.T) {
	contents := new(MockContents)
	contents.On("FindDue", mock.Anything, testNow, 50).Return(nil, errors.New("db down"))

	_, err := usecase.NewSchedulerUsecase(contents, new(MockPublisher), nil, nil, 0, usecase.WithClock(fixedClock(testNow))).
		RunDue(context.Background())
	assert.Error(t, err)
}

func TestRunOne(t *testing.T) {
	contents := new(MockContents)
	publisher := new(MockPublisher)
	draft := &model.ContentItem{ID: 5, UserID: "u1", Status: model.ContentDraft}
	outcome := &model.PublishOutcome{Status: model.ContentPublished, Results: map[string]*model.PostResult{}, PublishedAt: &testNow}

	contents.On("GetByID", mock.Anything, int64(5)).Return(draft, nil)
	publisher.On("Publish", mock.Anything, draft).Return(outcome, nil)
	contents.On("SavePublishOutcome", mock.Anything, int64(5), outcome).Return(nil)

	uc := usecase.NewSchedulerUsecase(contents, publisher, nil, nil, 0, usecase.WithClock(fixedClock(testNow)))
	item, out, err := uc.RunOne(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, model.ContentPublished, item.Status)
	assert.Same(t, outcome, out)
}

func TestRunOne_Rejections(t *testing.T) {
	contents := new(MockContents)
	contents.On("GetByID", mock.Anything, int64(1)).Return(&model.ContentItem{ID: 1, UserID: "other", Status: model.ContentDraft}, nil)
	contents.On("GetByID", mock.Anything, int64(2)).Return(&model.ContentItem{ID: 2, UserID: "u1", Status: model.ContentPublished}, nil)
	publisher := new(MockPublisher)

	uc := usecase.NewSchedulerUsecase(contents, publisher, nil, nil, 0)
	_, _, err := uc.RunOne(context.Background(), "u1", 1)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, _, err = uc.RunOne(context.Background(), "u1", 2)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRunDue_EachItemGetsItsOwnDeadline(t *testing.T) {
	contents := new(MockContents)
	publisher := new(MockPublisher)
	first, second := dueItem(1), dueItem(2)
	outcome := &model.PublishOutcome{Status: model.ContentPublished, Results: map[string]*model.PostResult{}, PublishedAt: &testNow}

	var deadlines []time.Time
	contents.On("FindDue", mock.Anything, testNow, 50).Return([]*model.ContentItem{first, second}, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		dl, ok := args.Get(0).(context.Context).Deadline()
		require.True(t, ok)
		deadlines = append(deadlines, dl)
		time.Sleep(5 * time.Millisecond)
	}).Return(outcome, nil)
	contents.On("SavePublishOutcome", mock.Anything, mock.Anything, outcome).Return(nil)

	uc := usecase.NewSchedulerUsecase(contents, publisher, nil, nil, 0,
		usecase.WithClock(fixedClock(testNow)), usecase.WithItemTimeout(time.Hour))
	summary, err := uc.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	require.Len(t, deadlines, 2)
	assert.True(t, deadlines[1].After(deadlines[0]))
}

func TestRunDue_OutcomeSavedAfterCancellation(t *testing.T) {
	contents := new(MockContents)
	publisher := new(MockPublisher)
	first, second := dueItem(1), dueItem(2)
	outcome := &model.PublishOutcome{Status: model.ContentPublished, Results: map[string]*model.PostResult{}, PublishedAt: &testNow}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	contents.On("FindDue", mock.Anything, testNow, 50).Return([]*model.ContentItem{first, second}, nil)
	publisher.On("Publish", mock.Anything, first).Run(func(mock.Arguments) { cancel() }).Return(outcome, nil)
	contents.On("SavePublishOutcome", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), int64(1), outcome).Return(nil)

	uc := usecase.NewSchedulerUsecase(contents, publisher, nil, nil, 0, usecase.WithClock(fixedClock(testNow)))
	summary, err := uc.RunDue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, model.ContentPublished, first.Status)
	contents.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}
