package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var contentRowColumns = []string{"id", "user_id", "title", "body", "media", "target_platforms", "profile_ids",
	"scheduled_date", "status", "post_results", "published_at", "created_at", "updated_at"}

func TestContentRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContentRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	item := &model.ContentItem{
		UserID:          "42",
		Body:            "Launch day",
		Media:           []model.MediaItem{{URL: "https://cdn.example.com/a.png"}},
		TargetPlatforms: []model.Platform{model.PlatformLinkedIn},
		ProfileIDs:      []int64{1},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO content_items`)).
		WithArgs("42", "", "Launch day", []byte(`[{"url":"https://cdn.example.com/a.png"}]`), "{\"linkedin\"}", "{1}",
			sqlmock.AnyArg(), "draft", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(5, now, now))

	require.NoError(t, repo.Create(context.Background(), item))
	require.Equal(t, int64(5), item.ID)
	require.Equal(t, model.ContentDraft, item.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_FindDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContentRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status=$1 AND scheduled_date <= $2`)).
		WithArgs("scheduled", now, 50).
		WillReturnRows(sqlmock.NewRows(contentRowColumns).
			AddRow(8, "42", "t", "hello", `[]`, "{linkedin,twitter}", "{3,4}", due, "scheduled", nil, nil, now, now))

	items, err := repo.FindDue(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	item := items[0]
	require.Equal(t, int64(8), item.ID)
	require.Equal(t, []model.Platform{model.PlatformLinkedIn, model.PlatformTwitter}, item.TargetPlatforms)
	require.Equal(t, []int64{3, 4}, item.ProfileIDs)
	require.True(t, item.Due(now))
	require.Nil(t, item.PublishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContentRepository(db)
	update := regexp.QuoteMeta(`UPDATE content_items SET status=$1`)

	mock.ExpectExec(update).
		WithArgs("cancelled", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(8), "{\"draft\",\"scheduled\"}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), 8, model.ContentCancelled, nil))

	mock.ExpectExec(update).
		WithArgs("scheduled", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(8), "{\"draft\"}").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateStatus(context.Background(), 8, model.ContentScheduled, nil, model.ContentDraft)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_UpdateStatus_TerminalSourceRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = NewContentRepository(db).UpdateStatus(context.Background(), 8, model.ContentScheduled, nil, model.ContentPublished)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_SavePublishOutcome_Failed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContentRepository(db)
	outcome := &model.PublishOutcome{
		Status:  model.ContentFailed,
		Results: map[string]*model.PostResult{},
		Errors:  []string{"twitter: boom"},
	}
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE content_items SET status=$1, post_results=$2`)).
		WithArgs("failed", []byte(`{"errors":["twitter: boom"]}`), nil, sqlmock.AnyArg(), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SavePublishOutcome(context.Background(), 8, outcome))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_FindDueSkipsUndecodableRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContentRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status=$1 AND scheduled_date <= $2`)).
		WithArgs("scheduled", now, 50).
		WillReturnRows(sqlmock.NewRows(contentRowColumns).
			AddRow(8, "42", "t", "hello", `[]`, "{linkedin}", "{3}", due, "scheduled", nil, nil, now, now).
			AddRow(9, "42", "t", "broken", `{not json`, "{linkedin}", "{3}", due, "scheduled", nil, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE content_items SET status=$1, post_results=$2`)).
		WithArgs("failed", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(9), "scheduled").
		WillReturnResult(sqlmock.NewResult(0, 1))

	items, err := repo.FindDue(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(8), items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
