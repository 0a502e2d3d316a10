package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestNewPostgreSQLDB_Unconfigured(t *testing.T) {
	saved := configuration.C.Database.Psql
	defer func() { configuration.C.Database.Psql = saved }()
	configuration.C.Database.Psql.Host = ""

	db, err := NewPostgreSQLDB()
	require.Error(t, err)
	require.Nil(t, db)
}

func TestNewGormMySQL_Unconfigured(t *testing.T) {
	saved := configuration.C.Database.MySql
	defer func() { configuration.C.Database.MySql = saved }()
	configuration.C.Database.MySql.Host = ""

	db, err := NewGormMySQL()
	require.Error(t, err)
	require.Nil(t, db)
}

func TestWebhookEventRepository_Create(t *testing.T) {
	gormDB, mock := newMockGorm(t)
	repo := NewWebhookEventRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `webhook_events`")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	now := time.Now().UTC()
	err := repo.Create(context.Background(), []*model.WebhookEvent{
		{ID: "a", Platform: model.PlatformFacebook, EventType: model.WebhookComment, TargetID: "page-1", RawPayload: "{}", ReceivedAt: now},
		{ID: "b", Platform: model.PlatformFacebook, EventType: model.WebhookReaction, TargetID: "page-1", RawPayload: "{}", ReceivedAt: now},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepository_CreateEmpty(t *testing.T) {
	gormDB, mock := newMockGorm(t)
	require.NoError(t, NewWebhookEventRepository(gormDB).Create(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepository_ListByTargets(t *testing.T) {
	gormDB, mock := newMockGorm(t)
	repo := NewWebhookEventRepository(gormDB)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `webhook_events` WHERE target_id IN (?,?) AND `read` = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "platform", "event_type", "target_id", "raw_payload", "read", "received_at"}).
			AddRow("a", "facebook", "comment", "page-1", "{}", false, now))

	events, err := repo.ListByTargets(context.Background(), []string{"page-1", "urn:li:person:1"}, true, 20)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, model.WebhookComment, events[0].EventType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepository_MarkRead(t *testing.T) {
	gormDB, mock := newMockGorm(t)
	repo := NewWebhookEventRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `webhook_events` SET `read`=?")).
		WithArgs(true, "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.MarkRead(context.Background(), "a"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `webhook_events` SET `read`=?")).
		WithArgs(true, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	require.ErrorIs(t, repo.MarkRead(context.Background(), "missing"), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishAuditRepository_NilClient(t *testing.T) {
	repo := NewPublishAuditRepository(nil, "social_publisher")
	require.NoError(t, repo.Record(context.Background(), &model.PublishAudit{ContentID: 1}))

	history, err := repo.History(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestWebhookEventRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := newMockGorm(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `webhook_events` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewWebhookEventRepository(gormDB).GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
