package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestOAuthStateRepository_CreateAndInvalidate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOAuthStateRepository(db)
	verifier := "verifier"

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM oauth_states WHERE user_id=$1 AND platform=$2 AND used=false`)).
		WithArgs("42", "twitter").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO oauth_states`)).
		WithArgs("st-1", "42", "twitter", &verifier, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	require.NoError(t, repo.InvalidateUnused(context.Background(), "42", model.PlatformTwitter))
	s := &model.OAuthState{State: "st-1", UserID: "42", Platform: model.PlatformTwitter, CodeVerifier: &verifier}
	require.NoError(t, repo.Create(context.Background(), s))
	require.Equal(t, int64(11), s.ID)
	require.False(t, s.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthStateRepository_ConsumeOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOAuthStateRepository(db)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	consume := regexp.QuoteMeta(`DELETE FROM oauth_states WHERE state=$1 AND used=false RETURNING`)

	mock.ExpectQuery(consume).WithArgs("st-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "state", "user_id", "platform", "code_verifier", "created_at"}).
			AddRow(11, "st-1", "42", "twitter", "verifier", created))
	mock.ExpectQuery(consume).WithArgs("st-1").WillReturnError(sql.ErrNoRows)

	s, err := repo.Consume(context.Background(), "st-1")
	require.NoError(t, err)
	require.Equal(t, "42", s.UserID)
	require.Equal(t, model.PlatformTwitter, s.Platform)
	require.NotNil(t, s.CodeVerifier)
	require.Equal(t, "verifier", *s.CodeVerifier)
	require.True(t, s.Used)

	_, err = repo.Consume(context.Background(), "st-1")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthStateRepository_PurgeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOAuthStateRepository(db).(*OAuthStateRepository)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM oauth_states WHERE created_at < $1`)).
		WithArgs(now.Add(-10 * time.Minute)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
