package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const (
	selectUserByID = `SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.users AS u
	WHERE u.id = $1`
	selectUserByName = `SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.users AS u
	WHERE u.user_name = $1`
)

var userColumns = []string{"id", "name", "user_name", "password", "created_at", "updated_at"}

func TestUserRepository_GetById(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)
	createdAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectPrepare(regexp.QuoteMeta(selectUserByID)).
		ExpectQuery().WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "Dana Reyes", "dreyes", "5f4dcc3b5aa765d61d8327deb882cf99", createdAt, createdAt))

	res, err := repository.GetById(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, model.User{
		ID:        1,
		Name:      "Dana Reyes",
		UserName:  "dreyes",
		Password:  "5f4dcc3b5aa765d61d8327deb882cf99",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUserName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)
	createdAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectPrepare(regexp.QuoteMeta(selectUserByName)).
		ExpectQuery().WithArgs("dreyes").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "Dana Reyes", "dreyes", "hash", createdAt, createdAt))

	res, err := repository.GetByUserName(context.Background(), "dreyes")
	require.NoError(t, err)
	require.Equal(t, 7, res.ID)
	require.Equal(t, "dreyes", res.UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUserName_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)

	mock.ExpectPrepare(regexp.QuoteMeta(selectUserByName)).
		ExpectQuery().WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err = repository.GetByUserName(context.Background(), "ghost")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetById_PrepareError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)

	mock.ExpectPrepare(regexp.QuoteMeta(selectUserByID)).
		WillReturnError(fmt.Errorf("prepare error"))

	res, err := repository.GetById(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, model.User{}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryMSSQL_GetByUserName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepositoryMSSQL(db)
	createdAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM dbo.[users] WHERE user_name = @p1`)).
		WithArgs("dreyes").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(3, "Dana Reyes", "dreyes", "hash", createdAt, createdAt))

	res, err := repository.GetByUserName(context.Background(), "dreyes")
	require.NoError(t, err)
	require.Equal(t, 3, res.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
