package persistence

import (
	"context"
	"database/sql"
	"errors"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.IUser {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetById(ctx context.Context, id int) (model.User, error) {
	return r.getOne(ctx, `SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.users AS u
	WHERE u.id = $1`, id)
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	return r.getOne(ctx, `SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.users AS u
	WHERE u.user_name = $1`, userName)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var user model.User
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while preparing user query")
		return user, err
	}
	defer stmt.Close()

	err = stmt.QueryRowContext(ctx, arg).Scan(&user.ID, &user.Name, &user.UserName, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, errs.ErrNotFound
	}
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while scanning user")
		return model.User{}, err
	}
	return user, nil
}
