package usecase

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"fmt"
	"strconv"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/utils"
)

// TokenTTL is the lifetime of a login token.
const TokenTTL = 24 * time.Hour

type IUserUsecase interface {
	Login(ctx context.Context, req dto.ReqLogin) dto.Res
}

type userUsecase struct {
	users     repository.IUser
	secretKey string
	now       func() time.Time
}

func NewUserUsecase(users repository.IUser, secretKey string, opts ...Option) IUserUsecase {
	o := buildOptions(opts)
	return &userUsecase{users: users, secretKey: secretKey, now: o.now}
}

func (u *userUsecase) Login(ctx context.Context, req dto.ReqLogin) dto.Res {
	res := dto.Res{ResponseCode: "401", ResponseMessage: "Invalid username or password"}
	user, err := u.users.GetByUserName(ctx, req.UserName)
	if err != nil {
		logger.GetLogger().WithField("user_name", req.UserName).WithField("error", err).Warn("Login lookup failed")
		return res
	}
	hashed := fmt.Sprintf("%x", md5.Sum([]byte(req.Password)))
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(user.Password)) != 1 {
		return res
	}

	expiresAt := u.now().Add(TokenTTL)
	token, err := utils.GenerateToken(map[string]interface{}{
		"user_name": user.UserName,
		"iss":       strconv.Itoa(user.ID),
		"exp":       expiresAt.Unix(),
	}, u.secretKey)
	if err != nil {
		return dto.Res{ResponseCode: "500", ResponseMessage: "Could not issue token"}
	}
	return dto.Res{
		ResponseCode:    "200",
		ResponseMessage: "Success",
		Data:            dto.ResLogin{Token: token, ExpiresIn: int64(TokenTTL.Seconds())},
	}
}
