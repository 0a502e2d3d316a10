package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	known map[string]model.User
}

func (s stubUsers) GetById(context.Context, int) (model.User, error) {
	return model.User{}, errs.ErrNotFound
}

func (s stubUsers) GetByUserName(_ context.Context, userName string) (model.User, error) {
	u, ok := s.known[userName]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	return u, nil
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := stubUsers{known: map[string]model.User{"ada": {ID: 7, UserName: "ada"}}}
	r := gin.New()
	r.GET("/me", Auth(users, "secret"), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})

	valid, err := utils.GenerateToken(map[string]interface{}{
		"user_name": "ada", "iss": "7", "exp": time.Now().Add(time.Hour).Unix(),
	}, "secret")
	require.NoError(t, err)
	expired, err := utils.GenerateToken(map[string]interface{}{
		"user_name": "ada", "iss": "7", "exp": time.Now().Add(-time.Hour).Unix(),
	}, "secret")
	require.NoError(t, err)
	unknown, err := utils.GenerateToken(map[string]interface{}{"user_name": "bob", "iss": "8"}, "secret")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", valid, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"unknown user", "Bearer " + unknown, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "7", w.Body.String())
			}
		})
	}
}
