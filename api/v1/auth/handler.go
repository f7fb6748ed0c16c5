package auth

import (
	"context"
	"time"

	"go_hostcfg/internal/auth"
	"go_hostcfg/internal/config"
	"go_hostcfg/internal/httpx"
	"go_hostcfg/internal/model"

	"github.com/gin-gonic/gin"
)

// UserFinder looks up a stored user by username; (nil, nil) means not found
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	Token    string   `json:"token"`
	ExpireAt string   `json:"expireAt"`
	User     UserInfo `json:"user"`
}

// UserInfo represents user information in response
type UserInfo struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
}

// LoginHandler handles administrator login
func LoginHandler(users UserFinder, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
			return
		}

		user, err := users.FindByUsername(c.Request.Context(), req.Username)
		if err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
			return
		}
		// Unknown user and wrong password return the same error
		if user == nil {
			httpx.FailErr(c, httpx.ErrInvalidToken("invalid credentials"))
			return
		}

		// Users without a password cannot log in
		if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
			httpx.FailErr(c, httpx.ErrInvalidToken("invalid credentials"))
			return
		}

		expireAt := time.Now().Add(time.Duration(cfg.JWT.ExpireMinutes) * time.Minute)
		token, err := auth.GenerateToken(user.Identifier, user.Username, expireAt, cfg.JWT.Issuer)
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
			return
		}

		httpx.OK(c, LoginResponse{
			Token:    token,
			ExpireAt: expireAt.Format(time.RFC3339),
			User: UserInfo{
				Identifier: user.Identifier,
				Username:   user.Username,
			},
		})
	}
}
