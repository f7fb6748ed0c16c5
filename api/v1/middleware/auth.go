package middleware

import (
	"errors"
	"strings"

	"go_hostcfg/internal/auth"
	"go_hostcfg/internal/httpx"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by AuthRequired
const (
	CtxIdentifier = "identifier"
	CtxUsername   = "username"
)

// AuthRequired is a middleware that validates JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.Abort(c, httpx.ErrUnauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.Abort(c, httpx.ErrUnauthorized("invalid authorization header format"))
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				httpx.Abort(c, httpx.ErrTokenExpired("token expired"))
			} else {
				httpx.Abort(c, httpx.ErrInvalidToken("invalid token"))
			}
			return
		}

		c.Set(CtxIdentifier, claims.Identifier)
		c.Set(CtxUsername, claims.Username)

		c.Next()
	}
}
