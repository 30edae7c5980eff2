package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/response"
	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
)

type AuthMiddleware struct {
	log  *logger.Logger
	auth services.AuthService
}

func NewAuthMiddleware(auth services.AuthService, baseLog *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{log: baseLog.With("middleware", "Auth"), auth: auth}
}

// RequireAuth validates the bearer token and stamps the caller into the
// request context before any handler runs.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.RespondError(c, pkgerrors.ErrUnauthorized)
			return
		}
		ctx, err := m.auth.SetContextFromToken(c.Request.Context(), header)
		if err != nil {
			response.RespondError(c, pkgerrors.ErrUnauthorized)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
