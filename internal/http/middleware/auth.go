package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/http/response"
	"github.com/yungbote/scd-backend/internal/platform/ctxutil"
	"github.com/yungbote/scd-backend/internal/platform/logger"
	"github.com/yungbote/scd-backend/internal/services"
)

type AuthMiddleware struct {
	log    *logger.Logger
	tokens services.TokenService
}

func NewAuthMiddleware(log *logger.Logger, tokens services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), tokens: tokens}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.AbortAPIError(c, domainagg.NewError(domainagg.CodeUnauthorized, "auth", "missing or invalid token", nil))
			return
		}
		rd, err := am.tokens.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			response.AbortAPIError(c, err)
			return
		}
		if rd == nil || rd.UserID == uuid.Nil {
			response.AbortAPIError(c, domainagg.NewError(domainagg.CodeForbidden, "auth", "forbidden", nil))
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
