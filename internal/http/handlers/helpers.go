package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/http/response"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/platform/ctxutil"
)

// requireActor returns the authenticated caller or writes 401.
func requireActor(c *gin.Context) (scdcore.Actor, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return scdcore.Actor{}, false
	}
	return scdcore.Actor{ID: rd.UserID, Email: rd.Email}, true
}

func pathUUID(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// expectedVersion reads the optimistic precondition from If-Match, falling
// back to a body field. Neither present means last write wins.
func expectedVersion(c *gin.Context, body *int) (*int, bool) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" || raw == "*" {
		return body, true
	}
	raw = strings.TrimPrefix(raw, "W/")
	v, err := strconv.Atoi(strings.Trim(raw, `"`))
	if err != nil || v < 0 {
		response.RespondAPIError(c, domainagg.NewError(domainagg.CodeValidation, "if_match", "If-Match must be a document version", err))
		return nil, false
	}
	return &v, true
}

func setETag(c *gin.Context, version int) {
	c.Header("ETag", `"`+strconv.Itoa(version)+`"`)
}
