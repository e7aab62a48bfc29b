package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/scd-backend/internal/data/repos"
	"github.com/yungbote/scd-backend/internal/http/response"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

type MeHandler struct {
	users repos.UserRepo
}

func NewMeHandler(users repos.UserRepo) *MeHandler { return &MeHandler{users: users} }

// GET /api/me
func (h *MeHandler) GetMe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	me := gin.H{"id": actor.ID, "email": actor.Email}
	if h.users != nil {
		u, err := h.users.GetByID(dbctx.Context{Ctx: c.Request.Context()}, actor.ID)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		if u != nil {
			me["display_name"] = u.DisplayName
			me["created_at"] = u.CreatedAt
		}
	}
	response.RespondOK(c, gin.H{"me": me})
}
