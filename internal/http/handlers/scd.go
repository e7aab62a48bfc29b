package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/scd-backend/internal/domain/scd"
	"github.com/yungbote/scd-backend/internal/http/response"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/platform/logger"
	"github.com/yungbote/scd-backend/internal/services"
)

type SCDHandler struct {
	log *logger.Logger
	scd services.SCDService
}

func NewSCDHandler(log *logger.Logger, scd services.SCDService) *SCDHandler {
	return &SCDHandler{log: log.With("handler", "SCDHandler"), scd: scd}
}

func (h *SCDHandler) respondDocument(c *gin.Context, status int, doc *scd.Document, extra gin.H) {
	setETag(c, doc.Version)
	body := gin.H{"document": doc}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// GET /api/scds
func (h *SCDHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	docs, err := h.scd.ListDocuments(c.Request.Context(), actor)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// POST /api/scds
// body: { "name": "...", "description": "...", "shared_with": ["a@b.c"] }
func (h *SCDHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.CreateSpec
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.scd.CreateDocument(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.respondDocument(c, http.StatusCreated, doc, nil)
}

// GET /api/scds/:id
func (h *SCDHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	doc, err := h.scd.ReadDocument(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.respondDocument(c, http.StatusOK, doc, nil)
}

// PUT /api/scds/:id/items
// body: { "items": [{ "id" | "original_requirement_id" | "custom_text" }], "version": 3 }
func (h *SCDHandler) ReplaceItems(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	var req struct {
		Items   []scdcore.ItemSpec `json:"items"`
		Version *int               `json:"version"`
	}
	if !bindJSON(c, &req) {
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}
	doc, err := h.scd.ReplaceDocumentItems(c.Request.Context(), actor, id, req.Items, version)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.respondDocument(c, http.StatusOK, doc, nil)
}

// POST /api/scds/:id/requirements
// body: { "requirement_ids": ["..."], "version": 3 }
func (h *SCDHandler) AddRequirements(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	var req struct {
		RequirementIDs []uuid.UUID `json:"requirement_ids" binding:"required"`
		Version        *int        `json:"version"`
	}
	if !bindJSON(c, &req) {
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}
	doc, res, err := h.scd.AddRequirements(c.Request.Context(), actor, id, req.RequirementIDs, version)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.respondDocument(c, http.StatusOK, doc, gin.H{"added": res.Added, "skipped": res.Skipped})
}

// DELETE /api/scds/:id/items/:itemId
func (h *SCDHandler) RemoveItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId", "invalid_item_id")
	if !ok {
		return
	}
	version, ok := expectedVersion(c, nil)
	if !ok {
		return
	}
	doc, err := h.scd.RemoveLineItem(c.Request.Context(), actor, id, itemID, version)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.respondDocument(c, http.StatusOK, doc, nil)
}

// POST /api/scds/:id/reorder
// body: { "order": ["item-id", ...], "version": 3 }
func (h *SCDHandler) Reorder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	var req struct {
		Order   []uuid.UUID `json:"order"`
		Version *int        `json:"version"`
	}
	if !bindJSON(c, &req) {
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}
	doc, err := h.scd.Reorder(c.Request.Context(), actor, id, req.Order, version)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.respondDocument(c, http.StatusOK, doc, nil)
}

// PATCH /api/scds/:id/items/:itemId
// body: { "custom_text": "..." | null, "version": 3 }
func (h *SCDHandler) UpdateItemText(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId", "invalid_item_id")
	if !ok {
		return
	}
	var req struct {
		CustomText *string `json:"custom_text"`
		Version    *int    `json:"version"`
	}
	if !bindJSON(c, &req) {
		return
	}
	version, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}
	doc, err := h.scd.UpdateLineItemText(c.Request.Context(), actor, id, itemID, req.CustomText, version)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.respondDocument(c, http.StatusOK, doc, nil)
}

// POST /api/scds/:id/clone
func (h *SCDHandler) Clone(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	doc, err := h.scd.CloneDocument(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.respondDocument(c, http.StatusCreated, doc, nil)
}

// DELETE /api/scds/:id
func (h *SCDHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	if err := h.scd.DeleteDocument(c.Request.Context(), actor, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/scds/:id/candidates?category=...&product=...&q=...
func (h *SCDHandler) Candidates(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	var criteria scdcore.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	candidates, facets, err := h.scd.CandidatesWithFacets(c.Request.Context(), actor, id, criteria)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"candidates": candidates, "facets": facets})
}

// GET /api/scds/:id/audit?limit=50
func (h *SCDHandler) History(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_scd_id")
	if !ok {
		return
	}
	var q struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	events, err := h.scd.History(c.Request.Context(), actor, id, q.Limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}
