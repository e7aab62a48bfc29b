package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/http/response"
	"github.com/yungbote/scd-backend/internal/platform/logger"
	"github.com/yungbote/scd-backend/internal/services"
)

// maxImportBytes caps CSV uploads.
const maxImportBytes = 10 << 20

type CatalogHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewCatalogHandler(log *logger.Logger, catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{log: log.With("handler", "CatalogHandler"), catalog: catalog}
}

// GET /api/catalog
func (h *CatalogHandler) List(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	reqs, err := h.catalog.ReadCatalog(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requirements": reqs})
}

// GET /api/catalog/facets
func (h *CatalogHandler) Facets(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	facets, err := h.catalog.Facets(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, facets)
}

// POST /api/catalog
func (h *CatalogHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.RequirementInput
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.catalog.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"requirement": created})
}

// PATCH /api/catalog/:id
func (h *CatalogHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_requirement_id")
	if !ok {
		return
	}
	var req services.RequirementPatch
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.catalog.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requirement": updated})
}

// DELETE /api/catalog/:id
func (h *CatalogHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_requirement_id")
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), actor, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/catalog/mass-delete
// body: { "ids": ["..."] }
func (h *CatalogHandler) MassDelete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.catalog.MassDelete(c.Request.Context(), actor, req.IDs)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": n})
}

// POST /api/catalog/mass-edit
// body: { "ids": ["..."], "category"?, "product"?, "doc_link"?, "tenant_link"? }
func (h *CatalogHandler) MassEdit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		IDs        []uuid.UUID `json:"ids"`
		Category   *string     `json:"category"`
		Product    *string     `json:"product"`
		DocLink    *string     `json:"doc_link"`
		TenantLink *string     `json:"tenant_link"`
	}
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.catalog.MassEdit(c.Request.Context(), actor, domainagg.MassUpdateInput{
		IDs:        req.IDs,
		Category:   req.Category,
		Product:    req.Product,
		DocLink:    req.DocLink,
		TenantLink: req.TenantLink,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": n})
}

// GET /api/catalog/import/template
func (h *CatalogHandler) Template(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="sample-requirements.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := services.WriteCatalogTemplate(c.Writer); err != nil {
		h.log.Warn("catalog template write failed", "error", err)
	}
}

// POST /api/catalog/import
// body: text/csv, or multipart/form-data with a "file" part.
func (h *CatalogHandler) Import(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var body io.Reader = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "missing_file", err)
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
			return
		}
		defer f.Close()
		body = f
	}
	res, err := h.catalog.ImportCSV(c.Request.Context(), actor, body)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"created": res.Created, "duplicates": res.Duplicates})
}
