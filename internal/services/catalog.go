package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	rediscache "github.com/yungbote/scd-backend/internal/clients/redis"
	dataagg "github.com/yungbote/scd-backend/internal/data/aggregates"
	"github.com/yungbote/scd-backend/internal/data/repos"
	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/domain/audit"
	"github.com/yungbote/scd-backend/internal/domain/catalog"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/observability"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

// CatalogReader is the read side the composer depends on.
type CatalogReader interface {
	ReadCatalog(ctx context.Context) ([]*catalog.Requirement, error)
}

type RequirementInput struct {
	Category    string  `json:"category"`
	Requirement string  `json:"requirement"`
	Product     string  `json:"product"`
	DocLink     *string `json:"doc_link,omitempty"`
	TenantLink  *string `json:"tenant_link,omitempty"`
}

// RequirementPatch updates only the non-nil fields.
type RequirementPatch struct {
	Category    *string `json:"category,omitempty"`
	Requirement *string `json:"requirement,omitempty"`
	Product     *string `json:"product,omitempty"`
	DocLink     *string `json:"doc_link,omitempty"`
	TenantLink  *string `json:"tenant_link,omitempty"`
}

type CatalogService interface {
	CatalogReader
	Facets(ctx context.Context) (catalog.Facets, error)
	Create(ctx context.Context, actor scdcore.Actor, in RequirementInput) (*catalog.Requirement, error)
	Update(ctx context.Context, actor scdcore.Actor, id uuid.UUID, patch RequirementPatch) (*catalog.Requirement, error)
	Delete(ctx context.Context, actor scdcore.Actor, id uuid.UUID) error
	MassDelete(ctx context.Context, actor scdcore.Actor, ids []uuid.UUID) (int64, error)
	MassEdit(ctx context.Context, actor scdcore.Actor, in domainagg.MassUpdateInput) (int64, error)
	ImportCSV(ctx context.Context, actor scdcore.Actor, r io.Reader) (domainagg.ImportResult, error)
}

type catalogService struct {
	log     *logger.Logger
	reqs    repos.RequirementRepo
	agg     domainagg.CatalogAggregate
	cache   rediscache.CatalogCache
	audit   AuditSink
	metrics *observability.Metrics
}

// NewCatalogService wires the catalog. cache may be nil.
func NewCatalogService(
	log *logger.Logger,
	reqs repos.RequirementRepo,
	agg domainagg.CatalogAggregate,
	cache rediscache.CatalogCache,
	audit AuditSink,
	metrics *observability.Metrics,
) CatalogService {
	return &catalogService{
		log:     log.With("service", "CatalogService"),
		reqs:    reqs,
		agg:     agg,
		cache:   cache,
		audit:   audit,
		metrics: metrics,
	}
}

func (s *catalogService) ReadCatalog(ctx context.Context) ([]*catalog.Requirement, error) {
	ctx, span := observability.Tracer().Start(ctx, "CatalogService.ReadCatalog")
	defer span.End()

	if s.cache != nil {
		reqs, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("catalog cache read failed", "error", err)
		}
		s.metrics.IncCacheLookup("catalog", ok)
		span.SetAttributes(attribute.Bool("cache.hit", ok))
		if ok {
			return reqs, nil
		}
	}
	reqs, err := s.reqs.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, dataagg.MapError("catalog.read", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, reqs); err != nil {
			s.log.Warn("catalog cache write failed", "error", err)
		}
	}
	return reqs, nil
}

func (s *catalogService) Facets(ctx context.Context) (catalog.Facets, error) {
	reqs, err := s.ReadCatalog(ctx)
	if err != nil {
		return catalog.Facets{}, err
	}
	return catalog.FacetsOf(reqs), nil
}

func (s *catalogService) Create(ctx context.Context, actor scdcore.Actor, in RequirementInput) (*catalog.Requirement, error) {
	const op = "catalog.create"
	req := &catalog.Requirement{
		ID:          uuid.New(),
		Category:    in.Category,
		Requirement: in.Requirement,
		Product:     strings.TrimSpace(in.Product),
		DocLink:     trimmedOrNil(in.DocLink),
		TenantLink:  trimmedOrNil(in.TenantLink),
		CreatedBy:   actor.Email,
		UpdatedBy:   actor.Email,
	}
	res, err := s.agg.Import(ctx, []*catalog.Requirement{req})
	if err != nil {
		return nil, err
	}
	if res.Created == 0 {
		return nil, domainagg.Errorf(domainagg.CodeConflict, op, "requirement already exists in category %q", req.Category)
	}
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, audit.ActionCatalogCreate, req.ID.String(), map[string]any{"category": req.Category})
	return req, nil
}

func (s *catalogService) Update(ctx context.Context, actor scdcore.Actor, id uuid.UUID, patch RequirementPatch) (*catalog.Requirement, error) {
	const op = "catalog.update"
	updates := map[string]any{}
	if patch.Category != nil {
		if strings.TrimSpace(*patch.Category) == "" {
			return nil, domainagg.Errorf(domainagg.CodeValidation, op, "category cannot be blank")
		}
		updates["category"] = strings.TrimSpace(*patch.Category)
	}
	if patch.Requirement != nil {
		if strings.TrimSpace(*patch.Requirement) == "" {
			return nil, domainagg.Errorf(domainagg.CodeValidation, op, "requirement cannot be blank")
		}
		updates["requirement"] = strings.TrimSpace(*patch.Requirement)
	}
	if patch.Product != nil {
		updates["product"] = strings.TrimSpace(*patch.Product)
	}
	if patch.DocLink != nil {
		updates["doc_link"] = trimmedOrNil(patch.DocLink)
	}
	if patch.TenantLink != nil {
		updates["tenant_link"] = trimmedOrNil(patch.TenantLink)
	}
	if len(updates) == 0 {
		return nil, domainagg.Errorf(domainagg.CodeValidation, op, "nothing to update")
	}
	updates["updated_by"] = actor.Email

	dbc := dbctx.Context{Ctx: ctx}
	n, err := s.reqs.UpdateFields(dbc, []uuid.UUID{id}, updates)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if n == 0 {
		return nil, domainagg.Errorf(domainagg.CodeNotFound, op, "requirement not found: %s", id)
	}
	s.invalidate(ctx)
	s.audit.Record(ctx, actor, audit.ActionCatalogUpdate, id.String(), nil)
	req, err := s.reqs.GetByID(dbc, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return req, nil
}

func (s *catalogService) Delete(ctx context.Context, actor scdcore.Actor, id uuid.UUID) error {
	n, err := s.MassDelete(ctx, actor, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return domainagg.Errorf(domainagg.CodeNotFound, "catalog.delete", "requirement not found: %s", id)
	}
	return nil
}

// MassDelete removes catalog rows. Documents keep their snapshots.
func (s *catalogService) MassDelete(ctx context.Context, actor scdcore.Actor, ids []uuid.UUID) (int64, error) {
	n, err := s.agg.MassDelete(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx)
		s.audit.Record(ctx, actor, audit.ActionCatalogDelete, "catalog", map[string]any{"ids": ids, "deleted": n})
	}
	return n, nil
}

func (s *catalogService) MassEdit(ctx context.Context, actor scdcore.Actor, in domainagg.MassUpdateInput) (int64, error) {
	in.UpdatedBy = actor.Email
	n, err := s.agg.MassUpdate(ctx, in)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx)
		s.audit.Record(ctx, actor, audit.ActionCatalogUpdate, "catalog", map[string]any{"ids": in.IDs, "updated": n})
	}
	return n, nil
}

// ImportCSV reads a header row naming at least category and requirement
// (product, doc_link and tenant_link are optional, in any order) and
// imports every row.
func (s *catalogService) ImportCSV(ctx context.Context, actor scdcore.Actor, r io.Reader) (domainagg.ImportResult, error) {
	const op = "catalog.import"
	reqs, err := ParseCatalogCSV(r)
	if err != nil {
		return domainagg.ImportResult{}, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	for _, req := range reqs {
		req.CreatedBy = actor.Email
		req.UpdatedBy = actor.Email
	}
	res, err := s.agg.Import(ctx, reqs)
	if err != nil {
		return res, err
	}
	if res.Created > 0 {
		s.invalidate(ctx)
	}
	s.audit.Record(ctx, actor, audit.ActionCatalogImport, "catalog", map[string]any{
		"created":    res.Created,
		"duplicates": res.Duplicates,
	})
	s.log.Info("catalog import finished", "created", res.Created, "duplicates", res.Duplicates)
	return res, nil
}

func (s *catalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("catalog cache invalidation failed", "error", err)
	}
}

var errMissingColumns = errors.New("csv header must include category and requirement")

// CatalogCSVColumns is the import header in template order. Only category and
// requirement are required.
var CatalogCSVColumns = []string{"category", "requirement", "product", "doc_link", "tenant_link"}

// WriteCatalogTemplate writes an empty import file: the header row only.
func WriteCatalogTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CatalogCSVColumns); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ParseCatalogCSV turns a catalog export into requirements. Blank lines are
// skipped; rows missing category or requirement are rejected.
func ParseCatalogCSV(r io.Reader) ([]*catalog.Requirement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		name = strings.ReplaceAll(name, " ", "_")
		col[name] = i
	}
	if _, ok := col["category"]; !ok {
		return nil, errMissingColumns
	}
	if _, ok := col["requirement"]; !ok {
		return nil, errMissingColumns
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []*catalog.Requirement
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlankRecord(rec) {
			continue
		}
		req := &catalog.Requirement{
			ID:          uuid.New(),
			Category:    field(rec, "category"),
			Requirement: field(rec, "requirement"),
			Product:     field(rec, "product"),
		}
		if req.Category == "" || req.Requirement == "" {
			return nil, fmt.Errorf("line %d: category and requirement are required", line)
		}
		if v := field(rec, "doc_link"); v != "" {
			req.DocLink = &v
		}
		if v := field(rec, "tenant_link"); v != "" {
			req.TenantLink = &v
		}
		out = append(out, req)
	}
	return out, nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
