package services

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dataagg "github.com/yungbote/scd-backend/internal/data/aggregates"
	"github.com/yungbote/scd-backend/internal/data/repos"
	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/domain/audit"
	"github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/domain/scd"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/observability"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type CreateSpec struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	SharedWith  []string `json:"shared_with,omitempty"`
}

// SCDStore is the persistence contract the composer works against.
type SCDStore interface {
	ReadCatalog(ctx context.Context) ([]*catalog.Requirement, error)
	ReadDocument(ctx context.Context, actor scdcore.Actor, id uuid.UUID) (*scd.Document, error)
	ListDocuments(ctx context.Context, actor scdcore.Actor) ([]*scd.Summary, error)
	CreateDocument(ctx context.Context, actor scdcore.Actor, spec CreateSpec) (*scd.Document, error)
	// ReplaceDocumentItems swaps the whole item list. A nil expectedVersion
	// means last write wins.
	ReplaceDocumentItems(ctx context.Context, actor scdcore.Actor, id uuid.UUID, specs []scdcore.ItemSpec, expectedVersion *int) (*scd.Document, error)
	CloneDocument(ctx context.Context, actor scdcore.Actor, id uuid.UUID) (*scd.Document, error)
	DeleteDocument(ctx context.Context, actor scdcore.Actor, id uuid.UUID) error
}

// SCDService adds the single-intent composer operations on top of the store.
type SCDService interface {
	SCDStore
	AddRequirements(ctx context.Context, actor scdcore.Actor, id uuid.UUID, reqIDs []uuid.UUID, expectedVersion *int) (*scd.Document, scdcore.AddResult, error)
	RemoveLineItem(ctx context.Context, actor scdcore.Actor, id, itemID uuid.UUID, expectedVersion *int) (*scd.Document, error)
	Reorder(ctx context.Context, actor scdcore.Actor, id uuid.UUID, order []uuid.UUID, expectedVersion *int) (*scd.Document, error)
	UpdateLineItemText(ctx context.Context, actor scdcore.Actor, id, itemID uuid.UUID, text *string, expectedVersion *int) (*scd.Document, error)
	AvailableCandidates(ctx context.Context, actor scdcore.Actor, id uuid.UUID, c scdcore.Criteria) ([]*catalog.Requirement, error)
	Facets(ctx context.Context, actor scdcore.Actor, id uuid.UUID) (catalog.Facets, error)
	// CandidatesWithFacets filters candidates and computes the facets of
	// everything still addable from one read of the document and catalog.
	CandidatesWithFacets(ctx context.Context, actor scdcore.Actor, id uuid.UUID, c scdcore.Criteria) ([]*catalog.Requirement, catalog.Facets, error)
	// History lists the newest audit events for a document the actor can read.
	History(ctx context.Context, actor scdcore.Actor, id uuid.UUID, limit int) ([]*audit.Event, error)
}

type scdService struct {
	log      *logger.Logger
	docs     repos.DocumentRepo
	agg      domainagg.SCDAggregate
	catalog  CatalogReader
	composer *scdcore.Composer
	cloner   *scdcore.Cloner
	audit    AuditSink
	metrics  *observability.Metrics
}

func NewSCDService(
	log *logger.Logger,
	docs repos.DocumentRepo,
	agg domainagg.SCDAggregate,
	catalogReader CatalogReader,
	clock scdcore.Clock,
	newID scdcore.IDGen,
	audit AuditSink,
	metrics *observability.Metrics,
) SCDService {
	return &scdService{
		log:      log.With("service", "SCDService"),
		docs:     docs,
		agg:      agg,
		catalog:  catalogReader,
		composer: scdcore.NewComposer(clock, newID),
		cloner:   scdcore.NewCloner(clock, newID),
		audit:    audit,
		metrics:  metrics,
	}
}

func (s *scdService) ReadCatalog(ctx context.Context) ([]*catalog.Requirement, error) {
	return s.catalog.ReadCatalog(ctx)
}

func (s *scdService) ReadDocument(ctx context.Context, actor scdcore.Actor, id uuid.UUID) (*scd.Document, error) {
	ctx, span := s.start(ctx, "SCDService.ReadDocument", id)
	defer span.End()
	doc, err := s.load(ctx, id)
	if err == nil {
		err = scdcore.Authorize(doc, actor, scdcore.ActionRead)
	}
	if err != nil {
		return nil, fail(span, err)
	}
	return doc, nil
}

func (s *scdService) ListDocuments(ctx context.Context, actor scdcore.Actor) ([]*scd.Summary, error) {
	out, err := s.docs.ListVisible(dbctx.Context{Ctx: ctx}, actor.ID, actor.Email)
	if err != nil {
		return nil, dataagg.MapError("scd.list", err)
	}
	return out, nil
}

func (s *scdService) CreateDocument(ctx context.Context, actor scdcore.Actor, spec CreateSpec) (*scd.Document, error) {
	doc, err := s.composer.CreateDocument(actor, spec.Name, spec.Description, spec.SharedWith)
	if err != nil {
		return nil, err
	}
	if err := s.agg.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, audit.ActionDocumentCreate, doc.ID.String(), map[string]any{"name": doc.Name})
	return doc, nil
}

func (s *scdService) ReplaceDocumentItems(ctx context.Context, actor scdcore.Actor, id uuid.UUID, specs []scdcore.ItemSpec, expectedVersion *int) (*scd.Document, error) {
	return s.mutate(ctx, actor, id, expectedVersion, "SCDService.ReplaceDocumentItems", true,
		func(doc *scd.Document, lookup catalog.Lookup) (*scd.Document, bool, error) {
			next, err := s.composer.ReplaceAll(doc, specs, lookup)
			return next, true, err
		})
}

func (s *scdService) AddRequirements(ctx context.Context, actor scdcore.Actor, id uuid.UUID, reqIDs []uuid.UUID, expectedVersion *int) (*scd.Document, scdcore.AddResult, error) {
	var res scdcore.AddResult
	doc, err := s.mutate(ctx, actor, id, expectedVersion, "SCDService.AddRequirements", true,
		func(doc *scd.Document, lookup catalog.Lookup) (*scd.Document, bool, error) {
			next, r, err := s.composer.AddRequirements(doc, reqIDs, lookup)
			res = r
			return next, r.Added > 0, err
		})
	if err != nil {
		return nil, scdcore.AddResult{}, err
	}
	s.metrics.AddComposerOutcome(res.Added, len(res.Skipped))
	return doc, res, nil
}

func (s *scdService) RemoveLineItem(ctx context.Context, actor scdcore.Actor, id, itemID uuid.UUID, expectedVersion *int) (*scd.Document, error) {
	return s.mutate(ctx, actor, id, expectedVersion, "SCDService.RemoveLineItem", false,
		func(doc *scd.Document, _ catalog.Lookup) (*scd.Document, bool, error) {
			next, err := s.composer.RemoveLineItem(doc, itemID)
			return next, true, err
		})
}

func (s *scdService) Reorder(ctx context.Context, actor scdcore.Actor, id uuid.UUID, order []uuid.UUID, expectedVersion *int) (*scd.Document, error) {
	return s.mutate(ctx, actor, id, expectedVersion, "SCDService.Reorder", false,
		func(doc *scd.Document, _ catalog.Lookup) (*scd.Document, bool, error) {
			next, err := s.composer.Reorder(doc, order)
			return next, true, err
		})
}

func (s *scdService) UpdateLineItemText(ctx context.Context, actor scdcore.Actor, id, itemID uuid.UUID, text *string, expectedVersion *int) (*scd.Document, error) {
	return s.mutate(ctx, actor, id, expectedVersion, "SCDService.UpdateLineItemText", false,
		func(doc *scd.Document, _ catalog.Lookup) (*scd.Document, bool, error) {
			next, err := s.composer.UpdateLineItemText(doc, itemID, text)
			return next, true, err
		})
}

func (s *scdService) CloneDocument(ctx context.Context, actor scdcore.Actor, id uuid.UUID) (*scd.Document, error) {
	ctx, span := s.start(ctx, "SCDService.CloneDocument", id)
	defer span.End()
	src, err := s.load(ctx, id)
	if err == nil {
		err = scdcore.Authorize(src, actor, scdcore.ActionRead)
	}
	if err != nil {
		return nil, fail(span, err)
	}
	doc, err := s.cloner.Clone(src, actor)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.agg.CreateDocument(ctx, doc); err != nil {
		return nil, fail(span, err)
	}
	s.audit.Record(ctx, actor, audit.ActionDocumentClone, doc.ID.String(), map[string]any{"source": src.ID.String()})
	return doc, nil
}

func (s *scdService) DeleteDocument(ctx context.Context, actor scdcore.Actor, id uuid.UUID) error {
	ctx, span := s.start(ctx, "SCDService.DeleteDocument", id)
	defer span.End()
	doc, err := s.load(ctx, id)
	if err == nil {
		err = scdcore.Authorize(doc, actor, scdcore.ActionDelete)
	}
	if err == nil {
		err = s.agg.DeleteDocument(ctx, id)
	}
	if err != nil {
		return fail(span, err)
	}
	s.audit.Record(ctx, actor, audit.ActionDocumentDelete, id.String(), nil)
	return nil
}

func (s *scdService) AvailableCandidates(ctx context.Context, actor scdcore.Actor, id uuid.UUID, c scdcore.Criteria) ([]*catalog.Requirement, error) {
	doc, reqs, err := s.readable(ctx, actor, id, c)
	if err != nil {
		return nil, err
	}
	return scdcore.AvailableCandidates(reqs, doc, c)
}

// Facets lists the categories and products still addable to the document.
func (s *scdService) Facets(ctx context.Context, actor scdcore.Actor, id uuid.UUID) (catalog.Facets, error) {
	_, facets, err := s.CandidatesWithFacets(ctx, actor, id, scdcore.Criteria{})
	return facets, err
}

func (s *scdService) CandidatesWithFacets(ctx context.Context, actor scdcore.Actor, id uuid.UUID, c scdcore.Criteria) ([]*catalog.Requirement, catalog.Facets, error) {
	doc, reqs, err := s.readable(ctx, actor, id, c)
	if err != nil {
		return nil, catalog.Facets{}, err
	}
	avail, err := scdcore.AvailableCandidates(reqs, doc, scdcore.Criteria{})
	if err != nil {
		return nil, catalog.Facets{}, err
	}
	filtered, err := scdcore.AvailableCandidates(avail, doc, c)
	if err != nil {
		return nil, catalog.Facets{}, err
	}
	return filtered, catalog.FacetsOf(avail), nil
}

// readable validates c, then loads the document and catalog once and checks
// read access.
func (s *scdService) readable(ctx context.Context, actor scdcore.Actor, id uuid.UUID, c scdcore.Criteria) (*scd.Document, []*catalog.Requirement, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	doc, reqs, err := s.loadWithCatalog(ctx, id, true)
	if err == nil {
		err = scdcore.Authorize(doc, actor, scdcore.ActionRead)
	}
	if err != nil {
		return nil, nil, err
	}
	return doc, reqs, nil
}

func (s *scdService) History(ctx context.Context, actor scdcore.Actor, id uuid.UUID, limit int) ([]*audit.Event, error) {
	ctx, span := s.start(ctx, "SCDService.History", id)
	defer span.End()

	doc, err := s.load(ctx, id)
	if err == nil {
		err = scdcore.Authorize(doc, actor, scdcore.ActionRead)
	}
	if err != nil {
		return nil, fail(span, err)
	}
	events, err := s.audit.Recent(ctx, id.String(), limit)
	if err != nil {
		return nil, fail(span, err)
	}
	return events, nil
}

type composeFunc func(doc *scd.Document, lookup catalog.Lookup) (next *scd.Document, changed bool, err error)

// mutate is read, compute, persist: load (with the catalog when needed),
// authorize an edit, run the composer, then replace the stored item list.
func (s *scdService) mutate(ctx context.Context, actor scdcore.Actor, id uuid.UUID, expectedVersion *int, name string, needCatalog bool, fn composeFunc) (*scd.Document, error) {
	ctx, span := s.start(ctx, name, id)
	defer span.End()

	doc, reqs, err := s.loadWithCatalog(ctx, id, needCatalog)
	if err == nil {
		err = scdcore.Authorize(doc, actor, scdcore.ActionEdit)
	}
	if err == nil && expectedVersion != nil {
		err = dataagg.MapError(name, dataagg.RequireVersionMatch(doc.Version, *expectedVersion))
	}
	if err != nil {
		return nil, fail(span, err)
	}
	next, changed, err := fn(doc, catalog.NewIndex(reqs))
	if err != nil {
		return nil, fail(span, err)
	}
	if !changed {
		return next, nil
	}
	res, err := s.agg.ReplaceItems(ctx, domainagg.ReplaceItemsInput{
		DocumentID:      id,
		ExpectedVersion: expectedVersion,
		Items:           next.Items,
		UpdatedAt:       next.UpdatedAt,
	})
	if err != nil {
		return nil, fail(span, err)
	}
	next.Version = res.Version
	next.UpdatedAt = res.UpdatedAt
	span.SetAttributes(attribute.Int("scd.version", res.Version), attribute.Int("scd.items", res.ItemCount))
	s.audit.Record(ctx, actor, audit.ActionDocumentItems, id.String(), map[string]any{
		"version": res.Version,
		"items":   res.ItemCount,
	})
	return next, nil
}

// loadWithCatalog reads the document and, when asked, the catalog in
// parallel.
func (s *scdService) loadWithCatalog(ctx context.Context, id uuid.UUID, withCatalog bool) (*scd.Document, []*catalog.Requirement, error) {
	if !withCatalog {
		doc, err := s.load(ctx, id)
		return doc, nil, err
	}
	var (
		doc  *scd.Document
		reqs []*catalog.Requirement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = s.load(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		reqs, err = s.catalog.ReadCatalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return doc, reqs, nil
}

func (s *scdService) load(ctx context.Context, id uuid.UUID) (*scd.Document, error) {
	const op = "scd.read"
	doc, err := s.docs.GetByID(dbctx.Context{Ctx: ctx}, id)
	if isRecordNotFound(err) {
		return nil, domainagg.Errorf(domainagg.CodeNotFound, op, "document not found: %s", id)
	}
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return doc, nil
}

func (s *scdService) start(ctx context.Context, name string, id uuid.UUID) (context.Context, trace.Span) {
	return observability.Tracer().Start(ctx, name, trace.WithAttributes(attribute.String("scd.id", id.String())))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(domainagg.CodeOf(err)))
	return err
}
