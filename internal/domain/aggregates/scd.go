package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/domain/scd"
)

var SCDAggregateContract = Contract{
	Name:        "SCD.Document",
	RootTable:   "success_criteria_documents",
	Concurrency: ConcurrencyVersioned,
	Notes:       "Owns document rows and their line item array. Items are always replaced as a whole.",
}

// SCDAggregate persists document state computed by the composer.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type SCDAggregate interface {
	Aggregate

	// CreateDocument inserts a document and its items (create and clone).
	CreateDocument(ctx context.Context, doc *scd.Document) error

	// ReplaceItems swaps the whole item array of a document and bumps its version.
	ReplaceItems(ctx context.Context, in ReplaceItemsInput) (ReplaceItemsResult, error)

	// DeleteDocument removes a document and its items.
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type ReplaceItemsInput struct {
	DocumentID uuid.UUID
	// ExpectedVersion enables the optimistic precondition. Nil means last write wins.
	ExpectedVersion *int
	Items           []scd.LineItem
	UpdatedAt       time.Time
}

type ReplaceItemsResult struct {
	DocumentID uuid.UUID
	Version    int
	ItemCount  int
	UpdatedAt  time.Time
}

var CatalogAggregateContract = Contract{
	Name:        "Catalog.Requirement",
	RootTable:   "requirements",
	Concurrency: ConcurrencyAtomicBatch,
	Notes:       "Owns bulk catalog writes so imports and mass edits apply all-or-nothing.",
}

// CatalogAggregate applies multi-row catalog changes atomically.
type CatalogAggregate interface {
	Aggregate

	Import(ctx context.Context, reqs []*catalog.Requirement) (ImportResult, error)
	MassUpdate(ctx context.Context, in MassUpdateInput) (int64, error)
	MassDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type ImportResult struct {
	Created int
	// Duplicates are rows whose (category, requirement) already existed.
	Duplicates int
}

// MassUpdateInput sets the non-nil fields on every listed requirement.
type MassUpdateInput struct {
	IDs        []uuid.UUID
	Category   *string
	Product    *string
	DocLink    *string
	TenantLink *string
	UpdatedBy  string
}
