package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/scd-backend/internal/data/repos"
	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	types "github.com/yungbote/scd-backend/internal/domain/scd"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

var documentsTable = domainagg.SCDAggregateContract.RootTable

type SCDAggregateDeps struct {
	Base BaseDeps

	Documents repos.DocumentRepo
}

type scdAggregate struct {
	deps SCDAggregateDeps
}

func NewSCDAggregate(deps SCDAggregateDeps) domainagg.SCDAggregate {
	deps.Base = deps.Base.withDefaults()
	return &scdAggregate{deps: deps}
}

func (a *scdAggregate) Contract() domainagg.Contract {
	return domainagg.SCDAggregateContract
}

func (a *scdAggregate) CreateDocument(ctx context.Context, doc *types.Document) error {
	op := a.Contract().Op("Create")
	if doc == nil || doc.ID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing document id", nil)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing document name", nil)
	}
	if err := scdcore.CheckOrder(doc); err != nil {
		return err
	}
	if a.deps.Documents == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "document repo not configured", nil)
	}
	if doc.Version <= 0 {
		doc.Version = 1
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		return a.deps.Documents.Create(dbc, doc)
	})
}

func (a *scdAggregate) ReplaceItems(ctx context.Context, in domainagg.ReplaceItemsInput) (domainagg.ReplaceItemsResult, error) {
	op := a.Contract().Op("ReplaceItems")
	var out domainagg.ReplaceItemsResult
	if in.DocumentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing document id", nil)
	}
	if err := scdcore.CheckOrder(&types.Document{Items: in.Items}); err != nil {
		return out, err
	}
	if a.deps.Documents == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "document repo not configured", nil)
	}
	updatedAt := in.UpdatedAt.UTC()
	if in.UpdatedAt.IsZero() {
		updatedAt = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		cur, err := a.deps.Documents.LockByID(dbc, in.DocumentID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("document not found: %s", in.DocumentID), nil)
		}
		if in.ExpectedVersion != nil {
			if err := RequireVersionMatch(cur.Version, *in.ExpectedVersion); err != nil {
				return err
			}
		}
		if err := bumpVersion(dbc, documentsTable, cur.ID, cur.Version, updatedAt); err != nil {
			return err
		}
		if err := a.deps.Documents.ReplaceItems(dbc, cur.ID, in.Items); err != nil {
			return err
		}
		out = domainagg.ReplaceItemsResult{
			DocumentID: cur.ID,
			Version:    cur.Version + 1,
			ItemCount:  len(in.Items),
			UpdatedAt:  updatedAt,
		}
		return nil
	})
	return out, err
}

func (a *scdAggregate) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	op := a.Contract().Op("Delete")
	if id == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing document id", nil)
	}
	if a.deps.Documents == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "document repo not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.Documents.DeleteByID(dbc, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("document not found: %s", id), nil)
		}
		return nil
	})
}
