package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/scd-backend/internal/data/repos"
	repocatalog "github.com/yungbote/scd-backend/internal/data/repos/catalog"
	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

type CatalogAggregateDeps struct {
	Base BaseDeps

	Requirements repos.RequirementRepo
}

type catalogAggregate struct {
	deps CatalogAggregateDeps
}

func NewCatalogAggregate(deps CatalogAggregateDeps) domainagg.CatalogAggregate {
	deps.Base = deps.Base.withDefaults()
	return &catalogAggregate{deps: deps}
}

func (a *catalogAggregate) Contract() domainagg.Contract {
	return domainagg.CatalogAggregateContract
}

// Import inserts every row whose category and requirement text are not
// already in the catalog (or earlier in the same batch).
func (a *catalogAggregate) Import(ctx context.Context, reqs []*catalog.Requirement) (domainagg.ImportResult, error) {
	op := a.Contract().Op("Import")
	var out domainagg.ImportResult
	if a.deps.Requirements == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "requirement repo not configured", nil)
	}
	keys := make([]repocatalog.Key, 0, len(reqs))
	for i, r := range reqs {
		if r == nil {
			return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("row %d: empty", i+1), nil)
		}
		r.Category = strings.TrimSpace(r.Category)
		r.Requirement = strings.TrimSpace(r.Requirement)
		if r.Category == "" || r.Requirement == "" {
			return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("row %d: category and requirement are required", i+1), nil)
		}
		keys = append(keys, repocatalog.KeyOf(r))
	}
	if len(reqs) == 0 {
		return out, nil
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		existing, err := a.deps.Requirements.ExistingKeys(dbc, keys)
		if err != nil {
			return err
		}
		fresh := make([]*catalog.Requirement, 0, len(reqs))
		for i, r := range reqs {
			if existing[keys[i]] {
				out.Duplicates++
				continue
			}
			existing[keys[i]] = true
			fresh = append(fresh, r)
		}
		if _, err := a.deps.Requirements.Create(dbc, fresh); err != nil {
			return err
		}
		out.Created = len(fresh)
		return nil
	})
	if err != nil {
		return domainagg.ImportResult{}, err
	}
	return out, nil
}

func (a *catalogAggregate) MassUpdate(ctx context.Context, in domainagg.MassUpdateInput) (int64, error) {
	op := a.Contract().Op("MassUpdate")
	if len(in.IDs) == 0 {
		return 0, domainagg.NewError(domainagg.CodeValidation, op, "no requirement ids", nil)
	}
	updates := map[string]any{}
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			return 0, domainagg.NewError(domainagg.CodeValidation, op, "category cannot be blank", nil)
		}
		updates["category"] = c
	}
	if in.Product != nil {
		updates["product"] = strings.TrimSpace(*in.Product)
	}
	if in.DocLink != nil {
		updates["doc_link"] = nullable(*in.DocLink)
	}
	if in.TenantLink != nil {
		updates["tenant_link"] = nullable(*in.TenantLink)
	}
	if len(updates) == 0 {
		return 0, domainagg.NewError(domainagg.CodeValidation, op, "nothing to update", nil)
	}
	updates["updated_by"] = in.UpdatedBy
	updates["updated_at"] = a.deps.Base.Now()

	var n int64
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		n, err = a.deps.Requirements.UpdateFields(dbc, in.IDs, updates)
		return err
	})
	return n, err
}

func (a *catalogAggregate) MassDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	op := a.Contract().Op("MassDelete")
	if len(ids) == 0 {
		return 0, domainagg.NewError(domainagg.CodeValidation, op, "no requirement ids", nil)
	}
	var n int64
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		n, err = a.deps.Requirements.DeleteByIDs(dbc, ids)
		return err
	})
	return n, err
}

func nullable(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
