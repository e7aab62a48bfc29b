package catalog

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type RequirementRepo interface {
	Create(dbc dbctx.Context, reqs []*types.Requirement) ([]*types.Requirement, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Requirement, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Requirement, error)
	List(dbc dbctx.Context) ([]*types.Requirement, error)
	UpdateFields(dbc dbctx.Context, ids []uuid.UUID, updates map[string]any) (int64, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
	// ExistingKeys returns which category+requirement pairs are already stored.
	ExistingKeys(dbc dbctx.Context, keys []Key) (map[Key]bool, error)
}

// Key identifies a requirement by its visible content, for import dedup.
type Key struct {
	Category    string
	Requirement string
}

func KeyOf(r *types.Requirement) Key {
	return Key{Category: strings.TrimSpace(r.Category), Requirement: strings.TrimSpace(r.Requirement)}
}

type requirementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequirementRepo(db *gorm.DB, baseLog *logger.Logger) RequirementRepo {
	repoLog := baseLog.With("repo", "RequirementRepo")
	return &requirementRepo{db: db, log: repoLog}
}

func (r *requirementRepo) Create(dbc dbctx.Context, reqs []*types.Requirement) ([]*types.Requirement, error) {
	if len(reqs) == 0 {
		return []*types.Requirement{}, nil
	}
	for _, req := range reqs {
		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).CreateInBatches(&reqs, 200).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requirementRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Requirement, error) {
	var results []*types.Requirement
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Order("category ASC, created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *requirementRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Requirement, error) {
	var out types.Requirement
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *requirementRepo) List(dbc dbctx.Context) ([]*types.Requirement, error) {
	var results []*types.Requirement
	if err := dbc.DB(r.db).
		Order("category ASC, created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *requirementRepo) UpdateFields(dbc dbctx.Context, ids []uuid.UUID, updates map[string]any) (int64, error) {
	if len(ids) == 0 || len(updates) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Model(&types.Requirement{}).
		Where("id IN ?", ids).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *requirementRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Requirement{})
	return res.RowsAffected, res.Error
}

func (r *requirementRepo) ExistingKeys(dbc dbctx.Context, keys []Key) (map[Key]bool, error) {
	out := map[Key]bool{}
	if len(keys) == 0 {
		return out, nil
	}
	cats := make([]string, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		if !seen[k.Category] {
			seen[k.Category] = true
			cats = append(cats, k.Category)
		}
	}
	var rows []*types.Requirement
	if err := dbc.DB(r.db).
		Select("category", "requirement").
		Where("category IN ?", cats).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	want := make(map[Key]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	for _, row := range rows {
		if k := KeyOf(row); want[k] {
			out[k] = true
		}
	}
	return out, nil
}
