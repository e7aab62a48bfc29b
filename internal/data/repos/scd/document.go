package scd

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/scd-backend/internal/domain/scd"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type DocumentRepo interface {
	// GetByID loads a document with its items in (order, id) order.
	// Missing documents return gorm.ErrRecordNotFound.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	// LockByID row-locks a document without items. Missing returns (nil, nil).
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	// ListVisible returns documents owned by or shared with the identity.
	ListVisible(dbc dbctx.Context, ownerID uuid.UUID, email string) ([]*types.Summary, error)
	Create(dbc dbctx.Context, doc *types.Document) error
	ReplaceItems(dbc dbctx.Context, documentID uuid.UUID, items []types.LineItem) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	repoLog := baseLog.With("repo", "DocumentRepo")
	return &documentRepo{db: db, log: repoLog}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("item_order ASC, id ASC")
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	var out types.Document
	if err := dbc.DB(r.db).
		Preload("Items", orderedItems).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []types.LineItem{}
	}
	return &out, nil
}

func (r *documentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	var rows []*types.Document
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *documentRepo) ListVisible(dbc dbctx.Context, ownerID uuid.UUID, email string) ([]*types.Summary, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	q := dbc.DB(r.db).Model(&types.Document{})
	// Without an email only ownership by id can match; a blank email would
	// otherwise select every document with a blank owner email.
	switch {
	case email == "":
		q = q.Where("owner_id = ?", ownerID)
	case r.db.Dialector.Name() == "postgres":
		q = q.Where("owner_id = ? OR owner_email = ? OR shared_with @> ?::jsonb", ownerID, email, `["`+jsonEscape(email)+`"]`)
	default:
		q = q.Where("owner_id = ? OR owner_email = ? OR EXISTS (SELECT 1 FROM json_each(CAST(shared_with AS TEXT)) WHERE json_each.value = ?)", ownerID, email, email)
	}
	var docs []*types.Document
	if err := q.Order("updated_at DESC, id ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []*types.Summary{}, nil
	}

	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	var counts []struct {
		DocumentID uuid.UUID
		N          int
	}
	if err := dbc.DB(r.db).
		Model(&types.LineItem{}).
		Select("document_id, COUNT(*) AS n").
		Where("document_id IN ?", ids).
		Group("document_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byDoc := make(map[uuid.UUID]int, len(counts))
	for _, c := range counts {
		byDoc[c.DocumentID] = c.N
	}

	out := make([]*types.Summary, 0, len(docs))
	for _, d := range docs {
		s := d.Summary()
		s.ItemCount = byDoc[d.ID]
		out = append(out, s)
	}
	return out, nil
}

func (r *documentRepo) Create(dbc dbctx.Context, doc *types.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	tx := dbc.DB(r.db)
	if err := tx.Omit("Items").Create(doc).Error; err != nil {
		return err
	}
	if len(doc.Items) == 0 {
		return nil
	}
	for i := range doc.Items {
		doc.Items[i].DocumentID = doc.ID
	}
	return tx.Create(&doc.Items).Error
}

func (r *documentRepo) ReplaceItems(dbc dbctx.Context, documentID uuid.UUID, items []types.LineItem) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("document_id = ?", documentID).Delete(&types.LineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]types.LineItem, len(items))
	for i, it := range items {
		it.DocumentID = documentID
		rows[i] = it
	}
	return tx.Create(&rows).Error
}

func (r *documentRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	tx := dbc.DB(r.db)
	if err := tx.Where("document_id = ?", id).Delete(&types.LineItem{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id = ?", id).Delete(&types.Document{})
	return res.RowsAffected, res.Error
}

func jsonEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
