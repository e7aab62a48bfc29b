package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/domain/scd"
	"github.com/yungbote/scd-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *user.User {
	tb.Helper()
	u := &user.User{ID: uuid.New(), Email: email, DisplayName: "Test User"}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedRequirement(tb testing.TB, ctx context.Context, tx *gorm.DB, category, text, product string) *catalog.Requirement {
	tb.Helper()
	r := &catalog.Requirement{ID: uuid.New(), Category: category, Requirement: text, Product: product, CreatedBy: "seed"}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed requirement: %v", err)
	}
	return r
}

// SeedDocument stores a document owned by owner with one snapshotted item
// per requirement, in order.
func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, owner *user.User, name string, shared []string, reqs ...*catalog.Requirement) *scd.Document {
	tb.Helper()
	doc := &scd.Document{
		ID:         uuid.New(),
		Name:       name,
		OwnerID:    owner.ID,
		OwnerEmail: owner.Email,
		SharedWith: shared,
		Version:    1,
	}
	if err := tx.WithContext(ctx).Omit("Items").Create(doc).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	for i, r := range reqs {
		rid := r.ID
		doc.Items = append(doc.Items, scd.LineItem{
			ID:                    uuid.New(),
			DocumentID:            doc.ID,
			Order:                 i,
			OriginalRequirementID: &rid,
			Snapshot:              scd.SnapshotOf(r),
		})
	}
	if len(doc.Items) > 0 {
		if err := tx.WithContext(ctx).Create(&doc.Items).Error; err != nil {
			tb.Fatalf("seed line items: %v", err)
		}
	}
	return doc
}
