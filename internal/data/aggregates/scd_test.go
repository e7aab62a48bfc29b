package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/scd-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/scd-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/scd-backend/internal/data/repos"
	repotestutil "github.com/yungbote/scd-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/domain/scd"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

type scdFixture struct {
	agg    domainagg.SCDAggregate
	docs   repos.DocumentRepo
	hooks  *aggtestutil.HooksRecorder
	runner *aggtestutil.InjectedTxRunner
}

func newSCDFixture(t *testing.T) (*scdFixture, context.Context) {
	t.Helper()
	db := repotestutil.DB(t)
	log := repotestutil.Logger(t)
	f := &scdFixture{
		docs:   repos.NewDocumentRepo(db, log),
		hooks:  &aggtestutil.HooksRecorder{},
		runner: &aggtestutil.InjectedTxRunner{DB: db},
	}
	f.agg = aggregates.NewSCDAggregate(aggregates.SCDAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:     db,
			Log:    log,
			Runner: f.runner,
			Hooks:  f.hooks,
		},
		Documents: f.docs,
	})
	return f, context.Background()
}

func itemsFor(docID uuid.UUID, texts ...string) []scd.LineItem {
	out := make([]scd.LineItem, 0, len(texts))
	for i, s := range texts {
		text := s
		out = append(out, scd.LineItem{
			ID:         uuid.New(),
			DocumentID: docID,
			Order:      i,
			CustomText: &text,
			Snapshot:   scd.Snapshot{Category: "General", Requirement: s},
		})
	}
	return out
}

func TestSCDAggregate_CreateAndReplaceItemsBumpsVersion(t *testing.T) {
	f, ctx := newSCDFixture(t)
	doc := &scd.Document{ID: uuid.New(), Name: "Pilot", OwnerID: uuid.New(), OwnerEmail: "owner@example.com"}
	doc.Items = itemsFor(doc.ID, "a", "b")
	if err := f.agg.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.Version != 1 {
		t.Fatalf("version after create: want=1 got=%d", doc.Version)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res, err := f.agg.ReplaceItems(ctx, domainagg.ReplaceItemsInput{
		DocumentID: doc.ID,
		Items:      itemsFor(doc.ID, "c", "d", "e"),
		UpdatedAt:  at,
	})
	if err != nil {
		t.Fatalf("ReplaceItems: %v", err)
	}
	if res.Version != 2 || res.ItemCount != 3 || !res.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected result: %+v", res)
	}

	got, err := f.docs.GetByID(dbctx.Context{Ctx: ctx}, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("stored version: want=2 got=%d", got.Version)
	}
	if len(got.Items) != 3 || got.Items[0].DisplayText() != "c" || got.Items[2].Order != 2 {
		t.Fatalf("stored items not replaced: %+v", got.Items)
	}
	if events := f.hooks.Events(); len(events) != 2 || events[1].Outcome != aggregates.OutcomeCommitted {
		t.Fatalf("hooks: %+v", events)
	}
}

func TestSCDAggregate_ReplaceItemsStaleVersionConflicts(t *testing.T) {
	f, ctx := newSCDFixture(t)
	doc := &scd.Document{ID: uuid.New(), Name: "Pilot", OwnerID: uuid.New(), OwnerEmail: "owner@example.com"}
	doc.Items = itemsFor(doc.ID, "a")
	if err := f.agg.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	stale := 0
	_, err := f.agg.ReplaceItems(ctx, domainagg.ReplaceItemsInput{
		DocumentID:      doc.ID,
		ExpectedVersion: &stale,
		Items:           itemsFor(doc.ID, "x"),
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict, got=%v", err)
	}
	if got := f.hooks.Count(aggregates.OutcomeConflict); got != 1 {
		t.Fatalf("conflict hooks: want=1 got=%d", got)
	}

	got, err := f.docs.GetByID(dbctx.Context{Ctx: ctx}, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Version != 1 || len(got.Items) != 1 || got.Items[0].DisplayText() != "a" {
		t.Fatalf("document changed after conflict: version=%d items=%+v", got.Version, got.Items)
	}

	current := 1
	if _, err := f.agg.ReplaceItems(ctx, domainagg.ReplaceItemsInput{
		DocumentID:      doc.ID,
		ExpectedVersion: &current,
		Items:           itemsFor(doc.ID, "x"),
	}); err != nil {
		t.Fatalf("ReplaceItems with current version: %v", err)
	}
}

func TestSCDAggregate_ReplaceItemsRejectsSparseOrder(t *testing.T) {
	f, ctx := newSCDFixture(t)
	items := itemsFor(uuid.New(), "a", "b")
	items[1].Order = 5
	_, err := f.agg.ReplaceItems(ctx, domainagg.ReplaceItemsInput{DocumentID: uuid.New(), Items: items})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation, got=%v", err)
	}
	if f.runner.BeginCalls != 0 {
		t.Fatalf("transaction should not start: begin=%d", f.runner.BeginCalls)
	}
}

func TestSCDAggregate_MissingDocumentIsNotFound(t *testing.T) {
	f, ctx := newSCDFixture(t)
	_, err := f.agg.ReplaceItems(ctx, domainagg.ReplaceItemsInput{DocumentID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("replace missing: want not_found got=%v", err)
	}
	if err := f.agg.DeleteDocument(ctx, uuid.New()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("delete missing: want not_found got=%v", err)
	}
}

func TestSCDAggregate_DeleteRemovesItems(t *testing.T) {
	f, ctx := newSCDFixture(t)
	doc := &scd.Document{ID: uuid.New(), Name: "Pilot", OwnerID: uuid.New(), OwnerEmail: "owner@example.com"}
	doc.Items = itemsFor(doc.ID, "a", "b")
	if err := f.agg.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := f.agg.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := f.docs.GetByID(dbctx.Context{Ctx: ctx}, doc.ID); err == nil {
		t.Fatalf("document still readable after delete")
	}
}

func TestSCDAggregate_CommitFailureRollsBack(t *testing.T) {
	f, ctx := newSCDFixture(t)
	f.runner.FailCommit = errors.New("commit failed")
	doc := &scd.Document{ID: uuid.New(), Name: "Pilot", OwnerID: uuid.New(), OwnerEmail: "owner@example.com"}
	if err := f.agg.CreateDocument(ctx, doc); err == nil {
		t.Fatalf("expected commit failure")
	}
	if f.runner.RollbackCalls != 1 {
		t.Fatalf("rollback calls: want=1 got=%d", f.runner.RollbackCalls)
	}
	if _, err := f.docs.GetByID(dbctx.Context{Ctx: ctx}, doc.ID); err == nil {
		t.Fatalf("document persisted despite rollback")
	}
}
