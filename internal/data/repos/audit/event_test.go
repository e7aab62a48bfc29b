package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/scd-backend/internal/data/repos/testutil"
	types "github.com/yungbote/scd-backend/internal/domain/audit"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
)

func TestEventRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewEventRepo(db, testutil.Logger(t))

	doc := uuid.NewString()
	err := repo.Create(dbc, []*types.Event{
		{Action: types.ActionDocumentCreate, Target: doc, Actor: "a@x.io"},
		{Action: types.ActionCatalogImport, Target: "catalog", Actor: "a@x.io"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.ListRecent(dbc, doc, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 1 || got[0].Action != types.ActionDocumentCreate {
		t.Fatalf("ListRecent target: got=%+v", got)
	}
	all, err := repo.ListRecent(dbc, "", 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListRecent all: n=%d err=%v", len(all), err)
	}
}
