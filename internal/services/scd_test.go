package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/domain/audit"
	"github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/domain/scd"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

func displayTexts(doc *scd.Document) []string {
	out := make([]string, len(doc.Items))
	for i, it := range doc.Items {
		out[i] = it.DisplayText()
	}
	return out
}

func TestSCDService_AddRequirementsPersistsAndReportsSkips(t *testing.T) {
	e := newTestEnv(t)
	reqs := e.seedCatalog(t, "Security", "Core", "SSO", "MFA", "Audit log")
	owner := actor("owner@example.com")

	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: " Pilot ", SharedWith: []string{"Peer@Example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "Pilot", doc.Name)
	assert.Equal(t, 1, doc.Version)

	unknown := uuid.New()
	doc, res, err := e.scd.AddRequirements(e.ctx, owner, doc.ID, []uuid.UUID{reqs[0].ID, reqs[1].ID, reqs[0].ID, unknown}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, []uuid.UUID{reqs[0].ID, unknown}, res.Skipped)
	assert.Equal(t, 2, doc.Version)

	doc, res, err = e.scd.AddRequirements(e.ctx, owner, doc.ID, []uuid.UUID{reqs[1].ID}, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Equal(t, 2, doc.Version, "no-op add must not bump the version")

	stored, err := e.scd.ReadDocument(e.ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"SSO", "MFA"}, displayTexts(stored))
	for i, it := range stored.Items {
		assert.Equal(t, i, it.Order)
	}

	events, err := e.events.ListRecent(dbctx.Context{Ctx: e.ctx}, doc.ID.String(), 10)
	require.NoError(t, err)
	actions := map[string]bool{}
	for _, ev := range events {
		actions[ev.Action] = true
	}
	assert.True(t, actions[audit.ActionDocumentCreate])
	assert.True(t, actions[audit.ActionDocumentItems])
}

func TestSCDService_SnapshotSurvivesCatalogEdits(t *testing.T) {
	e := newTestEnv(t)
	reqs := e.seedCatalog(t, "Ops", "Edge", "Runbooks")
	owner := actor("owner@example.com")
	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Ops review"})
	require.NoError(t, err)
	_, _, err = e.scd.AddRequirements(e.ctx, owner, doc.ID, ids(reqs...), nil)
	require.NoError(t, err)

	changed := "Runbooks v2"
	_, err = e.catalog.Update(e.ctx, owner, reqs[0].ID, RequirementPatch{Requirement: &changed})
	require.NoError(t, err)
	require.NoError(t, e.catalog.Delete(e.ctx, owner, reqs[0].ID))

	stored, err := e.scd.ReadDocument(e.ctx, owner, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Runbooks", stored.Items[0].Snapshot.Requirement)
	assert.Equal(t, "Ops", stored.Items[0].Snapshot.Category)
}

func TestSCDService_EditOperationsAndVersionPrecondition(t *testing.T) {
	e := newTestEnv(t)
	reqs := e.seedCatalog(t, "Data", "", "A", "B", "C")
	owner := actor("owner@example.com")
	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Data"})
	require.NoError(t, err)
	doc, _, err = e.scd.AddRequirements(e.ctx, owner, doc.ID, ids(reqs...), intp(1))
	require.NoError(t, err)
	require.Equal(t, 2, doc.Version)

	_, err = e.scd.Reorder(e.ctx, owner, doc.ID, []uuid.UUID{doc.Items[2].ID, doc.Items[0].ID, doc.Items[1].ID}, intp(1))
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict), "stale version: %v", err)

	doc, err = e.scd.Reorder(e.ctx, owner, doc.ID, []uuid.UUID{doc.Items[2].ID, doc.Items[0].ID, doc.Items[1].ID}, intp(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, displayTexts(doc))

	_, err = e.scd.Reorder(e.ctx, owner, doc.ID, []uuid.UUID{doc.Items[0].ID}, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "non-permutation: %v", err)

	custom := "A, but in writing"
	doc, err = e.scd.UpdateLineItemText(e.ctx, owner, doc.ID, doc.Items[1].ID, &custom, nil)
	require.NoError(t, err)
	doc, err = e.scd.RemoveLineItem(e.ctx, owner, doc.ID, doc.Items[0].ID, nil)
	require.NoError(t, err)

	stored, err := e.scd.ReadDocument(e.ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A, but in writing", "B"}, displayTexts(stored))
	assert.Equal(t, 0, stored.Items[0].Order)
	assert.Equal(t, 5, stored.Version)

	_, err = e.scd.RemoveLineItem(e.ctx, owner, doc.ID, uuid.New(), nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "unknown item: %v", err)
}

func TestSCDService_ReplaceDocumentItems(t *testing.T) {
	e := newTestEnv(t)
	reqs := e.seedCatalog(t, "Security", "Core", "SSO", "MFA")
	owner := actor("owner@example.com")
	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Replace"})
	require.NoError(t, err)
	doc, _, err = e.scd.AddRequirements(e.ctx, owner, doc.ID, ids(reqs[0]), nil)
	require.NoError(t, err)

	keep := doc.Items[0].ID
	note := "Custom note"
	doc, err = e.scd.ReplaceDocumentItems(e.ctx, owner, doc.ID, []scdcore.ItemSpec{
		{CustomText: &note},
		{OriginalRequirementID: &reqs[1].ID},
		{ID: &keep},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Custom note", "MFA", "SSO"}, displayTexts(doc))

	missing := uuid.New()
	_, err = e.scd.ReplaceDocumentItems(e.ctx, owner, doc.ID, []scdcore.ItemSpec{{OriginalRequirementID: &missing}}, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "unknown requirement: %v", err)

	stored, err := e.scd.ReadDocument(e.ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 3, "rejected replace must leave the document alone")
}

func TestSCDService_AccessControl(t *testing.T) {
	e := newTestEnv(t)
	owner := actor("owner@example.com")
	peer := actor("peer@example.com")
	stranger := actor("stranger@example.com")

	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Shared", SharedWith: []string{"peer@example.com"}})
	require.NoError(t, err)
	_, err = e.scd.CreateDocument(e.ctx, stranger, CreateSpec{Name: "Private"})
	require.NoError(t, err)

	list, err := e.scd.ListDocuments(e.ctx, peer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, doc.ID, list[0].ID)

	_, err = e.scd.ReadDocument(e.ctx, stranger, doc.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeForbidden), "stranger read: %v", err)

	_, err = e.scd.Reorder(e.ctx, peer, doc.ID, []uuid.UUID{}, nil)
	require.NoError(t, err, "shared users may edit")

	err = e.scd.DeleteDocument(e.ctx, peer, doc.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeForbidden), "peer delete: %v", err)

	require.NoError(t, e.scd.DeleteDocument(e.ctx, owner, doc.ID))
	_, err = e.scd.ReadDocument(e.ctx, owner, doc.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "read after delete: %v", err)
}

func TestSCDService_CloneDocument(t *testing.T) {
	e := newTestEnv(t)
	reqs := e.seedCatalog(t, "Security", "Core", "SSO", "MFA")
	owner := actor("owner@example.com")
	peer := actor("peer@example.com")
	src, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Source", SharedWith: []string{peer.Email}})
	require.NoError(t, err)
	src, _, err = e.scd.AddRequirements(e.ctx, owner, src.ID, ids(reqs...), nil)
	require.NoError(t, err)

	clone, err := e.scd.CloneDocument(e.ctx, peer, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, clone.ID)
	assert.Equal(t, peer.ID, clone.OwnerID)
	assert.Empty(t, clone.SharedWith)
	assert.Equal(t, 1, clone.Version)
	assert.Equal(t, displayTexts(src), displayTexts(clone))
	for i := range clone.Items {
		assert.NotEqual(t, src.Items[i].ID, clone.Items[i].ID)
	}

	stored, err := e.scd.ReadDocument(e.ctx, peer, clone.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	_, err = e.scd.ReadDocument(e.ctx, owner, clone.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeForbidden), "clone is not shared back: %v", err)
}

func TestSCDService_CandidatesAndFacets(t *testing.T) {
	e := newTestEnv(t)
	sec := e.seedCatalog(t, "Security", "Core, Edge", "SSO", "MFA")
	ops := e.seedCatalog(t, "Ops", "Vault", "Backups")
	owner := actor("owner@example.com")
	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Filter"})
	require.NoError(t, err)
	_, _, err = e.scd.AddRequirements(e.ctx, owner, doc.ID, ids(sec[0]), nil)
	require.NoError(t, err)

	got, err := e.scd.AvailableCandidates(e.ctx, owner, doc.ID, scdcore.Criteria{Categories: []string{"Security"}})
	require.NoError(t, err)
	assert.Equal(t, ids(sec[1]), ids(got...))

	got, err = e.scd.AvailableCandidates(e.ctx, owner, doc.ID, scdcore.Criteria{Products: []string{"Vault"}})
	require.NoError(t, err)
	assert.Equal(t, ids(ops[0]), ids(got...))

	facets, err := e.scd.Facets(e.ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, facets.Categories, "Ops")
	assert.Contains(t, facets.Products, "Vault")

	_, err = e.scd.AvailableCandidates(e.ctx, owner, doc.ID, scdcore.Criteria{Categories: []string{" "}})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "blank tag: %v", err)
}

func TestSCDService_BlindReplacesAreLastWriteWins(t *testing.T) {
	e := newTestEnv(t)
	owner := actor("owner@example.com")
	peer := actor("peer@example.com")
	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Shared", SharedWith: []string{peer.Email}})
	require.NoError(t, err)

	first, second := "owner's list", "peer's list"
	_, err = e.scd.ReplaceDocumentItems(e.ctx, owner, doc.ID, []scdcore.ItemSpec{{CustomText: &first}}, nil)
	require.NoError(t, err)
	_, err = e.scd.ReplaceDocumentItems(e.ctx, peer, doc.ID, []scdcore.ItemSpec{{CustomText: &second}}, nil)
	require.NoError(t, err, "a write without a precondition never conflicts")

	stored, err := e.scd.ReadDocument(e.ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{second}, displayTexts(stored))
	assert.Equal(t, 3, stored.Version)

	_, err = e.scd.ReplaceDocumentItems(e.ctx, owner, doc.ID, []scdcore.ItemSpec{{CustomText: &first}}, intp(1))
	require.Error(t, err)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeConflict), err)
	assert.Contains(t, err.Error(), "have 3, caller expected 1")
}

func TestSCDService_CandidatesWithFacets(t *testing.T) {
	e := newTestEnv(t)
	sec := e.seedCatalog(t, "Security", "Core", "SSO", "MFA")
	ops := e.seedCatalog(t, "Ops", "Vault", "Backups")
	owner := actor("owner@example.com")
	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Pilot"})
	require.NoError(t, err)
	_, _, err = e.scd.AddRequirements(e.ctx, owner, doc.ID, ids(sec[0]), nil)
	require.NoError(t, err)

	cands, facets, err := e.scd.CandidatesWithFacets(e.ctx, owner, doc.ID, scdcore.Criteria{Categories: []string{"Ops"}})
	require.NoError(t, err)
	assert.Equal(t, ids(ops...), ids(cands...))
	assert.Equal(t, catalog.Facets{Categories: []string{"Ops", "Security"}, Products: []string{"Core", "Vault"}}, facets)

	alone, err := e.scd.Facets(e.ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, facets, alone)

	_, _, err = e.scd.CandidatesWithFacets(e.ctx, actor("stranger@example.com"), doc.ID, scdcore.Criteria{})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeForbidden), err)
	_, _, err = e.scd.CandidatesWithFacets(e.ctx, owner, doc.ID, scdcore.Criteria{Categories: []string{" "}})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), err)
}

func TestSCDService_History(t *testing.T) {
	e := newTestEnv(t)
	owner := actor("owner@example.com")
	doc, err := e.scd.CreateDocument(e.ctx, owner, CreateSpec{Name: "Audited"})
	require.NoError(t, err)
	text := "custom"
	_, err = e.scd.ReplaceDocumentItems(e.ctx, owner, doc.ID, []scdcore.ItemSpec{{CustomText: &text}}, nil)
	require.NoError(t, err)

	events, err := e.scd.History(e.ctx, owner, doc.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, doc.ID.String(), ev.Target)
		assert.Equal(t, owner.Email, ev.Actor)
	}

	_, err = e.scd.History(e.ctx, actor("stranger@example.com"), doc.ID, 10)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeForbidden), err)
	_, err = e.scd.History(e.ctx, owner, uuid.New(), 10)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), err)

	bare := NewAuditSink(logger.Nop(), nil, nil)
	none, err := bare.Recent(e.ctx, doc.ID.String(), 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
