package scd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/domain/catalog"
)

func TestCreateDocument(t *testing.T) {
	c := newTestComposer()
	doc, err := c.CreateDocument(owner, "  Acme POV ", strptr("eval"), []string{"B@x.io", "b@x.io ", "owner@example.com", ""})
	require.NoError(t, err)
	assert.Equal(t, "Acme POV", doc.Name)
	assert.Equal(t, owner.ID, doc.OwnerID)
	assert.Equal(t, "owner@example.com", doc.OwnerEmail)
	assert.Equal(t, []string{"b@x.io"}, []string(doc.SharedWith))
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, fixedNow, doc.CreatedAt)
	assert.Empty(t, doc.Items)
}

func TestCreateDocumentValidation(t *testing.T) {
	c := newTestComposer()
	_, err := c.CreateDocument(owner, "   ", nil, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "blank name: %v", err)

	_, err = c.CreateDocument(owner, "x", nil, []string{"not-an-email"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "bad share: %v", err)

	_, err = c.CreateDocument(Actor{}, "x", nil, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "no actor: %v", err)
}

func TestAddRequirementsSkipsUnknownAndDuplicates(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	a, b, x := cat[0], cat[1], cat[2]
	doc := docWith(t, c, a, b)

	unknown := uuid.New()
	out, res, err := c.AddRequirements(doc, []uuid.UUID{b.ID, x.ID, unknown, x.ID}, catalog.NewIndex(cat))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []uuid.UUID{b.ID, unknown, x.ID}, res.Skipped)
	require.Len(t, out.Items, 3)
	assert.Equal(t, x.ID, *out.Items[2].OriginalRequirementID)
	assert.Equal(t, 2, out.Items[2].Order)
	assert.Equal(t, x.Requirement, out.Items[2].Snapshot.Requirement)
	requireDense(t, out)

	// input untouched
	assert.Len(t, doc.Items, 2)
}

func TestAddRequirementsIsIdempotent(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	idx := catalog.NewIndex(cat)
	doc := docWith(t, c)
	ids := []uuid.UUID{cat[0].ID, cat[1].ID, cat[2].ID}

	first, _, err := c.AddRequirements(doc, ids, idx)
	require.NoError(t, err)
	second, res, err := c.AddRequirements(first, append(ids, cat[3].ID), idx)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Len(t, res.Skipped, 3)
	require.NoError(t, CheckOrder(second))
	assert.Len(t, second.Items, 4)
}

func TestAddRequirementsEmptyCallKeepsTimestamp(t *testing.T) {
	c := newTestComposer()
	doc := docWith(t, c)
	doc.UpdatedAt = doc.UpdatedAt.Add(-1)
	out, res, err := c.AddRequirements(doc, nil, catalog.Index{})
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.NotNil(t, res.Skipped)
	assert.Equal(t, doc.UpdatedAt, out.UpdatedAt)
}

func TestRemoveLineItem(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	doc := docWith(t, c, cat[0], cat[1], cat[2])

	out, err := c.RemoveLineItem(doc, doc.Items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{doc.Items[0].ID, doc.Items[2].ID}, itemIDs(out))
	requireDense(t, out)

	_, err = c.RemoveLineItem(out, uuid.New())
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "missing item: %v", err)
}

func TestRemoveLastItemLeavesEmptyValidDocument(t *testing.T) {
	c := newTestComposer()
	doc := docWith(t, c, sampleCatalog()[0])
	out, err := c.RemoveLineItem(doc, doc.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	require.NoError(t, CheckOrder(out))
}

func TestReorder(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	doc := docWith(t, c, cat[0], cat[1], cat[2])
	a, b, cc := doc.Items[0], doc.Items[1], doc.Items[2]

	out, err := c.Reorder(doc, []uuid.UUID{cc.ID, a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{cc.ID, a.ID, b.ID}, itemIDs(out))
	requireDense(t, out)

	// the item set and every item's content are unchanged
	byID := map[uuid.UUID]int{}
	for i, it := range doc.Items {
		byID[it.ID] = i
	}
	for _, it := range out.Items {
		src := doc.Items[byID[it.ID]]
		assert.True(t, src.Snapshot.Equal(it.Snapshot))
		assert.Equal(t, src.OriginalRequirementID, it.OriginalRequirementID)
	}
}

func TestReorderRejectsNonPermutations(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	doc := docWith(t, c, cat[0], cat[1])
	a, b := doc.Items[0].ID, doc.Items[1].ID

	cases := map[string][]uuid.UUID{
		"short":     {a},
		"long":      {a, b, a},
		"duplicate": {a, a},
		"foreign":   {a, uuid.New()},
	}
	for name, order := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Reorder(doc, order)
			assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)
		})
	}
}

func TestUpdateLineItemTextLeavesSnapshotAndOrder(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	doc := docWith(t, c, cat[0], cat[1])
	target := doc.Items[1]

	out, err := c.UpdateLineItemText(doc, target.ID, strptr("Must support SP-initiated SAML"))
	require.NoError(t, err)
	got := out.Items[1]
	assert.Equal(t, "Must support SP-initiated SAML", *got.CustomText)
	assert.True(t, target.Snapshot.Equal(got.Snapshot))
	assert.Equal(t, target.Order, got.Order)

	cleared, err := c.UpdateLineItemText(out, target.ID, strptr("  "))
	require.NoError(t, err)
	assert.Nil(t, cleared.Items[1].CustomText)

	_, err = c.UpdateLineItemText(doc, uuid.New(), nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
}

func TestReplaceAllFoldsEdits(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	idx := catalog.NewIndex(cat)
	doc := docWith(t, c, cat[0], cat[1], cat[2])
	a, b := doc.Items[0], doc.Items[1]

	// drop the third item, swap a and b, edit b, add cat[3] and a custom row
	out, err := c.ReplaceAll(doc, []ItemSpec{
		{ID: &b.ID, CustomText: strptr("edited")},
		{ID: &a.ID},
		{OriginalRequirementID: &cat[3].ID},
		{CustomText: strptr("Customer specific: on-prem agent")},
	}, idx)
	require.NoError(t, err)
	requireDense(t, out)
	require.Len(t, out.Items, 4)

	assert.Equal(t, b.ID, out.Items[0].ID)
	assert.Equal(t, "edited", *out.Items[0].CustomText)
	assert.Equal(t, a.ID, out.Items[1].ID)
	assert.Equal(t, cat[3].ID, *out.Items[2].OriginalRequirementID)
	assert.Nil(t, out.Items[3].OriginalRequirementID)
	assert.Equal(t, "Customer specific: on-prem agent", out.Items[3].DisplayText())

	// existing snapshots survive the replace untouched
	if diff := cmp.Diff(a.Snapshot, out.Items[1].Snapshot); diff != "" {
		t.Fatalf("snapshot changed (-want +got):\n%s", diff)
	}
}

func TestReplaceAllRejectsWholeList(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	idx := catalog.NewIndex(cat)
	doc := docWith(t, c, cat[0], cat[1])
	a := doc.Items[0]
	stranger := uuid.New()

	cases := []struct {
		name  string
		specs []ItemSpec
		code  domainagg.ErrorCode
	}{
		{"unknown item", []ItemSpec{{ID: &stranger}}, domainagg.CodeNotFound},
		{"unknown requirement", []ItemSpec{{OriginalRequirementID: &stranger}}, domainagg.CodeNotFound},
		{"item twice", []ItemSpec{{ID: &a.ID}, {ID: &a.ID}}, domainagg.CodeValidation},
		{"requirement twice", []ItemSpec{{ID: &a.ID}, {OriginalRequirementID: a.OriginalRequirementID}}, domainagg.CodeValidation},
		{"empty spec", []ItemSpec{{}}, domainagg.CodeValidation},
		{"source swap", []ItemSpec{{ID: &a.ID, OriginalRequirementID: &cat[2].ID}}, domainagg.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.ReplaceAll(doc, tc.specs, idx)
			require.Error(t, err)
			assert.Equal(t, tc.code, domainagg.CodeOf(err), "err=%v", err)
		})
	}
	assert.Len(t, doc.Items, 2)
}

func TestReplaceAllEmptyListClearsDocument(t *testing.T) {
	c := newTestComposer()
	doc := docWith(t, c, sampleCatalog()...)
	out, err := c.ReplaceAll(doc, nil, catalog.Index{})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestAuthorize(t *testing.T) {
	c := newTestComposer()
	doc, err := c.CreateDocument(owner, "x", nil, []string{"friend@x.io"})
	require.NoError(t, err)

	friend := Actor{ID: uuid.New(), Email: "Friend@X.io"}
	stranger := Actor{ID: uuid.New(), Email: "nobody@x.io"}
	sameOwnerEmail := Actor{ID: uuid.New(), Email: "owner@example.com"}

	assert.NoError(t, Authorize(doc, owner, ActionDelete))
	assert.NoError(t, Authorize(doc, sameOwnerEmail, ActionEdit))
	assert.NoError(t, Authorize(doc, friend, ActionEdit))
	assert.True(t, domainagg.IsCode(Authorize(doc, friend, ActionDelete), domainagg.CodeForbidden))
	assert.True(t, domainagg.IsCode(Authorize(doc, stranger, ActionRead), domainagg.CodeForbidden))
	assert.True(t, domainagg.IsCode(Authorize(nil, owner, ActionRead), domainagg.CodeNotFound))
	assert.False(t, CanSee(doc, stranger))
}

// Example from the composition rules: [A@0,B@1,C@2] reordered to [C,A,B],
// then adding B again plus a new X appends X only, at index 3.
func TestComposerWorkedExample(t *testing.T) {
	c := newTestComposer()
	cat := sampleCatalog()
	idx := catalog.NewIndex(cat)
	doc := docWith(t, c, cat[0], cat[1], cat[2])
	A, B, C := doc.Items[0], doc.Items[1], doc.Items[2]

	doc, err := c.Reorder(doc, []uuid.UUID{C.ID, A.ID, B.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{C.ID, A.ID, B.ID}, itemIDs(doc))

	X := cat[3]
	doc, res, err := c.AddRequirements(doc, []uuid.UUID{*B.OriginalRequirementID, X.ID}, idx)
	require.NoError(t, err)
	assert.Equal(t, AddResult{Added: 1, Skipped: []uuid.UUID{*B.OriginalRequirementID}}, res)
	assert.Equal(t, X.ID, *doc.Items[3].OriginalRequirementID)
	assert.Equal(t, 3, doc.Items[3].Order)
}
