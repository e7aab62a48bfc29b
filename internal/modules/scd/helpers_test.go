package scd

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/scd-backend/internal/domain/catalog"
	domainscd "github.com/yungbote/scd-backend/internal/domain/scd"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() Clock { return ClockFunc(func() time.Time { return fixedNow }) }

// seqIDs hands out predictable ids: 00000000-0000-0000-0000-00000000000N.
func seqIDs() IDGen {
	n := 0
	return func() uuid.UUID {
		n++
		return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
	}
}

func newTestComposer() *Composer { return NewComposer(fixedClock(), seqIDs()) }

var owner = Actor{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Email: "Owner@Example.com"}

func req(category, text, product string) *catalog.Requirement {
	return &catalog.Requirement{ID: uuid.New(), Category: category, Requirement: text, Product: product}
}

func sampleCatalog() []*catalog.Requirement {
	return []*catalog.Requirement{
		req("SSO", "Supports SAML 2.0 federation", "Okta; Ping"),
		req("SSO", "Supports OIDC login", "Okta"),
		req("MFA", "Push based MFA", "Duo, Okta"),
		req("Audit", "Exports audit logs to SIEM", ""),
	}
}

// docWith creates a document holding the given requirements in order.
func docWith(t *testing.T, c *Composer, reqs ...*catalog.Requirement) *domainscd.Document {
	t.Helper()
	doc, err := c.CreateDocument(owner, "POV", nil, nil)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	doc, res, err := c.AddRequirements(doc, ids, catalog.NewIndex(reqs))
	require.NoError(t, err)
	require.Equal(t, len(reqs), res.Added)
	return doc
}

func itemIDs(doc *domainscd.Document) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(doc.Items))
	for _, it := range doc.Items {
		out = append(out, it.ID)
	}
	return out
}

func requireDense(t *testing.T, doc *domainscd.Document) {
	t.Helper()
	require.NoError(t, CheckOrder(doc))
	for i, it := range doc.Items {
		require.Equal(t, i, it.Order, "item %d order", i)
	}
}

func strptr(s string) *string { return &s }
