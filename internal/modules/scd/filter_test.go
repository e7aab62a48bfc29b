package scd

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/domain/catalog"
)

func ids(reqs []*catalog.Requirement) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ID)
	}
	return out
}

func TestAvailableCandidatesExcludesPresent(t *testing.T) {
	cat := sampleCatalog()
	doc := docWith(t, newTestComposer(), cat[1])
	got, err := AvailableCandidates(cat, doc, Criteria{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{cat[0].ID, cat[2].ID, cat[3].ID}, ids(got))
}

func TestAvailableCandidatesCriteria(t *testing.T) {
	cat := sampleCatalog()
	cases := []struct {
		name string
		c    Criteria
		want []uuid.UUID
	}{
		{"empty", Criteria{}, ids(cat)},
		{"category", Criteria{Categories: []string{"SSO"}}, []uuid.UUID{cat[0].ID, cat[1].ID}},
		{"categories", Criteria{Categories: []string{"MFA", "Audit"}}, []uuid.UUID{cat[2].ID, cat[3].ID}},
		{"product split on semicolon", Criteria{Products: []string{"Ping"}}, []uuid.UUID{cat[0].ID}},
		{"product split on comma", Criteria{Products: []string{"Duo"}}, []uuid.UUID{cat[2].ID}},
		{"product any of", Criteria{Products: []string{"Okta"}}, []uuid.UUID{cat[0].ID, cat[1].ID, cat[2].ID}},
		{"text case insensitive", Criteria{Text: "saml"}, []uuid.UUID{cat[0].ID}},
		{"all criteria", Criteria{Categories: []string{"SSO"}, Products: []string{"Okta"}, Text: "OIDC"}, []uuid.UUID{cat[1].ID}},
		{"no match", Criteria{Categories: []string{"MFA"}, Text: "saml"}, []uuid.UUID{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AvailableCandidates(cat, nil, tc.c)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestCriteriaValidate(t *testing.T) {
	_, err := AvailableCandidates(nil, nil, Criteria{Text: strings.Repeat("x", maxCriteriaText+1)})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
	_, err = AvailableCandidates(nil, nil, Criteria{Categories: []string{" "}})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
	_, err = AvailableCandidates(nil, nil, Criteria{Products: []string{""}})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
}

func TestAvailableCandidatesConcurrentReads(t *testing.T) {
	cat := sampleCatalog()
	doc := docWith(t, newTestComposer(), cat[0])
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := AvailableCandidates(cat, doc, Criteria{Products: []string{"Okta"}})
			assert.NoError(t, err)
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()
}
