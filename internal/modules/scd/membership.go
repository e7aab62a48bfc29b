package scd

import (
	"github.com/google/uuid"

	domainscd "github.com/yungbote/scd-backend/internal/domain/scd"
)

// Membership indexes the non-null original requirement ids of a document
// so dedup checks during add and replace are O(1).
type Membership map[uuid.UUID]struct{}

func MembershipOf(doc *domainscd.Document) Membership {
	m := Membership{}
	if doc == nil {
		return m
	}
	for _, it := range doc.Items {
		if it.OriginalRequirementID != nil {
			m[*it.OriginalRequirementID] = struct{}{}
		}
	}
	return m
}

func (m Membership) Has(id uuid.UUID) bool {
	_, ok := m[id]
	return ok
}

// Claim records id and reports whether it was absent.
func (m Membership) Claim(id uuid.UUID) bool {
	if m.Has(id) {
		return false
	}
	m[id] = struct{}{}
	return true
}
