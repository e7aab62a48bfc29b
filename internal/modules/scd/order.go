package scd

import (
	"github.com/google/uuid"

	domainscd "github.com/yungbote/scd-backend/internal/domain/scd"
)

// recompact assigns order indices 0..n-1 following slice position.
func recompact(items []domainscd.LineItem) {
	for i := range items {
		items[i].Order = i
	}
}

// isPermutation reports whether order holds exactly the ids of items, each once.
func isPermutation(items []domainscd.LineItem, order []uuid.UUID) bool {
	if len(order) != len(items) {
		return false
	}
	remaining := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		remaining[it.ID]++
	}
	for _, id := range order {
		if remaining[id] == 0 {
			return false
		}
		remaining[id]--
	}
	return true
}

// CheckOrder verifies the dense ordering and dedup invariants of doc.
// Persistence calls it before every write.
func CheckOrder(doc *domainscd.Document) error {
	const op = "scd.check_order"
	seenOrder := make([]bool, len(doc.Items))
	seenIDs := make(map[uuid.UUID]struct{}, len(doc.Items))
	originals := Membership{}
	for _, it := range doc.Items {
		if it.Order < 0 || it.Order >= len(doc.Items) || seenOrder[it.Order] {
			return invalid(op, "order index %d is not dense", it.Order)
		}
		seenOrder[it.Order] = true
		if _, dup := seenIDs[it.ID]; dup {
			return invalid(op, "line item %s appears twice", it.ID)
		}
		seenIDs[it.ID] = struct{}{}
		if it.OriginalRequirementID != nil && !originals.Claim(*it.OriginalRequirementID) {
			return invalid(op, "requirement %s appears twice", *it.OriginalRequirementID)
		}
	}
	return nil
}
