package scd

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/scd-backend/internal/domain/catalog"
	domainscd "github.com/yungbote/scd-backend/internal/domain/scd"
	"github.com/yungbote/scd-backend/internal/platform/ctxutil"
)

// Actor is the identity performing an operation.
type Actor struct {
	ID    uuid.UUID
	Email string
}

// Action is what an actor wants to do with a document.
type Action string

const (
	ActionRead   Action = "read"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// AddResult summarizes an AddRequirements call.
type AddResult struct {
	Added   int         `json:"added"`
	Skipped []uuid.UUID `json:"skipped"`
}

// ItemSpec is one entry of a whole-list replacement. ID refers to an item
// already in the document. Without ID the entry is new: it is snapshotted
// from OriginalRequirementID, or it is free-standing custom text.
type ItemSpec struct {
	ID                    *uuid.UUID `json:"id,omitempty"`
	OriginalRequirementID *uuid.UUID `json:"original_requirement_id,omitempty"`
	CustomText            *string    `json:"custom_text,omitempty"`
}

// Composer computes new document states. It never mutates its inputs and
// performs no I/O, so callers persist the returned document themselves.
type Composer struct {
	clock Clock
	newID IDGen
}

func NewComposer(clock Clock, newID IDGen) *Composer {
	if clock == nil {
		clock = SystemClock
	}
	if newID == nil {
		newID = defaultIDGen
	}
	return &Composer{clock: clock, newID: newID}
}

// CreateDocument returns a new empty document owned by actor.
func (c *Composer) CreateDocument(actor Actor, name string, description *string, sharedWith []string) (*domainscd.Document, error) {
	const op = "scd.create_document"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(op, "name is required")
	}
	if actor.ID == uuid.Nil {
		return nil, invalid(op, "actor is required")
	}
	owner := ctxutil.NormalizeEmail(actor.Email)
	shares, err := normalizeShares(op, owner, sharedWith)
	if err != nil {
		return nil, err
	}
	now := c.clock.Now()
	return &domainscd.Document{
		ID:          c.newID(),
		Name:        name,
		Description: normalizeText(description),
		OwnerID:     actor.ID,
		OwnerEmail:  owner,
		SharedWith:  shares,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       []domainscd.LineItem{},
	}, nil
}

// AddRequirements appends snapshots of the given catalog ids in the order
// given. Unknown ids and ids already present (in the document or earlier in
// the same call) are skipped and reported.
func (c *Composer) AddRequirements(doc *domainscd.Document, ids []uuid.UUID, lookup catalog.Lookup) (*domainscd.Document, AddResult, error) {
	const op = "scd.add_requirements"
	res := AddResult{Skipped: []uuid.UUID{}}
	if doc == nil {
		return nil, res, invalid(op, "document is required")
	}
	out := doc.Copy()
	members := MembershipOf(out)
	for _, id := range ids {
		req, ok := lookup.Get(id)
		if !ok || !members.Claim(id) {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		origID := id
		out.Items = append(out.Items, domainscd.LineItem{
			ID:                    c.newID(),
			DocumentID:            out.ID,
			OriginalRequirementID: &origID,
			Snapshot:              domainscd.SnapshotOf(req),
		})
		res.Added++
	}
	recompact(out.Items)
	if res.Added > 0 {
		out.UpdatedAt = c.clock.Now()
	}
	return out, res, nil
}

// RemoveLineItem drops one item and closes the gap in the ordering.
func (c *Composer) RemoveLineItem(doc *domainscd.Document, itemID uuid.UUID) (*domainscd.Document, error) {
	const op = "scd.remove_line_item"
	if doc == nil {
		return nil, invalid(op, "document is required")
	}
	idx := indexOf(doc.Items, itemID)
	if idx < 0 {
		return nil, notFound(op, "line item %s not in document %s", itemID, doc.ID)
	}
	out := doc.Copy()
	out.Items = append(out.Items[:idx], out.Items[idx+1:]...)
	recompact(out.Items)
	out.UpdatedAt = c.clock.Now()
	return out, nil
}

// Reorder assigns order indices following order, which must be a
// permutation of the current item ids.
func (c *Composer) Reorder(doc *domainscd.Document, order []uuid.UUID) (*domainscd.Document, error) {
	const op = "scd.reorder"
	if doc == nil {
		return nil, invalid(op, "document is required")
	}
	if !isPermutation(doc.Items, order) {
		return nil, invalid(op, "order must list each of the %d line items exactly once", len(doc.Items))
	}
	out := doc.Copy()
	byID := make(map[uuid.UUID]domainscd.LineItem, len(out.Items))
	for _, it := range out.Items {
		byID[it.ID] = it
	}
	for i, id := range order {
		out.Items[i] = byID[id]
	}
	recompact(out.Items)
	out.UpdatedAt = c.clock.Now()
	return out, nil
}

// UpdateLineItemText sets or clears (nil or blank) the custom text override.
// Snapshot and order are left alone.
func (c *Composer) UpdateLineItemText(doc *domainscd.Document, itemID uuid.UUID, text *string) (*domainscd.Document, error) {
	const op = "scd.update_line_item_text"
	if doc == nil {
		return nil, invalid(op, "document is required")
	}
	idx := indexOf(doc.Items, itemID)
	if idx < 0 {
		return nil, notFound(op, "line item %s not in document %s", itemID, doc.ID)
	}
	out := doc.Copy()
	out.Items[idx].CustomText = normalizeText(text)
	out.UpdatedAt = c.clock.Now()
	return out, nil
}

// ReplaceAll validates a complete ordered item list and returns the
// document holding exactly that list. The list is rejected as a whole on
// the first invalid entry.
func (c *Composer) ReplaceAll(doc *domainscd.Document, specs []ItemSpec, lookup catalog.Lookup) (*domainscd.Document, error) {
	const op = "scd.replace_all"
	if doc == nil {
		return nil, invalid(op, "document is required")
	}
	existing := make(map[uuid.UUID]domainscd.LineItem, len(doc.Items))
	for _, it := range doc.Items {
		existing[it.ID] = it
	}
	usedItems := make(map[uuid.UUID]struct{}, len(specs))
	members := Membership{}
	items := make([]domainscd.LineItem, 0, len(specs))

	for pos, spec := range specs {
		var item domainscd.LineItem
		switch {
		case spec.ID != nil:
			prev, ok := existing[*spec.ID]
			if !ok {
				return nil, notFound(op, "item %d: line item %s not in document", pos, *spec.ID)
			}
			if _, dup := usedItems[prev.ID]; dup {
				return nil, invalid(op, "item %d: line item %s listed twice", pos, prev.ID)
			}
			if spec.OriginalRequirementID != nil && !sameID(spec.OriginalRequirementID, prev.OriginalRequirementID) {
				return nil, invalid(op, "item %d: requirement of an existing line item cannot change", pos)
			}
			usedItems[prev.ID] = struct{}{}
			item = prev.Copy()
			item.CustomText = normalizeText(spec.CustomText)
		case spec.OriginalRequirementID != nil:
			req, ok := lookup.Get(*spec.OriginalRequirementID)
			if !ok {
				return nil, notFound(op, "item %d: requirement %s not in catalog", pos, *spec.OriginalRequirementID)
			}
			origID := *spec.OriginalRequirementID
			item = domainscd.LineItem{
				ID:                    c.newID(),
				DocumentID:            doc.ID,
				OriginalRequirementID: &origID,
				CustomText:            normalizeText(spec.CustomText),
				Snapshot:              domainscd.SnapshotOf(req),
			}
		default:
			text := normalizeText(spec.CustomText)
			if text == nil {
				return nil, invalid(op, "item %d: needs an id, a requirement or custom text", pos)
			}
			item = domainscd.LineItem{ID: c.newID(), DocumentID: doc.ID, CustomText: text}
		}
		if item.OriginalRequirementID != nil && !members.Claim(*item.OriginalRequirementID) {
			return nil, invalid(op, "item %d: requirement %s listed twice", pos, *item.OriginalRequirementID)
		}
		items = append(items, item)
	}

	out := doc.Copy()
	out.Items = items
	recompact(out.Items)
	out.UpdatedAt = c.clock.Now()
	return out, nil
}

// Authorize allows reads and edits to the owner and shared identities, and
// deletes to the owner only.
func Authorize(doc *domainscd.Document, actor Actor, action Action) error {
	const op = "scd.authorize"
	if doc == nil {
		return notFound(op, "document not found")
	}
	if isOwner(doc, actor) {
		return nil
	}
	if action != ActionDelete && isShared(doc, actor) {
		return nil
	}
	return forbidden(op, "%s not permitted on document %s", action, doc.ID)
}

// CanSee reports whether actor may read doc.
func CanSee(doc *domainscd.Document, actor Actor) bool {
	return Authorize(doc, actor, ActionRead) == nil
}

func isOwner(doc *domainscd.Document, actor Actor) bool {
	if actor.ID != uuid.Nil && doc.OwnerID == actor.ID {
		return true
	}
	email := ctxutil.NormalizeEmail(actor.Email)
	return email != "" && email == ctxutil.NormalizeEmail(doc.OwnerEmail)
}

func isShared(doc *domainscd.Document, actor Actor) bool {
	email := ctxutil.NormalizeEmail(actor.Email)
	if email == "" {
		return false
	}
	for _, s := range doc.SharedWith {
		if ctxutil.NormalizeEmail(s) == email {
			return true
		}
	}
	return false
}

func normalizeShares(op, owner string, in []string) (datatypes.JSONSlice[string], error) {
	out := datatypes.JSONSlice[string]{}
	seen := map[string]struct{}{}
	for _, raw := range in {
		email := ctxutil.NormalizeEmail(raw)
		if email == "" || email == owner {
			continue
		}
		if !strings.Contains(email, "@") {
			return nil, invalid(op, "shared_with entry %q is not an email", raw)
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out, nil
}

func normalizeText(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

func indexOf(items []domainscd.LineItem, id uuid.UUID) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
