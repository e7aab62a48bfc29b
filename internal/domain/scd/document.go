package scd

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/scd-backend/internal/domain/catalog"
)

// Document is a Success Criteria Document: a named, ordered, shareable
// selection of catalog requirements.
type Document struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string                      `gorm:"not null;column:name" json:"name"`
	Description *string                     `gorm:"type:text;column:description" json:"description,omitempty"`
	OwnerID     uuid.UUID                   `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	OwnerEmail  string                      `gorm:"not null;index;column:owner_email" json:"owner_email"`
	SharedWith  datatypes.JSONSlice[string] `gorm:"column:shared_with" json:"shared_with"`
	Version     int                         `gorm:"not null;default:1;column:version" json:"version"`
	CreatedAt   time.Time                   `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"not null;column:updated_at" json:"updated_at"`

	Items []LineItem `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Document) TableName() string { return "success_criteria_documents" }

// LineItem is one ordered entry of a document. Snapshot fields are copied
// from the catalog when the item is added and are never refreshed.
type LineItem struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID            uuid.UUID  `gorm:"type:uuid;not null;index;column:document_id" json:"document_id"`
	Order                 int        `gorm:"not null;column:item_order" json:"order"`
	OriginalRequirementID *uuid.UUID `gorm:"type:uuid;column:original_requirement_id" json:"original_requirement_id,omitempty"`
	CustomText            *string    `gorm:"type:text;column:custom_text" json:"custom_text,omitempty"`
	Snapshot              Snapshot   `gorm:"embedded;embeddedPrefix:snapshot_" json:"snapshot"`
}

func (LineItem) TableName() string { return "scd_line_items" }

// DisplayText is the custom override when set, otherwise the snapshot text.
func (li LineItem) DisplayText() string {
	if li.CustomText != nil && strings.TrimSpace(*li.CustomText) != "" {
		return *li.CustomText
	}
	return li.Snapshot.Requirement
}

// Snapshot is a value copy of a requirement's display fields. It is built by
// SnapshotOf and then only ever copied, never edited in place.
type Snapshot struct {
	Category    string  `gorm:"column:category" json:"category"`
	Requirement string  `gorm:"type:text;column:requirement" json:"requirement"`
	Product     string  `gorm:"column:product" json:"product"`
	DocLink     *string `gorm:"column:doc_link" json:"doc_link,omitempty"`
	TenantLink  *string `gorm:"column:tenant_link" json:"tenant_link,omitempty"`
}

// SnapshotOf captures the current display fields of r.
func SnapshotOf(r *catalog.Requirement) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		Category:    r.Category,
		Requirement: r.Requirement,
		Product:     r.Product,
		DocLink:     copyString(r.DocLink),
		TenantLink:  copyString(r.TenantLink),
	}
}

// Clone returns a deep copy so pointer fields are not shared.
func (s Snapshot) Clone() Snapshot {
	s.DocLink = copyString(s.DocLink)
	s.TenantLink = copyString(s.TenantLink)
	return s
}

// Equal compares by value, including pointed-to links.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Category == o.Category &&
		s.Requirement == o.Requirement &&
		s.Product == o.Product &&
		equalString(s.DocLink, o.DocLink) &&
		equalString(s.TenantLink, o.TenantLink)
}

// Summary is the list form of a document.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerEmail  string    `json:"owner_email"`
	SharedWith  []string  `json:"shared_with"`
	ItemCount   int       `json:"item_count"`
	Version     int       `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Document) Summary() *Summary {
	return &Summary{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		OwnerEmail:  d.OwnerEmail,
		SharedWith:  append([]string{}, d.SharedWith...),
		ItemCount:   len(d.Items),
		Version:     d.Version,
		UpdatedAt:   d.UpdatedAt,
	}
}

// SortItems orders items by (order, id), the canonical read order.
func (d *Document) SortItems() {
	sort.SliceStable(d.Items, func(i, j int) bool {
		a, b := d.Items[i], d.Items[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID.String() < b.ID.String()
	})
}

// Copy returns a deep copy of d. Item slices and pointer fields are not shared.
func (d *Document) Copy() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Description = copyString(d.Description)
	out.SharedWith = append(datatypes.JSONSlice[string]{}, d.SharedWith...)
	out.Items = make([]LineItem, len(d.Items))
	for i, it := range d.Items {
		out.Items[i] = it.Copy()
	}
	return &out
}

func (li LineItem) Copy() LineItem {
	if li.OriginalRequirementID != nil {
		id := *li.OriginalRequirementID
		li.OriginalRequirementID = &id
	}
	li.CustomText = copyString(li.CustomText)
	li.Snapshot = li.Snapshot.Clone()
	return li
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
