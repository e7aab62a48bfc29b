package catalog

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Requirement is a master catalog entry. Documents never reference it live;
// they copy its display fields into a snapshot at add time.
type Requirement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Category    string    `gorm:"not null;index;column:category" json:"category"`
	Requirement string    `gorm:"type:text;not null;column:requirement" json:"requirement"`
	Product     string    `gorm:"column:product" json:"product"`
	DocLink     *string   `gorm:"column:doc_link" json:"doc_link,omitempty"`
	TenantLink  *string   `gorm:"column:tenant_link" json:"tenant_link,omitempty"`

	CreatedBy string    `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy string    `gorm:"column:updated_by" json:"updated_by,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Requirement) TableName() string { return "requirements" }

// Products returns the normalized product tag set of the requirement.
func (r *Requirement) Products() []string {
	if r == nil {
		return nil
	}
	return ParseTags(r.Product)
}

var tagSep = regexp.MustCompile(`[,;]`)

// ParseTags splits a comma or semicolon delimited tag list into trimmed,
// non-empty, de-duplicated tags in first-seen order.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := tagSep.Split(raw, -1)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Lookup resolves catalog ids. Missing ids report ok=false.
type Lookup interface {
	Get(id uuid.UUID) (*Requirement, bool)
}

// Index is an in-memory Lookup over a catalog read.
type Index map[uuid.UUID]*Requirement

func NewIndex(reqs []*Requirement) Index {
	idx := make(Index, len(reqs))
	for _, r := range reqs {
		if r != nil {
			idx[r.ID] = r
		}
	}
	return idx
}

func (idx Index) Get(id uuid.UUID) (*Requirement, bool) {
	r, ok := idx[id]
	return r, ok
}

// Facets are the distinct filter values available in a catalog.
type Facets struct {
	Categories []string `json:"categories"`
	Products   []string `json:"products"`
}

func FacetsOf(reqs []*Requirement) Facets {
	cats := map[string]struct{}{}
	prods := map[string]struct{}{}
	for _, r := range reqs {
		if r == nil {
			continue
		}
		if c := strings.TrimSpace(r.Category); c != "" {
			cats[c] = struct{}{}
		}
		for _, p := range r.Products() {
			prods[p] = struct{}{}
		}
	}
	return Facets{Categories: sortedKeys(cats), Products: sortedKeys(prods)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
