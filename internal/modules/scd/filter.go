package scd

import (
	"strings"
	"unicode/utf8"

	"github.com/yungbote/scd-backend/internal/domain/catalog"
	domainscd "github.com/yungbote/scd-backend/internal/domain/scd"
)

const maxCriteriaText = 512

// Criteria narrows candidate requirements. Empty fields do not constrain.
type Criteria struct {
	Categories []string `json:"categories,omitempty" form:"category"`
	Products   []string `json:"products,omitempty" form:"product"`
	Text       string   `json:"text,omitempty" form:"q"`
}

// Validate rejects malformed criteria.
func (c Criteria) Validate() error {
	const op = "scd.criteria"
	if utf8.RuneCountInString(c.Text) > maxCriteriaText {
		return invalid(op, "text filter longer than %d characters", maxCriteriaText)
	}
	for _, v := range c.Categories {
		if strings.TrimSpace(v) == "" {
			return invalid(op, "blank category filter")
		}
	}
	for _, v := range c.Products {
		if strings.TrimSpace(v) == "" {
			return invalid(op, "blank product filter")
		}
	}
	return nil
}

// AvailableCandidates returns the catalog entries not yet in doc that match
// every supplied criterion, in catalog order. Read-only and safe for
// concurrent use.
func AvailableCandidates(reqs []*catalog.Requirement, doc *domainscd.Document, c Criteria) ([]*catalog.Requirement, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	present := MembershipOf(doc)
	cats := tagSet(c.Categories)
	prods := tagSet(c.Products)
	needle := strings.ToLower(strings.TrimSpace(c.Text))

	out := make([]*catalog.Requirement, 0, len(reqs))
	for _, r := range reqs {
		if r == nil || present.Has(r.ID) {
			continue
		}
		if len(cats) > 0 && !cats[strings.TrimSpace(r.Category)] {
			continue
		}
		if len(prods) > 0 && !anyIn(r.Products(), prods) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Requirement), needle) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func tagSet(vals []string) map[string]bool {
	if len(vals) == 0 {
		return nil
	}
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		out[strings.TrimSpace(v)] = true
	}
	return out
}

func anyIn(tags []string, set map[string]bool) bool {
	for _, t := range tags {
		if set[t] {
			return true
		}
	}
	return false
}
