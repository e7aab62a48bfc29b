package scd

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	domainscd "github.com/yungbote/scd-backend/internal/domain/scd"
	"github.com/yungbote/scd-backend/internal/platform/ctxutil"
)

// Cloner deep-copies documents into new identity graphs.
type Cloner struct {
	clock Clock
	newID IDGen
}

func NewCloner(clock Clock, newID IDGen) *Cloner {
	if clock == nil {
		clock = SystemClock
	}
	if newID == nil {
		newID = defaultIDGen
	}
	return &Cloner{clock: clock, newID: newID}
}

// Clone returns a copy of src owned by actor with fresh document and item
// ids. Sharing is not carried over. Snapshots are copied as they are; the
// catalog is not consulted.
func (c *Cloner) Clone(src *domainscd.Document, actor Actor) (*domainscd.Document, error) {
	const op = "scd.clone"
	if src == nil {
		return nil, notFound(op, "source document not found")
	}
	if actor.ID == uuid.Nil {
		return nil, invalid(op, "actor is required")
	}
	out := src.Copy()
	now := c.clock.Now()
	out.ID = c.newID()
	out.OwnerID = actor.ID
	out.OwnerEmail = ctxutil.NormalizeEmail(actor.Email)
	out.SharedWith = datatypes.JSONSlice[string]{}
	out.Version = 1
	out.CreatedAt = now
	out.UpdatedAt = now
	for i := range out.Items {
		out.Items[i].ID = c.newID()
		out.Items[i].DocumentID = out.ID
	}
	return out, nil
}
