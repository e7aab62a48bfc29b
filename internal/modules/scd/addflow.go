package scd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/scd-backend/internal/domain/catalog"
	domainscd "github.com/yungbote/scd-backend/internal/domain/scd"
)

// AddState is a state of the add-requirements flow.
type AddState int

const (
	AddClosed AddState = iota
	AddLoading
	AddReady
	AddSubmitting
)

func (s AddState) String() string {
	switch s {
	case AddClosed:
		return "closed"
	case AddLoading:
		return "loading"
	case AddReady:
		return "ready"
	case AddSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("AddState(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid add flow transition")

// AddFlow drives picking catalog requirements for a document:
// Closed -> Loading -> Ready -> Submitting -> Closed, falling back to Ready
// with an error when submission fails. It is not safe for concurrent use.
type AddFlow struct {
	state      AddState
	err        error
	all        []*catalog.Requirement
	doc        *domainscd.Document
	criteria   Criteria
	candidates []*catalog.Requirement
	selected   map[uuid.UUID]struct{}
	picks      []uuid.UUID
}

func NewAddFlow() *AddFlow {
	return &AddFlow{state: AddClosed}
}

func (f *AddFlow) State() AddState { return f.state }

// Err is the last load or submit failure.
func (f *AddFlow) Err() error { return f.err }

func (f *AddFlow) Candidates() []*catalog.Requirement { return f.candidates }

func (f *AddFlow) Facets() catalog.Facets { return catalog.FacetsOf(f.excludePresent()) }

// Selected returns picked ids in the order they were picked.
func (f *AddFlow) Selected() []uuid.UUID {
	return append([]uuid.UUID(nil), f.picks...)
}

func (f *AddFlow) Open() error {
	if f.state != AddClosed {
		return f.bad("open")
	}
	f.state = AddLoading
	f.err = nil
	f.selected = map[uuid.UUID]struct{}{}
	f.picks = nil
	f.criteria = Criteria{}
	return nil
}

// Loaded supplies the fetched catalog and target document.
func (f *AddFlow) Loaded(reqs []*catalog.Requirement, doc *domainscd.Document) error {
	if f.state != AddLoading {
		return f.bad("loaded")
	}
	f.all = reqs
	f.doc = doc
	if err := f.refresh(); err != nil {
		return err
	}
	f.state = AddReady
	return nil
}

// Fail aborts a load.
func (f *AddFlow) Fail(err error) error {
	if f.state != AddLoading {
		return f.bad("fail")
	}
	f.err = err
	f.state = AddClosed
	return nil
}

func (f *AddFlow) SetCriteria(c Criteria) error {
	if f.state != AddReady {
		return f.bad("set criteria")
	}
	prev := f.criteria
	f.criteria = c
	if err := f.refresh(); err != nil {
		f.criteria = prev
		return err
	}
	return nil
}

// Toggle selects or deselects a visible candidate.
func (f *AddFlow) Toggle(id uuid.UUID) error {
	if f.state != AddReady {
		return f.bad("toggle")
	}
	if _, ok := f.selected[id]; ok {
		delete(f.selected, id)
		for i, p := range f.picks {
			if p == id {
				f.picks = append(f.picks[:i], f.picks[i+1:]...)
				break
			}
		}
		return nil
	}
	for _, c := range f.candidates {
		if c.ID == id {
			f.selected[id] = struct{}{}
			f.picks = append(f.picks, id)
			return nil
		}
	}
	return notFound("scd.add_flow", "requirement %s is not a candidate", id)
}

// Submit moves to Submitting and returns the ids to add.
func (f *AddFlow) Submit() ([]uuid.UUID, error) {
	if f.state != AddReady {
		return nil, f.bad("submit")
	}
	if len(f.picks) == 0 {
		return nil, invalid("scd.add_flow", "nothing selected")
	}
	f.state = AddSubmitting
	f.err = nil
	return f.Selected(), nil
}

func (f *AddFlow) Succeeded() error {
	if f.state != AddSubmitting {
		return f.bad("succeeded")
	}
	f.state = AddClosed
	f.selected = nil
	f.picks = nil
	return nil
}

// Failed returns to Ready keeping the selection so the user can retry.
func (f *AddFlow) Failed(err error) error {
	if f.state != AddSubmitting {
		return f.bad("failed")
	}
	f.err = err
	f.state = AddReady
	return nil
}

func (f *AddFlow) Close() error {
	if f.state != AddReady {
		return f.bad("close")
	}
	f.state = AddClosed
	f.selected = nil
	f.picks = nil
	return nil
}

func (f *AddFlow) refresh() error {
	out, err := AvailableCandidates(f.all, f.doc, f.criteria)
	if err != nil {
		return err
	}
	f.candidates = out
	return nil
}

func (f *AddFlow) excludePresent() []*catalog.Requirement {
	out, _ := AvailableCandidates(f.all, f.doc, Criteria{})
	return out
}

func (f *AddFlow) bad(event string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, f.state)
}
