package aggregates

// Concurrency names how an aggregate arbitrates concurrent writers.
type Concurrency string

const (
	// ConcurrencyVersioned guards the root row with a version column. A write
	// may carry an expected version; without one it is last-write-wins.
	ConcurrencyVersioned Concurrency = "versioned"
	// ConcurrencyAtomicBatch applies a multi-row batch all-or-nothing.
	ConcurrencyAtomicBatch Concurrency = "atomic_batch"
)

// Contract is what an aggregate publishes about its write boundary.
type Contract struct {
	Name        string
	RootTable   string
	Concurrency Concurrency
	Notes       string
}

// Op names one write of the aggregate, e.g. "SCD.Document.ReplaceItems".
// The name is the label used in logs, spans and metrics.
func (c Contract) Op(method string) string { return c.Name + "." + method }

type Aggregate interface {
	Contract() Contract
}
