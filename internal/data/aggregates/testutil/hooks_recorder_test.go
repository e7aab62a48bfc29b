package testutil

import (
	"sync"
	"testing"

	"github.com/yungbote/scd-backend/internal/data/aggregates"
)

func TestHooksRecorder_CountsByOutcome(t *testing.T) {
	h := &HooksRecorder{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome := aggregates.OutcomeCommitted
			if i%4 == 0 {
				outcome = aggregates.OutcomeConflict
			}
			h.AfterWrite(aggregates.WriteEvent{Op: "SCD.Document.ReplaceItems", Outcome: outcome})
		}(i)
	}
	wg.Wait()

	if got := len(h.Events()); got != 8 {
		t.Fatalf("events: want=8 got=%d", got)
	}
	if got := h.Count(aggregates.OutcomeConflict); got != 2 {
		t.Fatalf("conflicts: want=2 got=%d", got)
	}
	if got := h.Count(aggregates.OutcomeCommitted); got != 6 {
		t.Fatalf("committed: want=6 got=%d", got)
	}
}
