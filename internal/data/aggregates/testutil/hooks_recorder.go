package testutil

import (
	"sync"

	"github.com/yungbote/scd-backend/internal/data/aggregates"
)

// HooksRecorder keeps every aggregate write event for assertions.
type HooksRecorder struct {
	mu     sync.Mutex
	events []aggregates.WriteEvent
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) AfterWrite(ev aggregates.WriteEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *HooksRecorder) Events() []aggregates.WriteEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]aggregates.WriteEvent(nil), h.events...)
}

// Count reports how many writes ended with outcome.
func (h *HooksRecorder) Count(outcome aggregates.Outcome) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.events {
		if ev.Outcome == outcome {
			n++
		}
	}
	return n
}
