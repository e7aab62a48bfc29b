package scd

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Tests inject a fixed one.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns UTC wall time.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// IDGen allocates identifiers for documents and line items.
type IDGen func() uuid.UUID

func defaultIDGen() uuid.UUID { return uuid.New() }
