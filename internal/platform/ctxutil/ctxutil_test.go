package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{UserID: id, Email: "a@b.c"})
	rd := GetRequestData(ctx)
	if rd == nil || rd.UserID != id {
		t.Fatalf("request data: want=%s got=%+v", id, rd)
	}
	if GetRequestData(context.Background()) != nil {
		t.Fatalf("empty ctx: want nil")
	}
}

func TestRequestIDFromTraceData(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	if got := RequestID(ctx); got != "r" {
		t.Fatalf("request id: want=r got=%q", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("missing: want empty got=%q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("normalize: got=%q", got)
	}
}
