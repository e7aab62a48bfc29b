package ctxutil

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData is the authenticated caller attached by the auth middleware.
type RequestData struct {
	UserID      uuid.UUID
	Email       string
	TokenString string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// NormalizeEmail is the canonical identity form used for ownership and sharing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
