package scd

import (
	"fmt"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
)

func notFound(op, format string, args ...any) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf(format, args...), nil)
}

func invalid(op, format string, args ...any) error {
	return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf(format, args...), nil)
}

func forbidden(op, format string, args ...any) error {
	return domainagg.NewError(domainagg.CodeForbidden, op, fmt.Sprintf(format, args...), nil)
}
