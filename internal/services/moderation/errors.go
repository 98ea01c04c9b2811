package moderation

import (
	"fmt"
	"strings"
)

type FieldRejection struct {
	Field  string
	Reason string
}

// RejectedContentError aggregates every rejected field of a submission.
// Callers surface the whole list at once and apply none of the fields, so a
// user fixes everything in one round trip instead of discovering rejections
// one by one.
type RejectedContentError struct {
	Fields []FieldRejection
}

func (e *RejectedContentError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "content rejected"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field.Field, field.Reason))
	}
	return fmt.Sprintf("content rejected (%s)", strings.Join(parts, "; "))
}
